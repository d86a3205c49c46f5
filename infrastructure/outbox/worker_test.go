package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecommerce/domain/notification"
	infranotification "ecommerce/infrastructure/notification"
	"ecommerce/infrastructure/outbox"
	"ecommerce/infrastructure/persistence/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	failures  int
	published []outbox.Record
}

func (p *flakyPublisher) Publish(_ context.Context, record outbox.Record) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, record)
	return nil
}

type countingMetrics struct {
	published, failed int
}

func (m *countingMetrics) OutboxPublished(string) { m.published++ }
func (m *countingMetrics) OutboxFailed(string)    { m.failed++ }

func seed(t *testing.T, store *mocks.Store, n int) {
	t.Helper()
	notifier := infranotification.NewOutboxNotifier(mocks.NewOutboxRepository(store))
	for i := 0; i < n; i++ {
		require.NoError(t, notifier.NotifyAdminsAndStaff(context.Background(), notification.Message{
			Title:   "New order",
			Content: "order placed",
			Kind:    notification.KindOrderPlaced,
		}))
	}
}

func statuses(store *mocks.Store) []outbox.Status {
	var out []outbox.Status
	for _, r := range store.OutboxRecords() {
		out = append(out, r.Status)
	}
	return out
}

func TestProcessBatchPublishesPending(t *testing.T) {
	store := mocks.NewStore()
	seed(t, store, 3)
	pub := &flakyPublisher{}
	metrics := &countingMetrics{}

	w, err := outbox.NewWorker(mocks.NewOutboxRepository(store), pub, time.Second, 2, 3)
	require.NoError(t, err)
	w.WithMetrics(metrics)

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "batch size bounds one pass")

	n, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []outbox.Status{outbox.StatusPublished, outbox.StatusPublished, outbox.StatusPublished}, statuses(store))
	assert.Equal(t, 3, metrics.published)
	assert.Equal(t, "notification.staff", pub.published[0].EventType)
	assert.Equal(t, "notification", pub.published[0].Family())
}

func TestProcessBatchRetriesThenGivesUp(t *testing.T) {
	store := mocks.NewStore()
	seed(t, store, 1)
	pub := &flakyPublisher{failures: 5}
	metrics := &countingMetrics{}

	w, err := outbox.NewWorker(mocks.NewOutboxRepository(store), pub, time.Second, 10, 2)
	require.NoError(t, err)
	w.WithMetrics(metrics)

	_, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	rec := store.OutboxRecords()[0]
	assert.Equal(t, outbox.StatusPending, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)

	_, err = w.ProcessBatch(context.Background())
	require.NoError(t, err)
	rec = store.OutboxRecords()[0]
	assert.Equal(t, outbox.StatusFailed, rec.Status)
	assert.Equal(t, 2, rec.RetryCount)

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "failed records are not picked up again")
	assert.Equal(t, 2, metrics.failed)
}

func TestNewWorkerValidatesArguments(t *testing.T) {
	store := mocks.NewOutboxRepository(mocks.NewStore())
	pub := &outbox.LoggingPublisher{}

	_, err := outbox.NewWorker(nil, pub, time.Second, 1, 1)
	assert.Error(t, err)
	_, err = outbox.NewWorker(store, nil, time.Second, 1, 1)
	assert.Error(t, err)
	_, err = outbox.NewWorker(store, pub, 0, 1, 1)
	assert.Error(t, err)
	_, err = outbox.NewWorker(store, pub, time.Second, 0, 1)
	assert.Error(t, err)
	_, err = outbox.NewWorker(store, pub, time.Second, 1, 0)
	assert.Error(t, err)
}
