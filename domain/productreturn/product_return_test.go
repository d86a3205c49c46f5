package productreturn

import (
	"testing"

	"ecommerce/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPending(t *testing.T) *ProductReturn {
	t.Helper()
	r, err := New(NewParams{
		OrderID: "o1", OrderItemID: "i1", ProductID: "p1", UserID: "u1",
		Quantity: 1, Reason: "damaged",
	})
	require.NoError(t, err)
	return r
}

func TestNewReturn(t *testing.T) {
	r := newPending(t)
	assert.Equal(t, StatusPending, r.Status())

	events := r.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "return.requested", events[0].EventName())
	assert.Empty(t, r.PullEvents())

	_, err := New(NewParams{Quantity: 0, Reason: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = New(NewParams{Quantity: 1, Reason: "   "})
	assert.ErrorIs(t, err, ErrInvalidReturnRequest)
}

func TestLifecycle(t *testing.T) {
	tests := []struct {
		name  string
		path  []Status
		final Status
		ok    bool
	}{
		{"approve then complete", []Status{StatusApproved, StatusCompleted}, StatusCompleted, true},
		{"reject pending", []Status{StatusRejected}, StatusRejected, true},
		{"reject approved", []Status{StatusApproved, StatusRejected}, StatusRejected, true},
		{"complete pending directly", []Status{StatusCompleted}, StatusPending, false},
		{"reopen rejected", []Status{StatusRejected, StatusPending}, StatusRejected, false},
		{"change completed", []Status{StatusApproved, StatusCompleted, StatusRejected}, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPending(t)
			var err error
			for _, next := range tt.path {
				if _, err = r.TransitionTo(next); err != nil {
					break
				}
			}
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidReturnTransition)
				assert.ErrorIs(t, err, shared.ErrInvalidState)
			}
			assert.Equal(t, tt.final, r.Status())
		})
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	r := newPending(t)
	prev, err := r.Cancel()
	require.NoError(t, err)
	assert.Equal(t, StatusPending, prev)
	assert.Equal(t, StatusRejected, r.Status())

	approved := newPending(t)
	_, err = approved.TransitionTo(StatusApproved)
	require.NoError(t, err)
	_, err = approved.Cancel()
	assert.ErrorIs(t, err, ErrInvalidReturnTransition)
	assert.Equal(t, StatusApproved, approved.Status())
}

func TestCheckCanRequest(t *testing.T) {
	rebuild := func(s Status) *ProductReturn {
		return RebuildFromDTO(ReconstructionDTO{ID: string(s), Status: s})
	}

	assert.NoError(t, CheckCanRequest(nil))
	assert.NoError(t, CheckCanRequest([]*ProductReturn{rebuild(StatusRejected)}))
	assert.ErrorIs(t, CheckCanRequest([]*ProductReturn{rebuild(StatusRejected), rebuild(StatusPending)}), ErrInvalidReturnRequest)
	assert.ErrorIs(t, CheckCanRequest([]*ProductReturn{rebuild(StatusCompleted)}), ErrInvalidReturnRequest)
	assert.ErrorIs(t, CheckCanRequest([]*ProductReturn{rebuild(StatusApproved)}), ErrInvalidReturnRequest)
}
