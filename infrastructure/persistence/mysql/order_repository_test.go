package mysql

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"ecommerce/domain/order"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/persistence/retry"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// dryRunDB builds statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "shop:secret@tcp(127.0.0.1:3306)/ecommerce?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestUpdateIfUnpaidIsOneGuardedStatement(t *testing.T) {
	paid := order.PaymentPaid
	committed := true
	txnID := "VNP-14226112"
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	stmt := updateIfUnpaid(dryRunDB(t), "o-1", order.Patch{
		PaymentStatus:  &paid,
		TransactionID:  &txnID,
		StockCommitted: &committed,
	}, now).Statement

	sql := stmt.SQL.String()
	assert.True(t, strings.HasPrefix(sql, "UPDATE `orders` SET "), sql)
	assert.Contains(t, sql, "`payment_status`=?")
	assert.Contains(t, sql, "`stock_committed`=?")
	assert.True(t, strings.HasSuffix(sql, "WHERE id = ? AND payment_status = ?"), sql)
	assert.NotContains(t, strings.ToUpper(sql), "SELECT")

	require.GreaterOrEqual(t, len(stmt.Vars), 2)
	assert.Equal(t, []any{"o-1", "unpaid"}, stmt.Vars[len(stmt.Vars)-2:])
	assert.Contains(t, stmt.Vars, "paid")
	assert.Contains(t, stmt.Vars, txnID)
}

func TestCommitFailureIsNotRetried(t *testing.T) {
	cfg := retry.DefaultConfig
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond

	runs := 0
	err := retry.ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) error {
		runs++
		return commitError(mysqlDriver.ErrInvalidConn)
	})

	assert.Equal(t, 1, runs)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.ErrorIs(t, err, retry.ErrCommitOutcomeUnknown)

	// begin failures happen before anything is sent and stay retryable
	runs = 0
	err = retry.ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) error {
		runs++
		if runs < 3 {
			return translateError("database", fmt.Errorf("failed to begin transaction: %w", mysqlDriver.ErrInvalidConn))
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, runs)
}
