package shared

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(1_000)
	b := NewMoney(250)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1_250), sum.Amount())
	assert.Equal(t, int64(750), a.Subtract(b).Amount())
	assert.Equal(t, int64(-250), b.Subtract(NewMoney(500)).Amount())
	assert.Equal(t, b, a.Min(b))

	product, err := b.Multiply(3)
	require.NoError(t, err)
	assert.Equal(t, int64(750), product.Amount())
}

func TestMoneyOverflow(t *testing.T) {
	_, err := NewMoney(math.MaxInt64).Add(NewMoney(1))
	assert.ErrorIs(t, err, ErrMoneyOverflow)

	_, err = NewMoney(math.MaxInt64 / 2).Multiply(3)
	assert.ErrorIs(t, err, ErrMoneyOverflow)
}

func TestDomainErrorUnwrapsToSentinel(t *testing.T) {
	err := NewInvalidStateError("order", "order is already cancelled")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, "order is already cancelled", err.Error())

	var stacker Stacker
	require.True(t, errors.As(err, &stacker))
	assert.NotEmpty(t, stacker.Stack())
}

func TestUnavailableErrorKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewUnavailableError("database", cause)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
}

type evenSpec struct{}

func (evenSpec) IsSatisfiedBy(_ context.Context, n int) bool { return n%2 == 0 }

type positiveSpec struct{}

func (positiveSpec) IsSatisfiedBy(_ context.Context, n int) bool { return n > 0 }

func TestSpecificationComposition(t *testing.T) {
	ctx := context.Background()
	spec := And[int](evenSpec{}, nil, positiveSpec{})

	assert.True(t, spec.IsSatisfiedBy(ctx, 4))
	assert.False(t, spec.IsSatisfiedBy(ctx, -4))
	assert.False(t, spec.IsSatisfiedBy(ctx, 3))
	assert.True(t, Not[int](evenSpec{}).IsSatisfiedBy(ctx, 3))
	assert.Nil(t, And[int]())
}

func TestPageNormalize(t *testing.T) {
	p := Page{Number: 0, Size: 500}.Normalize()
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 100, p.Size)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 40, Page{Number: 3, Size: 20}.Offset())
}

func TestAfterCommit(t *testing.T) {
	var ran []string

	AfterCommit(context.Background(), func() { ran = append(ran, "no tx") })
	assert.Equal(t, []string{"no tx"}, ran)

	ctx, commit := WithCommitHooks(context.Background())
	AfterCommit(ctx, func() { ran = append(ran, "first") })
	AfterCommit(ctx, func() { ran = append(ran, "second") })
	assert.Len(t, ran, 1, "hooks wait for commit")

	commit()
	assert.Equal(t, []string{"no tx", "first", "second"}, ran)
	commit()
	assert.Len(t, ran, 3, "hooks run once")
}
