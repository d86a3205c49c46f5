package shared

import (
	"errors"
	"math"
)

// ErrMoneyOverflow 金额运算溢出
var ErrMoneyOverflow = errors.New("money overflow")

// Money 值对象 - 以最小货币单位存储的金额，系统只有一种货币
type Money struct {
	amount int64
}

// NewMoney 创建新的Money值对象
func NewMoney(amount int64) Money {
	return Money{amount: amount}
}

// Zero 零金额
func Zero() Money { return Money{} }

func (m Money) Amount() int64 { return m.amount }

func (m Money) IsZero() bool { return m.amount == 0 }

func (m Money) IsNegative() bool { return m.amount < 0 }

// Add 金额相加
func (m Money) Add(other Money) (Money, error) {
	if (other.amount > 0 && m.amount > math.MaxInt64-other.amount) ||
		(other.amount < 0 && m.amount < math.MinInt64-other.amount) {
		return Money{}, ErrMoneyOverflow
	}
	return Money{amount: m.amount + other.amount}, nil
}

// Subtract 金额相减，允许结果为负，调用方自行决定下限
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount - other.amount}
}

// Multiply 乘以数量
func (m Money) Multiply(quantity int) (Money, error) {
	if quantity == 0 || m.amount == 0 {
		return Money{}, nil
	}
	q := int64(quantity)
	result := m.amount * q
	if result/q != m.amount {
		return Money{}, ErrMoneyOverflow
	}
	return Money{amount: result}, nil
}

// Min 取较小者
func (m Money) Min(other Money) Money {
	if other.amount < m.amount {
		return other
	}
	return m
}

func (m Money) IsGreaterThan(other Money) bool {
	return m.amount > other.amount
}

func (m Money) IsGreaterThanOrEqual(other Money) bool {
	return m.amount >= other.amount
}

func (m Money) Equals(other Money) bool {
	return m.amount == other.amount
}
