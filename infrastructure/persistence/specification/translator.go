package specification

import (
	"fmt"
	"strings"

	"ecommerce/domain/order"
	"ecommerce/domain/shared"

	"gorm.io/gorm"
)

// condition is one translated WHERE fragment.
type condition struct {
	sql  string
	args []any
}

// OrderTranslator converts order specifications into GORM scopes.
// Infrastructure knows the concrete specification types; the domain does not
// know about SQL.
type OrderTranslator struct{}

func NewOrderTranslator() *OrderTranslator {
	return &OrderTranslator{}
}

// Translate returns a scope applying spec. A nil spec yields a no-op scope;
// an unsupported specification is an error rather than a silently broader query.
func (t *OrderTranslator) Translate(spec shared.Specification[*order.Order]) (func(*gorm.DB) *gorm.DB, error) {
	if spec == nil {
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	}
	cond, err := t.translate(spec)
	if err != nil {
		return nil, err
	}
	return func(db *gorm.DB) *gorm.DB {
		if cond.sql == "" {
			return db
		}
		return db.Where(cond.sql, cond.args...)
	}, nil
}

func (t *OrderTranslator) translate(spec shared.Specification[*order.Order]) (condition, error) {
	switch s := spec.(type) {
	case shared.AndSpecification[*order.Order]:
		left, err := t.translate(s.Left)
		if err != nil {
			return condition{}, err
		}
		right, err := t.translate(s.Right)
		if err != nil {
			return condition{}, err
		}
		return joinAnd(left, right), nil
	case shared.NotSpecification[*order.Order]:
		inner, err := t.translate(s.Spec)
		if err != nil {
			return condition{}, err
		}
		if inner.sql == "" {
			return inner, nil
		}
		return condition{sql: "NOT (" + inner.sql + ")", args: inner.args}, nil
	case order.ByUserIDSpecification:
		return condition{sql: "user_id = ?", args: []any{s.UserID}}, nil
	case order.ByStatusSpecification:
		return condition{sql: "status = ?", args: []any{string(s.Status)}}, nil
	case order.ByPaymentStatusSpecification:
		return condition{sql: "payment_status = ?", args: []any{string(s.PaymentStatus)}}, nil
	case order.ByPaymentMethodSpecification:
		return condition{sql: "payment_method = ?", args: []any{string(s.PaymentMethod)}}, nil
	case order.ByDateRangeSpecification:
		var c condition
		if !s.Start.IsZero() {
			c = joinAnd(c, condition{sql: "created_at >= ?", args: []any{s.Start}})
		}
		if !s.End.IsZero() {
			c = joinAnd(c, condition{sql: "created_at <= ?", args: []any{s.End}})
		}
		return c, nil
	}
	return condition{}, fmt.Errorf("unsupported order specification %T", spec)
}

func joinAnd(conds ...condition) condition {
	nonEmpty := make([]condition, 0, len(conds))
	for _, c := range conds {
		if c.sql != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return condition{}
	case 1:
		return nonEmpty[0]
	}
	parts := make([]string, len(nonEmpty))
	var args []any
	for i, c := range nonEmpty {
		parts[i] = "(" + c.sql + ")"
		args = append(args, c.args...)
	}
	return condition{sql: strings.Join(parts, " AND "), args: args}
}
