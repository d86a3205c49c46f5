package shared

import (
	"context"
)

// Specification encapsulates a query rule over entities of type T.
// IsSatisfiedBy is used for in-memory filtering; infrastructure translates
// known specifications into SQL.
type Specification[T any] interface {
	IsSatisfiedBy(ctx context.Context, entity T) bool
}

// AndSpecification represents the logical AND of two specifications
type AndSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	return spec.Left.IsSatisfiedBy(ctx, entity) && spec.Right.IsSatisfiedBy(ctx, entity)
}

// And combines specifications; nil entries are skipped.
func And[T any](specs ...Specification[T]) Specification[T] {
	var result Specification[T]
	for _, s := range specs {
		if s == nil {
			continue
		}
		if result == nil {
			result = s
			continue
		}
		result = AndSpecification[T]{Left: result, Right: s}
	}
	return result
}

// NotSpecification represents the logical NOT of a specification
type NotSpecification[T any] struct {
	Spec Specification[T]
}

func (spec NotSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, entity)
}

func Not[T any](inner Specification[T]) Specification[T] {
	return NotSpecification[T]{Spec: inner}
}

// Page 分页参数
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }
