/*
Package productreturn Return requests raised against delivered order items.

A return moves pending → approved → completed, or to rejected from pending or
approved. Completed and rejected are terminal. Only completion puts stock
back; that side effect is orchestrated by the order workflow.
*/
package productreturn

import (
	"fmt"
	"strings"
	"time"

	"ecommerce/domain/shared"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted, StatusRejected},
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(s)); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ProductReturn 退货申请聚合根
type ProductReturn struct {
	shared.EventRecorder

	id          string
	orderID     string
	orderItemID string
	productID   string
	userID      string
	quantity    int
	reason      string
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

type NewParams struct {
	OrderID     string
	OrderItemID string
	ProductID   string
	UserID      string
	Quantity    int
	Reason      string
}

// New creates a pending return request. Ownership and order-state checks
// are done by the caller, which has the order at hand.
func New(p NewParams) (*ProductReturn, error) {
	if p.Quantity <= 0 {
		return nil, NewInvalidReturnRequestError("return quantity must be positive")
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return nil, NewInvalidReturnRequestError("return reason is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate return ID: %w", err)
	}
	now := time.Now()
	r := &ProductReturn{
		id:          id.String(),
		orderID:     p.OrderID,
		orderItemID: p.OrderItemID,
		productID:   p.ProductID,
		userID:      p.UserID,
		quantity:    p.Quantity,
		reason:      reason,
		status:      StatusPending,
		createdAt:   now,
		updatedAt:   now,
	}
	r.Record(newRequestedEvent(r))
	return r, nil
}

// CheckCanRequest decides whether a new return may be opened on an item,
// given the returns that already exist for it. A pending or approved request
// blocks until it is settled; a completed one blocks for good. Rejected
// requests do not block a fresh attempt.
func CheckCanRequest(existing []*ProductReturn) error {
	for _, r := range existing {
		switch r.status {
		case StatusPending, StatusApproved:
			return NewInvalidReturnRequestError("a return request for this item is already in progress")
		case StatusCompleted:
			return NewInvalidReturnRequestError("this item has already been returned")
		}
	}
	return nil
}

// TransitionTo moves the return to next and returns the previous status,
// which repositories use as the compare-and-swap guard.
func (r *ProductReturn) TransitionTo(next Status) (Status, error) {
	prev := r.status
	if !prev.CanTransitionTo(next) {
		return prev, NewInvalidTransitionError(prev, next)
	}
	r.status = next
	r.updatedAt = time.Now()
	r.Record(newStatusChangedEvent(r, prev))
	return prev, nil
}

// Cancel withdraws a pending request on behalf of the customer.
func (r *ProductReturn) Cancel() (Status, error) {
	if r.status != StatusPending {
		return r.status, NewInvalidTransitionError(r.status, StatusRejected)
	}
	return r.TransitionTo(StatusRejected)
}

// ============================================================================
// Reconstruction - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID          string
	OrderID     string
	OrderItemID string
	ProductID   string
	UserID      string
	Quantity    int
	Reason      string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *ProductReturn {
	return &ProductReturn{
		id:          dto.ID,
		orderID:     dto.OrderID,
		orderItemID: dto.OrderItemID,
		productID:   dto.ProductID,
		userID:      dto.UserID,
		quantity:    dto.Quantity,
		reason:      dto.Reason,
		status:      dto.Status,
		createdAt:   dto.CreatedAt,
		updatedAt:   dto.UpdatedAt,
	}
}

func (r *ProductReturn) ID() string           { return r.id }
func (r *ProductReturn) OrderID() string      { return r.orderID }
func (r *ProductReturn) OrderItemID() string  { return r.orderItemID }
func (r *ProductReturn) ProductID() string    { return r.productID }
func (r *ProductReturn) UserID() string       { return r.userID }
func (r *ProductReturn) Quantity() int        { return r.quantity }
func (r *ProductReturn) Reason() string       { return r.reason }
func (r *ProductReturn) Status() Status       { return r.status }
func (r *ProductReturn) CreatedAt() time.Time { return r.createdAt }
func (r *ProductReturn) UpdatedAt() time.Time { return r.updatedAt }

var _ shared.AggregateRoot = (*ProductReturn)(nil)
