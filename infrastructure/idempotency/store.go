/*
Package idempotency remembers the outcome of requests that carried an
Idempotency-Key header, so that a retried checkout replays the first response
instead of placing a second order.
*/
package idempotency

import (
	"context"
	"errors"
	"time"
)

// KeyPrefix namespaces idempotency keys in the shared cache.
const KeyPrefix = "idempotent-key:"

// DefaultTTL how long a key is remembered.
const DefaultTTL = 24 * time.Hour

var ErrEmptyKey = errors.New("idempotency key is empty")

// State of a remembered key.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Entry is what is stored under a key.
type Entry struct {
	State       State  `json:"state"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Store is implemented by the redis and in-memory stores.
type Store interface {
	// Begin claims key. When the key was already claimed it returns the
	// existing entry and acquired=false.
	Begin(ctx context.Context, key string) (existing *Entry, acquired bool, err error)

	// Complete records the response of a claimed key.
	Complete(ctx context.Context, key string, entry Entry) error

	// Release forgets a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
