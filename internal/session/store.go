// Package session holds the short-lived, per-client one-time-code state.
// Codes live outside the document store, keyed by an opaque session ID
// issued as a cookie, and expire with the store entry's TTL.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("no code stored for session")

// Code is the outstanding one-time code for a session. At most one per
// session; a newly issued code overwrites the prior one.
type Code struct {
	Code      string
	Email     string
	ExpiresAt time.Time
}

// Store abstracts the server-side session state. Implementations must
// provide per-key atomic consume so a code verifies at most once.
type Store interface {
	// Put stores the code for the session, replacing any prior one.
	Put(ctx context.Context, sid string, code Code, ttl time.Duration) error
	// Get returns the outstanding code, or ErrNotFound.
	Get(ctx context.Context, sid string) (Code, error)
	// Delete removes the outstanding code. Missing entries are a no-op.
	Delete(ctx context.Context, sid string) error
	// ConsumeIfMatch atomically deletes the code iff the stored email and
	// code equal the presented ones, and reports whether it did.
	ConsumeIfMatch(ctx context.Context, sid, email, code string) (bool, error)
}
