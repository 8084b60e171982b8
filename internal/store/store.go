// Package store persists room snapshots with a time-to-live.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned for a missing or expired snapshot
var ErrNotFound = errors.New("snapshot not found")

// DefaultTTL is how long an untouched room survives
const DefaultTTL = 24 * time.Hour

// Store saves and loads opaque room snapshots keyed by room code.
type Store interface {
	Save(ctx context.Context, code string, snapshot []byte) error
	Load(ctx context.Context, code string) ([]byte, error)
	Delete(ctx context.Context, code string) error
	// List returns the codes of every unexpired snapshot.
	List(ctx context.Context) ([]string, error)
}

// Record is the stored envelope around a snapshot
type Record struct {
	Code      string          `json:"code"`
	SavedAt   time.Time       `json:"savedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// Expired reports whether the record is past its deadline at now
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func newRecord(code string, snapshot []byte, now time.Time, ttl time.Duration) Record {
	return Record{
		Code:      code,
		SavedAt:   now,
		ExpiresAt: now.Add(ttl),
		Snapshot:  append(json.RawMessage(nil), snapshot...),
	}
}
