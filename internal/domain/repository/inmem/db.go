// Package inmem keeps the archive tables in process memory. It mirrors the
// Postgres repositories closely enough to run the server without a database
// and to back handler and service tests.
package inmem

import (
	"sync"
	"time"

	"paperarchive/internal/domain/model"
)

type DB struct {
	mu sync.RWMutex

	categories    map[string]*model.Category
	papers        map[string]*model.Paper
	notifications map[string]*model.Notification
	users         map[string]*model.User
	roles         map[string]map[string]struct{}

	now      func() time.Time
	lastTick time.Time
}

func Open() *DB {
	return &DB{
		categories:    make(map[string]*model.Category),
		papers:        make(map[string]*model.Paper),
		notifications: make(map[string]*model.Notification),
		users:         make(map[string]*model.User),
		roles:         make(map[string]map[string]struct{}),
		now:           time.Now,
	}
}

// tick returns a strictly increasing timestamp at Postgres precision, so that
// two writes in a row never share an updated_at. Callers hold db.mu.
func (db *DB) tick() time.Time {
	t := db.now().UTC().Truncate(time.Microsecond)
	if !t.After(db.lastTick) {
		t = db.lastTick.Add(time.Microsecond)
	}
	db.lastTick = t
	return t
}

// stale reports whether an optional precondition no longer matches the row.
func stale(pre model.Precondition, updatedAt time.Time) bool {
	return pre.ExpectedUpdatedAt != nil && !pre.ExpectedUpdatedAt.Equal(updatedAt)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
