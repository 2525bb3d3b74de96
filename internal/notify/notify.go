// Package notify fans out change events to realtime subscribers.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Event types.
const (
	TypeAttendanceInserted = "attendance.inserted"
	TypeSessionSignedIn    = "session.signed_in"
	TypeSessionSignedOut   = "session.signed_out"
)

// ErrClosed is returned when publishing to or subscribing on a closed broker.
var ErrClosed = errors.New("broker closed")

// Event describes a change a subscriber may care about.
type Event struct {
	Type      string    `json:"type"`
	SchoolID  string    `json:"school_id,omitempty"`
	RecordID  string    `json:"record_id,omitempty"`
	StudentID string    `json:"student_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	At        time.Time `json:"at"`
}

// Filter selects events. Empty fields match anything.
type Filter struct {
	Type     string
	SchoolID string
	Status   string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Event) bool {
	if f.Type != "" && f.Type != e.Type {
		return false
	}
	if f.SchoolID != "" && f.SchoolID != e.SchoolID {
		return false
	}
	if f.Status != "" && f.Status != e.Status {
		return false
	}
	return true
}

// Broker is the abstraction over different backends.
type Broker interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, f Filter) (*Subscription, error)
	Close() error
}

// Subscription delivers matching events on C until Close is called or the
// subscribing context ends. C is closed when the subscription is released.
type Subscription struct {
	C <-chan Event

	once    sync.Once
	release func()

	mu   sync.Mutex
	stop func() bool
}

func newSubscription(ctx context.Context, c <-chan Event, release func()) *Subscription {
	s := &Subscription{C: c, release: release}
	stop := context.AfterFunc(ctx, s.Close)
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.release()
	})
}
