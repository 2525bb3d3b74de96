package scan

import (
	"errors"
	"sync"
)

// ErrNotScanning is returned when events arrive for a session whose scanning
// mode is off. The events are dropped.
var ErrNotScanning = errors.New("scanning mode is off")

// Sessions holds one tokenizer per scanning session (one per teacher).
// A session exists only while its scanning mode is on.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Tokenizer
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Tokenizer)}
}

// Enable starts, or restarts with an empty buffer, the session for owner.
func (s *Sessions) Enable(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[owner]
	if !ok {
		t = NewTokenizer()
		s.byID[owner] = t
	}
	t.Enable()
}

// Disable ends the session for owner. Calling it twice is harmless.
func (s *Sessions) Disable(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.byID[owner]; ok {
		t.Disable()
		delete(s.byID, owner)
	}
}

func (s *Sessions) Active(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[owner]
	return ok
}

// Feed runs events through owner's tokenizer and returns the tokens completed.
func (s *Sessions) Feed(owner string, events []InputEvent) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[owner]
	if !ok {
		return nil, ErrNotScanning
	}
	return t.FeedAll(events), nil
}
