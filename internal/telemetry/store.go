package telemetry

import "sync"

// Store is the single process-wide holder of State.
//
// Writers touch one field per call except Update, which the simulator uses
// for its step effects. Readers get value copies and may observe values that
// are one frame stale; there is no change notification.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: DefaultState()}
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) DCU(suit Suit) DCU {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state.DCU
	if d := st.suit(suit); d != nil {
		return *d
	}
	return DCU{}
}

// SetDCUField overwrites one switch. It reports false for an unknown suit or field.
func (s *Store) SetDCUField(suit Suit, f DCUField, v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.state.DCU.suit(suit)
	if d == nil {
		return false
	}
	return d.set(f, v)
}

func (s *Store) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = DefaultState()
}
