// Package simulator fabricates ingress telemetry without a TSS server. Each
// cursor move applies the effect of the substep being entered to the shared
// store, so the procedure validator sees the same state a crew would produce.
package simulator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/tssctl/internal/ingress"
	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// ErrNotSimulated is returned by hosts when a simulator control is used while
// the TSS source is active.
var ErrNotSimulated = errors.New("simulator: source is not simulated")

const (
	drainedO2PSI     = 5
	drainedCoolantML = 2
)

// Simulator owns every store field while the simulated source is active.
type Simulator struct {
	mu     sync.Mutex
	store  *telemetry.Store
	cursor ingress.Cursor
}

// New resets store to defaults and applies the first substep.
func New(store *telemetry.Store) *Simulator {
	s := &Simulator{store: store}
	s.Reset()
	return s
}

func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset()
	s.cursor = ingress.Start
	s.apply(s.cursor)
	log.Info().Str("cursor", s.cursor.String()).Msg("simulator.Simulator reset")
}

func (s *Simulator) Next() ingress.Cursor {
	return s.move(ingress.Next)
}

func (s *Simulator) Prev() ingress.Cursor {
	return s.move(ingress.Prev)
}

func (s *Simulator) move(step func(ingress.Cursor) ingress.Cursor) ingress.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.cursor
	s.cursor = step(s.cursor)
	log.Info().Str("from", from.String()).Str("to", s.cursor.String()).Msg("simulator.Simulator move")
	s.apply(s.cursor)
	return s.cursor
}

func (s *Simulator) Cursor() ingress.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Simulator) Progress() int {
	return ingress.Progress(s.Cursor())
}

// Status is the operator-facing line: substep title and progress.
func (s *Simulator) Status() string {
	c := s.Cursor()
	return fmt.Sprintf("%s\n\nProgress: %d%%", ingress.Title(c), ingress.Progress(c))
}

// apply writes the effect of entering c. Substeps without an effect leave the
// store untouched.
func (s *Simulator) apply(c ingress.Cursor) {
	s.store.Update(func(st *telemetry.State) {
		switch c {
		case ingress.Cursor{Step: 1, SubStep: 1}:
			st.UIA.EVA1Power = true
			st.DCU.EVA1.Batt = true
		case ingress.Cursor{Step: 2, SubStep: 1}:
			st.UIA.OxyVent = true
		case ingress.Cursor{Step: 2, SubStep: 2}:
			st.Telemetry.EVA1.OxyPriStorage = drainedO2PSI
			st.Telemetry.EVA1.OxySecStorage = drainedO2PSI
		case ingress.Cursor{Step: 2, SubStep: 3}:
			st.UIA.OxyVent = false
		case ingress.Cursor{Step: 3, SubStep: 1}:
			st.DCU.EVA1.Pump = true
		case ingress.Cursor{Step: 3, SubStep: 2}:
			st.UIA.EVA1WaterWaste = true
		case ingress.Cursor{Step: 3, SubStep: 3}:
			st.Telemetry.EVA1.CoolantML = drainedCoolantML
		case ingress.Cursor{Step: 3, SubStep: 4}:
			st.UIA.EVA1WaterWaste = false
		case ingress.Cursor{Step: 4, SubStep: 1}:
			st.UIA.EVA1Power = false
		case ingress.Cursor{Step: 4, SubStep: 2}:
			st.DCU.EVA1.Batt = false
		}
	})
}
