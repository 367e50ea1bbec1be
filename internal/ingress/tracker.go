package ingress

import (
	"sync"

	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// CursorSource supplies the operator-controlled cursor, e.g. the simulator.
type CursorSource interface {
	Cursor() Cursor
}

// Tracker pairs a Validator with a cursor. With a CursorSource the cursor is
// read from it on every evaluation. Without one the tracker follows live
// state: once the substep under the cursor completes, the cursor advances.
type Tracker struct {
	validator *Validator
	source    CursorSource

	mu     sync.Mutex
	cursor Cursor
	latest Result
}

func NewTracker(v *Validator, source CursorSource) *Tracker {
	if v == nil {
		v = NewValidator()
	}
	t := &Tracker{validator: v, source: source, cursor: Start}
	t.latest = Result{Cursor: Start, Title: Title(Start), Progress: Progress(Start)}
	return t
}

// Follows reports whether the tracker advances the cursor itself.
func (t *Tracker) Follows() bool {
	return t.source == nil
}

// Evaluate checks st at the current cursor and stores the result.
func (t *Tracker) Evaluate(st telemetry.State) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.source != nil {
		t.cursor = t.source.Cursor()
	}
	res := t.validator.Evaluate(t.cursor, st)
	if t.source == nil && completed(res, t.cursor) {
		next := Next(t.cursor)
		if next != t.cursor {
			log.Info().Str("from", t.cursor.String()).Str("to", next.String()).Msg("ingress.Tracker advance")
			t.cursor = next
			res = t.validator.Evaluate(t.cursor, st)
		}
	}
	t.latest = res
	return res
}

// Latest returns the most recent evaluation without re-reading state.
func (t *Tracker) Latest() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

func completed(res Result, c Cursor) bool {
	for _, done := range res.Completed {
		if done == c {
			return true
		}
	}
	return false
}
