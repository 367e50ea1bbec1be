package ingress

import (
	"sort"
	"sync"

	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// Switch names one highlightable control on the UIA panel.
type Switch string

const (
	SwitchEMU1Power   Switch = "emu1_power"
	SwitchEV1Supply   Switch = "ev1_supply"
	SwitchEV1Waste    Switch = "ev1_waste"
	SwitchEV2Supply   Switch = "ev2_supply"
	SwitchEV2Waste    Switch = "ev2_waste"
	SwitchEMU2Power   Switch = "emu2_power"
	SwitchEMU1Oxy     Switch = "emu1_oxy"
	SwitchEMU2Oxy     Switch = "emu2_oxy"
	SwitchO2Vent      Switch = "o2_vent"
	SwitchDepressPump Switch = "depress_pump"
)

const (
	completeText = "Ingress Complete!"
	o2EmptyPSI   = 10
	coolantEmpty = 5
)

// Result is what the validator reports after one evaluation.
type Result struct {
	Cursor     Cursor   `json:"cursor"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Highlights []Switch `json:"highlights"`
	Completed  []Cursor `json:"completed"`
	Complete   bool     `json:"complete"`
	Progress   int      `json:"progress"`
}

// Validator tracks substep completion against shared state. It is meant to
// be evaluated once per host tick with the current cursor.
//
// Substeps up to the cursor are checked in order and the first one whose
// condition does not hold stops evaluation. A completed substep stays
// completed until the cursor moves: moving resets every substep after the
// cursor, and moving backward also resets the current step up to and
// including the cursor.
type Validator struct {
	mu        sync.Mutex
	last      Cursor
	done      [][]bool
	highlight map[Switch]bool
	text      string
}

func NewValidator() *Validator {
	v := &Validator{last: Start}
	v.reset()
	return v
}

func (v *Validator) reset() {
	v.done = make([][]bool, len(procedure))
	for i, subs := range procedure {
		v.done[i] = make([]bool, len(subs))
	}
	v.highlight = make(map[Switch]bool)
	v.text = ""
}

// Reset clears all completion and returns the validator to the first substep.
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = Start
	v.reset()
}

// Evaluate checks st against the procedure at cursor. An invalid cursor
// leaves the validator unchanged.
func (v *Validator) Evaluate(cursor Cursor, st telemetry.State) Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !cursor.Valid() {
		log.Warn().Str("cursor", cursor.String()).Msg("ingress.Validator invalid cursor")
		return v.result(v.last)
	}
	if cursor != v.last {
		v.moveTo(cursor)
	}

	switch cursor.Step {
	case 1:
		v.step1(cursor.SubStep, st)
	case 2:
		v.step2(cursor.SubStep, st)
	case 3:
		v.step3(cursor.SubStep, st)
	case 4:
		v.step4(cursor.SubStep, st)
	}
	return v.result(cursor)
}

func (v *Validator) moveTo(cursor Cursor) {
	v.highlight = make(map[Switch]bool)

	for step := cursor.Step + 1; step <= len(v.done); step++ {
		for i := range v.done[step-1] {
			v.done[step-1][i] = false
		}
	}
	cur := v.done[cursor.Step-1]
	for i := cursor.SubStep; i < len(cur); i++ {
		cur[i] = false
	}
	if cursor.Before(v.last) {
		for i := 0; i < cursor.SubStep; i++ {
			cur[i] = false
		}
	}
	log.Debug().Str("from", v.last.String()).Str("to", cursor.String()).Msg("ingress.Validator cursor moved")
	v.last = cursor
}

// pending reports whether substep sub of step is still to be checked at the
// cursor's substep.
func (v *Validator) pending(step, sub, at int) bool {
	return !v.done[step-1][sub-1] && at >= sub
}

func (v *Validator) complete(step, sub int) {
	v.done[step-1][sub-1] = true
	log.Debug().Int("step", step).Int("substep", sub).Msg("ingress.Validator substep complete")
}

func (v *Validator) step1(at int, st telemetry.State) {
	if v.pending(1, 1, at) {
		v.text = "Connect EV-1 UIA and DCU umbilical."
		power := st.UIA.EVA1Power
		v.highlight[SwitchEMU1Power] = !power
		if !power {
			return
		}
		if !v.dcu(st, telemetry.DCUBatt, true) {
			return
		}
		v.complete(1, 1)
	}
	if v.pending(1, 2, at) {
		v.complete(1, 2)
	}
	if v.pending(1, 3, at) {
		v.complete(1, 3)
	}
}

func (v *Validator) step2(at int, st telemetry.State) {
	if v.pending(2, 1, at) {
		v.text = "Open O2 vent."
		vent := st.UIA.OxyVent
		v.highlight[SwitchO2Vent] = !vent
		if !vent {
			return
		}
		v.complete(2, 1)
	}
	if v.pending(2, 2, at) {
		eva1 := st.Telemetry.EVA1
		v.text = "eva1 primary: " + formatNumber(eva1.OxyPriStorage) + " secondary: " + formatNumber(eva1.OxySecStorage)
		if eva1.OxyPriStorage >= o2EmptyPSI || eva1.OxySecStorage >= o2EmptyPSI {
			return
		}
		v.complete(2, 2)
	}
	if v.pending(2, 3, at) {
		v.text = "Close O2 vent."
		vent := st.UIA.OxyVent
		v.highlight[SwitchO2Vent] = vent
		if vent {
			return
		}
		v.complete(2, 3)
	}
}

func (v *Validator) step3(at int, st telemetry.State) {
	if v.pending(3, 1, at) {
		if !v.dcu(st, telemetry.DCUPump, true) {
			return
		}
		v.complete(3, 1)
	}
	if v.pending(3, 2, at) {
		v.text = "Open EV-1 waste water."
		waste := st.UIA.EVA1WaterWaste
		v.highlight[SwitchEV1Waste] = !waste
		if !waste {
			return
		}
		v.complete(3, 2)
	}
	if v.pending(3, 3, at) {
		coolant := st.Telemetry.EVA1.CoolantML
		v.text = "Coolant: " + formatNumber(coolant) + "."
		if coolant > coolantEmpty {
			return
		}
		v.complete(3, 3)
	}
	if v.pending(3, 4, at) {
		v.text = "Close EV-1 waste water."
		waste := st.UIA.EVA1WaterWaste
		v.highlight[SwitchEV1Waste] = waste
		if waste {
			return
		}
		v.complete(3, 4)
	}
}

func (v *Validator) step4(at int, st telemetry.State) {
	if v.pending(4, 1, at) {
		v.text = "Toggle EV-1 EMU PWR off."
		power := st.UIA.EVA1Power
		v.highlight[SwitchEMU1Power] = power
		if power {
			return
		}
		v.complete(4, 1)
	}
	if v.pending(4, 2, at) {
		if !v.dcu(st, telemetry.DCUBatt, false) {
			return
		}
		v.complete(4, 2)
		v.text = completeText
	}
}

// dcu checks one EVA1 DCU switch and sets the prompt when it is wrong.
func (v *Validator) dcu(st telemetry.State, field telemetry.DCUField, want bool) bool {
	got := st.DCU.EVA1.Field(field)
	log.Debug().Str("field", field.String()).Bool("current", got).Bool("expected", want).Msg("ingress.Validator dcu check")
	if got != want {
		v.text = DCUPrompt(field, want)
		return false
	}
	return true
}

func (v *Validator) result(cursor Cursor) Result {
	res := Result{
		Cursor:     cursor,
		Title:      Title(cursor),
		Text:       v.text,
		Highlights: []Switch{},
		Completed:  []Cursor{},
		Complete:   v.done[len(v.done)-1][len(v.done[len(v.done)-1])-1],
		Progress:   Progress(cursor),
	}
	for sw, on := range v.highlight {
		if on {
			res.Highlights = append(res.Highlights, sw)
		}
	}
	sort.Slice(res.Highlights, func(i, j int) bool { return res.Highlights[i] < res.Highlights[j] })
	for i, subs := range v.done {
		for j, ok := range subs {
			if ok {
				res.Completed = append(res.Completed, Cursor{Step: i + 1, SubStep: j + 1})
			}
		}
	}
	return res
}
