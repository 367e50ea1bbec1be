// Package ingress holds the airlock ingress procedure: the step table, cursor
// movement over it, and the validator that turns shared state into the next
// instruction and the panel switches to highlight.
package ingress

import (
	"fmt"
	"math"
)

// Cursor addresses one substep. Both fields are 1-based.
type Cursor struct {
	Step    int `json:"step"`
	SubStep int `json:"substep"`
}

// Start is the first substep of the procedure.
var Start = Cursor{Step: 1, SubStep: 1}

func (c Cursor) String() string {
	return fmt.Sprintf("%d.%d", c.Step, c.SubStep)
}

// Before reports whether c comes strictly earlier than o in procedure order.
func (c Cursor) Before(o Cursor) bool {
	if c.Step != o.Step {
		return c.Step < o.Step
	}
	return c.SubStep < o.SubStep
}

// Valid reports whether c names a substep in the procedure.
func (c Cursor) Valid() bool {
	return c.Step >= 1 && c.Step <= len(procedure) &&
		c.SubStep >= 1 && c.SubStep <= len(procedure[c.Step-1])
}

var procedure = [][]string{
	{
		"Step 1.1: Connect EV-1 UIA and DCU umbilical",
		"Step 1.2: EV-1 EMU Power ON",
		"Step 1.3: Set BATT to UMB",
	},
	{
		"Step 2.1: Open O2 vent",
		"Step 2.2: Waiting for O2 tanks to drop below 10psi...",
		"Step 2.3: Close O2 vent",
	},
	{
		"Step 3.1: Open DCU pump",
		"Step 3.2: Open EV-1 waste water",
		"Step 3.3: Waiting for coolant to drop below 5%...",
		"Step 3.4: Close EV-1 waste water",
	},
	{
		"Step 4.1: Toggle EV-1 EMU Power OFF",
		"Step 4.2: Disconnect UIA umbilical",
	},
}

// Steps returns the number of top-level steps.
func Steps() int {
	return len(procedure)
}

// SubSteps returns the number of substeps in step, or 0 when step is out of range.
func SubSteps(step int) int {
	if step < 1 || step > len(procedure) {
		return 0
	}
	return len(procedure[step-1])
}

// Title returns the display title of the substep at c.
func Title(c Cursor) string {
	if !c.Valid() {
		return ""
	}
	return procedure[c.Step-1][c.SubStep-1]
}

// Next advances one substep, rolling into the next step. The last substep
// is sticky.
func Next(c Cursor) Cursor {
	if c.SubStep < SubSteps(c.Step) {
		c.SubStep++
	} else if c.Step < Steps() {
		c.Step++
		c.SubStep = 1
	}
	return c
}

// Prev moves back one substep, landing on the last substep of the previous
// step when needed. The first substep is sticky.
func Prev(c Cursor) Cursor {
	if c.SubStep > 1 {
		c.SubStep--
	} else if c.Step > 1 {
		c.Step--
		c.SubStep = SubSteps(c.Step)
	}
	return c
}

// Progress returns the rounded share of substeps reached at c, current one
// included.
func Progress(c Cursor) int {
	total := 0
	for _, subs := range procedure {
		total += len(subs)
	}
	done := c.SubStep
	for s := 1; s < c.Step; s++ {
		done += SubSteps(s)
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
