package ingress

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/tssctl/internal/telemetry"
)

// DCUPrompt returns the instruction that asks the crew to move one EVA1 DCU
// switch to want.
func DCUPrompt(field telemetry.DCUField, want bool) string {
	return fmt.Sprintf("Switch DCU %s to %s. ", field, dcuPosition(field, want))
}

func dcuPosition(field telemetry.DCUField, on bool) string {
	var yes, no string
	switch field {
	case telemetry.DCUBatt:
		yes, no = "umbilical", "local"
	case telemetry.DCUOxy, telemetry.DCUFan:
		yes, no = "primary", "secondary"
	case telemetry.DCUComm, telemetry.DCUCO2:
		yes, no = "A", "B"
	case telemetry.DCUPump:
		yes, no = "open", "closed"
	default:
		yes, no = "on", "off"
	}
	if on {
		return yes
	}
	return no
}

// Summary renders the human-readable TSS data summary for EVA1.
func Summary(st telemetry.State) string {
	var b strings.Builder
	t := st.Telemetry
	b.WriteString("TSS Data Summary:\n")
	fmt.Fprintf(&b, "\nEVA Time: %ss\n", formatNumber(t.EVATime))
	b.WriteString("\nEVA1:\n")
	fmt.Fprintf(&b, "Battery: %smin\n", formatNumber(t.EVA1.BattTimeLeft))
	fmt.Fprintf(&b, "O2 Primary: %spsi\n", formatNumber(t.EVA1.OxyPriStorage))
	fmt.Fprintf(&b, "O2 Secondary: %spsi\n", formatNumber(t.EVA1.OxySecStorage))
	fmt.Fprintf(&b, "Heart Rate: %sbpm\n", formatNumber(t.EVA1.HeartRate))
	fmt.Fprintf(&b, "Suit Pressure: %spsi\n", formatNumber(t.EVA1.SuitPressureTotal))
	fmt.Fprintf(&b, "Temperature: %s°F\n", formatNumber(t.EVA1.Temperature))

	dcu := st.DCU.EVA1
	b.WriteString("\nDCU Status:\n")
	fmt.Fprintf(&b, "Battery: %s\n", pick(dcu.Batt, "UMBILICAL", "LOCAL"))
	fmt.Fprintf(&b, "Oxygen: %s\n", pick(dcu.Oxy, "PRI", "SEC"))
	fmt.Fprintf(&b, "Comms: %s\n", pick(dcu.Comm, "A", "B"))
	fmt.Fprintf(&b, "Fan: %s\n", pick(dcu.Fan, "PRI", "SEC"))
	fmt.Fprintf(&b, "Pump: %s\n", pick(dcu.Pump, "OPEN", "CLOSED"))
	fmt.Fprintf(&b, "CO2: %s\n", pick(dcu.CO2, "A", "B"))
	return b.String()
}

func pick(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}

// formatNumber prints v in its shortest exact form: 100, 2.5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
