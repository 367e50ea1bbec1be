package command

import (
	"math"
	"testing"

	"github.com/danmuck/tssctl/internal/protocol/frame"
	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/danmuck/tssctl/internal/testutil/testlog"
)

var mapping = []struct {
	id    ID
	field telemetry.DCUField
}{
	{DCUBatt, telemetry.DCUBatt},
	{DCUOxy, telemetry.DCUOxy},
	{DCUComm, telemetry.DCUComm},
	{DCUFan, telemetry.DCUFan},
	{DCUPump, telemetry.DCUPump},
	{DCUCO2, telemetry.DCUCO2},
}

func TestDispatchMapsEachCommandToOneField(t *testing.T) {
	testlog.Start(t)
	for _, m := range mapping {
		store := telemetry.NewStore()
		d := NewDispatcher(store)
		if !d.Dispatch(uint32(m.id), 1.0) {
			t.Fatalf("%s: expected dispatch accepted", m.id)
		}
		got := store.DCU(telemetry.EVA1)
		want := telemetry.DCU{}
		switch m.field {
		case telemetry.DCUBatt:
			want.Batt = true
		case telemetry.DCUOxy:
			want.Oxy = true
		case telemetry.DCUComm:
			want.Comm = true
		case telemetry.DCUFan:
			want.Fan = true
		case telemetry.DCUPump:
			want.Pump = true
		case telemetry.DCUCO2:
			want.CO2 = true
		}
		if got != want {
			t.Fatalf("%s: got=%+v want=%+v", m.id, got, want)
		}
		if store.DCU(telemetry.EVA2) != (telemetry.DCU{}) {
			t.Fatalf("%s: eva2 must never be written", m.id)
		}
	}
}

func TestDispatchNonPositiveIsFalse(t *testing.T) {
	testlog.Start(t)
	for _, m := range mapping {
		for _, v := range []float32{0.0, -1.0, float32(math.Copysign(0, -1))} {
			store := telemetry.NewStore()
			store.SetDCUField(telemetry.EVA1, m.field, true)
			NewDispatcher(store).Dispatch(uint32(m.id), v)
			if store.DCU(telemetry.EVA1).Field(m.field) {
				t.Fatalf("%s value=%v: expected false", m.id, v)
			}
		}
	}
}

func TestDispatchUnknownCommandIsNoop(t *testing.T) {
	testlog.Start(t)
	store := telemetry.NewStore()
	store.SetDCUField(telemetry.EVA1, telemetry.DCUFan, true)
	before := store.Snapshot()
	d := NewDispatcher(store)
	for _, id := range []uint32{0, 1, 8, 99, math.MaxUint32} {
		if d.Dispatch(id, 1.0) {
			t.Fatalf("id=%d: expected no-op", id)
		}
	}
	if store.Snapshot() != before {
		t.Fatalf("unknown commands mutated state")
	}
}

func TestDispatchFrame(t *testing.T) {
	testlog.Start(t)
	store := telemetry.NewStore()
	d := NewDispatcher(store)
	if !d.DispatchFrame(frame.Frame{Timestamp: 10, CommandID: 7, Value: 0.5}) {
		t.Fatalf("expected co2 dispatch")
	}
	if !store.DCU(telemetry.EVA1).CO2 {
		t.Fatalf("expected co2=true")
	}
}

func TestCommandNamesAndKnown(t *testing.T) {
	testlog.Start(t)
	if DCUPump.String() != "dcu.eva1.pump" {
		t.Fatalf("unexpected name: %s", DCUPump)
	}
	if ID(99).String() != "unknown(99)" {
		t.Fatalf("unexpected unknown name: %s", ID(99))
	}
	if !Known(2) || !Known(7) || Known(1) || Known(8) {
		t.Fatalf("known range mismatch")
	}
	if Request != 2 {
		t.Fatalf("request id must stay 2")
	}
}
