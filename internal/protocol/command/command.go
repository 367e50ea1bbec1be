// Package command owns the TSS command table and its dispatch into shared state.
//
// The table is the wire contract. Protocol evolution appends rows; existing
// rows never change meaning.
package command

import (
	"fmt"

	"github.com/danmuck/tssctl/internal/protocol/frame"
	"github.com/danmuck/tssctl/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// ID is a TSS command number. Inbound and outbound frames share ids.
type ID uint32

const (
	DCUBatt ID = 2
	DCUOxy  ID = 3
	DCUComm ID = 4
	DCUFan  ID = 5
	DCUPump ID = 6
	DCUCO2  ID = 7

	// Request is the id carried by the periodic outbound data request.
	Request = DCUBatt
)

type route struct {
	name  string
	suit  telemetry.Suit
	field telemetry.DCUField
}

var table = map[ID]route{
	DCUBatt: {name: "dcu.eva1.batt", suit: telemetry.EVA1, field: telemetry.DCUBatt},
	DCUOxy:  {name: "dcu.eva1.oxy", suit: telemetry.EVA1, field: telemetry.DCUOxy},
	DCUComm: {name: "dcu.eva1.comm", suit: telemetry.EVA1, field: telemetry.DCUComm},
	DCUFan:  {name: "dcu.eva1.fan", suit: telemetry.EVA1, field: telemetry.DCUFan},
	DCUPump: {name: "dcu.eva1.pump", suit: telemetry.EVA1, field: telemetry.DCUPump},
	DCUCO2:  {name: "dcu.eva1.co2", suit: telemetry.EVA1, field: telemetry.DCUCO2},
}

func (id ID) String() string {
	if r, ok := table[id]; ok {
		return r.name
	}
	return fmt.Sprintf("unknown(%d)", uint32(id))
}

// Known reports whether id has a row in the command table.
func Known(id uint32) bool {
	_, ok := table[ID(id)]
	return ok
}

// DCUWriter is the write side of the shared state the dispatcher needs.
type DCUWriter interface {
	SetDCUField(suit telemetry.Suit, f telemetry.DCUField, v bool) bool
}

type Dispatcher struct {
	state DCUWriter
}

func NewDispatcher(state DCUWriter) *Dispatcher {
	return &Dispatcher{state: state}
}

// Dispatch applies one command. Booleans are encoded as value > 0. Unknown ids
// are no-ops and report false.
func (d *Dispatcher) Dispatch(id uint32, value float32) bool {
	r, ok := table[ID(id)]
	if !ok {
		log.Debug().Uint32("command_id", id).Msg("command.Dispatcher ignore unknown")
		return false
	}
	on := value > 0
	if !d.state.SetDCUField(r.suit, r.field, on) {
		return false
	}
	log.Trace().Str("field", r.name).Bool("value", on).Msg("command.Dispatcher apply")
	return true
}

func (d *Dispatcher) DispatchFrame(f frame.Frame) bool {
	return d.Dispatch(f.CommandID, f.Value)
}
