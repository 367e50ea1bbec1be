package telemetry

// Suit selects one of the two tracked EVA suits.
type Suit int

const (
	EVA1 Suit = iota + 1
	EVA2
)

func (s Suit) String() string {
	switch s {
	case EVA1:
		return "eva1"
	case EVA2:
		return "eva2"
	default:
		return "unknown"
	}
}

// DCUField names one switch on a suit's Display and Control Unit.
type DCUField int

const (
	DCUBatt DCUField = iota + 1
	DCUOxy
	DCUComm
	DCUFan
	DCUPump
	DCUCO2
)

func (f DCUField) String() string {
	switch f {
	case DCUBatt:
		return "batt"
	case DCUOxy:
		return "oxy"
	case DCUComm:
		return "comm"
	case DCUFan:
		return "fan"
	case DCUPump:
		return "pump"
	case DCUCO2:
		return "co2"
	default:
		return "unknown"
	}
}

// DCU is one suit's switch panel.
//
//	batt: true=umbilical false=local
//	oxy:  true=primary   false=secondary
//	comm: true=A         false=B
//	fan:  true=primary   false=secondary
//	pump: true=open      false=closed
//	co2:  true=A         false=B
type DCU struct {
	Batt bool `json:"batt"`
	Oxy  bool `json:"oxy"`
	Comm bool `json:"comm"`
	Fan  bool `json:"fan"`
	Pump bool `json:"pump"`
	CO2  bool `json:"co2"`
}

func (d DCU) Field(f DCUField) bool {
	switch f {
	case DCUBatt:
		return d.Batt
	case DCUOxy:
		return d.Oxy
	case DCUComm:
		return d.Comm
	case DCUFan:
		return d.Fan
	case DCUPump:
		return d.Pump
	case DCUCO2:
		return d.CO2
	default:
		return false
	}
}

func (d *DCU) set(f DCUField, v bool) bool {
	switch f {
	case DCUBatt:
		d.Batt = v
	case DCUOxy:
		d.Oxy = v
	case DCUComm:
		d.Comm = v
	case DCUFan:
		d.Fan = v
	case DCUPump:
		d.Pump = v
	case DCUCO2:
		d.CO2 = v
	default:
		return false
	}
	return true
}

type DCUState struct {
	EVA1 DCU `json:"eva1"`
	EVA2 DCU `json:"eva2"`
}

func (s *DCUState) suit(suit Suit) *DCU {
	switch suit {
	case EVA1:
		return &s.EVA1
	case EVA2:
		return &s.EVA2
	default:
		return nil
	}
}

// SuitTelemetry holds one suit's numeric readings.
type SuitTelemetry struct {
	BattTimeLeft          float64 `json:"batt_time_left"`
	OxyPriStorage         float64 `json:"oxy_pri_storage"`
	OxySecStorage         float64 `json:"oxy_sec_storage"`
	OxyPriPressure        float64 `json:"oxy_pri_pressure"`
	OxySecPressure        float64 `json:"oxy_sec_pressure"`
	OxyTimeLeft           float64 `json:"oxy_time_left"`
	HeartRate             float64 `json:"heart_rate"`
	OxyConsumption        float64 `json:"oxy_consumption"`
	CO2Production         float64 `json:"co2_production"`
	SuitPressureOxy       float64 `json:"suit_pressure_oxy"`
	SuitPressureCO2       float64 `json:"suit_pressure_co2"`
	SuitPressureOther     float64 `json:"suit_pressure_other"`
	SuitPressureTotal     float64 `json:"suit_pressure_total"`
	FanPriRPM             float64 `json:"fan_pri_rpm"`
	FanSecRPM             float64 `json:"fan_sec_rpm"`
	HelmetPressureCO2     float64 `json:"helmet_pressure_co2"`
	ScrubberACO2Storage   float64 `json:"scrubber_a_co2_storage"`
	ScrubberBCO2Storage   float64 `json:"scrubber_b_co2_storage"`
	Temperature           float64 `json:"temperature"`
	CoolantML             float64 `json:"coolant_ml"`
	CoolantGasPressure    float64 `json:"coolant_gas_pressure"`
	CoolantLiquidPressure float64 `json:"coolant_liquid_pressure"`
}

type Telemetry struct {
	EVATime float64       `json:"eva_time"`
	EVA1    SuitTelemetry `json:"eva1"`
	EVA2    SuitTelemetry `json:"eva2"`
}

// UIA holds the Umbilical Interface Assembly switches.
type UIA struct {
	EVA1Power       bool `json:"eva1_power"`
	EVA1Oxy         bool `json:"eva1_oxy"`
	EVA1WaterSupply bool `json:"eva1_water_supply"`
	EVA1WaterWaste  bool `json:"eva1_water_waste"`
	EVA2Power       bool `json:"eva2_power"`
	EVA2Oxy         bool `json:"eva2_oxy"`
	EVA2WaterSupply bool `json:"eva2_water_supply"`
	EVA2WaterWaste  bool `json:"eva2_water_waste"`
	OxyVent         bool `json:"oxy_vent"`
	Depress         bool `json:"depress"`
}

// State is the full shared tree.
type State struct {
	Telemetry Telemetry `json:"telemetry"`
	DCU       DCUState  `json:"dcu"`
	UIA       UIA       `json:"uia"`
}

func DefaultSuitTelemetry() SuitTelemetry {
	return SuitTelemetry{
		BattTimeLeft:          100,
		OxyPriStorage:         100,
		OxySecStorage:         100,
		OxyPriPressure:        100,
		OxySecPressure:        100,
		OxyTimeLeft:           100,
		HeartRate:             80,
		OxyConsumption:        1,
		CO2Production:         1,
		SuitPressureOxy:       100,
		SuitPressureTotal:     100,
		FanPriRPM:             1000,
		Temperature:           70,
		CoolantML:             100,
		CoolantGasPressure:    100,
		CoolantLiquidPressure: 100,
	}
}

// DefaultState returns the startup tree: all switches off, nominal readings.
func DefaultState() State {
	return State{
		Telemetry: Telemetry{
			EVA1: DefaultSuitTelemetry(),
			EVA2: DefaultSuitTelemetry(),
		},
	}
}
