package session

// EventKind names one input to the state machine.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventOpen
	EventMessage
	EventClose
	EventError
	EventTick
	EventRetry
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	case EventTick:
		return "tick"
	case EventRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Event is one state-machine input. Gen ties socket events to the connection
// attempt that produced them; TimerID ties a retry to the timer that fired.
type Event struct {
	Kind    EventKind
	Gen     uint64
	TimerID uint64
	Conn    Conn
	Message MessageKind
	Data    []byte
	Err     error
}
