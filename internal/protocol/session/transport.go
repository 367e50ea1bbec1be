package session

import (
	"context"
	"time"
)

// MessageKind is the representation of one inbound socket message.
type MessageKind int

const (
	MessageBinary MessageKind = iota + 1
	MessageText
)

func (k MessageKind) String() string {
	switch k {
	case MessageBinary:
		return "binary"
	case MessageText:
		return "text"
	default:
		return "unknown"
	}
}

// Conn is one open TSS socket. ReadMessage blocks until a message arrives or
// the socket fails. Only one goroutine reads and only one writes.
type Conn interface {
	ReadMessage() (MessageKind, []byte, error)
	WriteMessage(data []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler creates one-shot timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
