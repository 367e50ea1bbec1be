package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/tssctl/internal/observability"
	"github.com/danmuck/tssctl/internal/protocol/command"
	"github.com/danmuck/tssctl/internal/protocol/frame"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrDialerRequired     = errors.New("session: dialer required")
	ErrDispatcherRequired = errors.New("session: dispatcher required")
	ErrAlreadyStarted     = errors.New("session: client already started")
	ErrClientClosed       = errors.New("session: client closed")
)

const (
	eventBuffer = 64
	writeBuffer = 8
)

// Dispatcher applies one decoded frame to shared state.
type Dispatcher interface {
	DispatchFrame(f frame.Frame) bool
}

// Options carries the collaborators of a Client. Zero-valued optional fields
// use wall-clock time and real timers.
type Options struct {
	Config     Config
	Dialer     Dialer
	Dispatcher Dispatcher
	Scheduler  Scheduler
	Clock      func() time.Time
	OnStatus   func(state State, status string)
}

// Info is a point-in-time view of the client for status readers.
type Info struct {
	State         State  `json:"-"`
	StateName     string `json:"state"`
	Attempts      int    `json:"attempts"`
	MaxAttempts   int    `json:"max_attempts"`
	Status        string `json:"status"`
	URL           string `json:"url"`
	ConnID        string `json:"conn_id,omitempty"`
	FramesIn      uint64 `json:"frames_in"`
	FramesDropped uint64 `json:"frames_dropped"`
	RequestsSent  uint64 `json:"requests_sent"`
	TicksSkipped  uint64 `json:"ticks_skipped"`
}

// Client is the TSS protocol client. It runs an explicit state machine fed by
// socket events and host ticks on one goroutine (Run).
type Client struct {
	cfg        Config
	dialer     Dialer
	dispatcher Dispatcher
	scheduler  Scheduler
	now        func() time.Time
	onStatus   func(State, string)

	events  chan Event
	done    chan struct{}
	stopped sync.Once
	started atomic.Bool

	// spawn runs dial work off the loop goroutine.
	spawn func(func())

	// loop-owned
	ctx          context.Context
	state        State
	attempts     int
	gen          uint64
	conn         Conn
	out          chan []byte
	connID       string
	dialCancel   context.CancelFunc
	pendingTimer Timer
	pendingID    uint64
	nextTimerID  uint64

	framesIn      atomic.Uint64
	framesDropped atomic.Uint64
	requestsSent  atomic.Uint64
	ticksSkipped  atomic.Uint64

	mu     sync.RWMutex
	info   Info
	status string
}

func NewClient(opts Options) (*Client, error) {
	if opts.Dialer == nil {
		return nil, ErrDialerRequired
	}
	if opts.Dispatcher == nil {
		return nil, ErrDispatcherRequired
	}
	cfg := opts.Config.WithDefaults()
	if err := cfg.ValidateTransport(); err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		opts.Scheduler = wallScheduler{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	c := &Client{
		cfg:        cfg,
		dialer:     opts.Dialer,
		dispatcher: opts.Dispatcher,
		scheduler:  opts.Scheduler,
		now:        opts.Clock,
		onStatus:   opts.OnStatus,
		events:     make(chan Event, eventBuffer),
		done:       make(chan struct{}),
		spawn:      func(f func()) { go f() },
		ctx:        context.Background(),
		state:      StateDisconnected,
	}
	c.publish("Disconnected from TSS")
	return c, nil
}

// Run opens the connection and processes events until ctx is cancelled or
// Close is called. It returns ctx.Err() or ErrClientClosed.
func (c *Client) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	c.ctx = ctx
	c.handle(Event{Kind: EventStart})
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-c.done:
			c.shutdown()
			return ErrClientClosed
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Tick is the host scheduler hook: while connected, each tick sends exactly
// one data request. It never blocks; a tick that finds the event queue full
// is skipped.
func (c *Client) Tick() {
	select {
	case c.events <- Event{Kind: EventTick}:
	default:
		c.ticksSkipped.Add(1)
		log.Debug().Msg("session.Client tick skipped")
	}
}

// Close stops Run. It is safe to call more than once.
func (c *Client) Close() {
	c.stopped.Do(func() { close(c.done) })
}

func (c *Client) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info.State
}

func (c *Client) Info() Info {
	c.mu.RLock()
	info := c.info
	c.mu.RUnlock()
	info.FramesIn = c.framesIn.Load()
	info.FramesDropped = c.framesDropped.Load()
	info.RequestsSent = c.requestsSent.Load()
	info.TicksSkipped = c.ticksSkipped.Load()
	return info
}

// post delivers ev to the loop. It reports false once the client is closed.
func (c *Client) post(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) handle(ev Event) {
	switch ev.Kind {
	case EventStart:
		if c.state == StateDisconnected {
			c.connect()
		}
	case EventOpen:
		c.handleOpen(ev)
	case EventMessage:
		c.handleMessage(ev)
	case EventClose, EventError:
		c.handleDrop(ev)
	case EventTick:
		if c.state == StateConnected {
			c.sendRequest()
		}
	case EventRetry:
		c.handleRetry(ev)
	}
}

func (c *Client) connect() {
	c.gen++
	gen := c.gen
	url := c.cfg.URL
	log.Info().Str("url", url).Uint64("gen", gen).Msg("session.Client connect")

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.ConnectTimeout)
	c.dialCancel = cancel
	c.transition(StateConnecting, "Connecting to TSS...")

	c.spawn(func() {
		defer cancel()
		conn, err := c.dialer.Dial(ctx, url)
		if err != nil {
			c.post(Event{Kind: EventError, Gen: gen, Err: err})
			return
		}
		if !c.post(Event{Kind: EventOpen, Gen: gen, Conn: conn}) {
			_ = conn.Close()
		}
	})
}

func (c *Client) handleOpen(ev Event) {
	if ev.Gen != c.gen || c.state != StateConnecting {
		if ev.Conn != nil {
			_ = ev.Conn.Close()
		}
		return
	}
	c.dialCancel = nil
	c.conn = ev.Conn
	c.out = make(chan []byte, writeBuffer)
	c.connID = uuid.NewString()
	c.attempts = 0
	log.Info().Str("conn_id", c.connID).Str("url", c.cfg.URL).Msg("session.Client open")
	c.transition(StateConnected, "Connected to TSS")
	go c.readLoop(ev.Gen, ev.Conn)
	go c.writeLoop(ev.Conn, c.out)
	c.sendRequest()
}

func (c *Client) readLoop(gen uint64, conn Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			c.post(Event{Kind: EventClose, Gen: gen, Err: err})
			return
		}
		if !c.post(Event{Kind: EventMessage, Gen: gen, Message: kind, Data: data}) {
			return
		}
	}
}

// writeLoop owns socket writes for one connection. It exits when closeConn
// closes out.
func (c *Client) writeLoop(conn Conn, out <-chan []byte) {
	for payload := range out {
		if err := conn.WriteMessage(payload); err != nil {
			observability.RecordRequest(false)
			log.Warn().Err(err).Msg("session.Client send request")
			continue
		}
		c.requestsSent.Add(1)
		observability.RecordRequest(true)
	}
}

func (c *Client) handleMessage(ev Event) {
	if ev.Gen != c.gen || c.state != StateConnected {
		return
	}
	c.framesIn.Add(1)
	observability.RecordFrameReceived()

	if ev.Message != MessageBinary {
		c.drop("non_binary", fmt.Errorf("unexpected %s message (%d bytes)", ev.Message, len(ev.Data)))
		return
	}
	f, err := frame.Decode(ev.Data)
	if err != nil {
		c.drop("decode", err)
		return
	}
	applied := c.dispatcher.DispatchFrame(f)
	label := "unknown"
	if command.Known(f.CommandID) {
		label = command.ID(f.CommandID).String()
	}
	observability.RecordFrameDispatched(label, applied)
}

func (c *Client) drop(reason string, err error) {
	c.framesDropped.Add(1)
	observability.RecordFrameDropped(reason)
	log.Warn().Str("reason", reason).Err(err).Msg("session.Client drop message")
}

func (c *Client) handleDrop(ev Event) {
	if ev.Gen != c.gen {
		return
	}
	if c.state != StateConnecting && c.state != StateConnected {
		return
	}
	if ev.Kind == EventError {
		log.Warn().Err(ev.Err).Str("url", c.cfg.URL).Msg("session.Client socket error")
		c.setStatus("Connection error")
	} else {
		log.Warn().Err(ev.Err).Str("url", c.cfg.URL).Msg("session.Client socket closed")
		c.setStatus("Disconnected from TSS")
	}
	// only a failed dial counts; losing a live socket starts a fresh run
	if c.state == StateConnecting {
		c.attempts++
	}
	c.closeConn()

	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.cancelRetry()
		c.transition(StateFailed, "Max reconnection attempts reached")
		return
	}
	c.transition(StateReconnecting, fmt.Sprintf(
		"Reconnecting (Attempt %d/%d)...", c.attempts+1, c.cfg.MaxReconnectAttempts,
	))
	c.scheduleRetry()
}

// scheduleRetry replaces any pending retry with a new one-shot timer.
func (c *Client) scheduleRetry() {
	c.cancelRetry()
	c.nextTimerID++
	id := c.nextTimerID
	delay := RetryDelay(c.cfg.Backoff, c.attempts+1)
	c.pendingID = id
	c.pendingTimer = c.scheduler.AfterFunc(delay, func() {
		c.post(Event{Kind: EventRetry, TimerID: id})
	})
	observability.RecordReconnectAttempt()
	log.Info().Dur("delay", delay).Int("attempt", c.attempts+1).Msg("session.Client schedule retry")
}

func (c *Client) cancelRetry() {
	if c.pendingTimer != nil {
		c.pendingTimer.Stop()
	}
	c.pendingTimer = nil
	c.pendingID = 0
}

func (c *Client) handleRetry(ev Event) {
	if ev.TimerID == 0 || ev.TimerID != c.pendingID || c.state != StateReconnecting {
		return
	}
	c.pendingTimer = nil
	c.pendingID = 0
	c.connect()
}

// sendRequest queues one request frame for the writer, skipping it when the
// queue is full.
func (c *Client) sendRequest() {
	if c.state != StateConnected || c.out == nil {
		return
	}
	payload := frame.Encode(uint32(c.now().Unix()), uint32(command.Request), 0)
	select {
	case c.out <- payload:
	default:
		observability.RecordRequest(false)
		log.Warn().Str("conn_id", c.connID).Msg("session.Client request queue full")
	}
}

func (c *Client) closeConn() {
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	if c.out != nil {
		close(c.out)
		c.out = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connID = ""
	// invalidate anything the old socket still posts
	c.gen++
}

func (c *Client) shutdown() {
	c.Close()
	c.cancelRetry()
	c.closeConn()
	c.transition(StateDisconnected, "TSS client stopped")
}

func (c *Client) transition(next State, status string) {
	prev := c.state
	c.state = next
	observability.RecordSessionState(int(next), next.String())
	log.Info().
		Str("from", prev.String()).
		Str("to", next.String()).
		Int("attempts", c.attempts).
		Msg("session.Client transition")
	c.setStatus(status)
}

func (c *Client) setStatus(status string) {
	log.Info().Str("status", status).Msg("session.Client status")
	c.publish(status)
	if c.onStatus != nil {
		c.onStatus(c.state, status)
	}
}

func (c *Client) publish(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.info = Info{
		State:       c.state,
		StateName:   c.state.String(),
		Attempts:    c.attempts,
		MaxAttempts: c.cfg.MaxReconnectAttempts,
		Status:      status,
		URL:         c.cfg.URL,
		ConnID:      c.connID,
	}
}
