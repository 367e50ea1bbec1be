package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/tssctl/internal/protocol/command"
	"github.com/danmuck/tssctl/internal/telemetry"
)

var (
	errRefused    = errors.New("fake: connection refused")
	errConnClosed = errors.New("fake: connection closed")
)

var testNow = time.Unix(1700000000, 0)

type fakeMessage struct {
	kind MessageKind
	data []byte
	err  error
}

type fakeConn struct {
	in        chan fakeMessage
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	writes   [][]byte
	writeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan fakeMessage, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (MessageKind, []byte, error) {
	select {
	case m := <-c.in:
		if m.err != nil {
			return 0, nil, m.err
		}
		return m.kind, m.data, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.writes = append(c.writes, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer returns scripted results in order, then errRefused forever.
type fakeDialer struct {
	mu      sync.Mutex
	calls   int
	urls    []string
	results []dialResult
}

type dialResult struct {
	conn Conn
	err  error
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.urls = append(d.urls, url)
	if len(d.results) == 0 {
		return nil, errRefused
	}
	r := d.results[0]
	d.results = d.results[1:]
	return r.conn, r.err
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeScheduler records timers; tests fire them by hand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last(t *testing.T) *fakeTimer {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		t.Fatalf("no timer scheduled")
	}
	return s.timers[len(s.timers)-1]
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tm := range s.timers {
		if !tm.stopped {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fire runs a timer callback the way time.AfterFunc would, then marks it spent.
func (tm *fakeTimer) fire() {
	tm.stopped = true
	tm.fn()
}

type harness struct {
	client *Client
	dialer *fakeDialer
	sched  *fakeScheduler
	store  *telemetry.Store
}

func newHarness(t *testing.T, results ...dialResult) *harness {
	t.Helper()
	h := &harness{
		dialer: &fakeDialer{results: results},
		sched:  &fakeScheduler{},
		store:  telemetry.NewStore(),
	}
	c, err := NewClient(Options{
		Config:     DefaultConfig(),
		Dialer:     h.dialer,
		Dispatcher: command.NewDispatcher(h.store),
		Scheduler:  h.sched,
		Clock:      func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.spawn = func(f func()) { f() }
	t.Cleanup(c.Close)
	h.client = c
	return h
}

// step handles the next queued event on the test goroutine.
func (h *harness) step(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.client.events:
		h.client.handle(ev)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event (state=%s)", h.client.state)
		return Event{}
	}
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.client.handle(Event{Kind: EventStart})
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
