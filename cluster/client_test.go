package cluster

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// timeoutErr satisfies net.Error with Timeout() true, standing in for an
// expired read deadline.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type readEvent struct {
	data string
	err  error
}

// fakeConn serves a scripted sequence of read results and records writes.
// A non-nil writeErr makes every write fail.
type fakeConn struct {
	mu       sync.Mutex
	script   []readEvent
	writes   []string
	writeErr error
}

func (f *fakeConn) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.script) == 0 {
		return 0, io.EOF
	}
	ev := f.script[0]
	f.script = f.script[1:]
	if ev.err != nil {
		return 0, ev.err
	}
	n := copy(p, ev.data)
	return n, nil
}

func (f *fakeConn) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, strings.TrimRight(string(p), "\r\n"))
	return len(p), nil
}

func (f *fakeConn) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *fakeConn) Close() error                     { return nil }
func (f *fakeConn) LocalAddr() net.Addr              { return nil }
func (f *fakeConn) RemoteAddr() net.Addr             { return nil }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

// fakeClock advances a fixed step on every reading so idle thresholds and
// login windows elapse without real waiting.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

func testClient(endpoints []Endpoint) *Client {
	c := NewClient(endpoints, "ANALYZER")
	c.sleep = func(context.Context, time.Duration) bool { return true }
	return c
}

func TestLoginPromptAndConfirmation(t *testing.T) {
	conn := &fakeConn{script: []readEvent{
		{data: "Please enter your call:\n"},
		{data: "Hello ANALYZER, welcome to the node\n"},
	}}
	c := testClient([]Endpoint{{Host: "a", Port: 8000}})
	c.login(context.Background(), conn)

	if c.State() != StateActive {
		t.Fatalf("expected Active after success indicator, got %s", c.State())
	}
	sent := conn.sentLines()
	if len(sent) == 0 || sent[0] != "ANALYZER" {
		t.Fatalf("expected callsign sent in response to prompt, got %v", sent)
	}
}

func TestLoginOptimisticAfterSilentWindow(t *testing.T) {
	// Only timeouts: the window must elapse and the client proceed anyway.
	script := make([]readEvent, 0, 8)
	for i := 0; i < 8; i++ {
		script = append(script, readEvent{err: timeoutErr{}})
	}
	conn := &fakeConn{script: script}
	c := testClient([]Endpoint{{Host: "a", Port: 8000}})
	c.now = (&fakeClock{t: time.Unix(1700000000, 0), step: 10 * time.Second}).now
	c.consecutiveDisconnects = 4

	c.login(context.Background(), conn)
	if c.State() != StateActive {
		t.Fatalf("expected optimistic Active, got %s", c.State())
	}
	if c.consecutiveDisconnects != 4 {
		t.Fatalf("optimistic login must not clear the disconnect counter, got %d", c.consecutiveDisconnects)
	}
	// The callsign is still offered once even without a prompt.
	if sent := conn.sentLines(); len(sent) == 0 || sent[0] != "ANALYZER" {
		t.Fatalf("expected unsolicited callsign send, got %v", sent)
	}
}

func TestReadLoopExtractsSpotsAndCountsDisconnect(t *testing.T) {
	conn := &fakeConn{script: []readEvent{
		{data: "DX de ON4KST: 14205.0 JA1ABC CQ SSB 1200Z\r\n"},
		{data: "some banner chatter without a spot\r\n"},
		{err: io.EOF},
	}}
	c := testClient([]Endpoint{{Host: "a", Port: 8000}})
	c.readLoop(context.Background(), conn)

	select {
	case raw := <-c.Spots():
		if raw.DXCall != "JA1ABC" || raw.Frequency != 14205.0 {
			t.Fatalf("unexpected spot: %+v", raw)
		}
	default:
		t.Fatalf("expected one extracted spot")
	}
	if c.consecutiveDisconnects != 1 {
		t.Fatalf("expected disconnect counter 1, got %d", c.consecutiveDisconnects)
	}
	if c.State() != StateReconnecting {
		t.Fatalf("expected Reconnecting after EOF, got %s", c.State())
	}
}

func TestReadLoopSendsKeepaliveWhenIdle(t *testing.T) {
	script := []readEvent{
		{err: timeoutErr{}},
		{err: timeoutErr{}},
		{err: timeoutErr{}},
		{err: io.EOF},
	}
	conn := &fakeConn{script: script}
	c := testClient([]Endpoint{{Host: "a", Port: 8000}})
	// 50 s per clock reading: the 120 s idle threshold trips after a few
	// timeout polls.
	c.now = (&fakeClock{t: time.Unix(1700000000, 0), step: 50 * time.Second}).now
	c.readLoop(context.Background(), conn)

	if len(conn.sentLines()) == 0 {
		t.Fatalf("expected a keepalive command to be sent")
	}
}

func TestReadLoopKeepaliveFailureTriggersReconnect(t *testing.T) {
	script := []readEvent{
		{err: timeoutErr{}},
		{err: timeoutErr{}},
		{err: timeoutErr{}},
	}
	conn := &fakeConn{script: script, writeErr: errors.New("broken pipe")}
	c := testClient([]Endpoint{{Host: "a", Port: 8000}})
	c.now = (&fakeClock{t: time.Unix(1700000000, 0), step: 50 * time.Second}).now
	c.readLoop(context.Background(), conn)

	if c.State() != StateReconnecting {
		t.Fatalf("expected Reconnecting after keepalive send failure, got %s", c.State())
	}
	// The keepalive path never lands a disconnect on the failover counter.
	if c.consecutiveDisconnects != 0 {
		t.Fatalf("keepalive failure must not count as an empty-read disconnect, got %d",
			c.consecutiveDisconnects)
	}
}

func TestRunFailsOverToNextEndpointAfterThreshold(t *testing.T) {
	var mu sync.Mutex
	var dialed []string

	ctx, cancel := context.WithCancel(context.Background())
	c := testClient([]Endpoint{{Host: "alpha", Port: 8000}, {Host: "beta", Port: 8000}})
	c.dialer = func(addr string, _ time.Duration) (net.Conn, error) {
		mu.Lock()
		dialed = append(dialed, addr)
		n := len(dialed)
		mu.Unlock()
		if n > failoverThreshold+1 {
			cancel()
			return nil, context.Canceled
		}
		// Every session dies immediately: EOF during login (optimistic
		// Active) and EOF again in the read loop.
		return &fakeConn{}, nil
	}
	c.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(dialed) < failoverThreshold+1 {
		t.Fatalf("expected at least %d dials, got %d", failoverThreshold+1, len(dialed))
	}
	for i := 0; i < failoverThreshold; i++ {
		if dialed[i] != "alpha:8000" {
			t.Fatalf("dial %d: expected alpha, got %s", i, dialed[i])
		}
	}
	if dialed[failoverThreshold] != "beta:8000" {
		t.Fatalf("after %d consecutive disconnects the next dial must target beta, got %s",
			failoverThreshold, dialed[failoverThreshold])
	}
}

func TestPromoteMovesBackupToFront(t *testing.T) {
	c := testClient([]Endpoint{{Host: "a"}, {Host: "b"}, {Host: "c"}})
	c.promote(2)
	if c.Primary().Host != "c" || c.endpoints[1].Host != "a" || c.endpoints[2].Host != "b" {
		t.Fatalf("unexpected order after promote: %+v", c.endpoints)
	}
}
