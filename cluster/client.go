// Package cluster maintains a telnet connection to a ranked list of DX
// cluster endpoints: login handshake, keepalive, exponential-backoff
// reconnect, and failover to backup endpoints. Received lines are handed
// to the line extractor and emitted as raw spots. The client retries
// indefinitely until its context is cancelled; no network fault is fatal.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/ziutek/telnet"

	"dxanalyzer/extract"
	"dxanalyzer/spot"
)

// Endpoint is one cluster address in the ranked list.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, fmt.Sprintf("%d", e.Port))
}

// Dialer abstracts connection establishment so tests can inject a fake
// transport. Production dials through the telnet library, which strips
// IAC negotiation sequences from cluster feeds.
type Dialer func(addr string, timeout time.Duration) (net.Conn, error)

func telnetDialer(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := telnet.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Keyword sets for the login handshake. Matching is case-insensitive
// substring search, mirroring how loosely cluster software words its
// prompts.
var (
	loginPrompts      = []string{"enter your call", "login", "callsign", "user", "please enter", "identify"}
	successIndicators = []string{"welcome", "connected", "logged in", "hello", "spots for you", "commands"}
)

// keepaliveCommands are harmless requests rotated by wall clock so the
// cluster never sees identical repeated input. Empty entries send a bare
// line ending.
var keepaliveCommands = []string{"sh/dx", "sh/u", "", ""}

const (
	dialTimeout        = 10 * time.Second
	loginWindow        = 30 * time.Second
	pollInterval       = 1 * time.Second
	idleThreshold      = 120 * time.Second
	initialBackoff     = 1 * time.Second
	maxBackoff         = 300 * time.Second
	failoverThreshold  = 10
	spotChannelBuffer  = 100
	maxBufferedLine    = 4096
	keepaliveRotatePer = 30 // seconds per keepalive command slot
)

// Client is the stateful cluster feed reader.
type Client struct {
	endpoints []Endpoint // index 0 is the current primary
	callsign  string

	dialer Dialer
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) bool

	state   State
	onState func(State) // optional observer, used by tests and logging

	consecutiveDisconnects int
	backoff                time.Duration

	spots chan spot.Raw
}

// NewClient builds a client for the given ranked endpoint list. The first
// endpoint is the primary; a successful failover promotes the endpoint it
// landed on. callsign is the identity sent at login (the placeholder
// default is acceptable to clusters that take arbitrary identities).
func NewClient(endpoints []Endpoint, callsign string) *Client {
	return &Client{
		endpoints: append([]Endpoint(nil), endpoints...),
		callsign:  strings.ToUpper(strings.TrimSpace(callsign)),
		dialer:    telnetDialer,
		now:       time.Now,
		sleep:     sleepCtx,
		state:     StateDisconnected,
		backoff:   initialBackoff,
		spots:     make(chan spot.Raw, spotChannelBuffer),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Spots returns the channel of extracted raw spots.
func (c *Client) Spots() <-chan spot.Raw {
	return c.spots
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.state
}

// Primary returns the endpoint currently ranked first.
func (c *Client) Primary() Endpoint {
	return c.endpoints[0]
}

func (c *Client) setState(s State) {
	if c.state == s {
		return
	}
	log.Printf("Cluster: %s -> %s", c.state, s)
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// Run drives the connection state machine until ctx is cancelled. It
// never returns an error: every fault feeds back into reconnect or
// failover.
func (c *Client) Run(ctx context.Context) {
	defer close(c.spots)
	for ctx.Err() == nil {
		conn, ok := c.connect(ctx)
		if !ok {
			continue // backoff already applied, or ctx cancelled
		}
		c.login(ctx, conn)
		c.sendStartupCommands(conn)
		c.readLoop(ctx, conn)
		conn.Close()
	}
	c.setState(StateDisconnected)
}

// connect walks the ranked endpoint list starting at the primary. A
// success on a backup promotes it to primary for future reconnects in
// this run. Exhausting the list enters Failover and backs off before the
// next sweep.
func (c *Client) connect(ctx context.Context) (net.Conn, bool) {
	c.setState(StateConnecting)
	for i := range c.endpoints {
		if ctx.Err() != nil {
			return nil, false
		}
		candidate := c.endpoints[i]
		conn, err := c.dialer(candidate.Addr(), dialTimeout)
		if err != nil {
			log.Printf("Cluster: connect %s failed: %v", candidate.Addr(), err)
			continue
		}
		if i != 0 {
			c.promote(i)
			log.Printf("Cluster: using backup %s as new primary", candidate.Addr())
		}
		log.Printf("Cluster: connected to %s", candidate.Addr())
		return conn, true
	}

	c.setState(StateFailover)
	log.Printf("Cluster: all %d endpoints failed, retrying in %s", len(c.endpoints), c.backoff)
	if !c.sleep(ctx, c.backoff) {
		return nil, false
	}
	c.growBackoff()
	return nil, false
}

// promote moves endpoint i to the front of the ranked list.
func (c *Client) promote(i int) {
	promoted := c.endpoints[i]
	copy(c.endpoints[1:i+1], c.endpoints[:i])
	c.endpoints[0] = promoted
}

func (c *Client) growBackoff() {
	c.backoff *= 2
	if c.backoff > maxBackoff {
		c.backoff = maxBackoff
	}
}

func (c *Client) resetBackoff() {
	c.backoff = initialBackoff
}

// login reads lines for up to the login window, answering any prompt with
// the configured callsign. A success indicator enters Active immediately.
// If the window elapses silently the client proceeds to Active anyway:
// several clusters accept a call without any confirmation, so silence is
// treated as implicit success and logged as ambiguous.
func (c *Client) login(ctx context.Context, conn net.Conn) {
	c.setState(StateLoggingIn)
	reader := newLineReader(conn, maxBufferedLine)
	deadline := c.now().Add(loginWindow)
	sentCall := false

	for c.now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		line, err := reader.ReadLine(c.now().Add(pollInterval))
		if err != nil {
			if isTimeout(err) {
				// No prompt yet; some clusters never send one. Offer the
				// callsign once and keep listening.
				if !sentCall {
					c.send(conn, c.callsign)
					sentCall = true
				}
				continue
			}
			log.Printf("Cluster: login read error: %v", err)
			break
		}
		lower := strings.ToLower(line)
		if containsAny(lower, loginPrompts) && !containsAny(lower, successIndicators) {
			log.Printf("Cluster: login prompt detected, sending %s", c.callsign)
			c.send(conn, c.callsign)
			sentCall = true
			continue
		}
		if containsAny(lower, successIndicators) {
			log.Printf("Cluster: login confirmed")
			c.enterActive(true)
			return
		}
	}
	log.Printf("Cluster: no login confirmation within %s, continuing anyway", loginWindow)
	c.enterActive(false)
}

// enterActive transitions to Active. Only a confirmed login clears the
// consecutive-disconnect counter; the optimistic silence-as-success path
// must not, or a mute endpoint could never trip failover.
func (c *Client) enterActive(confirmed bool) {
	c.setState(StateActive)
	if confirmed {
		c.consecutiveDisconnects = 0
	}
	c.resetBackoff()
}

// sendStartupCommands enables skimmer spots and requests recent history.
// Both are best-effort; a send failure is logged and ignored.
func (c *Client) sendStartupCommands(conn net.Conn) {
	for _, cmd := range []string{"SET/SKIMMER", "sh/dx 100"} {
		if err := c.send(conn, cmd); err != nil {
			log.Printf("Cluster: failed to send %q: %v", cmd, err)
		}
	}
}

// readLoop polls the connection with short deadlines so cancellation,
// idle, and budget checks interleave cooperatively. Every received line
// resets the idle timer and is probed for a spot.
func (c *Client) readLoop(ctx context.Context, conn net.Conn) {
	reader := newLineReader(conn, maxBufferedLine)
	lastData := c.now()

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := reader.ReadLine(c.now().Add(pollInterval))
		switch {
		case err == nil:
			lastData = c.now()
			c.handleLine(line)
		case isTimeout(err):
			if c.now().Sub(lastData) > idleThreshold {
				log.Printf("Cluster: no data for %s, sending keepalive", idleThreshold)
				if kerr := c.sendKeepalive(conn); kerr != nil {
					log.Printf("Cluster: keepalive failed: %v", kerr)
					c.scheduleReconnect(ctx, false)
					return
				}
				lastData = c.now()
			}
		case errors.Is(err, io.EOF):
			c.consecutiveDisconnects++
			log.Printf("Cluster: connection closed by peer (consecutive disconnect %d/%d)",
				c.consecutiveDisconnects, failoverThreshold)
			c.scheduleReconnect(ctx, c.consecutiveDisconnects >= failoverThreshold)
			return
		default:
			log.Printf("Cluster: read error: %v", err)
			c.scheduleReconnect(ctx, false)
			return
		}
	}
}

// scheduleReconnect applies backoff and, when the disconnect counter has
// reached the threshold, rotates the primary out so the next connect
// sweep starts at a different endpoint.
func (c *Client) scheduleReconnect(ctx context.Context, forceFailover bool) {
	if forceFailover && len(c.endpoints) > 1 {
		c.setState(StateFailover)
		c.consecutiveDisconnects = 0
		// Demote the current primary to the back of the list; the next
		// connect sweep starts with the next-ranked endpoint.
		demoted := c.endpoints[0]
		copy(c.endpoints, c.endpoints[1:])
		c.endpoints[len(c.endpoints)-1] = demoted
		log.Printf("Cluster: %d consecutive disconnects, failing over to %s",
			failoverThreshold, c.endpoints[0].Addr())
		return
	}
	c.setState(StateReconnecting)
	log.Printf("Cluster: reconnecting in %s", c.backoff)
	if c.sleep(ctx, c.backoff) {
		c.growBackoff()
	}
}

func (c *Client) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	raw, ok := extract.ParseLine(line)
	if !ok {
		return
	}
	select {
	case c.spots <- raw:
	default:
		log.Println("Cluster: spot channel full, dropping spot")
	}
}

// sendKeepalive rotates through the harmless command set by wall clock so
// repeated keepalives differ.
func (c *Client) sendKeepalive(conn net.Conn) error {
	slot := int(c.now().Unix()/keepaliveRotatePer) % len(keepaliveCommands)
	return c.send(conn, keepaliveCommands[slot])
}

func (c *Client) send(conn net.Conn, line string) error {
	_, err := conn.Write([]byte(line + "\r\n"))
	return err
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
