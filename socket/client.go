// Package socket speaks the controller's line-based text protocol over
// TCP or UDP. Every operation becomes one newline-terminated command,
// for example "LOCATION 1/2/3 PRESS".
//
// TCP clients keep a persistent connection with a dedicated write
// goroutine and reconnect with doubling backoff when it drops. UDP
// clients send one datagram per command and have no connection state.
// The protocol is write only, command replies are drained and logged
// but never correlated with the call that caused them.
package socket

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
)

// ErrClosed is returned for sends on a closed client.
var ErrClosed = errors.New("socket client is closed")

const (
	defaultDialTimeout = 5 * time.Second
	defaultQueueSize   = 128

	reconnectDelay    = 250 * time.Millisecond
	reconnectDelayMax = 10 * time.Second
)

// Option adjusts a Client.
type Option func(*Client)

// WithDialTimeout bounds the initial dial and every reconnect attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithQueueSize sets the TCP send queue length. Sends block once the
// queue is full until the writer catches up or the context expires.
func WithQueueSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// Client sends text commands to the controller. It is safe for
// concurrent use.
type Client struct {
	network     string
	addr        string
	dialTimeout time.Duration
	queueSize   int

	sendCh  chan string
	closeCh chan struct{}
	closed  sync.Once
	wg      sync.WaitGroup

	mu   sync.Mutex
	conn net.Conn
}

var _ animation.StyleTransport = &Client{}

// Dial connects to the controller's text protocol at addr. network is
// "tcp" or "udp".
func Dial(network, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		network:     network,
		addr:        addr,
		dialTimeout: defaultDialTimeout,
		queueSize:   defaultQueueSize,
		closeCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch network {
	case "tcp", "udp":
	default:
		return nil, fmt.Errorf("unsupported network %q, want tcp or udp", network)
	}

	conn, err := net.DialTimeout(network, addr, c.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s over %s: %w", addr, network, err)
	}
	c.setConn(conn)

	if network == "tcp" {
		c.sendCh = make(chan string, c.queueSize)
		c.wg.Add(1)
		go c.writeLoop(conn)
		go c.readReplies(conn)
	}

	log.WithFields(log.Fields{
		"network": network,
		"addr":    addr,
	}).Debug("connected to controller")
	return c, nil
}

// Press pushes and releases the button at addr.
func (c *Client) Press(ctx context.Context, addr button.Address) error {
	return c.send(ctx, surfaceLine(addr, "PRESS"))
}

// Down pushes the button at addr without releasing it.
func (c *Client) Down(ctx context.Context, addr button.Address) error {
	return c.send(ctx, surfaceLine(addr, "DOWN"))
}

// Up releases the button at addr.
func (c *Client) Up(ctx context.Context, addr button.Address) error {
	return c.send(ctx, surfaceLine(addr, "UP"))
}

// RotateLeft turns the encoder at addr counterclockwise.
func (c *Client) RotateLeft(ctx context.Context, addr button.Address) error {
	return c.send(ctx, surfaceLine(addr, "ROTATE-LEFT"))
}

// RotateRight turns the encoder at addr clockwise.
func (c *Client) RotateRight(ctx context.Context, addr button.Address) error {
	return c.send(ctx, surfaceLine(addr, "ROTATE-RIGHT"))
}

// SetStyle applies the set fields of style to the button at addr, one
// STYLE command per field.
func (c *Client) SetStyle(ctx context.Context, addr button.Address, style button.Style) error {
	for _, line := range styleLines(addr, style) {
		if err := c.send(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

// SetCustomVariable assigns value to the named custom variable.
func (c *Client) SetCustomVariable(ctx context.Context, name, value string) error {
	return c.send(ctx, "CUSTOM-VARIABLE "+name+" SET-VALUE "+escape(value))
}

// ApplyStyles delivers an animation frame batch as consecutive STYLE
// commands.
func (c *Client) ApplyStyles(ctx context.Context, updates []animation.StyleUpdate) error {
	for _, u := range updates {
		if err := c.SetStyle(ctx, u.Address, u.Style); err != nil {
			return fmt.Errorf("unable to style button %s: %w", u.Address, err)
		}
	}
	return nil
}

// Close shuts the client down. It is safe to call more than once;
// queued but unsent commands are dropped.
func (c *Client) Close() error {
	c.closed.Do(func() {
		close(c.closeCh)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
	c.wg.Wait()
	return nil
}

func (c *Client) setConn(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) send(ctx context.Context, line string) error {
	if c.network == "udp" {
		select {
		case <-c.closeCh:
			return ErrClosed
		default:
		}
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("unable to send %q to %s: %w", line, c.addr, err)
		}
		return nil
	}

	select {
	case <-c.closeCh:
		return ErrClosed
	default:
	}
	select {
	case c.sendCh <- line:
		return nil
	case <-c.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeLoop drains the send queue onto the connection. A failed write
// closes the connection, redials with doubling backoff and then
// retries the same command on the fresh connection.
func (c *Client) writeLoop(conn net.Conn) {
	defer c.wg.Done()
	w := bufio.NewWriter(conn)
	for {
		select {
		case <-c.closeCh:
			return
		case line := <-c.sendCh:
			for {
				_, err := w.WriteString(line + "\n")
				if err == nil {
					err = w.Flush()
				}
				if err == nil {
					break
				}
				log.WithError(err).WithField("addr", c.addr).Warn("connection lost")
				conn.Close()
				conn = c.redial()
				if conn == nil {
					return
				}
				w = bufio.NewWriter(conn)
			}
		}
	}
}

// redial reconnects with doubling backoff until it succeeds or the
// client is closed, in which case it returns nil.
func (c *Client) redial() net.Conn {
	delay := reconnectDelay
	for {
		select {
		case <-c.closeCh:
			return nil
		case <-time.After(delay):
		}
		if delay *= 2; delay > reconnectDelayMax {
			delay = reconnectDelayMax
		}

		conn, err := net.DialTimeout(c.network, c.addr, c.dialTimeout)
		if err != nil {
			log.WithError(err).WithField("addr", c.addr).Warn("reconnect failed")
			continue
		}
		log.WithField("addr", c.addr).Info("reconnected to controller")
		c.setConn(conn)
		go c.readReplies(conn)
		return conn
	}
}

// readReplies drains reply lines for one connection's lifetime so the
// peer's send buffer never fills up. Rejections are logged, nothing
// else is done with them.
func (c *Client) readReplies(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		reply := sc.Text()
		if strings.HasPrefix(reply, "-") {
			log.WithFields(log.Fields{
				"addr":  c.addr,
				"reply": reply,
			}).Warn("controller rejected a command")
			continue
		}
		log.WithFields(log.Fields{
			"addr":  c.addr,
			"reply": reply,
		}).Debug("controller reply")
	}
}

func surfaceLine(addr button.Address, verb string) string {
	return "LOCATION " + addr.String() + " " + verb
}

func styleLines(addr button.Address, s button.Style) []string {
	prefix := "LOCATION " + addr.String() + " STYLE "
	var lines []string
	if s.Text != nil {
		lines = append(lines, prefix+"TEXT "+escape(*s.Text))
	}
	if s.BackgroundColor != nil {
		lines = append(lines, prefix+"BGCOLOR "+*s.BackgroundColor)
	}
	if s.TextColor != nil {
		lines = append(lines, prefix+"COLOR "+*s.TextColor)
	}
	if s.FontSize != nil {
		lines = append(lines, prefix+"SIZE "+strconv.Itoa(*s.FontSize))
	}
	return lines
}

// escape keeps user text from breaking the line framing.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "\\n")
}
