package socket

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
)

func udpServer(t *testing.T) (string, <-chan string) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pc.Close() })

	lines := make(chan string, 16)
	go func() {
		buf := make([]byte, 2048)
		for {
			n, _, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			for _, l := range strings.Split(strings.TrimRight(string(buf[:n]), "\n"), "\n") {
				lines <- l
			}
		}
	}()
	return pc.LocalAddr().String(), lines
}

func tcpServer(t *testing.T) (string, <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	conns := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- conn
		}
	}()
	return ln.Addr().String(), conns
}

func connLines(t *testing.T, conn net.Conn, reply bool) <-chan string {
	t.Helper()
	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			if reply {
				conn.Write([]byte("+OK\n"))
			}
			lines <- sc.Text()
		}
		close(lines)
	}()
	return lines
}

func expectLine(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	select {
	case got, ok := <-lines:
		if !ok {
			t.Fatalf("connection closed while waiting for %q", want)
		}
		if got != want {
			t.Fatalf("received %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestUDPCommands(t *testing.T) {
	addr, lines := udpServer(t)
	c, err := Dial("udp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()
	btn := button.Address{Page: 1, Row: 2, Column: 3}

	if err := c.Press(ctx, btn); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "LOCATION 1/2/3 PRESS")

	style := button.Style{}.WithText("CAM 1").WithBackground("#00CC00")
	if err := c.SetStyle(ctx, btn, style); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "LOCATION 1/2/3 STYLE TEXT CAM 1")
	expectLine(t, lines, "LOCATION 1/2/3 STYLE BGCOLOR #00CC00")

	if err := c.SetCustomVariable(ctx, "scene", "intro"); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "CUSTOM-VARIABLE scene SET-VALUE intro")
}

func TestTCPCommands(t *testing.T) {
	addr, conns := tcpServer(t)
	c, err := Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()
	btn := button.Address{Page: 9, Row: 0, Column: 1}

	var conn net.Conn
	select {
	case conn = <-conns:
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}
	lines := connLines(t, conn, true)

	if err := c.Down(ctx, btn); err != nil {
		t.Fatal(err)
	}
	if err := c.Up(ctx, btn); err != nil {
		t.Fatal(err)
	}
	if err := c.RotateLeft(ctx, btn); err != nil {
		t.Fatal(err)
	}
	if err := c.RotateRight(ctx, btn); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "LOCATION 9/0/1 DOWN")
	expectLine(t, lines, "LOCATION 9/0/1 UP")
	expectLine(t, lines, "LOCATION 9/0/1 ROTATE-LEFT")
	expectLine(t, lines, "LOCATION 9/0/1 ROTATE-RIGHT")
}

func TestApplyStylesKeepsOrder(t *testing.T) {
	addr, lines := udpServer(t)
	c, err := Dial("udp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	updates := []animation.StyleUpdate{
		{Address: button.Address{Page: 1, Row: 0, Column: 0}, Style: button.Style{}.WithBackground("#111111")},
		{Address: button.Address{Page: 1, Row: 0, Column: 1}, Style: button.Style{}.WithBackground("#222222")},
	}
	if err := c.ApplyStyles(context.Background(), updates); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "LOCATION 1/0/0 STYLE BGCOLOR #111111")
	expectLine(t, lines, "LOCATION 1/0/1 STYLE BGCOLOR #222222")
}

func TestTCPReconnect(t *testing.T) {
	addr, conns := tcpServer(t)
	c, err := Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()
	btn := button.Address{Page: 1, Row: 0, Column: 0}

	first := <-conns
	firstLines := connLines(t, first, false)
	if err := c.Press(ctx, btn); err != nil {
		t.Fatal(err)
	}
	expectLine(t, firstLines, "LOCATION 1/0/0 PRESS")

	first.Close()

	var second net.Conn
	deadline := time.After(5 * time.Second)
	for second == nil {
		if err := c.Press(ctx, btn); err != nil {
			t.Fatal(err)
		}
		select {
		case second = <-conns:
		case <-deadline:
			t.Fatal("client never reconnected")
		case <-time.After(50 * time.Millisecond):
		}
	}

	secondLines := connLines(t, second, false)
	select {
	case got, ok := <-secondLines:
		if !ok {
			t.Fatal("second connection closed before any command arrived")
		}
		if !strings.HasPrefix(got, "LOCATION 1/0/0 PRESS") {
			t.Fatalf("unexpected command after reconnect: %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no command arrived on the new connection")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	addr, _ := tcpServer(t)
	c, err := Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Press(context.Background(), button.Address{Page: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("send after close returned %v, want ErrClosed", err)
	}
}

func TestDialValidation(t *testing.T) {
	if _, err := Dial("unix", "/tmp/sock"); err == nil {
		t.Error("unix network accepted")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	unused := ln.Addr().String()
	ln.Close()
	if _, err := Dial("tcp", unused, WithDialTimeout(500*time.Millisecond)); err == nil {
		t.Error("dial to a closed port succeeded")
	}
}

func TestStyleLines(t *testing.T) {
	addr := button.Address{Page: 2, Row: 1, Column: 4}
	style := button.Style{}.
		WithText("TAKE\nLIVE").
		WithBackground("#FF0000").
		WithTextColor("#FFFFFF").
		WithFontSize(18)

	got := styleLines(addr, style)
	want := []string{
		"LOCATION 2/1/4 STYLE TEXT TAKE\\nLIVE",
		"LOCATION 2/1/4 STYLE BGCOLOR #FF0000",
		"LOCATION 2/1/4 STYLE COLOR #FFFFFF",
		"LOCATION 2/1/4 STYLE SIZE 18",
	}
	if len(got) != len(want) {
		t.Fatalf("styleLines produced %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if lines := styleLines(addr, button.Style{}); len(lines) != 0 {
		t.Errorf("empty style produced %d lines", len(lines))
	}
}
