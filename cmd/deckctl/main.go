package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/karlmutch/envflag"
	log "github.com/sirupsen/logrus"

	"github.com/flokli/deckctl"
	"github.com/flokli/deckctl/button"
	"github.com/flokli/deckctl/rest"
	"github.com/flokli/deckctl/socket"
)

var (
	protocol  = flag.String("protocol", "http", "Controller protocol: http, tcp or udp")
	address   = flag.String("address", "http://localhost:8888", "Controller address, a base URL for http or host:port for tcp and udp")
	timeout   = flag.Duration("timeout", 10*time.Second, "Timeout for a single command")
	frameRate = flag.Int("fps", deckctl.DefaultFrameRate, "Animation frame rate, 1 to 60")
	verbose   = flag.Bool("v", false, "Enable debug logging")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options] <command> [arguments]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "deckctl sends commands to a button grid controller")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  press|down|up|rotate-left|rotate-right <page/row/column>")
	fmt.Fprintln(os.Stderr, "  style <page/row/column> [text=..] [bgcolor=..] [color=..] [size=..]")
	fmt.Fprintln(os.Stderr, "  preset <page/row/column> <name> [field=..]")
	fmt.Fprintln(os.Stderr, "  flash <page/row/column> [color=..] [from=..] [intervals=..] [duration=..] [loop=..]")
	fmt.Fprintln(os.Stderr, "  fade <page/row/column> [from=..] [color=..] [duration=..] [loop=..]")
	fmt.Fprintln(os.Stderr, "  rainbow <page/row/column> [duration=..] [loop=..]")
	fmt.Fprintln(os.Stderr, "  var <name> [value]")
	fmt.Fprintln(os.Stderr, "  script [file]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Presets: "+strings.Join(button.PresetNames(), ", "))
	fmt.Fprintln(os.Stderr, "Animations with loop=true run until interrupted.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options can also be set from environment variables, changing dashes '-' to underscores and using upper case.")
}

func init() {
	flag.Usage = usage
}

func main() {
	if !flag.Parsed() {
		envflag.Parse()
	}

	// Keep the output scriptable, only the command results go to
	// stdout unless verbose logging is asked for.
	if *verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := newClient(*protocol, *address)
	if err != nil {
		log.WithError(err).Error("unable to reach the controller")
		os.Exit(1)
	}

	err = run(ctx, client, args[0], args[1:])
	if cerr := client.Close(); cerr != nil {
		log.WithError(cerr).Warn("unable to close the connection")
	}
	if err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newClient(protocol, address string) (*deckctl.Client, error) {
	var (
		transport deckctl.Transport
		err       error
	)
	switch protocol {
	case "http":
		transport, err = rest.New(address)
	case "tcp", "udp":
		transport, err = socket.Dial(protocol, address)
	default:
		return nil, fmt.Errorf("unknown protocol %q, want http, tcp or udp", protocol)
	}
	if err != nil {
		return nil, err
	}
	return deckctl.New(transport, deckctl.WithFrameRate(*frameRate)), nil
}
