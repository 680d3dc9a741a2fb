package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/karlmutch/envflag"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flokli/deckctl"
	"github.com/flokli/deckctl/bridge"
	"github.com/flokli/deckctl/rest"
	"github.com/flokli/deckctl/socket"
)

var (
	configPath = flag.String("config", "/etc/deckctl/bridge.yaml", "Path to the bridge configuration file")
	clientID   = flag.String("client-id", "", "MQTT client id, derived from the machine id when empty")
	verbose    = flag.Bool("v", false, "Enable debug logging")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "deckctl-bridge relays MQTT commands to a button grid controller")
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

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := bridge.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("unable to load config")
		os.Exit(1)
	}

	id := *clientID
	if id == "" {
		machineID, err := GetMachineID()
		if err != nil {
			log.WithError(err).Error("unable to get machine id")
			os.Exit(1)
		}
		id = "deckctl-bridge-" + machineID
	}

	transport, err := newTransport(cfg.Controller)
	if err != nil {
		log.WithError(err).Error("unable to reach the controller")
		os.Exit(1)
	}

	client := deckctl.New(transport, deckctl.WithFrameRate(cfg.FrameRate))
	svc := bridge.New(client, cfg.TopicPrefix, cfg.Presets)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := svc.Run(gctx, cfg.Broker, id); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		return watchdog(gctx)
	})

	err = g.Wait()
	svc.Close()
	if cerr := client.Close(); cerr != nil {
		log.WithError(cerr).Warn("unable to close the controller connection")
	}
	if err != nil {
		log.WithError(err).Error("bridge failed")
		os.Exit(1)
	}
}

func newTransport(cfg bridge.ControllerConfig) (deckctl.Transport, error) {
	switch cfg.Protocol {
	case "http":
		return rest.New(cfg.Address)
	case "tcp", "udp":
		return socket.Dial(cfg.Protocol, cfg.Address)
	default:
		return nil, fmt.Errorf("unknown protocol %q", cfg.Protocol)
	}
}

// watchdog pets systemd on a timer. Message handling pets it as well,
// this keeps an idle bridge from being restarted.
func watchdog(ctx context.Context) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return err
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			daemon.SdNotify(false, "WATCHDOG=1")
		}
	}
}
