// Package bridge exposes a controller over MQTT. It subscribes to
// command topics, translates JSON payloads into controller operations
// and runs animations on behalf of remote publishers.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cnf/structhash"
	"github.com/coreos/go-systemd/daemon"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/flokli/deckctl"
	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
	"github.com/flokli/deckctl/mqtt"
)

// commandTimeout bounds the controller call made for one message.
const commandTimeout = 5 * time.Second

// Service is the MQTT to controller bridge.
type Service struct {
	client      *deckctl.Client
	topicPrefix string
	presets     map[string]button.Style

	mqttClient pahomqtt.Client

	mu         sync.Mutex
	lastStyles map[string][]byte
	anims      map[string]*deckctl.AnimationHandle
}

// New builds a bridge for the given client. presets may be nil; named
// styles resolve against it first and the built-in table second.
func New(client *deckctl.Client, topicPrefix string, presets map[string]button.Style) *Service {
	return &Service{
		client:      client,
		topicPrefix: topicPrefix,
		presets:     presets,
		lastStyles:  make(map[string][]byte),
		anims:       make(map[string]*deckctl.AnimationHandle),
	}
}

// Run connects to the broker, subscribes the command topics and
// announces the bridge on the status topic. It returns once the
// subscriptions are in place; message handling runs on the MQTT
// client's callbacks until Close.
func (s *Service) Run(ctx context.Context, mqttServerURL string, clientID string) error {
	mqttClient, err := mqtt.Connect(mqttServerURL, clientID)
	if err != nil {
		log.Error("unable to connect to MQTT")
		return fmt.Errorf("unable to connect to mqtt: %w", err)
	}
	s.mqttClient = mqttClient

	log.WithFields(log.Fields{
		"topicPrefix": s.topicPrefix,
		"broker":      mqttServerURL,
	}).Info("bridge started")

	handlers := []struct {
		topic  string
		handle func(ctx context.Context, payload []byte) error
	}{
		{s.topicPrefix + "/press", s.handlePress},
		{s.topicPrefix + "/style/set", s.handleStyleSet},
		{s.topicPrefix + "/variable/set", s.handleVariableSet},
	}
	for _, h := range handlers {
		h := h
		err := mqtt.Subscribe(s.mqttClient, h.topic, 0, func(c pahomqtt.Client, m pahomqtt.Message) {
			l := log.WithFields(log.Fields{
				"message_id": m.MessageID(),
				"payload":    string(m.Payload()),
				"topic":      h.topic,
			})
			l.Debug("received message")

			if err := h.handle(ctx, m.Payload()); err != nil {
				l.WithError(err).Error("unable to handle command")
				return
			}
			daemon.SdNotify(false, "WATCHDOG=1")
		})
		if err != nil {
			return fmt.Errorf("unable to subscribe to %s: %w", h.topic, err)
		}
	}

	if err := mqtt.Publish(s.mqttClient, s.topicPrefix+"/status", 0, true, "online"); err != nil {
		log.WithError(err).Warn("unable to publish status")
	}

	daemon.SdNotify(false, daemon.SdNotifyReady)
	return nil
}

// Close stops the bridge's animations, marks it offline and drops the
// broker connection.
func (s *Service) Close() {
	s.client.StopAllAnimations()

	if s.mqttClient == nil {
		return
	}
	if err := mqtt.Publish(s.mqttClient, s.topicPrefix+"/status", 0, true, "offline"); err != nil {
		log.WithError(err).Warn("unable to publish offline status")
	}
	topics := []string{
		s.topicPrefix + "/press",
		s.topicPrefix + "/style/set",
		s.topicPrefix + "/variable/set",
	}
	if err := mqtt.Unsubscribe(s.mqttClient, topics); err != nil {
		log.WithError(err).Warn("unable to unsubscribe")
	}
	mqtt.Disconnect(s.mqttClient)
}

type pressCommand struct {
	Location string `json:"location"`
	Action   string `json:"action,omitempty"`
}

func (s *Service) handlePress(ctx context.Context, payload []byte) error {
	var cmd pressCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("unable to parse press payload: %w", err)
	}
	addr, err := button.ParseAddress(cmd.Location)
	if err != nil {
		return fmt.Errorf("invalid location %q: %w", cmd.Location, err)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch cmd.Action {
	case "", "press":
		return s.client.Press(ctx, addr)
	case "down":
		return s.client.Down(ctx, addr)
	case "up":
		return s.client.Up(ctx, addr)
	case "rotate-left":
		return s.client.RotateLeft(ctx, addr)
	case "rotate-right":
		return s.client.RotateRight(ctx, addr)
	default:
		return fmt.Errorf("unknown press action %q", cmd.Action)
	}
}

type styleCommand struct {
	Location string       `json:"location"`
	Preset   string       `json:"preset,omitempty"`
	Style    button.Style `json:"style,omitempty"`

	// Animate starts an animation instead of a one-shot style:
	// flash, fade or rainbow.
	Animate    string `json:"animate,omitempty"`
	Color      string `json:"color,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`
	Intervals  int    `json:"intervals,omitempty"`
	Loop       bool   `json:"loop,omitempty"`
}

func (s *Service) handleStyleSet(ctx context.Context, payload []byte) error {
	var cmd styleCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("unable to parse style payload: %w", err)
	}
	addr, err := button.ParseAddress(cmd.Location)
	if err != nil {
		return fmt.Errorf("invalid location %q: %w", cmd.Location, err)
	}

	style := cmd.Style
	if cmd.Preset != "" {
		preset, ok := s.preset(cmd.Preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", cmd.Preset)
		}
		style = preset.Merge(style)
	}

	// A new command for a button supersedes its running animation.
	s.stopAnimation(addr)

	if cmd.Animate != "" {
		return s.startAnimation(addr, style, &cmd)
	}

	if style.IsZero() {
		return fmt.Errorf("style command for %s sets no fields", addr)
	}

	// Drop repeats of the identical style for the same button.
	hash := structhash.Md5(style, 1)
	if s.sameAsLast(addr, hash) {
		log.WithField("button", addr.String()).Debug("style unchanged, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := s.client.SetStyle(ctx, addr, style); err != nil {
		return err
	}
	s.rememberStyle(addr, hash)
	return nil
}

func (s *Service) startAnimation(addr button.Address, base button.Style, cmd *styleCommand) error {
	d := time.Duration(cmd.DurationMs) * time.Millisecond
	chain := s.client.ButtonAt(addr).MergeStyle(base)

	var (
		handle *deckctl.AnimationHandle
		err    error
	)
	switch cmd.Animate {
	case "flash":
		handle, err = chain.Flash(animation.FlashOptions{
			Color:     cmd.Color,
			Intervals: cmd.Intervals,
			Duration:  d,
			Loop:      cmd.Loop,
		})
	case "fade":
		handle, err = chain.Fade(animation.FadeOptions{
			To:       cmd.Color,
			Duration: d,
			Loop:     cmd.Loop,
		})
	case "rainbow":
		handle, err = chain.HueRotate(animation.HueRotateOptions{
			Duration: d,
			Loop:     cmd.Loop,
		})
	default:
		return fmt.Errorf("unknown animation %q", cmd.Animate)
	}
	if err != nil {
		return fmt.Errorf("unable to start %s on %s: %w", cmd.Animate, addr, err)
	}

	s.mu.Lock()
	s.anims[addr.Key()] = handle
	delete(s.lastStyles, addr.Key())
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"button":  addr.String(),
		"animate": cmd.Animate,
		"loop":    cmd.Loop,
	}).Info("animation started")
	return nil
}

type variableCommand struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Service) handleVariableSet(ctx context.Context, payload []byte) error {
	var cmd variableCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("unable to parse variable payload: %w", err)
	}
	if cmd.Name == "" {
		return fmt.Errorf("variable command without a name")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return s.client.SetCustomVariable(ctx, cmd.Name, cmd.Value)
}

func (s *Service) preset(name string) (button.Style, bool) {
	if p, ok := s.presets[name]; ok {
		return p, true
	}
	return button.Preset(name)
}

// stopAnimation ends the animation running on addr, if any. The
// button's last known style goes stale with it, so the dedup entry is
// dropped too.
func (s *Service) stopAnimation(addr button.Address) {
	key := addr.Key()
	s.mu.Lock()
	handle, ok := s.anims[key]
	if ok {
		delete(s.anims, key)
		delete(s.lastStyles, key)
	}
	s.mu.Unlock()
	if ok {
		handle.Stop()
	}
}

func (s *Service) sameAsLast(addr button.Address, hash []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Equal(s.lastStyles[addr.Key()], hash)
}

func (s *Service) rememberStyle(addr button.Address, hash []byte) {
	s.mu.Lock()
	s.lastStyles[addr.Key()] = hash
	s.mu.Unlock()
}
