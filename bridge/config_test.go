package bridge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
broker: tcp://mqtt.example.com:1883
topic_prefix: studio/deck
frame_rate: 25
controller:
  protocol: tcp
  address: 10.0.0.5:10001
presets:
  live:
    text: LIVE
    bgcolor: "#CC0000"
    color: "#FFFFFF"
  standby:
    bgcolor: "#333333"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Broker != "tcp://mqtt.example.com:1883" {
		t.Errorf("Broker = %q", cfg.Broker)
	}
	if cfg.TopicPrefix != "studio/deck" {
		t.Errorf("TopicPrefix = %q", cfg.TopicPrefix)
	}
	if cfg.FrameRate != 25 {
		t.Errorf("FrameRate = %d", cfg.FrameRate)
	}
	if cfg.Controller.Protocol != "tcp" || cfg.Controller.Address != "10.0.0.5:10001" {
		t.Errorf("Controller = %+v", cfg.Controller)
	}

	live, ok := cfg.Presets["live"]
	if !ok {
		t.Fatal("preset live missing")
	}
	if *live.Text != "LIVE" || *live.BackgroundColor != "#CC0000" || *live.TextColor != "#FFFFFF" {
		t.Errorf("preset live = %+v", live)
	}
	standby, ok := cfg.Presets["standby"]
	if !ok {
		t.Fatal("preset standby missing")
	}
	if standby.Text != nil || *standby.BackgroundColor != "#333333" {
		t.Errorf("preset standby = %+v", standby)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
broker: tcp://localhost:1883
controller:
  address: http://localhost:8888
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TopicPrefix != "deckctl" {
		t.Errorf("default TopicPrefix = %q", cfg.TopicPrefix)
	}
	if cfg.FrameRate != 30 {
		t.Errorf("default FrameRate = %d", cfg.FrameRate)
	}
	if cfg.Controller.Protocol != "http" {
		t.Errorf("default Protocol = %q", cfg.Controller.Protocol)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing broker", "controller:\n  address: localhost:10001\n  protocol: tcp\n"},
		{"missing address", "broker: tcp://localhost:1883\ncontroller:\n  protocol: udp\n"},
		{"bad protocol", "broker: tcp://localhost:1883\ncontroller:\n  address: x\n  protocol: carrier-pigeon\n"},
		{"bad yaml", "broker: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("config accepted")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
