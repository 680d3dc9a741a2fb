package bridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flokli/deckctl/button"
)

// ControllerConfig selects the wire protocol and endpoint of the
// controlled application.
type ControllerConfig struct {
	// Protocol is http, tcp or udp.
	Protocol string `yaml:"protocol"`
	// Address is a base URL for http, a host:port for tcp and udp.
	Address string `yaml:"address"`
}

// Config is the bridge daemon configuration.
type Config struct {
	// Broker is the MQTT broker, host:port or a tcp:// URL.
	Broker string `yaml:"broker"`
	// TopicPrefix is prepended to every subscribed and published
	// topic, "deckctl" when unset.
	TopicPrefix string `yaml:"topic_prefix"`

	Controller ControllerConfig `yaml:"controller"`

	// FrameRate is the animation frame rate, 30 when unset.
	FrameRate int `yaml:"frame_rate"`

	// Presets extend the built-in named styles. A preset here with a
	// built-in's name shadows it.
	Presets map[string]button.Style `yaml:"presets"`
}

// LoadConfig reads and validates a YAML config file, filling in
// defaults for optional fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config %s: %w", path, err)
	}

	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "deckctl"
	}
	if cfg.FrameRate == 0 {
		cfg.FrameRate = 30
	}
	if cfg.Controller.Protocol == "" {
		cfg.Controller.Protocol = "http"
	}

	if cfg.Broker == "" {
		return nil, fmt.Errorf("config %s: broker must be set", path)
	}
	if cfg.Controller.Address == "" {
		return nil, fmt.Errorf("config %s: controller.address must be set", path)
	}
	switch cfg.Controller.Protocol {
	case "http", "tcp", "udp":
	default:
		return nil, fmt.Errorf("config %s: unknown controller.protocol %q", path, cfg.Controller.Protocol)
	}

	return cfg, nil
}
