package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"nametags/button"
	"nametags/eventpipe"
	"nametags/indicator"
	"nametags/label"
	"nametags/logging"
	"nametags/lookup"
	"nametags/mqtt"
	"nametags/printer"
	"nametags/reader"
	"nametags/web"
)

// Config is the main configuration structure for the nametag station.
type Config struct {
	// ClientID names this station on the MQTT broker.
	ClientID string `yaml:"client_id"`

	Label     LabelConfig      `yaml:"label"`
	Lookup    lookup.Config    `yaml:"lookup"`
	Reader    reader.Config    `yaml:"reader"`
	Printer   printer.Config   `yaml:"printer"`
	Web       web.Config       `yaml:"web"`
	MQTT      mqtt.Config      `yaml:"mqtt"`
	EventPipe eventpipe.Config `yaml:"event_pipe"`
	Indicator indicator.Config `yaml:"indicator"`
	Button    button.Config    `yaml:"button"`
	Journal   JournalConfig    `yaml:"journal"`
	Log       logging.Config   `yaml:"log"`

	// PrintSecret is the base64 HMAC key for remote print commands. Remote
	// printing is off when empty.
	PrintSecret string `yaml:"print_secret"`

	// KeepAlive is how often the printer status is polled.
	KeepAlive time.Duration `yaml:"keepalive"`

	// ResultSecs is how long the printed/failed state shows before the
	// indicators return to idle.
	ResultSecs int `yaml:"result_secs"`
}

// LabelConfig selects the label stock and the rendering assets.
type LabelConfig struct {
	Size              string       `yaml:"size"`
	Sizes             []label.Size `yaml:"sizes"`
	label.AssetConfig `yaml:",inline"`
}

// JournalConfig locates the print history database. The journal is off
// when Path is empty.
type JournalConfig struct {
	Path string `yaml:"path"`
}

const defaultLabelSize = "62x100"

// loadConfig reads the YAML file at path and applies environment overrides
// through getenv.
func loadConfig(path string, getenv func(string) string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	applyEnv(&cfg, getenv)

	if cfg.Label.Size == "" {
		cfg.Label.Size = defaultLabelSize
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = printer.DefaultKeepAlive
	}
	if cfg.ResultSecs == 0 {
		cfg.ResultSecs = 3
	}
	if cfg.ClientID == "" {
		if cfg.MQTT.Host != "" {
			return nil, fmt.Errorf("client_id missing in config file")
		}
		cfg.ClientID, _ = os.Hostname()
	}
	return &cfg, nil
}

// applyEnv lets deployment secrets and the label stock come from the
// environment (or a .env file) instead of the config file.
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("LABEL_SIZE"); v != "" {
		cfg.Label.Size = v
	}
	if v := getenv("WA_API_KEY"); v != "" {
		cfg.Lookup.WildApricot.APIKey = v
	}
	if v := getenv("NAMETAGS_PRINT_SECRET"); v != "" {
		cfg.PrintSecret = v
	}
	if v := getenv("NAMETAGS_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
}
