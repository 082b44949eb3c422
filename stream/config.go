package stream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds everything read from the YAML config file.
type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientId"`
		Topics   struct {
			Frames   string `yaml:"frames"`
			Commands string `yaml:"commands"`
			Status   string `yaml:"status"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	HTTP struct {
		Addr      string `yaml:"addr"`
		StaticDir string `yaml:"staticDir"`
	} `yaml:"http"`
	Playback struct {
		HostRateHz       float64 `yaml:"hostRateHz"`
		TransitionFrames int     `yaml:"transitionFrames"`
	} `yaml:"playback"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings used for anything the file leaves out.
func DefaultConfig() Config {
	var c Config
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.ClientID = "puppetx"
	c.Mqtt.Topics.Frames = "puppetx/frames"
	c.Mqtt.Topics.Commands = "puppetx/commands"
	c.Mqtt.Topics.Status = "puppetx/status"
	c.HTTP.Addr = ":3000"
	c.HTTP.StaticDir = "client/dist"
	c.Playback.HostRateHz = DefaultHostRate
	c.Playback.TransitionFrames = 3
	c.Log.Level = "info"
	return c
}

// LoadConfig reads the YAML file at path over the defaults, then applies
// PUPPETX_* environment overrides. A .env file next to the process is loaded
// first if present.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("decode config %s: %w", path, err)
	}

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("PUPPETX_MQTT_URL", &c.Mqtt.URL)
	setString("PUPPETX_MQTT_USERNAME", &c.Mqtt.Username)
	setString("PUPPETX_MQTT_PASSWORD", &c.Mqtt.Password)
	setString("PUPPETX_MQTT_CLIENT_ID", &c.Mqtt.ClientID)
	setString("PUPPETX_HTTP_ADDR", &c.HTTP.Addr)
	setString("PUPPETX_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("PUPPETX_HOST_RATE_HZ"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PUPPETX_HOST_RATE_HZ: %w", err)
		}
		c.Playback.HostRateHz = rate
	}
	if v := os.Getenv("PUPPETX_TRANSITION_FRAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PUPPETX_TRANSITION_FRAMES: %w", err)
		}
		c.Playback.TransitionFrames = n
	}

	return nil
}
