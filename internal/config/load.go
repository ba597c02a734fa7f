package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"
)

// Load reads, strictly decodes, defaults and validates the config file.
// Any error here is fatal at startup; there is no hot reload.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("config: trailing data")
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const (
	defaultPixelcadeURL = "http://localhost:8080"
	defaultESPNBaseURL  = "https://site.api.espn.com/apis/site/v2/sports"
)

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Pixelcade.URL) == "" {
		c.Pixelcade.URL = defaultPixelcadeURL
	}
	c.Pixelcade.URL = strings.TrimRight(strings.TrimSpace(c.Pixelcade.URL), "/")

	if c.Pixelcade.HealthCheckInterval <= 0 {
		c.Pixelcade.HealthCheckInterval = Seconds(30 * time.Second)
	}
	if c.Pixelcade.HealthCheckTimeout <= 0 {
		c.Pixelcade.HealthCheckTimeout = Seconds(5 * time.Second)
	}
	if c.Pixelcade.Timeout <= 0 {
		c.Pixelcade.Timeout = Seconds(5 * time.Second)
	}

	if strings.TrimSpace(c.ESPN.BaseURL) == "" {
		c.ESPN.BaseURL = defaultESPNBaseURL
	}
	c.ESPN.BaseURL = strings.TrimRight(strings.TrimSpace(c.ESPN.BaseURL), "/")
	if c.ESPN.Timeout <= 0 {
		c.ESPN.Timeout = Seconds(5 * time.Second)
	}

	if c.DebugMode && strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "debug"
	}
}

// Validate rejects configs the daemon must not start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Pixelcade.URL)
	if err != nil {
		return fmt.Errorf("config: invalid pixelcade url %q: %w", c.Pixelcade.URL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid pixelcade url %q: need an absolute URL with scheme and host", c.Pixelcade.URL)
	}

	eu, err := url.Parse(c.ESPN.BaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid espn base_url %q: %w", c.ESPN.BaseURL, err)
	}
	if eu.Scheme == "" || eu.Host == "" {
		return fmt.Errorf("config: invalid espn base_url %q: need an absolute URL with scheme and host", c.ESPN.BaseURL)
	}

	for _, m := range c.Order.Modules() {
		switch m {
		case "weather", "clock", "sports", "stocks", "news":
		default:
			return fmt.Errorf("config: unknown module %q in order.sequence", m)
		}
	}
	return nil
}
