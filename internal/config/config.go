// Package config handles YAML configuration parsing.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"volley/internal/collector"
	"volley/internal/data"
)

const (
	DefaultMethod  = http.MethodGet
	DefaultTimeout = 30 * time.Second
)

// Config is the root configuration structure.
type Config struct {
	Run        RunConfig             `yaml:"run"`
	Target     TargetConfig          `yaml:"target"`
	Data       map[string]DataConfig `yaml:"data,omitempty"`
	Thresholds *collector.Thresholds `yaml:"thresholds,omitempty"`

	// dir is the directory of the config file; data paths resolve against it.
	dir string
}

// RunConfig holds the session parameters. CLI flags override them.
type RunConfig struct {
	Count   int           `yaml:"count"`
	Workers int           `yaml:"workers"`
	Delay   time.Duration `yaml:"delay"`
}

// TargetConfig describes the request each unit sends.
type TargetConfig struct {
	Name    string            `yaml:"name"`
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
	Timeout time.Duration     `yaml:"timeout"`
	// MaxRPS caps the request rate across all workers. 0 = unlimited.
	MaxRPS    int           `yaml:"maxRps"`
	RateLimit RateLimitRule `yaml:"rateLimit"`
}

// RateLimitRule decides when a response means the endpoint is exhausted.
// A response matches when its status is listed in StatusCodes, or when
// JSONPath is set and the body value at it equals Equals (or merely
// exists, if Equals is empty).
type RateLimitRule struct {
	StatusCodes []int  `yaml:"statusCodes"`
	JSONPath    string `yaml:"jsonPath"`
	Equals      string `yaml:"equals"`
}

// DataConfig names a data file that feeds ${data.<name>.<field>} values.
type DataConfig struct {
	File string    `yaml:"file"`
	Mode data.Mode `yaml:"mode"`
}

// LoadConfig reads and parses a YAML configuration file and fills defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.dir = filepath.Dir(path)
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset target fields.
func (c *Config) ApplyDefaults() {
	if c.Target.Method == "" {
		c.Target.Method = DefaultMethod
	}
	c.Target.Method = strings.ToUpper(c.Target.Method)
	if c.Target.Timeout == 0 {
		c.Target.Timeout = DefaultTimeout
	}
	if len(c.Target.RateLimit.StatusCodes) == 0 {
		c.Target.RateLimit.StatusCodes = []int{http.StatusTooManyRequests}
	}
}

// Validate reports every problem in the file. Count and workers are
// checked when the session is built, after CLI overrides are applied.
func (c *Config) Validate() error {
	var errs []error

	if c.Target.URL == "" {
		errs = append(errs, errors.New("target.url is required"))
	} else if !strings.Contains(c.Target.URL, "${") {
		u, err := url.Parse(c.Target.URL)
		if err != nil {
			errs = append(errs, fmt.Errorf("target.url: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("target.url: unsupported scheme %q", u.Scheme))
		}
	}
	if c.Target.Timeout < 0 {
		errs = append(errs, fmt.Errorf("target.timeout must not be negative, got %v", c.Target.Timeout))
	}
	if c.Target.MaxRPS < 0 {
		errs = append(errs, fmt.Errorf("target.maxRps must not be negative, got %d", c.Target.MaxRPS))
	}
	for _, code := range c.Target.RateLimit.StatusCodes {
		if code < 100 || code > 599 {
			errs = append(errs, fmt.Errorf("target.rateLimit.statusCodes: invalid status %d", code))
		}
	}
	if c.Run.Delay < 0 {
		errs = append(errs, fmt.Errorf("run.delay must not be negative, got %v", c.Run.Delay))
	}
	for name, d := range c.Data {
		if d.File == "" {
			errs = append(errs, fmt.Errorf("data.%s.file is required", name))
		}
		if !d.Mode.Valid() {
			errs = append(errs, fmt.Errorf("data.%s.mode: unknown mode %q", name, d.Mode))
		}
	}
	if t := c.Thresholds; t != nil {
		for name, r := range map[string]*collector.RateThreshold{
			"unit_failed":    t.UnitFailed,
			"unit_completed": t.UnitCompleted,
		} {
			if r == nil || r.Rate == "" {
				continue
			}
			if _, err := collector.ParsePercentage(r.Rate); err != nil {
				errs = append(errs, fmt.Errorf("thresholds.%s.rate: %w", name, err))
			}
		}
		if t.UnitsPerSec < 0 {
			errs = append(errs, fmt.Errorf("thresholds.units_per_sec must not be negative, got %v", t.UnitsPerSec))
		}
	}

	return errors.Join(errs...)
}

// LoadSources opens every configured data file.
func (c *Config) LoadSources() (data.Sources, error) {
	sources := make(data.Sources, len(c.Data))
	for name, d := range c.Data {
		src, err := data.LoadFile(name, d.File, d.Mode, c.dir)
		if err != nil {
			return nil, fmt.Errorf("data.%s: %w", name, err)
		}
		sources[name] = src
	}
	return sources, nil
}

// TargetName returns the display name of the target.
func (c *Config) TargetName() string {
	if c.Target.Name != "" {
		return c.Target.Name
	}
	return c.Target.Method + " " + c.Target.URL
}
