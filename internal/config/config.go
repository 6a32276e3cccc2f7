// Package config loads process configuration from an optional YAML file with
// environment overrides on top. Env always wins so a container can override a
// baked-in file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML scalars like "30s" or "5m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Addr      string   `yaml:"addr"`
	LogLevel  string   `yaml:"logLevel"`
	RedisURL  string   `yaml:"redisURL"`
	RateRPS   float64  `yaml:"rateRPS"`
	RateBurst int      `yaml:"rateBurst"`
	Delivery  Delivery `yaml:"delivery"`
}

type Delivery struct {
	Timeout     Duration   `yaml:"timeout"`
	MaxAttempts int        `yaml:"maxAttempts"`
	Backoff     []Duration `yaml:"backoff"`
}

// BackoffSchedule returns the retry delays as time.Durations.
func (d Delivery) BackoffSchedule() []time.Duration {
	out := make([]time.Duration, len(d.Backoff))
	for i, b := range d.Backoff {
		out[i] = b.Std()
	}
	return out
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		LogLevel:  "info",
		RateRPS:   50,
		RateBurst: 100,
		Delivery: Delivery{
			Timeout:     Duration(30 * time.Second),
			MaxAttempts: 4,
			Backoff:     []Duration{Duration(time.Second), Duration(5 * time.Second), Duration(15 * time.Second)},
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies env
// overrides. A missing file is an error only when a path was given.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if cfg.Delivery.MaxAttempts < 1 {
		cfg.Delivery.MaxAttempts = 1
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 { c.RateRPS = f }
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 { c.RateBurst = n }
	}
	if v := os.Getenv("WEBHOOK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 { c.Delivery.Timeout = Duration(d) }
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 { c.Delivery.MaxAttempts = n }
	}
	if v := os.Getenv("WEBHOOK_BACKOFF"); v != "" {
		var sched []Duration
		ok := true
		for _, part := range strings.Split(v, ",") {
			d, err := time.ParseDuration(strings.TrimSpace(part))
			if err != nil || d < 0 { ok = false; break }
			sched = append(sched, Duration(d))
		}
		if ok && len(sched) > 0 { c.Delivery.Backoff = sched }
	}
}
