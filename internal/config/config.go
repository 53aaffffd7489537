package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		Metrics bool   `yaml:"metrics"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" validate:"omitempty,url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Exam struct {
		DefaultLimit           int    `yaml:"default_limit" validate:"gte=0"`
		AnswerScope            string `yaml:"answer_scope" validate:"omitempty,oneof=open paper"`
		FinalizePolicy         string `yaml:"finalize_policy" validate:"omitempty,oneof=idempotent recompute"`
		AnalyticsCompletedOnly bool   `yaml:"analytics_completed_only"`
		MaxAttempts            int    `yaml:"max_attempts" validate:"gte=0"`
		AttemptWindow          string `yaml:"attempt_window"`
		RequestTimeout         string `yaml:"request_timeout"`
		SweepBatch             int    `yaml:"sweep_batch" validate:"gte=0"`
	} `yaml:"exam"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=json console"`
	} `yaml:"log"`
}

// Load reads YAML config from path and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints and duration syntax.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, raw := range map[string]string{
		"catalog.ttl":          c.Catalog.TTL,
		"exam.attempt_window":  c.Exam.AttemptWindow,
		"exam.request_timeout": c.Exam.RequestTimeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
