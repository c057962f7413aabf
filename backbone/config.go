// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package backbone

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for backbone inference services.
type Config struct {
	// Host is the base URL for the inference service API.
	// Example: "http://localhost:8093/v1" for a local inference sidecar
	Host string

	// Model is the backbone identifier served by the inference service.
	// Example: "mobilenet_v2"
	Model string

	// Dimension is the length of the embedding vectors the backbone
	// produces. MobileNetV2 with its classifier head removed emits 1280.
	Dimension int

	// Timeout bounds a single inference call.
	// Default: 60s
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the inference service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the backbone model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithDimension sets the expected embedding dimensionality.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// inference sidecar serving a MobileNetV2 backbone.
func DefaultConfig() *Config {
	return &Config{
		Host:      "http://localhost:8093/v1",
		Model:     "mobilenet_v2",
		Dimension: 1280,
		Timeout:   60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// The /v1 suffix is appended to the host if missing.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("backbone config: Host is required")
	}
	if c.Model == "" {
		return errors.New("backbone config: Model is required")
	}
	if c.Dimension <= 0 {
		return errors.New("backbone config: Dimension must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("backbone config: Timeout must be positive")
	}
	return nil
}
