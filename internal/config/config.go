// Package config builds the server configuration with the precedence
// defaults -> config file -> dotenv/environment -> CLI flag overrides.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no explicit
// path is given.
const DefaultConfigFile = ".slides2mcp.yaml"

// Transport names accepted by Server.Transport.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	SlidesGPT SlidesGPTConfig `yaml:"slidesgpt"`
	Registry  RegistryConfig  `yaml:"registry"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig controls the listening side.
type ServerConfig struct {
	// Listen is the host:port for the SSE and streamable HTTP transports.
	Listen string `yaml:"listen"`
	// Transport is one of stdio, sse, http.
	Transport string `yaml:"transport"`
}

// SlidesGPTConfig controls the remote service client.
type SlidesGPTConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// VerificationToken is served verbatim on the domain-ownership-proof
	// endpoint when non-empty.
	VerificationToken string `yaml:"verification_token"`
	MaxRetries        int    `yaml:"max_retries"`
	// AutoSelectImage collapses search_images responses to the single best
	// match instead of returning candidates for the caller to pick from.
	AutoSelectImage bool `yaml:"auto_select_image"`
}

// RegistryConfig controls presentation-context retention.
type RegistryConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// SearchConfig controls the search_images result shape.
type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Listen = "127.0.0.1:8090"
	cfg.Server.Transport = TransportSSE
	cfg.SlidesGPT.BaseURL = "https://api.slidesgpt.com"
	cfg.SlidesGPT.MaxRetries = 2
	cfg.Registry.TTL = Duration(24 * time.Hour)
	cfg.Registry.SweepInterval = Duration(time.Hour)
	cfg.Search.MaxResults = 8
	return cfg
}

// Duration is a time.Duration that unmarshals from YAML strings like "24h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
