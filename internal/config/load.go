package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options for loading config.
type Options struct {
	// ConfigPath names the YAML file to read; empty means DefaultConfigFile,
	// which may be absent.
	ConfigPath string
	// SkipValidate loads without validation (used by `config print`).
	SkipValidate bool
	// Overrides apply last (flags > env > file > defaults).  Nil means no
	// CLI overrides.
	Overrides *Overrides
}

// Overrides holds CLI flag values that take precedence over everything else.
// Only non-nil fields are applied.
type Overrides struct {
	Listen    *string
	Transport *string
	APIKey    *string
	BaseURL   *string
}

// Load builds the configuration.  Precedence, lowest to highest: built-in
// defaults, the YAML config file, .env/.env.local files, real environment
// variables, CLI flag overrides.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	// Dotenv files never override variables already set in the environment.
	_ = godotenv.Load(".env.local", ".env")

	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("malformed config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Optional default file; fall through to env.
	default:
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	applyEnv(&cfg)

	if opts.Overrides != nil {
		applyOverrides(&cfg, opts.Overrides)
	}

	if !opts.SkipValidate {
		if err := Validate(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SLIDESGPT_API_KEY"); v != "" {
		cfg.SlidesGPT.APIKey = v
	}
	if v := os.Getenv("SLIDESGPT_BASE_URL"); v != "" {
		cfg.SlidesGPT.BaseURL = v
	}
	if v := os.Getenv("SLIDESGPT_VERIFICATION_TOKEN"); v != "" {
		cfg.SlidesGPT.VerificationToken = v
	}
	if v := os.Getenv("SLIDES2MCP_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("SLIDES2MCP_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("SLIDES2MCP_PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Listen = "127.0.0.1:" + v
		}
	}
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.Listen != nil {
		cfg.Server.Listen = *o.Listen
	}
	if o.Transport != nil {
		cfg.Server.Transport = *o.Transport
	}
	if o.APIKey != nil {
		cfg.SlidesGPT.APIKey = *o.APIKey
	}
	if o.BaseURL != nil {
		cfg.SlidesGPT.BaseURL = *o.BaseURL
	}
}
