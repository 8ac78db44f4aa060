package config

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// Validate checks the loaded configuration.  Errors are suitable for
// printing and exiting with status 2.
func Validate(cfg *Config) error {
	switch cfg.Server.Transport {
	case TransportStdio, TransportSSE, TransportHTTP:
	default:
		return fmt.Errorf("server.transport must be one of %q, %q, %q; got %q",
			TransportStdio, TransportSSE, TransportHTTP, cfg.Server.Transport)
	}

	if cfg.Server.Transport != TransportStdio {
		if _, _, err := net.SplitHostPort(cfg.Server.Listen); err != nil {
			return fmt.Errorf("server.listen %q is not host:port: %w", cfg.Server.Listen, err)
		}
	}

	u, err := url.Parse(cfg.SlidesGPT.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("slidesgpt.base_url %q is not an absolute URL", cfg.SlidesGPT.BaseURL)
	}

	if cfg.SlidesGPT.MaxRetries < 0 || cfg.SlidesGPT.MaxRetries > 10 {
		return fmt.Errorf("slidesgpt.max_retries must be between 0 and 10; got %d", cfg.SlidesGPT.MaxRetries)
	}

	if cfg.Registry.TTL.Std() < time.Minute {
		return fmt.Errorf("registry.ttl must be at least 1m; got %s", cfg.Registry.TTL.Std())
	}
	if cfg.Registry.SweepInterval.Std() < time.Second {
		return fmt.Errorf("registry.sweep_interval must be at least 1s; got %s", cfg.Registry.SweepInterval.Std())
	}

	if cfg.Search.MaxResults < 1 || cfg.Search.MaxResults > 50 {
		return fmt.Errorf("search.max_results must be between 1 and 50; got %d", cfg.Search.MaxResults)
	}
	return nil
}
