package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.HashCost < 4 || c.Auth.HashCost > 31 {
		return fmt.Errorf("auth.hash_cost must be within 4..31 (got %d)", c.Auth.HashCost)
	}

	if err := validateBaseURL("record_store.base_url", c.RecordStore.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("collab_store.base_url", c.CollabStore.BaseURL); err != nil {
		return err
	}
	if c.RecordStore.RatePerSecond <= 0 {
		return fmt.Errorf("record_store.rate_per_second must be > 0 (got %v)", c.RecordStore.RatePerSecond)
	}

	for name, ttl := range map[string]time.Duration{
		"cache.record_ttl": c.Cache.RecordTTL,
		"cache.stats_ttl":  c.Cache.StatsTTL,
		"cache.share_ttl":  c.Cache.ShareTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%s must be > 0 (got %v)", name, ttl)
		}
	}

	if c.Retry.Delay < 5*time.Second || c.Retry.Delay > 15*time.Second {
		return fmt.Errorf("retry.delay must be within 5s..15s (got %v)", c.Retry.Delay)
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL (got %q)", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host (got %q)", name, raw)
	}
	return nil
}
