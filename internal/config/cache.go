package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache of the read-only run
// endpoints.  When Enabled is false or no Redis client is configured,
// caching is disabled.  Methods lists the HTTP methods to cache, TTL the
// lifetime of entries and KeyStrategy which parts of the request make up
// the key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func loadCacheConfig(e *env) CacheConfig {
	return CacheConfig{
		Enabled:      e.bool("CACHE_ENABLED", true),
		Methods:      parseMethods(e.str("CACHE_METHODS", "GET")),
		TTL:          e.dur("CACHE_TTL", 5*time.Second),
		KeyStrategy:  e.str("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       e.str("CACHE_PREFIX", "restaurant:cache"),
		MaxBodyBytes: e.int("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
