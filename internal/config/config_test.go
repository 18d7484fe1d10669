package config

import (
	"strings"
	"testing"
	"time"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"RESTAURANT_GROUPS": "5",
		"RESTAURANT_TABLES": "2",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Sim.Groups != 5 || cfg.Sim.Tables != 2 {
		t.Fatalf("size = %d/%d", cfg.Sim.Groups, cfg.Sim.Tables)
	}
	if cfg.Sim.LogFile != "logs/restaurant.log" {
		t.Errorf("log file = %q", cfg.Sim.LogFile)
	}
	if cfg.Sim.CookMean != 30*time.Millisecond {
		t.Errorf("cook mean = %s", cfg.Sim.CookMean)
	}
	if cfg.DB.Enabled() || cfg.Redis.Enabled() || cfg.AMQPURL != "" || cfg.Port != "" {
		t.Errorf("outer surfaces enabled by default: %+v", cfg)
	}
	if !cfg.Cache.Methods["GET"] {
		t.Errorf("cache methods = %v", cfg.Cache.Methods)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"RESTAURANT_GROUPS":          "16",
		"RESTAURANT_TABLES":          "8",
		"RESTAURANT_EAT_MEAN":        "2s",
		"RESTAURANT_SEED":            "99",
		"RESTAURANT_CONSOLE":         "yes",
		"APP_PORT":                   "8080",
		"JWT_SECRET":                 "s3cret",
		"AMQP_URL":                   "amqp://localhost/",
		"REDIS_HOST":                 "cache",
		"REDIS_PORT":                 "6380",
		"REDIS_ADDR":                 "ignored:1",
		"RATE_LIMIT_CAPACITY":        "0",
		"RATE_LIMIT_REFILL_INTERVAL": "1m",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Sim.EatMean != 2*time.Second || cfg.Sim.Seed != 99 || !cfg.Sim.Console {
		t.Errorf("sim = %+v", cfg.Sim)
	}
	if cfg.AMQPURL != "amqp://localhost/" {
		t.Errorf("amqp url = %q", cfg.AMQPURL)
	}
	if cfg.Redis.Addr != "cache:6380" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.RateLimit.Capacity != 1 || cfg.RateLimit.TTL < 5*time.Minute {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
}

func TestFromEnvReportsEveryProblem(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{
		"RESTAURANT_TABLES":    "x",
		"RESTAURANT_COOK_MEAN": "soon",
		"RESTAURANT_CONSOLE":   "maybe",
	}))
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"RESTAURANT_GROUPS", "RESTAURANT_TABLES", "RESTAURANT_COOK_MEAN", "RESTAURANT_CONSOLE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSimConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		sim  SimConfig
		ok   bool
	}{
		{"smallest", SimConfig{Groups: 1, Tables: 1}, true},
		{"largest", SimConfig{Groups: 16, Tables: 8}, true},
		{"no groups", SimConfig{Groups: 0, Tables: 1}, false},
		{"too many groups", SimConfig{Groups: 17, Tables: 1}, false},
		{"too many tables", SimConfig{Groups: 1, Tables: 9}, false},
		{"negative delay", SimConfig{Groups: 1, Tables: 1, EatMean: -time.Second}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.sim.Validate()
			if (err == nil) != c.ok {
				t.Fatalf("Validate() = %v, ok want %v", err, c.ok)
			}
		})
	}
}

func TestPortRequiresSecret(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{
		"RESTAURANT_GROUPS": "1",
		"RESTAURANT_TABLES": "1",
		"APP_PORT":          "8080",
	}))
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("error = %v", err)
	}
}

func TestToolsDoNotNeedRunSize(t *testing.T) {
	cfg, err := fromEnv(lookupFrom(map[string]string{"JWT_SECRET": "k"}), false)
	if err != nil {
		t.Fatalf("fromEnv: %v", err)
	}
	if cfg.JWTSecret != "k" || cfg.Sim.Groups != 1 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
