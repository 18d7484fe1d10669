package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// Config holds all runtime configuration values.  Only the simulation block
// is required; every outer surface (HTTP, MySQL, Redis, RabbitMQ) is off
// when its variables are empty.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port of the control API; empty disables it
	JWTSecret    string // secret used to sign operator tokens
	AccessTTLMin int    // operator token time-to-live in minutes
	AMQPURL      string // RabbitMQ URL for the snapshot stream; empty disables it

	Sim       SimConfig
	DB        DBConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// SimConfig describes one restaurant run.
type SimConfig struct {
	Groups        int
	Tables        int
	ArrivalMean   time.Duration
	ArrivalStdDev time.Duration
	EatMean       time.Duration
	EatStdDev     time.Duration
	CookMean      time.Duration
	CookStdDev    time.Duration
	Seed          int64 // 0 picks a seed from the clock
	LogFile       string
	Console       bool
}

// Validate checks the run size against the limits of the shared state.
func (s SimConfig) Validate() error {
	var errs []error
	if s.Groups < 1 || s.Groups > model.MaxGroups {
		errs = append(errs, fmt.Errorf("groups must be in [1, %d], got %d", model.MaxGroups, s.Groups))
	}
	if s.Tables < 1 || s.Tables > model.MaxTables {
		errs = append(errs, fmt.Errorf("tables must be in [1, %d], got %d", model.MaxTables, s.Tables))
	}
	for name, d := range map[string]time.Duration{
		"arrival mean": s.ArrivalMean, "arrival stddev": s.ArrivalStdDev,
		"eat mean": s.EatMean, "eat stddev": s.EatStdDev,
		"cook mean": s.CookMean, "cook stddev": s.CookStdDev,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	return errors.Join(errs...)
}

// DBConfig holds the MySQL connection settings of the run history.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// Enabled reports whether a database is configured.
func (d DBConfig) Enabled() bool { return d.Host != "" && d.Name != "" }

// Load reads an optional .env file and then the environment.  A missing
// .env file is not an error.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	return FromEnv(os.LookupEnv)
}

// LoadTools is Load for commands that never start a run (token, consume):
// the restaurant size is not required.
func LoadTools() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	return fromEnv(os.LookupEnv, false)
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// FromEnv builds a Config from lookup.  Every malformed or missing required
// variable is reported, not only the first one.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	return fromEnv(lookup, true)
}

func fromEnv(lookup func(string) (string, bool), withSim bool) (Config, error) {
	e := &env{lookup: lookup}
	size := e.int
	if withSim {
		size = func(key string, _ int) int { return e.mustInt(key) }
	}
	cfg := Config{
		Env:          e.str("APP_ENV", "dev"),
		Port:         e.str("APP_PORT", ""),
		JWTSecret:    e.str("JWT_SECRET", ""),
		AccessTTLMin: e.int("ACCESS_TOKEN_TTL_MIN", 60),
		AMQPURL:      e.str("RABBITMQ_URL", e.str("AMQP_URL", "")),
		Sim: SimConfig{
			Groups:        size("RESTAURANT_GROUPS", 1),
			Tables:        size("RESTAURANT_TABLES", 1),
			ArrivalMean:   e.dur("RESTAURANT_ARRIVAL_MEAN", 50*time.Millisecond),
			ArrivalStdDev: e.dur("RESTAURANT_ARRIVAL_STDDEV", 10*time.Millisecond),
			EatMean:       e.dur("RESTAURANT_EAT_MEAN", 100*time.Millisecond),
			EatStdDev:     e.dur("RESTAURANT_EAT_STDDEV", 20*time.Millisecond),
			CookMean:      e.dur("RESTAURANT_COOK_MEAN", 30*time.Millisecond),
			CookStdDev:    e.dur("RESTAURANT_COOK_STDDEV", 5*time.Millisecond),
			Seed:          int64(e.int("RESTAURANT_SEED", 0)),
			LogFile:       e.str("RESTAURANT_LOG_FILE", "logs/restaurant.log"),
			Console:       e.bool("RESTAURANT_CONSOLE", false),
		},
		DB: DBConfig{
			User: e.str("DB_USER", ""),
			Pass: e.str("DB_PASS", ""),
			Host: e.str("DB_HOST", ""),
			Port: e.str("DB_PORT", "3306"),
			Name: e.str("DB_NAME", ""),
		},
		Redis:     loadRedisConfig(e),
		Cache:     loadCacheConfig(e),
		RateLimit: loadRateLimitConfig(e),
	}
	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	if withSim {
		if err := cfg.Sim.Validate(); err != nil {
			return Config{}, err
		}
	}
	if cfg.Port != "" && cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required when APP_PORT is set")
	}
	return cfg, nil
}

// env reads typed values and collects parse errors.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

// mustInt reads a required integer variable.
func (e *env) mustInt(key string) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		e.errs = append(e.errs, fmt.Errorf("missing required env var: %s", key))
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int for %s: %q", key, v))
	}
	return n
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int for %s: %q", key, v))
		return def
	}
	return n
}

func (e *env) dur(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid duration for %s: %q", key, v))
		return def
	}
	return d
}

func (e *env) bool(key string, def bool) bool {
	switch strings.ToLower(e.str(key, "")) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		e.errs = append(e.errs, fmt.Errorf("invalid bool for %s", key))
		return def
	}
}
