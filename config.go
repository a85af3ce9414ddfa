package kansa

import (
	"fmt"
	"os"
	"strconv"

	"github.com/torii-ai/kansa/index"
)

// Config holds every tunable of the engine. It is built once at startup
// and passed by value; the engine never mutates it.
type Config struct {
	// IndexPattern names indices with {companyId}, {year}, {month}
	// placeholders.
	IndexPattern string
	// TemplateName is the managed index template's name.
	TemplateName string
	Shards       int
	Replicas     int

	// Refresh requests synchronous visibility on single-document writes.
	Refresh bool
	// Reconcile runs template/mapping reconciliation once in the
	// background when the engine is constructed.
	Reconcile bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		IndexPattern: index.DefaultPattern,
		TemplateName: "actions",
		Shards:       1,
		Replicas:     1,
		Refresh:      true,
		Reconcile:    true,
	}
}

// ConfigFromEnv reads configuration from KANSA_* environment variables,
// falling back to DefaultConfig values.
func ConfigFromEnv() (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		IndexPattern: envStr("KANSA_INDEX_PATTERN", def.IndexPattern),
		TemplateName: envStr("KANSA_TEMPLATE_NAME", def.TemplateName),
		Shards:       envInt("KANSA_SHARDS", def.Shards),
		Replicas:     envInt("KANSA_REPLICAS", def.Replicas),
		Refresh:      envBool("KANSA_REFRESH", def.Refresh),
		Reconcile:    envBool("KANSA_RECONCILE", def.Reconcile),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present.
func (c Config) Validate() error {
	if c.IndexPattern == "" {
		return fmt.Errorf("config: index pattern is required")
	}
	if c.TemplateName == "" {
		return fmt.Errorf("config: template name is required")
	}
	if c.Shards <= 0 {
		return fmt.Errorf("config: shards must be positive")
	}
	if c.Replicas < 0 {
		return fmt.Errorf("config: replicas must not be negative")
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
