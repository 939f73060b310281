// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config bundles the tunables of the server. Every field has a production
// default and can be overridden with an environment variable; godotenv's
// autoload in cmd/server pulls a local .env into the environment first.
type Config struct {
	Port            string        // LASERSHOT_PORT
	TickInterval    time.Duration // LASERSHOT_TICK_INTERVAL
	MatchDuration   time.Duration // LASERSHOT_MATCH_DURATION
	InactivityTicks int           // LASERSHOT_INACTIVITY_TICKS
	RetentionTicks  int           // LASERSHOT_RETENTION_TICKS
	MinContourArea  int           // LASERSHOT_MIN_CONTOUR_AREA
}

// Load reads the environment and fills in defaults.
func Load() Config {
	return Config{
		Port:            envString("LASERSHOT_PORT", "8080"),
		TickInterval:    envDuration("LASERSHOT_TICK_INTERVAL", time.Second),
		MatchDuration:   envDuration("LASERSHOT_MATCH_DURATION", 60*time.Second),
		InactivityTicks: envInt("LASERSHOT_INACTIVITY_TICKS", 60),
		RetentionTicks:  envInt("LASERSHOT_RETENTION_TICKS", 30),
		MinContourArea:  envInt("LASERSHOT_MIN_CONTOUR_AREA", 100),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
