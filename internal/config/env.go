package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv loads environment variables from a .env file if one exists in
// the current directory or a parent. Variables already set in the
// environment are never overwritten.
func LoadEnv() error {
	envPaths := []string{".env", "../.env", "../../.env"}

	for _, envPath := range envPaths {
		data, err := os.ReadFile(envPath)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
		break
	}
	return nil
}

// GetEnv gets an environment variable with a default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat gets a float environment variable with a default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// Resolver holds the tunables for a resolution run. Defaults reflect
// the thresholds the matching pipeline was tuned against.
type Resolver struct {
	GeoRadiusKm    float64       // acceptance radius for coordinate matches
	GeoTieBandKm   float64       // two stores within this band are ambiguous
	TextThreshold  float64       // minimum similarity for a fuzzy text match
	TextMargin     float64       // required gap to the runner-up candidate
	PairWindow     time.Duration // max companion time delta for pairing
	Trace          bool          // verbose per-submission tracing
}

// LoadResolver builds resolver settings from the environment.
func LoadResolver() Resolver {
	return Resolver{
		GeoRadiusKm:   GetEnvFloat("GEO_RADIUS_KM", 2.0),
		GeoTieBandKm:  GetEnvFloat("GEO_TIE_BAND_KM", 0.1),
		TextThreshold: GetEnvFloat("TEXT_THRESHOLD", 0.85),
		TextMargin:    GetEnvFloat("TEXT_MARGIN", 0.05),
		PairWindow:    time.Duration(GetEnvInt("PAIR_WINDOW_MINUTES", 240)) * time.Minute,
		Trace:         GetEnvBool("RESOLVER_TRACE", false),
	}
}
