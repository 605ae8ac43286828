package util

import (
	"os"
	"strconv"
	"time"
)

// GetEnv returns the ENV variable at the given key, defaulting to defaultVal if unset.
func GetEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

// GetEnvAsInt returns the ENV variable at the given key parsed as int, defaulting to defaultVal if unset or unparsable.
func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")

	if val, err := strconv.Atoi(strVal); err == nil {
		return val
	}

	return defaultVal
}

// GetEnvAsBool returns the ENV variable at the given key parsed as bool, defaulting to defaultVal if unset or unparsable.
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")

	if val, err := strconv.ParseBool(strVal); err == nil {
		return val
	}

	return defaultVal
}

// GetEnvAsDuration returns the ENV variable at the given key parsed via time.ParseDuration,
// defaulting to defaultVal if unset or unparsable.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	strVal := GetEnv(key, "")

	if val, err := time.ParseDuration(strVal); err == nil {
		return val
	}

	return defaultVal
}
