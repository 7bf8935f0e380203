// Package env reads configuration from the environment, falling back to
// "<KEY>_FILE" and Docker style secret files.
package env

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Davincible/rx-utils/utils"
)

var secretsDir = "/run/secrets"

// GetEnv reads an environment variable, falls back to _FILE version if not set,
// and as a third check, reads from a default secrets file under /run/secrets/{ENV}.
func GetEnv(key string, defaultValue ...string) string {
	defaultVal := ""
	if len(defaultValue) > 0 {
		defaultVal = defaultValue[0]
	}

	if value := os.Getenv(key); len(value) != 0 {
		return value
	}

	if filePath := os.Getenv(key + "_FILE"); len(filePath) != 0 {
		if value, ok := readValueFile(key, filePath); ok {
			return value
		}
		return defaultVal
	}

	if secretsFilePath := filepath.Join(secretsDir, key); fileExists(secretsFilePath) {
		if value, ok := readValueFile(key, secretsFilePath); ok {
			return value
		}
	}

	return defaultVal
}

// GetEnvInt reads an int environment variable. Unparsable values yield the default.
func GetEnvInt(key string, defaultValue ...int) int {
	if valueStr := GetEnv(key); len(valueStr) != 0 {
		if parsed, err := strconv.Atoi(valueStr); err == nil {
			return parsed
		}
		slog.Default().Warn("ignoring non-integer environment value", slog.String("key", key))
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return 0
}

// GetEnvBool reads a boolean environment variable ("1", "true", "yes", ...).
func GetEnvBool(key string, defaultValue ...bool) bool {
	if valueStr := GetEnv(key); len(valueStr) != 0 {
		switch strings.ToLower(valueStr) {
		case "1", "t", "true", "y", "yes", "on":
			return true
		case "0", "f", "false", "n", "no", "off":
			return false
		}
		slog.Default().Warn("ignoring non-boolean environment value", slog.String("key", key))
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return false
}

// GetEnvDuration reads a duration environment variable. Values are parsed by
// utils.ParseDuration, so "90s" and "1d12h" are both accepted.
func GetEnvDuration(key string, defaultValue ...time.Duration) time.Duration {
	if valueStr := GetEnv(key); len(valueStr) != 0 {
		if parsed, err := utils.ParseDuration(valueStr); err == nil {
			return parsed
		}
		slog.Default().Warn("ignoring invalid duration environment value", slog.String("key", key))
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return 0
}

func readValueFile(key, path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Default().Error("reading environment value file",
			slog.String("key", key),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return "", false
	}

	value := strings.TrimSpace(string(content))

	return value, len(value) != 0
}

// fileExists checks if a file exists and is not a directory.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
