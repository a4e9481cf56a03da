package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the component-tagged logging contract shared by the pipeline stages,
// the CLI and the GUI. Fields are attached as structured key/value pairs.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ParseLevel maps a config/env level name onto a zerolog level.
// Unknown names fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LevelFromEnv reads LOG_LEVEL, with DEBUG=1 forcing debug output.
func LevelFromEnv(fallback string) zerolog.Level {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return ParseLevel(lvl)
	}
	if os.Getenv("DEBUG") == "1" {
		return zerolog.DebugLevel
	}
	return ParseLevel(fallback)
}
