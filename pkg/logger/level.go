package logger

import (
	"log/slog"
	"strings"
)

const (
	levelTrace    = slog.LevelDebug - 4
	levelCritical = slog.LevelError + 4
)

var levelNames = map[slog.Level]string{
	levelTrace:    "TRACE",
	levelCritical: "CRITICAL",
}

func getLevelName(level slog.Leveler) string {
	if name, ok := levelNames[level.Level()]; ok {
		return name
	}
	return level.Level().String()
}

// ParseLevel maps a configured level name to a slog level. Unknown names fall back to INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return levelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return levelCritical
	default:
		return slog.LevelInfo
	}
}
