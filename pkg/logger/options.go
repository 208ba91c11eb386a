package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/shuldan/reqreply/pkg/contracts"
)

type Option func(*config)

type config struct {
	level       slog.Level
	json        bool
	addSource   bool
	writer      io.Writer
	replaceAttr func(groups []string, a slog.Attr) slog.Attr
	wantColor   bool
}

func WithReplaceAttr(f func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(c *config) {
		c.replaceAttr = f
	}
}

func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

func WithJSON() Option {
	return func(c *config) {
		c.json = true
	}
}

func WithText() Option {
	return func(c *config) {
		c.json = false
	}
}

func WithSource() Option {
	return func(c *config) {
		c.addSource = true
	}
}

func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}
		c.writer = w
	}
}

// WithColor colours level names; it only takes effect when the writer is a terminal.
func WithColor() Option {
	return func(c *config) {
		c.wantColor = true
	}
}

func WithDefaultReplaceAttr() Option {
	return func(c *config) {
		prev := c.replaceAttr
		c.replaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if prev != nil {
				a = prev(groups, a)
				if a.Equal(slog.Attr{}) {
					return a
				}
			}
			if a.Key == slog.LevelKey {
				if level, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, getLevelName(level))
				}
			}
			return a
		}
	}
}

// FromConfig reads the "logger" section: level, format (text|json) and color.
func FromConfig(cfg contracts.Config) []Option {
	if cfg == nil {
		return nil
	}
	sub, ok := cfg.GetSub("logger")
	if !ok {
		return nil
	}

	opts := []Option{WithLevel(ParseLevel(sub.GetString("level", "info")))}
	if strings.EqualFold(sub.GetString("format", "text"), "json") {
		opts = append(opts, WithJSON())
	}
	if sub.GetBool("color", false) {
		opts = append(opts, WithColor())
	}
	if sub.GetBool("source", false) {
		opts = append(opts, WithSource())
	}
	return opts
}
