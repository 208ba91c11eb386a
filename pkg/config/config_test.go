package config

import (
	"testing"
	"time"
)

func TestMapConfig_TypedGetters(t *testing.T) {
	cfg := NewMapConfig(map[string]any{
		"broker": map[string]any{
			"driver":  "redis",
			"address": "tcp://localhost:61616",
			"drivers": map[string]any{
				"redis": map[string]any{
					"db":               uint64(2),
					"block_timeout_ms": 250,
					"enable":           "yes",
				},
			},
		},
		"ratio":   "0.5",
		"names":   "a, b ,c",
		"timeout": "2s",
		"legacy":  map[any]any{"key": "value"},
	})

	if got := cfg.GetString("broker.driver"); got != "redis" {
		t.Errorf("expected redis, got %q", got)
	}
	if got := cfg.GetInt("broker.drivers.redis.db"); got != 2 {
		t.Errorf("expected db 2, got %d", got)
	}
	if got := cfg.GetDuration("broker.drivers.redis.block_timeout_ms"); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
	if got := cfg.GetDuration("timeout"); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if !cfg.GetBool("broker.drivers.redis.enable") {
		t.Error("expected enable to parse as true")
	}
	if got := cfg.GetFloat64("ratio"); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	if got := cfg.GetStringSlice("names"); len(got) != 3 || got[1] != "b" {
		t.Errorf("expected trimmed slice, got %v", got)
	}
	if got := cfg.GetString("legacy.key"); got != "value" {
		t.Errorf("expected map[any]any traversal, got %q", got)
	}
}

func TestMapConfig_Defaults(t *testing.T) {
	cfg := NewMapConfig(map[string]any{"port": "not-a-number"})

	if got := cfg.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := cfg.GetInt("port", 8080); got != 8080 {
		t.Errorf("expected default on parse failure, got %d", got)
	}
	if got := cfg.GetDuration("missing", time.Second); got != time.Second {
		t.Errorf("expected default duration, got %v", got)
	}
	if cfg.Has("port.inner") {
		t.Error("scalar must not be traversed")
	}
}

func TestMapConfig_GetSub(t *testing.T) {
	cfg := NewMapConfig(map[string]any{
		"receiver": map[string]any{"answer": "ok "},
		"scalar":   1,
	})

	sub, ok := cfg.GetSub("receiver")
	if !ok {
		t.Fatal("expected receiver section")
	}
	if sub.GetString("answer") != "ok " {
		t.Errorf("unexpected answer %q", sub.GetString("answer"))
	}
	if _, ok := cfg.GetSub("scalar"); ok {
		t.Error("scalar is not a section")
	}
}
