package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	tests := []struct {
		env   string
		level zapcore.Level
	}{
		{"prod", zapcore.InfoLevel},
		{"local", zapcore.DebugLevel},
		{"dev", zapcore.DebugLevel},
		{"docker", zapcore.DebugLevel},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			l, err := NewLogger(tc.env)
			if err != nil {
				t.Fatalf("NewLogger(%q): %v", tc.env, err)
			}
			if !l.Core().Enabled(tc.level) {
				t.Errorf("level %s should be enabled", tc.level)
			}
			if tc.level == zapcore.InfoLevel && l.Core().Enabled(zapcore.DebugLevel) {
				t.Error("prod must not log debug by default")
			}
		})
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("local", "warn")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}

	if _, err := NewLogger("local", ""); err != nil {
		t.Errorf("empty override should keep the env default: %v", err)
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown environment")
	}
	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestConfigFor(t *testing.T) {
	prod, err := configFor("prod")
	if err != nil {
		t.Fatalf("configFor(prod): %v", err)
	}
	if prod.Encoding != "json" || prod.EncoderConfig.TimeKey != "ts" {
		t.Errorf("prod should encode JSON with a ts key, got %q/%q", prod.Encoding, prod.EncoderConfig.TimeKey)
	}
	if prod.Sampling == nil {
		t.Error("prod should sample")
	}

	local, err := configFor("local")
	if err != nil {
		t.Fatalf("configFor(local): %v", err)
	}
	if local.Encoding != "console" {
		t.Errorf("local encoding = %q, want console", local.Encoding)
	}

	for _, env := range []string{"prod", "local", "dev", "docker"} {
		cfg, _ := configFor(env)
		if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != "stderr" {
			t.Errorf("%s: output paths = %v, want [stderr]", env, cfg.OutputPaths)
		}
	}
}

func TestNewLogger_TrimmedOverride(t *testing.T) {
	if _, err := NewLogger("local", " warn "); err != nil {
		t.Errorf("level override should be trimmed: %v", err)
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	ctx := ContextWithLogger(context.Background(), l)
	FromContext(ctx).Info("hello")
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}

	// No logger in context: Nop, must not panic.
	FromContext(context.Background()).Info("dropped")
	if logs.Len() != 1 {
		t.Error("Nop logger must not write to the observer")
	}
}

func TestFromContextOr(t *testing.T) {
	fallbackCore, fallbackLogs := observer.New(zapcore.InfoLevel)
	ctxCore, ctxLogs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(fallbackCore)

	FromContextOr(context.Background(), fallback).Info("to fallback")
	if fallbackLogs.Len() != 1 {
		t.Error("fallback should be used when the context has no logger")
	}

	ctx := ContextWithLogger(context.Background(), zap.New(ctxCore))
	FromContextOr(ctx, fallback).Info("to context")
	if ctxLogs.Len() != 1 || fallbackLogs.Len() != 1 {
		t.Error("context logger should take precedence over the fallback")
	}

	if FromContextOr(context.Background(), nil) == nil {
		t.Error("nil fallback should yield a Nop logger")
	}
}
