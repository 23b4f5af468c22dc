// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{name: "debug", level: "debug", wantLevel: zerolog.DebugLevel},
		{name: "info", level: "info", wantLevel: zerolog.InfoLevel},
		{name: "warn alias", level: "warning", wantLevel: zerolog.WarnLevel},
		{name: "error", level: "error", wantLevel: zerolog.ErrorLevel},
		{name: "unknown defaults to info", level: "bogus", wantLevel: zerolog.InfoLevel},
		{name: "empty defaults to info", level: "", wantLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(Config{Level: tt.level})
			if got := zerolog.GlobalLevel(); got != tt.wantLevel {
				t.Errorf("global level = %v, want %v", got, tt.wantLevel)
			}
		})
	}

	// Restore defaults for other tests.
	Init(DefaultConfig())
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf, Timestamp: true})
	defer Init(DefaultConfig())

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("output missing structured field: %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("output missing message: %s", out)
	}
}

func TestCtx_RequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-123")
	logger := Ctx(ctx)
	logger.Info().Msg("with id")

	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("output missing request_id: %s", buf.String())
	}
}

func TestCtx_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := Ctx(context.Background())
	logger.Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("output should not contain request_id: %s", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	custom := zerolog.New(&buf).With().Str("src", "custom").Logger()

	ctx := ContextWithLogger(context.Background(), custom)
	got := LoggerFromContext(ctx)
	got.Info().Msg("routed")

	if !strings.Contains(buf.String(), `"src":"custom"`) {
		t.Errorf("context logger not used: %s", buf.String())
	}
}

func TestGenerateRequestID_Unique(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Error("request IDs should be unique")
	}
	if len(a) == 0 {
		t.Error("request ID should not be empty")
	}
}
