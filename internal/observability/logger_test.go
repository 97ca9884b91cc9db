package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"error", zap.ErrorLevel},
		{"  debug\t", zap.DebugLevel},
		{"TRACE", zap.InfoLevel},
	}
	for _, tt := range tests {
		level := parseLogLevel(tt.env)
		if got := level.Level(); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}

	// Exercise the common call shapes once so a broken encoder config panics here.
	logger.Info("pulse logger ready", zap.String("component", "test"))
	logger.Debug("debug line")
	_ = logger.Sync() // best-effort; can fail on /dev/stderr in test env
}

func TestNewLogger_RespectsLogLevelEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled when LOG_LEVEL=ERROR")
	}
	if !logger.Core().Enabled(zap.ErrorLevel) {
		t.Error("error should remain enabled when LOG_LEVEL=ERROR")
	}
}
