package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{InfoLevel, zapcore.InfoLevel},
		{WarnLevel, zapcore.WarnLevel},
		{ErrorLevel, zapcore.ErrorLevel},
		{DebugLevel, zapcore.DebugLevel},
		{"bogus", zapcore.DebugLevel},
	}
	for _, tc := range cases {
		if got := toZapLevel(tc.in); got != tc.want {
			t.Fatalf("toZapLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNamedOnNilLogger(t *testing.T) {
	var l *Logger
	if l.Named("x") != nil {
		t.Fatalf("expected nil child for nil logger")
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop().Named("dashboard")
	l.Infow("event", "k", "v")
}
