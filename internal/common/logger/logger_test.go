package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.With(map[string]interface{}{"requestId": "abc"}).
		WithError(errors.New("boom")).
		Warn("completion failed", map[string]interface{}{"attempt": 2, "cause": errors.New("timeout")})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		entry := entries[0]
		assert.Equal(t, "completion failed", entry.Message)
		assert.Equal(t, zapcore.WarnLevel, entry.Level)

		fields := entry.ContextMap()
		assert.Equal(t, "abc", fields["requestId"])
		assert.Equal(t, "boom", fields["error"])
		assert.Equal(t, "timeout", fields["cause"])
		assert.EqualValues(t, 2, fields["attempt"])
	}
}

func TestNoOpAndTestLoggers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoOpLogger().Info("quiet", nil)
		NewTestLogger(t).Debug("visible in -v", map[string]interface{}{"k": "v"})
		NewStructured("debug", "json").Debug("json", nil)
	})
}
