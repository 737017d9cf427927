package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		format   string
		expected zapcore.Level
	}{
		{"Production Info", "info", "json", zapcore.InfoLevel},
		{"Default Format", "warn", "", zapcore.WarnLevel},
		{"Console Debug", "debug", "console", zapcore.DebugLevel},
		{"Upper Case Level", "ERROR", "JSON", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format)

			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.expected))
			assert.False(t, log.Core().Enabled(tt.expected-1))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("verbose", "json")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}
