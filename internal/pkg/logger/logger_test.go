package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siempreabierto/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"info", "info"},
		{"debug", "debug"},
		{"invalid falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(config.LogConfig{Level: tt.level})
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)

	l.Info("place created")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "place created")
}
