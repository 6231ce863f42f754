package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: NewConfig()},
		{name: "json", config: Config{Format: "json", Level: zapcore.InfoLevel}},
		{name: "console", config: Config{Format: "console"}},
		{name: "unknown format", config: Config{Format: "yaml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := NewWithConfig(tt.config, &buf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			log.Info("started")
			require.NoError(t, log.Sync())
			require.Contains(t, buf.String(), "started")
		})
	}
}

func TestConfigFromTOML(t *testing.T) {
	var c Config
	_, err := toml.Decode(`
format = "json"
level = "warn"
`, &c)
	require.NoError(t, err)
	require.Equal(t, "json", c.Format)
	require.Equal(t, zapcore.WarnLevel, c.Level)
}

func TestLoggerContext(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, FromContext(ctx))

	log := zap.NewNop()
	ctx = NewContextWithLogger(ctx, log)
	require.Same(t, log, FromContext(ctx))
}
