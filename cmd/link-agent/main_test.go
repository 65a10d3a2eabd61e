package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"simlink.dev/connector/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Cleanup(func() { configPath = "" })
	dir := t.TempDir()

	configPath = ""
	require.Equal(t, config.DEFAULT_AGENT_NAME, loadConfig().Name)

	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bench\nindex_interval: 5m\n"), 0o600))
	configPath = path
	conf := loadConfig()
	require.Equal(t, "bench", conf.Name)
	require.Equal(t, 5*time.Minute, conf.IndexInterval)

	configPath = filepath.Join(dir, "missing.yaml")
	require.Panics(t, func() { loadConfig() })

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("exporters: {"), 0o600))
	configPath = broken
	require.Panics(t, func() { loadConfig() })
}

func TestPullWindow(t *testing.T) {
	now := time.Unix(7200, 0)
	tests := []struct {
		name       string
		flags      pullFlags
		start, end time.Duration
		wantErr    bool
	}{
		{name: "defaults", start: time.Hour, end: 2 * time.Hour},
		{name: "explicit", flags: pullFlags{start: "1970-01-01T00:00:10Z", end: "20000000000"}, start: 10 * time.Second, end: 20 * time.Second},
		{name: "inverted", flags: pullFlags{start: "30", end: "20"}, wantErr: true},
		{name: "bad end", flags: pullFlags{end: "tomorrow"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.flags.window(now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, int64(tt.start), int64(start))
			require.Equal(t, int64(tt.end), int64(end))
		})
	}
}
