package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), mode))
}

func TestLoadPluginsFromPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bin", "simulator-connector"), 0o755)
	writeFile(t, filepath.Join(dir, "bin", "readme-connector"), 0o644)
	writeFile(t, filepath.Join(dir, "bin", "other"), 0o755)
	writeFile(t, filepath.Join(dir, "plugins", "nested", "deep", "opc-connector"), 0o755)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin", "dir-connector"), 0o755))

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "single glob",
			patterns: []string{filepath.Join(dir, "bin", "*-connector")},
			want:     []string{"simulator-connector"},
		},
		{
			name:     "recursive glob",
			patterns: []string{filepath.Join(dir, "**", "*-connector")},
			want:     []string{"opc-connector", "simulator-connector"},
		},
		{
			name:     "no matches",
			patterns: []string{filepath.Join(dir, "missing", "*")},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			t.Cleanup(reg.CleanupAll)

			require.NoError(t, reg.LoadPluginsFromPaths(tt.patterns))

			names := []string{}
			for _, p := range reg.ListPlugins() {
				names = append(names, p.Name)
			}
			require.Equal(t, tt.want, names)
		})
	}
}

func TestLoadPluginTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simulator-connector")
	writeFile(t, path, 0o755)

	reg := NewRegistry()
	t.Cleanup(reg.CleanupAll)

	require.NoError(t, reg.LoadPlugin(path))
	require.NoError(t, reg.LoadPlugin(path))
	require.Len(t, reg.ListPlugins(), 1)

	p, ok := reg.GetPlugin("simulator-connector")
	require.True(t, ok)
	require.Equal(t, path, p.Path)

	reg.CleanupAll()
	require.Empty(t, reg.ListPlugins())
}

func TestDispenseUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Dispense("nope")
	require.ErrorContains(t, err, "not found")
}
