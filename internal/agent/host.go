package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/linkrpc"
)

// Host drives one connector plugin: it describes it, hands it its
// configuration file and keeps the file in sync with what the connector
// saves.
type Host struct {
	Plugin string
	Info   *linkrpc.DescribeResponse

	client     linkrpc.ConnectorClient
	configPath string
	configMu   sync.Mutex

	Connections []*Connection
}

// NewHost initializes the connector behind client. Its configuration lives
// in <configDir>/<connector name>.yaml; a missing file is passed on as not
// found.
func NewHost(ctx context.Context, pluginName string, client linkrpc.ConnectorClient, configDir string) (*Host, error) {
	info, err := client.Describe(ctx, &linkrpc.DescribeRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe plugin %s: %w", pluginName, err)
	}

	h := &Host{
		Plugin:     pluginName,
		Info:       info,
		client:     client,
		configPath: filepath.Join(configDir, info.ConnectorName+".yaml"),
	}

	req := &linkrpc.InitializeRequest{}
	data, err := os.ReadFile(h.configPath)
	switch {
	case err == nil:
		req.Config, req.Found = data, true
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("No connector configuration found", slog.String("path", h.configPath))
	default:
		return nil, fmt.Errorf("failed to read connector configuration: %w", err)
	}

	resp, err := client.Initialize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize connector %s: %w", info.ConnectorName, err)
	}
	if len(resp.SavedConfig) > 0 {
		if err := h.saveConfig(resp.SavedConfig); err != nil {
			return nil, err
		}
	}

	for _, ci := range resp.Connections {
		h.Connections = append(h.Connections, newConnection(h, ci))
	}

	logger.Info("Initialized connector",
		slog.String("plugin", pluginName),
		slog.String("connector", info.ConnectorName),
		slog.String("version", info.Version),
		slog.Int("connections", len(h.Connections)))
	return h, nil
}

// ConfigPath is the file the connector configuration is read from and
// written to.
func (h *Host) ConfigPath() string {
	return h.configPath
}

func (h *Host) saveConfig(data []byte) error {
	h.configMu.Lock()
	defer h.configMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(h.configPath), 0o755); err != nil {
		return err
	}
	tmp := h.configPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	logger.Debug("Saved connector configuration", slog.String("path", h.configPath))
	return os.Rename(tmp, h.configPath)
}

// Destroy disconnects every connection and tears the connector down.
func (h *Host) Destroy(ctx context.Context) error {
	_, err := h.client.Destroy(ctx, &linkrpc.Empty{})
	return err
}
