// Package plugin locates connector binaries and launches them through
// HashiCorp go-plugin.
package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v2"
	"github.com/hashicorp/go-plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
	"simlink.dev/connector/pkg/linkrpc"
)

var pluginInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "link_connector_plugin_info",
	Help: "Information about loaded connector plugins",
}, []string{"plugin_name"})

// Registry manages connector plugins.
type Registry struct {
	plugins map[string]*LoadedPlugin
	mutex   sync.RWMutex

	// LogLevel is passed to plugin processes through LINK_LOG_LEVEL.
	LogLevel string
}

// LoadedPlugin represents a registered plugin with its client. The process
// starts on first Dispense.
type LoadedPlugin struct {
	Name   string
	Path   string
	Client *plugin.Client
}

var registry = NewRegistry()

// GetRegistry returns the process wide registry.
func GetRegistry() *Registry {
	return registry
}

func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]*LoadedPlugin),
	}
}

// LoadPlugin registers the plugin executable at pluginPath.
func (pr *Registry) LoadPlugin(pluginPath string) error {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()

	pluginName := filepath.Base(pluginPath)
	pluginName = strings.TrimSuffix(pluginName, filepath.Ext(pluginName))

	if _, exists := pr.plugins[pluginName]; exists {
		logger.Info("Plugin already loaded", slog.String("name", pluginName))
		return nil
	}

	cmd := exec.Command(pluginPath)
	cmd.Env = os.Environ()
	if pr.LogLevel != "" {
		cmd.Env = append(cmd.Env, "LINK_LOG_LEVEL="+pr.LogLevel)
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  link.Handshake,
		Plugins:          link.PluginMap(nil),
		Cmd:              cmd,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Logger:           logger.NewHCLogAdapter().Named(pluginName),
	})

	pr.plugins[pluginName] = &LoadedPlugin{
		Name:   pluginName,
		Path:   pluginPath,
		Client: client,
	}

	logger.Info("Registered connector plugin",
		slog.String("name", pluginName),
		slog.String("path", pluginPath))
	pluginInfo.WithLabelValues(pluginName).Set(1)

	return nil
}

// LoadPluginsFromPaths registers every executable matching the glob
// patterns. Patterns may use ** to descend into subdirectories.
func (pr *Registry) LoadPluginsFromPaths(patterns []string) error {
	var loadErrors []string
	loadedCount := 0

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid connector search path %s: %w", pattern, err)
		}

		for _, pluginPath := range matches {
			if !isExecutable(pluginPath) {
				continue
			}
			if err := pr.LoadPlugin(pluginPath); err != nil {
				logger.Error("Failed to load connector plugin", slog.String("path", pluginPath), slog.Any("error", err))
				loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", pluginPath, err))
			} else {
				loadedCount++
			}
		}
	}

	if len(loadErrors) > 0 {
		logger.Warn("Failed to load some connector plugins", slog.String("errors", strings.Join(loadErrors, "; ")))
	}

	logger.Info("Loaded connector plugins", slog.Int("count", loadedCount))
	return nil
}

func isExecutable(path string) bool {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return false
	}
	found, err := exec.LookPath(path)
	return err == nil && found != ""
}

// GetPlugin returns a loaded plugin by name.
func (pr *Registry) GetPlugin(name string) (*LoadedPlugin, bool) {
	pr.mutex.RLock()
	defer pr.mutex.RUnlock()

	p, exists := pr.plugins[name]
	return p, exists
}

// Dispense starts the plugin process if needed and returns its connector
// client.
func (pr *Registry) Dispense(pluginName string) (linkrpc.ConnectorClient, error) {
	loadedPlugin, exists := pr.GetPlugin(pluginName)
	if !exists {
		return nil, fmt.Errorf("connector plugin %s not found", pluginName)
	}

	rpcClient, err := loadedPlugin.Client.Client()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to plugin %s: %w", pluginName, err)
	}

	raw, err := rpcClient.Dispense(link.PluginName)
	if err != nil {
		loadedPlugin.Client.Kill()
		return nil, fmt.Errorf("failed to dispense connector from plugin %s: %w", pluginName, err)
	}

	client, ok := raw.(linkrpc.ConnectorClient)
	if !ok {
		loadedPlugin.Client.Kill()
		return nil, fmt.Errorf("plugin %s did not return a valid connector client", pluginName)
	}

	return client, nil
}

// CleanupAll kills every plugin process.
func (pr *Registry) CleanupAll() {
	pr.mutex.Lock()
	defer pr.mutex.Unlock()

	logger.Info("Cleaning up all connector plugins")

	for name, p := range pr.plugins {
		logger.Debug("Killing connector plugin", slog.String("name", name))
		p.Client.Kill()
		pluginInfo.DeleteLabelValues(name)
	}

	pr.plugins = make(map[string]*LoadedPlugin)
}

// ListPlugins returns the registered plugins sorted by name.
func (pr *Registry) ListPlugins() []*LoadedPlugin {
	pr.mutex.RLock()
	defer pr.mutex.RUnlock()

	list := make([]*LoadedPlugin, 0, len(pr.plugins))
	for _, p := range pr.plugins {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b *LoadedPlugin) int {
		return strings.Compare(a.Name, b.Name)
	})
	return list
}
