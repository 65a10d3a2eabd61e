package link

import (
	"context"
	"os"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/linkrpc"
)

// PluginName is the key under which connectors are dispensed.
const PluginName = "connector"

// Handshake is the shared configuration between the agent and connectors.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "LINK_CONNECTOR_PLUGIN",
	MagicCookieValue: "simulated_datasource_link",
}

// ConnectorPlugin is the plugin.Plugin implementation for connectors.
type ConnectorPlugin struct {
	plugin.Plugin
	Impl linkrpc.ConnectorServer
}

// GRPCServer registers the connector service on the plugin side.
func (p *ConnectorPlugin) GRPCServer(broker *plugin.GRPCBroker, s *grpc.Server) error {
	linkrpc.RegisterConnectorServer(s, p.Impl)
	return nil
}

// GRPCClient returns a linkrpc.ConnectorClient for the agent side.
func (p *ConnectorPlugin) GRPCClient(ctx context.Context, broker *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return linkrpc.NewConnectorClient(c), nil
}

// PluginMap returns the plugin set served by a connector binary.
func PluginMap(impl linkrpc.ConnectorServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &ConnectorPlugin{Impl: impl},
	}
}

// Serve runs the connector as a plugin process. It blocks until the agent
// disconnects.
func Serve(connector Connector, info PluginInfo) {
	level := logger.ParseLevel(os.Getenv("LINK_LOG_LEVEL"))
	l := logger.NewPluginLogger(os.Stderr, level)
	logger.SetDefault(l)

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(NewServer(connector, info, l)),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
