// Package link defines the contract between the link agent and connectors.
//
// A connector is a plugin process that registers any number of connections,
// one per datasource. The agent drives every connection through a fixed
// lifecycle (Initialize, Connect, Monitor, Disconnect) and asks it to index
// its signals, conditions and assets. Connections that implement
// SignalPullConnection or ConditionPullConnection answer on-demand requests
// for samples and capsules.
//
// Creating a connector:
//
//  1. Implement Connector and one Connection type per datasource kind
//  2. Embed ConnectionConfig in the connection configuration struct
//  3. Call Serve from the plugin's main function
//
// Example:
//
//	func main() {
//	    link.Serve(myconnector.New(), link.PluginInfo{
//	        Name:    "my-connector",
//	        Version: "1.0.0",
//	    })
//	}
package link

import (
	"context"
	"iter"
	"log/slog"
)

// Connector is the plugin entry point.
type Connector interface {
	// Name identifies the connector. The agent uses it as the stem of the
	// connector configuration file.
	Name() string

	// Initialize loads the configuration and registers connections through
	// AddConnection.
	Initialize(service ConnectorService) error

	// Destroy performs connector-wide cleanup.
	Destroy()
}

// ConnectorService is handed to a Connector by the hosting process.
type ConnectorService interface {
	// LoadConfig decodes the stored configuration into dst. found is false
	// when no configuration exists yet; dst is left untouched in that case.
	LoadConfig(dst any) (found bool, err error)

	// SaveConfig stores the configuration so the user can view and edit it.
	SaveConfig(cfg any) error

	AddConnection(conn Connection)

	Logger() *slog.Logger
}

// Connection is an adapter to one datasource.
//
// Constructors must not do I/O; that belongs in Initialize or Connect.
type Connection interface {
	// DatasourceClass identifies the type of datasource, e.g. "ERP System".
	DatasourceClass() string

	// DatasourceName may change as long as DatasourceID does not.
	DatasourceName() string

	// DatasourceID is unique and stable.
	DatasourceID() string

	Config() *ConnectionConfig

	Initialize(service ConnectionService) error

	// Connect must move the state to Connecting before Connected.
	Connect(ctx context.Context) error

	// Monitor reports whether the connection is still alive. A false result
	// makes the agent call Disconnect.
	Monitor(ctx context.Context) bool

	Disconnect(ctx context.Context)

	Destroy()

	// SaveConfig persists the configuration through the parent connector.
	SaveConfig()
}

// IndexingConnection reports signals, conditions and assets to the catalog.
type IndexingConnection interface {
	Connection

	// Index may be called twice in a row: first with SyncInventory so the
	// agent can detect changes, then with SyncFull when something changed.
	Index(ctx context.Context, mode SyncMode) error
}

// SignalPullConnection answers on-demand sample requests.
type SignalPullConnection interface {
	IndexingConnection

	// GetSamples must include one sample on or before StartTime and one on
	// or after EndTime when they exist. The sequence is consumed lazily and
	// may be abandoned early.
	GetSamples(ctx context.Context, params *GetSamplesParameters) (iter.Seq[Sample], error)
}

// ConditionPullConnection answers on-demand capsule requests.
type ConditionPullConnection interface {
	IndexingConnection

	GetCapsules(ctx context.Context, params *GetCapsulesParameters) (iter.Seq[Capsule], error)
}

// ConnectionService is handed to a Connection by the hosting process.
type ConnectionService interface {
	// Enable starts the connect/monitor cycle for the connection.
	Enable()
	Enabled() bool

	SetState(state ConnectionState)
	State() ConnectionState

	// Put* queue items of the current index pass.
	PutSignal(signal SignalDefinition) error
	PutCondition(condition ConditionDefinition) error
	PutAsset(asset AssetDefinition) error

	// Flush ships queued items immediately.
	Flush() error

	Logger() *slog.Logger
}
