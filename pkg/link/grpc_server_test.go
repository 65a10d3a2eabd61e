package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"testing"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/require"

	"simlink.dev/connector/pkg/linkrpc"
)

type fakeConfig struct {
	ConnectionConfig `yaml:",inline"`
	Points           int `yaml:"points"`
}

type fakeConnector struct {
	svc       ConnectorService
	config    ConnectorConfig[*fakeConfig]
	destroyed bool

	// when set, Index reports on entered and waits for hold
	entered chan struct{}
	hold    chan struct{}
}

func (c *fakeConnector) Name() string { return "Fake Connector" }

func (c *fakeConnector) Initialize(svc ConnectorService) error {
	c.svc = svc
	found, err := svc.LoadConfig(&c.config)
	if err != nil {
		return err
	}
	if !found {
		c.config.Version = "v1"
		c.config.Connections = []*fakeConfig{{
			ConnectionConfig: ConnectionConfig{Name: "first", ID: "conn-1", Enabled: true},
			Points:           2500,
		}}
	}
	for _, cfg := range c.config.Connections {
		svc.AddConnection(&fakeConnection{parent: c, config: cfg})
	}
	return svc.SaveConfig(c.config)
}

func (c *fakeConnector) Destroy() { c.destroyed = true }

type fakeConnection struct {
	parent *fakeConnector
	config *fakeConfig
	svc    ConnectionService
	alive  bool
	closed int
}

func (c *fakeConnection) DatasourceClass() string   { return "Fake" }
func (c *fakeConnection) DatasourceName() string    { return c.config.Name }
func (c *fakeConnection) DatasourceID() string      { return c.config.ID }
func (c *fakeConnection) Config() *ConnectionConfig { return &c.config.ConnectionConfig }
func (c *fakeConnection) Destroy()                  {}
func (c *fakeConnection) SaveConfig()               { _ = c.parent.svc.SaveConfig(c.parent.config) }

func (c *fakeConnection) Initialize(svc ConnectionService) error {
	c.svc = svc
	if c.config.Enabled {
		svc.Enable()
	}
	return nil
}

func (c *fakeConnection) Connect(ctx context.Context) error {
	c.svc.SetState(Connecting)
	c.alive = true
	c.svc.SetState(Connected)
	return nil
}

func (c *fakeConnection) Monitor(ctx context.Context) bool { return c.alive }

func (c *fakeConnection) Disconnect(ctx context.Context) {
	c.alive = false
	c.svc.SetState(Disconnected)
}

func (c *fakeConnection) Index(ctx context.Context, mode SyncMode) error {
	if err := c.svc.PutAsset(AssetDefinition{DataID: "root", Name: c.config.Name}); err != nil {
		return err
	}
	if c.parent.entered != nil {
		c.parent.entered <- struct{}{}
		<-c.parent.hold
	}
	for i := 0; i < 3; i++ {
		if err := c.svc.PutSignal(SignalDefinition{
			DataID:              fmt.Sprint(i),
			Name:                fmt.Sprintf("Signal %d", i),
			AssetID:             "root",
			InterpolationMethod: Linear,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeConnection) GetSamples(ctx context.Context, p *GetSamplesParameters) (iter.Seq[Sample], error) {
	p.SetLastCertainKey(p.EndTime)
	return func(yield func(Sample) bool) {
		defer func() { c.closed++ }()
		for i := 0; i < c.config.Points && i < p.SampleLimit; i++ {
			if !yield(Sample{Key: p.StartTime + TimeInstant(i), Value: float64(i)}) {
				return
			}
		}
	}, nil
}

func (c *fakeConnection) GetCapsules(ctx context.Context, p *GetCapsulesParameters) (iter.Seq[Capsule], error) {
	return func(yield func(Capsule) bool) {
		yield(Capsule{Start: p.StartTime, End: p.EndTime, Properties: []Property{{Name: "Severity", Value: "HIGH"}}})
	}, nil
}

func startServer(t *testing.T, connector Connector) linkrpc.ConnectorClient {
	t.Helper()
	server := NewServer(connector, PluginInfo{Name: "fake", Version: "0.0.1"}, slog.Default())
	client, _ := plugin.TestPluginGRPCConn(t, false, PluginMap(server))
	t.Cleanup(func() { client.Close() })

	raw, err := client.Dispense(PluginName)
	require.NoError(t, err)
	cc, ok := raw.(linkrpc.ConnectorClient)
	require.True(t, ok)
	return cc
}

func TestServerLifecycle(t *testing.T) {
	ctx := context.Background()
	connector := &fakeConnector{}
	client := startServer(t, connector)

	desc, err := client.Describe(ctx, &linkrpc.DescribeRequest{})
	require.NoError(t, err)
	require.Equal(t, "Fake Connector", desc.ConnectorName)
	require.Equal(t, "0.0.1", desc.Version)

	initResp, err := client.Initialize(ctx, &linkrpc.InitializeRequest{})
	require.NoError(t, err)
	require.Len(t, initResp.Connections, 1)
	require.Equal(t, "conn-1", initResp.Connections[0].ID)
	require.True(t, initResp.Connections[0].Enabled)
	require.True(t, initResp.Connections[0].Signals)
	require.True(t, initResp.Connections[0].Conditions)
	require.Contains(t, string(initResp.SavedConfig), "points: 2500")

	_, err = client.Initialize(ctx, &linkrpc.InitializeRequest{})
	require.Error(t, err)

	mon, err := client.Monitor(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	require.False(t, mon.Alive)

	conn, err := client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	require.Equal(t, string(Connected), conn.State)

	mon, err = client.Monitor(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	require.True(t, mon.Alive)

	_, err = client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "missing"})
	require.ErrorIs(t, FromStatus(err), ErrUnknownConnection)

	_, err = client.Disconnect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	mon, err = client.Monitor(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	require.Equal(t, string(Disconnected), mon.State)

	_, err = client.Destroy(ctx, &linkrpc.Empty{})
	require.NoError(t, err)
	require.True(t, connector.destroyed)
}

func collectIndex(t *testing.T, client linkrpc.ConnectorClient, mode SyncMode) (items int, final *linkrpc.IndexBatch) {
	t.Helper()
	stream, err := client.Index(context.Background(), &linkrpc.IndexRequest{ConnectionID: "conn-1", SyncMode: string(mode)})
	require.NoError(t, err)
	for {
		batch, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return items, final
		}
		require.NoError(t, err)
		items += len(batch.Signals) + len(batch.Conditions) + len(batch.Assets)
		if batch.Inventory != nil {
			final = batch
		}
	}
}

func TestServerIndex(t *testing.T) {
	ctx := context.Background()
	client := startServer(t, &fakeConnector{})

	_, err := client.Initialize(ctx, &linkrpc.InitializeRequest{})
	require.NoError(t, err)

	stream, err := client.Index(ctx, &linkrpc.IndexRequest{ConnectionID: "conn-1", SyncMode: "FULL"})
	require.NoError(t, err)
	_, err = stream.Recv()
	require.ErrorIs(t, FromStatus(err), ErrNotConnected)

	_, err = client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	items, inv := collectIndex(t, client, SyncInventory)
	require.Zero(t, items)
	require.NotNil(t, inv)
	require.Equal(t, int64(4), inv.Inventory.Count)
	require.Empty(t, inv.SavedConfig)

	items, full := collectIndex(t, client, SyncFull)
	require.Equal(t, 4, items)
	require.Equal(t, inv.Inventory, full.Inventory)
	require.Contains(t, string(full.SavedConfig), "last_indexed_at")
}

func TestServerRejectsConcurrentIndex(t *testing.T) {
	ctx := context.Background()
	connector := &fakeConnector{entered: make(chan struct{}, 1), hold: make(chan struct{})}
	client := startServer(t, connector)

	_, err := client.Initialize(ctx, &linkrpc.InitializeRequest{})
	require.NoError(t, err)
	_, err = client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	first, err := client.Index(ctx, &linkrpc.IndexRequest{ConnectionID: "conn-1", SyncMode: "INVENTORY"})
	require.NoError(t, err)
	<-connector.entered

	second, err := client.Index(ctx, &linkrpc.IndexRequest{ConnectionID: "conn-1", SyncMode: "INVENTORY"})
	require.NoError(t, err)
	_, err = second.Recv()
	require.ErrorIs(t, FromStatus(err), ErrIndexInProgress)

	close(connector.hold)
	final, err := first.Recv()
	require.NoError(t, err)
	require.NotNil(t, final.Inventory)
	require.Equal(t, int64(4), final.Inventory.Count)

	_, inv := collectIndex(t, client, SyncInventory)
	require.Equal(t, final.Inventory, inv.Inventory)
}

func TestServerGetSamplesPaging(t *testing.T) {
	ctx := context.Background()
	connector := &fakeConnector{}
	client := startServer(t, connector)

	_, err := client.Initialize(ctx, &linkrpc.InitializeRequest{})
	require.NoError(t, err)
	_, err = client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		limit     int
		wantPages int
		wantTotal int
	}{
		{name: "single page", limit: 10, wantPages: 1, wantTotal: 10},
		{name: "exact page", limit: PageSize, wantPages: 2, wantTotal: PageSize},
		{name: "multiple pages", limit: 5000, wantPages: 3, wantTotal: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := client.GetSamples(ctx, &linkrpc.GetSamplesRequest{
				ConnectionID: "conn-1",
				DataID:       "1",
				StartTime:    100,
				EndTime:      200,
				SampleLimit:  tt.limit,
			})
			require.NoError(t, err)

			pages, total := 0, 0
			var last *linkrpc.SamplePage
			for {
				page, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				pages++
				total += len(page.Samples)
				last = page
			}
			require.Equal(t, tt.wantPages, pages)
			require.Equal(t, tt.wantTotal, total)
			require.True(t, last.Last)
			require.NotNil(t, last.LastCertainKey)
			require.Equal(t, int64(200), *last.LastCertainKey)
		})
	}

	stream, err := client.GetSamples(ctx, &linkrpc.GetSamplesRequest{ConnectionID: "conn-1", StartTime: 10, EndTime: 5})
	require.NoError(t, err)
	_, err = stream.Recv()
	require.ErrorIs(t, FromStatus(err), ErrInvalidRequest)
}

func TestServerGetCapsules(t *testing.T) {
	ctx := context.Background()
	client := startServer(t, &fakeConnector{})

	_, err := client.Initialize(ctx, &linkrpc.InitializeRequest{})
	require.NoError(t, err)
	_, err = client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	stream, err := client.GetCapsules(ctx, &linkrpc.GetCapsulesRequest{ConnectionID: "conn-1", StartTime: 1, EndTime: 9, CapsuleLimit: 5})
	require.NoError(t, err)
	page, err := stream.Recv()
	require.NoError(t, err)
	require.True(t, page.Last)
	require.Len(t, page.Capsules, 1)
	require.Equal(t, "HIGH", page.Capsules[0].Properties[0].Value)
	require.Nil(t, page.LastCertainKey)
}
