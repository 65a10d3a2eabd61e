package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"

	"simlink.dev/connector/internal/catalog"
	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
	"simlink.dev/connector/pkg/linkrpc"
)

var connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "link_connection_state",
	Help: "Current state of a connection, 1 for the active state",
}, []string{"datasource", "state"})

var allStates = []link.ConnectionState{link.Disabled, link.Disconnected, link.Connecting, link.Connected}

// Connection is the agent side of one connection hosted by a plugin.
type Connection struct {
	Info *linkrpc.ConnectionInfo

	host   *Host
	client linkrpc.ConnectorClient
	gate   *QueryGate
	log    *slog.Logger

	// held for a whole index run
	indexing *semaphore.Weighted

	mu          sync.RWMutex
	state       link.ConnectionState
	lastIndexed time.Time
	inventory   *link.Inventory

	connected chan struct{}
}

func newConnection(host *Host, info *linkrpc.ConnectionInfo) *Connection {
	c := &Connection{
		Info:      info,
		host:      host,
		client:    host.client,
		gate:      NewQueryGate(info.MaxConcurrentRequests, info.MaxResultsPerRequest),
		indexing:  semaphore.NewWeighted(1),
		log:       logger.With(slog.String("connection", info.Name), slog.String("datasource", info.ID)),
		connected: make(chan struct{}, 1),
	}
	if info.Enabled {
		c.setState(link.Disconnected)
	} else {
		c.setState(link.Disabled)
	}
	return c
}

// ID is the datasource id of the connection.
func (c *Connection) ID() string {
	return c.Info.ID
}

// Plugin is the name of the plugin hosting the connection.
func (c *Connection) Plugin() string {
	return c.host.Plugin
}

func (c *Connection) State() link.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) setState(state link.ConnectionState) {
	c.mu.Lock()
	previous := c.state
	c.state = state
	c.mu.Unlock()

	if previous != state {
		c.log.Info("Connection state changed", slog.String("from", string(previous)), slog.String("to", string(state)))
	}
	for _, s := range allStates {
		v := 0.0
		if s == state {
			v = 1
		}
		connectionState.WithLabelValues(c.Info.ID, string(s)).Set(v)
	}
}

// LastIndexed returns the time and inventory of the last successful index
// run, if any.
func (c *Connection) LastIndexed() (time.Time, *link.Inventory) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastIndexed, c.inventory
}

func (c *Connection) indexed(inv link.Inventory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastIndexed = time.Now()
	c.inventory = &inv
}

// Connect fails with link.ErrNotConnected for a disabled connection. On
// success the state is whatever the plugin reports.
func (c *Connection) Connect(ctx context.Context) error {
	if !c.Info.Enabled {
		return link.ErrNotConnected
	}
	c.setState(link.Connecting)
	resp, err := c.client.Connect(ctx, &linkrpc.ConnectionRequest{ConnectionID: c.ID()})
	if err != nil {
		c.setState(link.Disconnected)
		return link.FromStatus(err)
	}
	state := link.ConnectionState(resp.State)
	c.setState(state)
	if state == link.Connected {
		select {
		case c.connected <- struct{}{}:
		default:
		}
	}
	return nil
}

// Monitor reports whether the connection is still alive.
func (c *Connection) Monitor(ctx context.Context) (bool, error) {
	resp, err := c.client.Monitor(ctx, &linkrpc.ConnectionRequest{ConnectionID: c.ID()})
	if err != nil {
		return false, link.FromStatus(err)
	}
	return resp.Alive, nil
}

// Disconnect leaves a disabled connection Disabled.
func (c *Connection) Disconnect(ctx context.Context) error {
	_, err := c.client.Disconnect(ctx, &linkrpc.ConnectionRequest{ConnectionID: c.ID()})
	if c.Info.Enabled {
		c.setState(link.Disconnected)
	}
	return link.FromStatus(err)
}

// Index runs one pass. In FULL mode every received batch is handed to put.
// The connector's saved configuration, if any, is written back through the
// host.
func (c *Connection) Index(ctx context.Context, mode link.SyncMode, put func(catalog.Batch) error) (link.Inventory, error) {
	stream, err := c.client.Index(ctx, &linkrpc.IndexRequest{ConnectionID: c.ID(), SyncMode: string(mode)})
	if err != nil {
		return link.Inventory{}, link.FromStatus(err)
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return link.Inventory{}, errors.New("index stream ended without inventory")
		}
		if err != nil {
			return link.Inventory{}, link.FromStatus(err)
		}

		if put != nil {
			batch := batchFromRPC(msg)
			if batch.Len() > 0 {
				if err := put(batch); err != nil {
					return link.Inventory{}, err
				}
			}
		}

		if len(msg.SavedConfig) > 0 {
			if err := c.host.saveConfig(msg.SavedConfig); err != nil {
				c.log.Error("Failed to write connector configuration", slog.Any("error", err))
			}
		}

		if msg.Inventory != nil {
			return link.InventoryFromRPC(msg.Inventory), nil
		}
	}
}

func batchFromRPC(msg *linkrpc.IndexBatch) catalog.Batch {
	var b catalog.Batch
	for _, s := range msg.Signals {
		b.Signals = append(b.Signals, link.SignalFromRPC(s))
	}
	for _, cond := range msg.Conditions {
		b.Conditions = append(b.Conditions, link.ConditionFromRPC(cond))
	}
	for _, a := range msg.Assets {
		b.Assets = append(b.Assets, link.AssetFromRPC(a))
	}
	return b
}

// SampleResult is the outcome of a pull of samples.
type SampleResult struct {
	Samples        []link.Sample
	LastCertainKey *link.TimeInstant
}

// GetSamples pulls samples through the query gate. The limit is capped by
// the connection's MaxResultsPerRequest.
func (c *Connection) GetSamples(ctx context.Context, p link.GetSamplesParameters) (SampleResult, error) {
	release, err := c.gate.Acquire(ctx)
	if err != nil {
		return SampleResult{}, err
	}
	defer release()

	stream, err := c.client.GetSamples(ctx, &linkrpc.GetSamplesRequest{
		ConnectionID:            c.ID(),
		DataID:                  p.DataID,
		StartTime:               int64(p.StartTime),
		EndTime:                 int64(p.EndTime),
		SampleLimit:             c.gate.Limit(p.SampleLimit),
		LastCertainKeyRequested: p.LastCertainKeyRequested,
	})
	if err != nil {
		return SampleResult{}, link.FromStatus(err)
	}

	var result SampleResult
	for {
		page, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return SampleResult{}, link.FromStatus(err)
		}
		for _, s := range page.Samples {
			result.Samples = append(result.Samples, link.SampleFromRPC(s))
		}
		if page.LastCertainKey != nil {
			key := link.TimeInstant(*page.LastCertainKey)
			result.LastCertainKey = &key
		}
		if page.Last {
			return result, nil
		}
	}
}

// CapsuleResult is the outcome of one GetCapsules call.
type CapsuleResult struct {
	Capsules       []link.Capsule
	LastCertainKey *link.TimeInstant
}

// GetCapsules pulls capsules through the connection's query gate, reading
// pages until the last one.
func (c *Connection) GetCapsules(ctx context.Context, p link.GetCapsulesParameters) (CapsuleResult, error) {
	release, err := c.gate.Acquire(ctx)
	if err != nil {
		return CapsuleResult{}, err
	}
	defer release()

	stream, err := c.client.GetCapsules(ctx, &linkrpc.GetCapsulesRequest{
		ConnectionID:            c.ID(),
		DataID:                  p.DataID,
		StartTime:               int64(p.StartTime),
		EndTime:                 int64(p.EndTime),
		CapsuleLimit:            c.gate.Limit(p.CapsuleLimit),
		LastCertainKeyRequested: p.LastCertainKeyRequested,
	})
	if err != nil {
		return CapsuleResult{}, link.FromStatus(err)
	}

	var result CapsuleResult
	for {
		page, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return CapsuleResult{}, link.FromStatus(err)
		}
		for _, capsule := range page.Capsules {
			result.Capsules = append(result.Capsules, link.CapsuleFromRPC(capsule))
		}
		if page.LastCertainKey != nil {
			key := link.TimeInstant(*page.LastCertainKey)
			result.LastCertainKey = &key
		}
		if page.Last {
			return result, nil
		}
	}
}
