// Package agent hosts connector plugins: it keeps their connections
// connected, indexes them into the catalog and exports their samples.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"simlink.dev/connector/internal/catalog"
	"simlink.dev/connector/internal/config"
	"simlink.dev/connector/internal/export"
	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/internal/plugin"
	"simlink.dev/connector/pkg/filter"
	"simlink.dev/connector/pkg/link"
)

const AgentName = "Go Connector SDK Debugging Agent"

const shutdownTimeout = 10 * time.Second

// Agent hosts connector plugins for debugging. It owns the catalog, the
// indexer and the configured export jobs.
type Agent struct {
	conf    config.AgentConf
	store   catalog.Store
	indexer *Indexer
	jobs    []*exportJob

	mu          sync.RWMutex
	hosts       []*Host
	connections []*Connection
}

type exportJob struct {
	conf     config.ExporterConf
	exporter export.Exporter
	filter   filter.Filter
	// last exported sample key per datasource/data id
	last map[string]link.TimeInstant
}

// New builds an agent on top of an opened catalog. Exporters and the
// Pushgateway are created from conf.
func New(ctx context.Context, conf config.AgentConf, store catalog.Store) (*Agent, error) {
	var pushgateway *export.Pushgateway
	if conf.Pushgateway.URL != "" {
		pg, err := export.NewPushgateway(conf.Pushgateway.URL, conf.Pushgateway.Job)
		if err != nil {
			return nil, fmt.Errorf("invalid pushgateway url: %w", err)
		}
		pushgateway = pg
	}

	a := &Agent{
		conf:    conf,
		store:   store,
		indexer: NewIndexer(store, pushgateway),
	}

	for _, ec := range conf.Exporters {
		f, err := filter.NewFilter(ec.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter for exporter %s: %w", ec.Name, err)
		}
		e, err := export.New(ctx, ec)
		if err != nil {
			return nil, err
		}
		a.jobs = append(a.jobs, &exportJob{
			conf:     ec,
			exporter: e,
			filter:   f,
			last:     make(map[string]link.TimeInstant),
		})
	}
	return a, nil
}

// LoadPlugins registers every connector found on the search paths and
// initializes it. A plugin that fails to start is logged and skipped.
func (a *Agent) LoadPlugins(ctx context.Context, registry *plugin.Registry) error {
	registry.LogLevel = a.conf.LogLevel
	if err := registry.LoadPluginsFromPaths(a.conf.ConnectorSearchPaths); err != nil {
		return err
	}

	for _, p := range registry.ListPlugins() {
		client, err := registry.Dispense(p.Name)
		if err != nil {
			logger.Error("Failed to start connector plugin", slog.String("name", p.Name), slog.Any("error", err))
			continue
		}
		host, err := NewHost(ctx, p.Name, client, a.conf.ConfigDir)
		if err != nil {
			logger.Error("Failed to initialize connector plugin", slog.String("name", p.Name), slog.Any("error", err))
			continue
		}
		a.AddHost(host)
	}
	return nil
}

// AddHost registers h and its connections.
func (a *Agent) AddHost(h *Host) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hosts = append(a.hosts, h)
	a.connections = append(a.connections, h.Connections...)
}

// Hosts returns a copy of the registered hosts.
func (a *Agent) Hosts() []*Host {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Host(nil), a.hosts...)
}

// Connections returns every connection in registration order.
func (a *Agent) Connections() []*Connection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Connection(nil), a.connections...)
}

// Connection looks a connection up by datasource id. It fails with
// link.ErrUnknownConnection.
func (a *Agent) Connection(id string) (*Connection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.connections {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", link.ErrUnknownConnection, id)
}

func (a *Agent) Catalog() catalog.Store {
	return a.store
}

// Index runs an index of one connection now.
func (a *Agent) Index(ctx context.Context, id string, force bool) (IndexResult, error) {
	c, err := a.Connection(id)
	if err != nil {
		return IndexResult{}, err
	}
	return a.indexer.Run(ctx, c, force)
}

// Run supervises every connection and runs the exporters until ctx is
// done. It then destroys the connectors.
func (a *Agent) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, c := range a.Connections() {
		g.Go(func() error { return a.supervise(gctx, c) })
		g.Go(func() error { return a.indexLoop(gctx, c) })
	}
	for _, job := range a.jobs {
		g.Go(func() error { return a.exportLoop(gctx, job) })
	}

	err := g.Wait()
	a.shutdown()
	return err
}

func (a *Agent) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, h := range a.Hosts() {
		if err := h.Destroy(ctx); err != nil {
			logger.Error("Failed to destroy connector", slog.String("plugin", h.Plugin), slog.Any("error", err))
		}
	}
	for _, job := range a.jobs {
		if err := job.exporter.Close(); err != nil {
			logger.Error("Failed to close exporter", slog.String("exporter", job.exporter.Name()), slog.Any("error", err))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// supervise connects the connection, monitors it and reconnects after a
// delay once it is lost.
func (a *Agent) supervise(ctx context.Context, c *Connection) error {
	if !c.Info.Enabled {
		c.log.Info("Connection is disabled")
		return nil
	}

	for {
		if err := c.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("Failed to connect", slog.Any("error", err), slog.Duration("retry_in", a.conf.ReconnectDelay))
		} else if c.State() == link.Connected {
			a.monitor(ctx, c)
		}
		if !sleep(ctx, a.conf.ReconnectDelay) {
			return nil
		}
	}
}

func (a *Agent) monitor(ctx context.Context, c *Connection) {
	ticker := time.NewTicker(a.conf.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		alive, err := c.Monitor(ctx)
		if err == nil && alive {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("Connection lost", slog.Any("error", err))
		if err := c.Disconnect(ctx); err != nil {
			c.log.Error("Failed to disconnect", slog.Any("error", err))
		}
		return
	}
}

func (a *Agent) indexInterval(c *Connection) time.Duration {
	if c.Info.IndexingSchedule != "" {
		d, err := time.ParseDuration(c.Info.IndexingSchedule)
		if err == nil && d > 0 {
			return d
		}
		c.log.Warn("Ignoring invalid indexing schedule", slog.String("schedule", c.Info.IndexingSchedule))
	}
	return a.conf.IndexInterval
}

// indexLoop indexes after the first successful connect and then on the
// connection's schedule while it is connected.
func (a *Agent) indexLoop(ctx context.Context, c *Connection) error {
	if !c.Info.Enabled || !c.Info.Indexing {
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case <-c.connected:
	}

	interval := a.indexInterval(c)
	for {
		if c.State() == link.Connected {
			if _, err := a.indexer.Run(ctx, c, false); err != nil && ctx.Err() == nil {
				c.log.Error("Index failed", slog.Any("error", err))
			}
		}
		if !sleep(ctx, interval) {
			return nil
		}
	}
}

func (a *Agent) exportLoop(ctx context.Context, job *exportJob) error {
	ticker := time.NewTicker(job.conf.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			a.exportOnce(ctx, job, now)
		}
	}
}

// exportOnce pulls the samples of every accepted signal that were not
// exported yet, looking back at most job.conf.Lookback from now.
func (a *Agent) exportOnce(ctx context.Context, job *exportJob, now time.Time) {
	end := link.InstantOf(now)
	for _, c := range a.Connections() {
		if c.State() != link.Connected || !c.Info.Signals || !job.conf.Exports(c.ID()) {
			continue
		}

		signals, err := a.store.Signals(ctx, c.ID())
		if err != nil {
			logger.Error("Failed to read catalog", slog.String("datasource", c.ID()), slog.Any("error", err))
			continue
		}

		for _, s := range job.filter.FilterSignals(signals) {
			key := c.ID() + "/" + s.DataID
			start := link.InstantOf(now.Add(-job.conf.Lookback))
			last, seen := job.last[key]
			if seen && last >= start {
				start = last + 1
			}
			if start > end {
				continue
			}

			res, err := c.GetSamples(ctx, link.GetSamplesParameters{DataID: s.DataID, StartTime: start, EndTime: end})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("Failed to pull samples",
					slog.String("exporter", job.exporter.Name()),
					slog.String("datasource", c.ID()),
					slog.String("data_id", s.DataID),
					slog.Any("error", err))
				continue
			}

			// GetSamples pads the range with one sample past end, which
			// would be a sample from the future.
			samples := res.Samples[:0]
			newest := last
			for _, sample := range res.Samples {
				if sample.Key > end || (seen && sample.Key <= last) {
					continue
				}
				samples = append(samples, sample)
				newest = max(newest, sample.Key)
			}
			if len(samples) == 0 {
				continue
			}

			if err := job.exporter.Export(ctx, c.ID(), s, samples); err != nil {
				logger.Error("Failed to export samples",
					slog.String("exporter", job.exporter.Name()),
					slog.String("data_id", s.DataID),
					slog.Any("error", err))
				continue
			}
			job.last[key] = newest
		}
	}
}
