package link

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"

	"simlink.dev/connector/pkg/linkrpc"
)

// PageSize is the maximum number of samples or capsules per stream message.
const PageSize = 1000

type hostedConnection struct {
	conn    Connection
	service *connectionService
}

// Server hosts a Connector inside the plugin process and exposes it through
// linkrpc.ConnectorServer.
type Server struct {
	linkrpc.UnimplementedConnectorServer

	info      PluginInfo
	connector Connector
	logger    *slog.Logger

	mu          sync.RWMutex
	service     *connectorService
	connections map[string]*hostedConnection
	order       []string
}

// NewServer wraps connector. A nil logger uses slog.Default().
func NewServer(connector Connector, info PluginInfo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		info:        info,
		connector:   connector,
		logger:      logger,
		connections: make(map[string]*hostedConnection),
	}
}

// Describe reports the plugin info and the connector name.
func (s *Server) Describe(ctx context.Context, req *linkrpc.DescribeRequest) (*linkrpc.DescribeResponse, error) {
	return &linkrpc.DescribeResponse{
		Name:          s.info.Name,
		Version:       s.info.Version,
		Description:   s.info.Description,
		Author:        s.info.Author,
		ConnectorName: s.connector.Name(),
	}, nil
}

// Initialize runs Connector.Initialize once and then initializes every
// connection it added. Connections with a duplicate id or a failing
// Initialize are left out of the response. A second call fails with
// ErrInitialized.
func (s *Server) Initialize(ctx context.Context, req *linkrpc.InitializeRequest) (*linkrpc.InitializeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service != nil {
		return nil, toStatus(ErrInitialized)
	}
	s.service = newConnectorService(req.Config, req.Found, s.logger.With("connector", s.connector.Name()))

	if err := s.connector.Initialize(s.service); err != nil {
		s.service = nil
		return nil, toStatus(fmt.Errorf("failed to initialize connector %s: %w", s.connector.Name(), err))
	}

	resp := &linkrpc.InitializeResponse{}
	for _, conn := range s.service.connections {
		id := conn.DatasourceID()
		if _, dup := s.connections[id]; dup {
			s.logger.Warn("Duplicate connection id, skipping", slog.String("id", id))
			continue
		}
		svc := newConnectionService(s.logger.With(
			slog.String("connection", conn.DatasourceName()),
			slog.String("id", id),
		))
		if err := conn.Initialize(svc); err != nil {
			s.logger.Error("Failed to initialize connection",
				slog.String("id", id), slog.Any("error", err))
			continue
		}
		s.connections[id] = &hostedConnection{conn: conn, service: svc}
		s.order = append(s.order, id)
		resp.Connections = append(resp.Connections, connectionInfo(conn, svc))
	}
	resp.SavedConfig = s.service.takeSaved()

	s.logger.Info("Connector initialized",
		slog.String("connector", s.connector.Name()),
		slog.Int("connections", len(resp.Connections)))
	return resp, nil
}

func (s *Server) lookup(id string) (*hostedConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.connections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	return h, nil
}

func (s *Server) connected(id string) (*hostedConnection, error) {
	h, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if state := h.service.State(); state != Connected {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotConnected, id, state)
	}
	return h, nil
}

// Connect is a no-op for a connection that is already connected. A failed
// attempt leaves the connection Disconnected.
func (s *Server) Connect(ctx context.Context, req *linkrpc.ConnectionRequest) (*linkrpc.ConnectResponse, error) {
	h, err := s.lookup(req.ConnectionID)
	if err != nil {
		return nil, toStatus(err)
	}
	if !h.service.Enabled() {
		return nil, toStatus(fmt.Errorf("%w: %s is disabled", ErrNotConnected, req.ConnectionID))
	}
	if h.service.State() == Connected {
		return &linkrpc.ConnectResponse{State: string(Connected)}, nil
	}
	if err := h.conn.Connect(ctx); err != nil {
		h.service.SetState(Disconnected)
		return nil, toStatus(fmt.Errorf("failed to connect %s: %w", req.ConnectionID, err))
	}
	return &linkrpc.ConnectResponse{State: string(h.service.State())}, nil
}

// Monitor only asks the connection when it is Connected.
func (s *Server) Monitor(ctx context.Context, req *linkrpc.ConnectionRequest) (*linkrpc.MonitorResponse, error) {
	h, err := s.lookup(req.ConnectionID)
	if err != nil {
		return nil, toStatus(err)
	}
	state := h.service.State()
	if state != Connected {
		return &linkrpc.MonitorResponse{Alive: false, State: string(state)}, nil
	}
	return &linkrpc.MonitorResponse{Alive: h.conn.Monitor(ctx), State: string(state)}, nil
}

// Disconnect keeps a disabled connection in the Disabled state.
func (s *Server) Disconnect(ctx context.Context, req *linkrpc.ConnectionRequest) (*linkrpc.Empty, error) {
	h, err := s.lookup(req.ConnectionID)
	if err != nil {
		return nil, toStatus(err)
	}
	h.conn.Disconnect(ctx)
	if h.service.Enabled() {
		h.service.SetState(Disconnected)
	}
	return &linkrpc.Empty{}, nil
}

// Index runs one index pass and streams the items in batches of
// DefaultBatchSize. The final message carries the inventory of the pass.
// A connection runs one pass at a time; a concurrent call fails with
// ErrIndexInProgress.
func (s *Server) Index(req *linkrpc.IndexRequest, stream grpc.ServerStreamingServer[linkrpc.IndexBatch]) error {
	h, err := s.connected(req.ConnectionID)
	if err != nil {
		return toStatus(err)
	}
	ic, ok := h.conn.(IndexingConnection)
	if !ok {
		return toStatus(fmt.Errorf("%w: index", ErrNotSupported))
	}
	mode, err := ParseSyncMode(req.SyncMode)
	if err != nil {
		return toStatus(fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	run := newIndexRun(mode, DefaultBatchSize, func(batch *indexBatch) error {
		return stream.Send(batchToRPC(batch))
	})
	if err := h.service.begin(run); err != nil {
		return toStatus(fmt.Errorf("%w: %s", err, req.ConnectionID))
	}
	defer h.service.end()

	started := time.Now()
	if err := ic.Index(stream.Context(), mode); err != nil {
		return toStatus(fmt.Errorf("index of %s failed: %w", req.ConnectionID, err))
	}
	if err := h.service.Flush(); err != nil {
		return toStatus(err)
	}

	if mode == SyncFull {
		if cfg := h.conn.Config(); cfg != nil {
			now := time.Now().UTC()
			cfg.LastIndexedAt = &now
			h.conn.SaveConfig()
		}
	}

	inv := run.inventory()
	h.service.Logger().Debug("Index pass finished",
		slog.String("mode", string(mode)),
		slog.Int64("items", inv.Count),
		slog.Duration("took", time.Since(started)))

	return toStatus(stream.Send(&linkrpc.IndexBatch{
		Inventory:   &linkrpc.Inventory{Count: inv.Count, Checksum: inv.Checksum},
		SavedConfig: s.savedConfig(),
	}))
}

func (s *Server) savedConfig() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.service == nil {
		return nil
	}
	return s.service.takeSaved()
}

// GetSamples streams samples in pages of PageSize. Only the last page has
// Last set, together with the last certain key when one was reported.
func (s *Server) GetSamples(req *linkrpc.GetSamplesRequest, stream grpc.ServerStreamingServer[linkrpc.SamplePage]) error {
	h, err := s.connected(req.ConnectionID)
	if err != nil {
		return toStatus(err)
	}
	sc, ok := h.conn.(SignalPullConnection)
	if !ok {
		return toStatus(fmt.Errorf("%w: samples", ErrNotSupported))
	}
	if req.StartTime > req.EndTime {
		return toStatus(fmt.Errorf("%w: start %d after end %d", ErrInvalidTimeRange, req.StartTime, req.EndTime))
	}

	params := &GetSamplesParameters{
		DataID:                  req.DataID,
		StartTime:               TimeInstant(req.StartTime),
		EndTime:                 TimeInstant(req.EndTime),
		SampleLimit:             req.SampleLimit,
		LastCertainKeyRequested: req.LastCertainKeyRequested,
	}
	samples, err := sc.GetSamples(stream.Context(), params)
	if err != nil {
		return toStatus(err)
	}

	page := &linkrpc.SamplePage{}
	var sendErr error
	for sample := range samples {
		page.Samples = append(page.Samples, &linkrpc.Sample{Key: int64(sample.Key), Value: sample.Value})
		if len(page.Samples) == PageSize {
			if sendErr = stream.Send(page); sendErr != nil {
				break
			}
			page = &linkrpc.SamplePage{}
		}
	}
	if sendErr != nil {
		return toStatus(sendErr)
	}

	page.Last = true
	if key, ok := params.LastCertainKey(); ok {
		k := int64(key)
		page.LastCertainKey = &k
	}
	return toStatus(stream.Send(page))
}

// GetCapsules is GetSamples for capsules.
func (s *Server) GetCapsules(req *linkrpc.GetCapsulesRequest, stream grpc.ServerStreamingServer[linkrpc.CapsulePage]) error {
	h, err := s.connected(req.ConnectionID)
	if err != nil {
		return toStatus(err)
	}
	cc, ok := h.conn.(ConditionPullConnection)
	if !ok {
		return toStatus(fmt.Errorf("%w: capsules", ErrNotSupported))
	}
	if req.StartTime > req.EndTime {
		return toStatus(fmt.Errorf("%w: start %d after end %d", ErrInvalidTimeRange, req.StartTime, req.EndTime))
	}

	params := &GetCapsulesParameters{
		DataID:                  req.DataID,
		StartTime:               TimeInstant(req.StartTime),
		EndTime:                 TimeInstant(req.EndTime),
		CapsuleLimit:            req.CapsuleLimit,
		LastCertainKeyRequested: req.LastCertainKeyRequested,
	}
	capsules, err := cc.GetCapsules(stream.Context(), params)
	if err != nil {
		return toStatus(err)
	}

	page := &linkrpc.CapsulePage{}
	var sendErr error
	for capsule := range capsules {
		page.Capsules = append(page.Capsules, CapsuleToRPC(capsule))
		if len(page.Capsules) == PageSize {
			if sendErr = stream.Send(page); sendErr != nil {
				break
			}
			page = &linkrpc.CapsulePage{}
		}
	}
	if sendErr != nil {
		return toStatus(sendErr)
	}

	page.Last = true
	if key, ok := params.LastCertainKey(); ok {
		k := int64(key)
		page.LastCertainKey = &k
	}
	return toStatus(stream.Send(page))
}

// Destroy disconnects and destroys every connection in creation order.
func (s *Server) Destroy(ctx context.Context, req *linkrpc.Empty) (*linkrpc.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		h := s.connections[id]
		if h.service.State() == Connected || h.service.State() == Connecting {
			h.conn.Disconnect(ctx)
		}
		h.conn.Destroy()
	}
	s.connections = make(map[string]*hostedConnection)
	s.order = nil

	if s.service != nil {
		s.connector.Destroy()
		s.service = nil
	}
	s.logger.Info("Connector destroyed", slog.String("connector", s.connector.Name()))
	return &linkrpc.Empty{}, nil
}
