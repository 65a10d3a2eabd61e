package link

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// DefaultBatchSize is the number of items shipped per index message.
const DefaultBatchSize = 500

// connectorService implements ConnectorService inside the plugin process.
// Configuration is exchanged with the agent as YAML bytes.
type connectorService struct {
	mu          sync.Mutex
	config      []byte
	found       bool
	saved       []byte
	connections []Connection
	logger      *slog.Logger
}

func newConnectorService(config []byte, found bool, logger *slog.Logger) *connectorService {
	return &connectorService{
		config: config,
		found:  found && len(config) > 0,
		logger: logger,
	}
}

func (s *connectorService) LoadConfig(dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.found {
		return false, nil
	}
	if err := yaml.Unmarshal(s.config, dst); err != nil {
		return true, fmt.Errorf("failed to parse connector config: %w", err)
	}
	return true, nil
}

func (s *connectorService) SaveConfig(cfg any) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode connector config: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = data
	s.found = true
	s.saved = data
	return nil
}

// takeSaved returns the configuration saved since the last call, if any.
func (s *connectorService) takeSaved() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.saved
	s.saved = nil
	return saved
}

func (s *connectorService) AddConnection(conn Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = append(s.connections, conn)
}

func (s *connectorService) Logger() *slog.Logger {
	return s.logger
}

// indexSink receives full batches during a SyncFull pass.
type indexSink func(batch *indexBatch) error

type indexBatch struct {
	signals    []SignalDefinition
	conditions []ConditionDefinition
	assets     []AssetDefinition
}

func (b *indexBatch) len() int {
	return len(b.signals) + len(b.conditions) + len(b.assets)
}

// indexRun accumulates one index pass.
type indexRun struct {
	mode      SyncMode
	batchSize int
	digest    *xxhash.Digest
	count     int64
	pending   indexBatch
	sink      indexSink
}

func newIndexRun(mode SyncMode, batchSize int, sink indexSink) *indexRun {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &indexRun{
		mode:      mode,
		batchSize: batchSize,
		digest:    xxhash.New(),
		sink:      sink,
	}
}

// record folds the canonical form of an item into the checksum.
func (r *indexRun) record(fields ...string) {
	for _, f := range fields {
		r.digest.WriteString(f)
		r.digest.Write([]byte{0})
	}
	r.digest.Write([]byte{0x1e})
	r.count++
}

func (r *indexRun) maybeFlush() error {
	if r.pending.len() >= r.batchSize {
		return r.flush()
	}
	return nil
}

func (r *indexRun) flush() error {
	if r.mode != SyncFull || r.pending.len() == 0 {
		return nil
	}
	batch := r.pending
	r.pending = indexBatch{}
	return r.sink(&batch)
}

func (r *indexRun) inventory() Inventory {
	return Inventory{Count: r.count, Checksum: r.digest.Sum64()}
}

// connectionService implements ConnectionService inside the plugin process.
type connectionService struct {
	mu      sync.Mutex
	enabled bool
	state   ConnectionState
	run     *indexRun
	logger  *slog.Logger
}

func newConnectionService(logger *slog.Logger) *connectionService {
	return &connectionService{
		state:  Disabled,
		logger: logger,
	}
}

func (s *connectionService) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	if s.state == Disabled {
		s.state = Disconnected
	}
}

func (s *connectionService) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetState ignores Connected unless the connection went through Connecting.
func (s *connectionService) SetState(state ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == Connected && s.state != Connecting {
		s.logger.Warn("Ignoring CONNECTED state without prior CONNECTING",
			slog.String("state", string(s.state)))
		return
	}
	if s.state != state {
		s.logger.Debug("Connection state changed",
			slog.String("from", string(s.state)),
			slog.String("to", string(state)))
	}
	s.state = state
}

func (s *connectionService) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin registers run as the active pass. Only one pass may run at a time.
func (s *connectionService) begin(run *indexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return ErrIndexInProgress
	}
	s.run = run
	return nil
}

func (s *connectionService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = nil
}

func (s *connectionService) current() (*indexRun, error) {
	if s.run == nil {
		return nil, ErrNotIndexing
	}
	return s.run, nil
}

func (s *connectionService) PutSignal(signal SignalDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, err := s.current()
	if err != nil {
		return err
	}
	run.record("signal", signal.DataID, signal.Name, signal.Description, signal.AssetID,
		string(signal.InterpolationMethod), signal.ValueUnit,
		strconv.FormatInt(int64(signal.MaximumInterpolation), 10))
	if run.mode == SyncFull {
		run.pending.signals = append(run.pending.signals, signal)
	}
	return run.maybeFlush()
}

func (s *connectionService) PutCondition(condition ConditionDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, err := s.current()
	if err != nil {
		return err
	}
	run.record("condition", condition.DataID, condition.Name, condition.Description,
		condition.AssetID, strconv.FormatInt(int64(condition.MaximumDuration), 10))
	if run.mode == SyncFull {
		run.pending.conditions = append(run.pending.conditions, condition)
	}
	return run.maybeFlush()
}

func (s *connectionService) PutAsset(asset AssetDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, err := s.current()
	if err != nil {
		return err
	}
	run.record("asset", asset.DataID, asset.Name, asset.ParentID)
	if run.mode == SyncFull {
		run.pending.assets = append(run.pending.assets, asset)
	}
	return run.maybeFlush()
}

func (s *connectionService) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, err := s.current()
	if err != nil {
		return err
	}
	return run.flush()
}

func (s *connectionService) Logger() *slog.Logger {
	return s.logger
}
