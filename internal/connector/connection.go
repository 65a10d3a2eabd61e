package connector

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"simlink.dev/connector/internal/simulator"
	"simlink.dev/connector/pkg/link"
)

const (
	DatasourceClass = "Simulator"

	// periodsPerSignal is the number of samples in one waveform period.
	periodsPerSignal = 100
	tagsPerArea      = 10
	rootAssetID      = "root"
)

// Connection adapts one simulated datasource to the link contract.
type Connection struct {
	connector *Connector
	config    *ConnectionConfigV1
	service   link.ConnectionService

	mu       sync.RWMutex
	sim      *simulator.Simulator
	settings settings
}

var (
	_ link.SignalPullConnection    = (*Connection)(nil)
	_ link.ConditionPullConnection = (*Connection)(nil)
)

// NewConnection does no I/O. connector may be nil in tests.
func NewConnection(connector *Connector, config *ConnectionConfigV1) *Connection {
	return &Connection{
		connector: connector,
		config:    config,
	}
}

func (c *Connection) DatasourceClass() string {
	return DatasourceClass
}

func (c *Connection) DatasourceName() string {
	return c.config.Name
}

func (c *Connection) DatasourceID() string {
	return c.config.ID
}

func (c *Connection) Config() *link.ConnectionConfig {
	return &c.config.ConnectionConfig
}

func (c *Connection) Initialize(service link.ConnectionService) error {
	c.service = service
	if c.config.Enabled {
		service.Enable()
	}
	return nil
}

func (c *Connection) Destroy() {}

func (c *Connection) Connect(ctx context.Context) error {
	c.service.SetState(link.Connecting)

	s, err := c.config.validate()
	if err != nil {
		c.service.SetState(link.Disconnected)
		return err
	}
	signalPeriod := s.samplePeriod * periodsPerSignal

	log := c.service.Logger()
	log.Debug(fmt.Sprintf("Sample period parsed as '%s'", s.samplePeriod))
	log.Debug(fmt.Sprintf("Signal period determined to be '%s'", signalPeriod))

	sim := simulator.New(s.tagCount, signalPeriod, simulator.WithAlarmPeriod(s.alarmPeriod))

	c.mu.Lock()
	c.sim = sim
	c.settings = s
	c.mu.Unlock()

	if sim.Connect() {
		c.service.SetState(link.Connected)
	} else {
		c.service.SetState(link.Disconnected)
	}
	return nil
}

func (c *Connection) simulator() *simulator.Simulator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sim
}

func (c *Connection) Monitor(ctx context.Context) bool {
	sim := c.simulator()
	return sim != nil && sim.IsConnected()
}

func (c *Connection) Disconnect(ctx context.Context) {
	c.service.SetState(link.Disconnected)
	if sim := c.simulator(); sim != nil {
		sim.Disconnect()
	}
}

func (c *Connection) Index(ctx context.Context, mode link.SyncMode) error {
	sim := c.simulator()
	if sim == nil {
		return link.ErrNotConnected
	}
	c.mu.RLock()
	samplePeriod := c.settings.samplePeriod
	c.mu.RUnlock()

	if err := c.service.PutAsset(link.AssetDefinition{
		DataID: rootAssetID,
		Name:   c.DatasourceName(),
	}); err != nil {
		return err
	}

	for tag := range sim.Tags() {
		if tag.ID%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		area := (tag.ID-1)/tagsPerArea + 1
		areaID := "area-" + strconv.Itoa(area)
		if (tag.ID-1)%tagsPerArea == 0 {
			if err := c.service.PutAsset(link.AssetDefinition{
				DataID:   areaID,
				Name:     fmt.Sprintf("Area %d", area),
				ParentID: rootAssetID,
			}); err != nil {
				return err
			}
		}

		dataID := strconv.Itoa(tag.ID)
		interpolation := link.Linear
		if tag.Stepped {
			interpolation = link.Step
		}
		if err := c.service.PutSignal(link.SignalDefinition{
			DataID:               dataID,
			Name:                 tag.Name,
			AssetID:              areaID,
			InterpolationMethod:  interpolation,
			MaximumInterpolation: 2 * samplePeriod,
		}); err != nil {
			return err
		}

		if err := c.service.PutCondition(link.ConditionDefinition{
			DataID:          dataID,
			Name:            tag.Name + " Alarm",
			AssetID:         areaID,
			MaximumDuration: sim.AlarmPeriod(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// GetSamples yields one sample per sample period from the last key on or
// before StartTime through the first key on or after EndTime.
func (c *Connection) GetSamples(ctx context.Context, params *link.GetSamplesParameters) (iter.Seq[link.Sample], error) {
	sim := c.simulator()
	if sim == nil {
		return nil, link.ErrNotConnected
	}
	c.mu.RLock()
	s := c.settings
	c.mu.RUnlock()

	period := s.samplePeriod.Nanoseconds()
	left := int64(params.StartTime) / period
	right := (int64(params.EndTime) + period - 1) / period
	limit := int64(params.SampleLimit)

	return func(yield func(link.Sample) bool) {
		for i := left; i <= right && i-left < limit; i++ {
			if ctx.Err() != nil {
				return
			}
			key := i * period
			if !yield(link.Sample{Key: link.TimeInstant(key), Value: sim.Query(s.waveform, key)}) {
				return
			}
		}
	}, nil
}

// GetCapsules yields the alarms of the condition. The alarm sequence is
// seeded from the data id so every condition has its own stable history.
func (c *Connection) GetCapsules(ctx context.Context, params *link.GetCapsulesParameters) (iter.Seq[link.Capsule], error) {
	sim := c.simulator()
	if sim == nil {
		return nil, link.ErrNotConnected
	}
	seed := xxhash.Sum64String(params.DataID)

	return func(yield func(link.Capsule) bool) {
		n := 0
		for alarm := range sim.Alarms(seed, int64(params.StartTime), int64(params.EndTime)) {
			if n >= params.CapsuleLimit || ctx.Err() != nil {
				return
			}
			n++
			capsule := link.Capsule{
				Start: link.TimeInstant(alarm.Start),
				End:   link.TimeInstant(alarm.End),
				Properties: []link.Property{
					{Name: "Severity", Value: alarm.Severity},
					{Name: "Value", Value: strconv.FormatFloat(alarm.Value, 'f', 2, 64)},
				},
			}
			if !yield(capsule) {
				return
			}
		}
	}, nil
}

func (c *Connection) SaveConfig() {
	if c.connector == nil {
		return
	}
	if err := c.connector.SaveConfig(); err != nil {
		c.service.Logger().Error("Failed to save configuration", slog.Any("error", err))
	}
}
