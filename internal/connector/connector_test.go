package connector

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"simlink.dev/connector/pkg/link"
)

type fakeConnectorService struct {
	config      []byte
	saved       []byte
	connections []link.Connection
	logs        bytes.Buffer
}

func (s *fakeConnectorService) LoadConfig(dst any) (bool, error) {
	if s.config == nil {
		return false, nil
	}
	return true, yaml.Unmarshal(s.config, dst)
}

func (s *fakeConnectorService) SaveConfig(cfg any) error {
	data, err := yaml.Marshal(cfg)
	s.saved = data
	return err
}

func (s *fakeConnectorService) AddConnection(conn link.Connection) {
	s.connections = append(s.connections, conn)
}

func (s *fakeConnectorService) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&s.logs, nil))
}

type fakeConnectionService struct {
	enabled    bool
	states     []link.ConnectionState
	signals    []link.SignalDefinition
	conditions []link.ConditionDefinition
	assets     []link.AssetDefinition
}

func (s *fakeConnectionService) Enable()       { s.enabled = true }
func (s *fakeConnectionService) Enabled() bool { return s.enabled }

func (s *fakeConnectionService) SetState(state link.ConnectionState) {
	s.states = append(s.states, state)
}

func (s *fakeConnectionService) State() link.ConnectionState {
	if len(s.states) == 0 {
		return link.Disabled
	}
	return s.states[len(s.states)-1]
}

func (s *fakeConnectionService) PutSignal(signal link.SignalDefinition) error {
	s.signals = append(s.signals, signal)
	return nil
}

func (s *fakeConnectionService) PutCondition(condition link.ConditionDefinition) error {
	s.conditions = append(s.conditions, condition)
	return nil
}

func (s *fakeConnectionService) PutAsset(asset link.AssetDefinition) error {
	s.assets = append(s.assets, asset)
	return nil
}

func (s *fakeConnectionService) Flush() error         { return nil }
func (s *fakeConnectionService) Logger() *slog.Logger { return slog.Default() }

func intPtr(v int) *int { return &v }

func TestConnectorDefaultConnection(t *testing.T) {
	svc := &fakeConnectorService{}
	c := New()
	require.NoError(t, c.Initialize(svc))

	require.Len(t, svc.connections, 1)
	conn := svc.connections[0]
	require.Equal(t, "My First Connection", conn.DatasourceName())
	require.Equal(t, DatasourceClass, conn.DatasourceClass())
	_, err := uuid.Parse(conn.DatasourceID())
	require.NoError(t, err)

	var saved ConnectorConfigV1
	require.NoError(t, yaml.Unmarshal(svc.saved, &saved))
	require.Equal(t, ConfigVersion, saved.Version)
	require.Len(t, saved.Connections, 1)
	require.True(t, saved.Connections[0].Enabled)
	require.Equal(t, 5000, *saved.Connections[0].TagCount)
	require.Equal(t, "00:15", saved.Connections[0].SamplePeriod)
	require.Equal(t, conn.DatasourceID(), saved.Connections[0].ID)
}

func TestConnectorValidation(t *testing.T) {
	config := `
version: v1
connections:
  - name: good
    id: good-id
    enabled: true
    tag_count: 10
    sample_period: "0:00:01"
  - name: no-id
    enabled: true
    tag_count: 10
    sample_period: 15s
  - name: disabled
    id: disabled-id
    enabled: false
    tag_count: 10
    sample_period: nonsense
  - name: bad-period
    id: bad-period-id
    enabled: true
    tag_count: 10
    sample_period: nonsense
  - name: missing-tags
    id: missing-tags-id
    enabled: true
    sample_period: "00:15"
  - name: negative-tags
    id: negative-tags-id
    enabled: true
    tag_count: -1
    sample_period: "00:15"
  - name: long-period
    id: long-period-id
    enabled: true
    tag_count: 10
    sample_period: "2000"
`
	svc := &fakeConnectorService{config: []byte(config)}
	c := New()
	require.NoError(t, c.Initialize(svc))

	var names []string
	for _, conn := range svc.connections {
		names = append(names, conn.DatasourceName())
	}
	require.Equal(t, []string{"good", "no-id"}, names)

	var saved ConnectorConfigV1
	require.NoError(t, yaml.Unmarshal(svc.saved, &saved))
	enabled := map[string]bool{}
	for _, cfg := range saved.Connections {
		require.NotEmpty(t, cfg.ID, cfg.Name)
		enabled[cfg.Name] = cfg.Enabled
	}
	require.Equal(t, map[string]bool{
		"good":          true,
		"no-id":         true,
		"disabled":      false,
		"bad-period":    false,
		"missing-tags":  false,
		"negative-tags": false,
		"long-period":   false,
	}, enabled)

	logs := svc.logs.String()
	require.Contains(t, logs, "Connection 'bad-period' is invalid")
	require.Contains(t, logs, "Connection 'missing-tags' is invalid")
	require.Contains(t, logs, "sample period 48000h0m0s is too long")
	require.Equal(t, 4, strings.Count(logs, "level=WARN"))
}

func connectTest(t *testing.T, cfg *ConnectionConfigV1) (*Connection, *fakeConnectionService) {
	t.Helper()
	svc := &fakeConnectionService{}
	conn := NewConnection(nil, cfg)
	require.NoError(t, conn.Initialize(svc))
	require.NoError(t, conn.Connect(context.Background()))
	return conn, svc
}

func TestConnectionGetSamples(t *testing.T) {
	conn, svc := connectTest(t, &ConnectionConfigV1{SamplePeriod: "0:00:01", TagCount: intPtr(100)})
	require.Equal(t, []link.ConnectionState{link.Connecting, link.Connected}, svc.states)
	require.False(t, svc.enabled)

	all := []link.Sample{
		{Key: 1000000000, Value: 0.06279051952931337},
		{Key: 2000000000, Value: 0.12533323356430426},
		{Key: 3000000000, Value: 0.1873813145857246},
		{Key: 4000000000, Value: 0.2486898871648548},
		{Key: 5000000000, Value: 0.3090169943749474},
	}

	tests := []struct {
		name   string
		dataID string
		limit  int
		want   []link.Sample
	}{
		{name: "full range", dataID: "MyDataId1", limit: 10, want: all},
		{name: "sample limit", dataID: "MyDataId2", limit: 2, want: all[:2]},
		{name: "zero limit", dataID: "MyDataId3", limit: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := conn.GetSamples(context.Background(), &link.GetSamplesParameters{
				DataID:      tt.dataID,
				StartTime:   2*1000000000 - 100,
				EndTime:     4*1000000000 + 100,
				SampleLimit: tt.limit,
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, slices.Collect(samples))
		})
	}
}

func TestConnectionGetSamplesStopsEarly(t *testing.T) {
	conn, _ := connectTest(t, &ConnectionConfigV1{SamplePeriod: "15s", TagCount: intPtr(1)})

	samples, err := conn.GetSamples(context.Background(), &link.GetSamplesParameters{
		StartTime:   0,
		EndTime:     link.TimeInstant(time.Hour),
		SampleLimit: 1000,
	})
	require.NoError(t, err)

	n := 0
	for range samples {
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
}

func TestConnectionNotConnected(t *testing.T) {
	conn := NewConnection(nil, &ConnectionConfigV1{SamplePeriod: "00:15", TagCount: intPtr(1)})
	require.NoError(t, conn.Initialize(&fakeConnectionService{}))
	require.False(t, conn.Monitor(context.Background()))

	_, err := conn.GetSamples(context.Background(), &link.GetSamplesParameters{})
	require.ErrorIs(t, err, link.ErrNotConnected)
	_, err = conn.GetCapsules(context.Background(), &link.GetCapsulesParameters{})
	require.ErrorIs(t, err, link.ErrNotConnected)
	require.ErrorIs(t, conn.Index(context.Background(), link.SyncFull), link.ErrNotConnected)
}

func TestConnectionMonitorDisconnect(t *testing.T) {
	conn, svc := connectTest(t, &ConnectionConfigV1{SamplePeriod: "00:15", TagCount: intPtr(1)})
	require.True(t, conn.Monitor(context.Background()))

	conn.Disconnect(context.Background())
	require.False(t, conn.Monitor(context.Background()))
	require.Equal(t, link.Disconnected, svc.State())
}

func TestConnectionIndex(t *testing.T) {
	cfg := &ConnectionConfigV1{
		ConnectionConfig: link.ConnectionConfig{Name: "Plant", ID: "plant"},
		SamplePeriod:     "00:00:01",
		TagCount:         intPtr(25),
	}
	conn, svc := connectTest(t, cfg)
	require.NoError(t, conn.Index(context.Background(), link.SyncFull))

	require.Len(t, svc.signals, 25)
	require.Len(t, svc.conditions, 25)
	require.Len(t, svc.assets, 4)

	require.Equal(t, link.AssetDefinition{DataID: "root", Name: "Plant"}, svc.assets[0])
	require.Equal(t, link.AssetDefinition{DataID: "area-3", Name: "Area 3", ParentID: "root"}, svc.assets[3])

	require.Equal(t, "1", svc.signals[0].DataID)
	require.Equal(t, "Simulated Tag #1", svc.signals[0].Name)
	require.Equal(t, link.Linear, svc.signals[0].InterpolationMethod)
	require.Equal(t, link.Step, svc.signals[1].InterpolationMethod)
	require.Equal(t, "area-3", svc.signals[24].AssetID)

	require.Equal(t, "Simulated Tag #1 Alarm", svc.conditions[0].Name)
	require.Equal(t, 10*time.Second, svc.conditions[0].MaximumDuration)
}

func TestConnectionGetCapsules(t *testing.T) {
	conn, _ := connectTest(t, &ConnectionConfigV1{SamplePeriod: "00:00:01", TagCount: intPtr(1), AlarmPeriod: "1m"})

	params := func(id string, limit int) *link.GetCapsulesParameters {
		return &link.GetCapsulesParameters{
			DataID:       id,
			StartTime:    0,
			EndTime:      link.TimeInstant(24 * time.Hour),
			CapsuleLimit: limit,
		}
	}

	seq, err := conn.GetCapsules(context.Background(), params("1", 10000))
	require.NoError(t, err)
	first := slices.Collect(seq)
	require.NotEmpty(t, first)

	seq, err = conn.GetCapsules(context.Background(), params("1", 10000))
	require.NoError(t, err)
	require.Equal(t, first, slices.Collect(seq))

	seq, err = conn.GetCapsules(context.Background(), params("2", 10000))
	require.NoError(t, err)
	require.NotEqual(t, first, slices.Collect(seq))

	seq, err = conn.GetCapsules(context.Background(), params("1", 3))
	require.NoError(t, err)
	require.Equal(t, first[:3], slices.Collect(seq))

	for _, c := range first {
		require.Less(t, c.Start, c.End)
		require.LessOrEqual(t, time.Duration(c.End-c.Start), time.Minute)
		require.Equal(t, "Severity", c.Properties[0].Name)
		require.Equal(t, "Value", c.Properties[1].Name)
	}
}
