package link

import (
	"fmt"
	"strings"
	"time"
)

// TimeInstant is a point in time in nanoseconds since the Unix epoch.
type TimeInstant int64

func InstantOf(t time.Time) TimeInstant {
	return TimeInstant(t.UnixNano())
}

func (t TimeInstant) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

func (t TimeInstant) String() string {
	return t.Time().Format(time.RFC3339Nano)
}

// Sample is a point-in-time value of a signal.
type Sample struct {
	Key   TimeInstant
	Value float64
}

// Property is a named value attached to a capsule.
type Property struct {
	Name  string
	Value string
	Unit  string
}

// Capsule is a time interval of a condition.
type Capsule struct {
	Start      TimeInstant
	End        TimeInstant
	Properties []Property
}

type InterpolationMethod string

const (
	Linear InterpolationMethod = "linear"
	Step   InterpolationMethod = "step"
)

type SyncMode string

const (
	// SyncInventory only counts and checksums what the connection reports.
	SyncInventory SyncMode = "INVENTORY"
	// SyncFull ships every reported item to the catalog.
	SyncFull SyncMode = "FULL"
)

func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(strings.ToUpper(s)) {
	case SyncInventory:
		return SyncInventory, nil
	case SyncFull:
		return SyncFull, nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

type ConnectionState string

const (
	Disabled     ConnectionState = "DISABLED"
	Disconnected ConnectionState = "DISCONNECTED"
	Connecting   ConnectionState = "CONNECTING"
	Connected    ConnectionState = "CONNECTED"
)

// SignalDefinition describes a signal reported during indexing.
type SignalDefinition struct {
	DataID               string
	Name                 string
	Description          string
	AssetID              string
	InterpolationMethod  InterpolationMethod
	ValueUnit            string
	MaximumInterpolation time.Duration
}

// ConditionDefinition describes a condition reported during indexing.
type ConditionDefinition struct {
	DataID          string
	Name            string
	Description     string
	AssetID         string
	MaximumDuration time.Duration
}

// AssetDefinition is a node of the asset tree. ParentID is empty for roots.
type AssetDefinition struct {
	DataID   string
	Name     string
	ParentID string
}

// GetSamplesParameters is a pull request for the samples of one signal.
type GetSamplesParameters struct {
	DataID                  string
	StartTime               TimeInstant
	EndTime                 TimeInstant
	SampleLimit             int
	LastCertainKeyRequested bool

	lastCertainKey *TimeInstant
}

// SetLastCertainKey marks the boundary between certain and uncertain samples.
func (p *GetSamplesParameters) SetLastCertainKey(key TimeInstant) {
	p.lastCertainKey = &key
}

func (p *GetSamplesParameters) LastCertainKey() (TimeInstant, bool) {
	if p.lastCertainKey == nil {
		return 0, false
	}
	return *p.lastCertainKey, true
}

// GetCapsulesParameters is a pull request for the capsules of one condition.
type GetCapsulesParameters struct {
	DataID                  string
	StartTime               TimeInstant
	EndTime                 TimeInstant
	CapsuleLimit            int
	LastCertainKeyRequested bool

	lastCertainKey *TimeInstant
}

func (p *GetCapsulesParameters) SetLastCertainKey(key TimeInstant) {
	p.lastCertainKey = &key
}

func (p *GetCapsulesParameters) LastCertainKey() (TimeInstant, bool) {
	if p.lastCertainKey == nil {
		return 0, false
	}
	return *p.lastCertainKey, true
}

// Inventory summarises one index pass.
type Inventory struct {
	Count    int64
	Checksum uint64
}

// PluginInfo contains metadata about a connector plugin.
type PluginInfo struct {
	Name        string
	Version     string
	Description string
	Author      string
}
