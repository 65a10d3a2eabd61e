// Package linkrpc holds the wire messages and the gRPC service used between the
// link agent and connector plugins.
//
// The schema is connector.proto. Messages are plain Go structs encoded in the
// protobuf binary format by hand written marshalers, carried by a codec
// registered under its own content-subtype. go-plugin's own services (broker,
// controller, stdio) keep using grpc's default codec on the same connection.
package linkrpc

type Empty struct{}

func (m *Empty) marshalWire(b []byte) []byte { return b }

func (m *Empty) unmarshalWire(b []byte) error {
	return readFields(b, func(*field) {})
}

type DescribeRequest struct{}

func (m *DescribeRequest) marshalWire(b []byte) []byte { return b }

func (m *DescribeRequest) unmarshalWire(b []byte) error {
	return readFields(b, func(*field) {})
}

type DescribeResponse struct {
	Name          string
	Version       string
	Description   string
	Author        string
	ConnectorName string
}

func (m *DescribeResponse) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.Name)
	e.string(2, m.Version)
	e.string(3, m.Description)
	e.string(4, m.Author)
	e.string(5, m.ConnectorName)
	return e.b
}

func (m *DescribeResponse) unmarshalWire(b []byte) error {
	*m = DescribeResponse{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Name = f.string()
		case 2:
			m.Version = f.string()
		case 3:
			m.Description = f.string()
		case 4:
			m.Author = f.string()
		case 5:
			m.ConnectorName = f.string()
		}
	})
}

type InitializeRequest struct {
	// Config is the connector configuration file content, if any.
	Config []byte
	Found  bool
}

func (m *InitializeRequest) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.bytes(1, m.Config)
	e.bool(2, m.Found)
	return e.b
}

func (m *InitializeRequest) unmarshalWire(b []byte) error {
	*m = InitializeRequest{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Config = f.bytes()
		case 2:
			m.Found = f.bool()
		}
	})
}

type InitializeResponse struct {
	Connections []*ConnectionInfo
	// SavedConfig is set when the connector saved its configuration.
	SavedConfig []byte
}

func (m *InitializeResponse) marshalWire(b []byte) []byte {
	e := encoder{b}
	appendRepeated(&e, 1, m.Connections)
	e.bytes(2, m.SavedConfig)
	return e.b
}

func (m *InitializeResponse) unmarshalWire(b []byte) error {
	*m = InitializeResponse{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Connections = append(m.Connections, decodeMessage[ConnectionInfo](f))
		case 2:
			m.SavedConfig = f.bytes()
		}
	})
}

type ConnectionInfo struct {
	ID                    string
	Name                  string
	Class                 string
	Enabled               bool
	MaxConcurrentRequests *int
	MaxResultsPerRequest  *int
	IndexingSchedule      string
	Signals               bool
	Conditions            bool
	Indexing              bool
}

func (m *ConnectionInfo) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.ID)
	e.string(2, m.Name)
	e.string(3, m.Class)
	e.bool(4, m.Enabled)
	if m.MaxConcurrentRequests != nil {
		e.optionalInt64(5, int64(*m.MaxConcurrentRequests))
	}
	if m.MaxResultsPerRequest != nil {
		e.optionalInt64(6, int64(*m.MaxResultsPerRequest))
	}
	e.string(7, m.IndexingSchedule)
	e.bool(8, m.Signals)
	e.bool(9, m.Conditions)
	e.bool(10, m.Indexing)
	return e.b
}

func (m *ConnectionInfo) unmarshalWire(b []byte) error {
	*m = ConnectionInfo{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.ID = f.string()
		case 2:
			m.Name = f.string()
		case 3:
			m.Class = f.string()
		case 4:
			m.Enabled = f.bool()
		case 5:
			v := int(f.int64())
			m.MaxConcurrentRequests = &v
		case 6:
			v := int(f.int64())
			m.MaxResultsPerRequest = &v
		case 7:
			m.IndexingSchedule = f.string()
		case 8:
			m.Signals = f.bool()
		case 9:
			m.Conditions = f.bool()
		case 10:
			m.Indexing = f.bool()
		}
	})
}

type ConnectionRequest struct {
	ConnectionID string
}

func (m *ConnectionRequest) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.ConnectionID)
	return e.b
}

func (m *ConnectionRequest) unmarshalWire(b []byte) error {
	*m = ConnectionRequest{}
	return readFields(b, func(f *field) {
		if f.num == 1 {
			m.ConnectionID = f.string()
		}
	})
}

type ConnectResponse struct {
	State string
}

func (m *ConnectResponse) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.State)
	return e.b
}

func (m *ConnectResponse) unmarshalWire(b []byte) error {
	*m = ConnectResponse{}
	return readFields(b, func(f *field) {
		if f.num == 1 {
			m.State = f.string()
		}
	})
}

type MonitorResponse struct {
	Alive bool
	State string
}

func (m *MonitorResponse) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.bool(1, m.Alive)
	e.string(2, m.State)
	return e.b
}

func (m *MonitorResponse) unmarshalWire(b []byte) error {
	*m = MonitorResponse{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Alive = f.bool()
		case 2:
			m.State = f.string()
		}
	})
}

type IndexRequest struct {
	ConnectionID string
	SyncMode     string
}

func (m *IndexRequest) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.ConnectionID)
	e.string(2, m.SyncMode)
	return e.b
}

func (m *IndexRequest) unmarshalWire(b []byte) error {
	*m = IndexRequest{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.ConnectionID = f.string()
		case 2:
			m.SyncMode = f.string()
		}
	})
}

type Signal struct {
	DataID               string
	Name                 string
	Description          string
	AssetID              string
	InterpolationMethod  string
	ValueUnit            string
	MaximumInterpolation int64
}

func (m *Signal) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.DataID)
	e.string(2, m.Name)
	e.string(3, m.Description)
	e.string(4, m.AssetID)
	e.string(5, m.InterpolationMethod)
	e.string(6, m.ValueUnit)
	e.int64(7, m.MaximumInterpolation)
	return e.b
}

func (m *Signal) unmarshalWire(b []byte) error {
	*m = Signal{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.DataID = f.string()
		case 2:
			m.Name = f.string()
		case 3:
			m.Description = f.string()
		case 4:
			m.AssetID = f.string()
		case 5:
			m.InterpolationMethod = f.string()
		case 6:
			m.ValueUnit = f.string()
		case 7:
			m.MaximumInterpolation = f.int64()
		}
	})
}

type Condition struct {
	DataID          string
	Name            string
	Description     string
	AssetID         string
	MaximumDuration int64
}

func (m *Condition) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.DataID)
	e.string(2, m.Name)
	e.string(3, m.Description)
	e.string(4, m.AssetID)
	e.int64(5, m.MaximumDuration)
	return e.b
}

func (m *Condition) unmarshalWire(b []byte) error {
	*m = Condition{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.DataID = f.string()
		case 2:
			m.Name = f.string()
		case 3:
			m.Description = f.string()
		case 4:
			m.AssetID = f.string()
		case 5:
			m.MaximumDuration = f.int64()
		}
	})
}

type Asset struct {
	DataID   string
	Name     string
	ParentID string
}

func (m *Asset) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.DataID)
	e.string(2, m.Name)
	e.string(3, m.ParentID)
	return e.b
}

func (m *Asset) unmarshalWire(b []byte) error {
	*m = Asset{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.DataID = f.string()
		case 2:
			m.Name = f.string()
		case 3:
			m.ParentID = f.string()
		}
	})
}

type Inventory struct {
	Count    int64
	Checksum uint64
}

func (m *Inventory) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.int64(1, m.Count)
	e.fixed64(2, m.Checksum)
	return e.b
}

func (m *Inventory) unmarshalWire(b []byte) error {
	*m = Inventory{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Count = f.int64()
		case 2:
			m.Checksum = f.fixed64()
		}
	})
}

// IndexBatch is one message of the Index stream. Only the final message
// carries the inventory.
type IndexBatch struct {
	Signals     []*Signal
	Conditions  []*Condition
	Assets      []*Asset
	Inventory   *Inventory
	SavedConfig []byte
}

func (m *IndexBatch) marshalWire(b []byte) []byte {
	e := encoder{b}
	appendRepeated(&e, 1, m.Signals)
	appendRepeated(&e, 2, m.Conditions)
	appendRepeated(&e, 3, m.Assets)
	if m.Inventory != nil {
		e.message(4, m.Inventory)
	}
	e.bytes(5, m.SavedConfig)
	return e.b
}

func (m *IndexBatch) unmarshalWire(b []byte) error {
	*m = IndexBatch{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Signals = append(m.Signals, decodeMessage[Signal](f))
		case 2:
			m.Conditions = append(m.Conditions, decodeMessage[Condition](f))
		case 3:
			m.Assets = append(m.Assets, decodeMessage[Asset](f))
		case 4:
			m.Inventory = decodeMessage[Inventory](f)
		case 5:
			m.SavedConfig = f.bytes()
		}
	})
}

type GetSamplesRequest struct {
	ConnectionID            string
	DataID                  string
	StartTime               int64
	EndTime                 int64
	SampleLimit             int
	LastCertainKeyRequested bool
}

func (m *GetSamplesRequest) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.ConnectionID)
	e.string(2, m.DataID)
	e.int64(3, m.StartTime)
	e.int64(4, m.EndTime)
	e.int64(5, int64(m.SampleLimit))
	e.bool(6, m.LastCertainKeyRequested)
	return e.b
}

func (m *GetSamplesRequest) unmarshalWire(b []byte) error {
	*m = GetSamplesRequest{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.ConnectionID = f.string()
		case 2:
			m.DataID = f.string()
		case 3:
			m.StartTime = f.int64()
		case 4:
			m.EndTime = f.int64()
		case 5:
			m.SampleLimit = int(f.int64())
		case 6:
			m.LastCertainKeyRequested = f.bool()
		}
	})
}

type Sample struct {
	Key   int64
	Value float64
}

func (m *Sample) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.int64(1, m.Key)
	e.double(2, m.Value)
	return e.b
}

func (m *Sample) unmarshalWire(b []byte) error {
	*m = Sample{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Key = f.int64()
		case 2:
			m.Value = f.double()
		}
	})
}

type SamplePage struct {
	Samples        []*Sample
	Last           bool
	LastCertainKey *int64
}

func (m *SamplePage) marshalWire(b []byte) []byte {
	e := encoder{b}
	appendRepeated(&e, 1, m.Samples)
	e.bool(2, m.Last)
	if m.LastCertainKey != nil {
		e.optionalInt64(3, *m.LastCertainKey)
	}
	return e.b
}

func (m *SamplePage) unmarshalWire(b []byte) error {
	*m = SamplePage{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Samples = append(m.Samples, decodeMessage[Sample](f))
		case 2:
			m.Last = f.bool()
		case 3:
			v := f.int64()
			m.LastCertainKey = &v
		}
	})
}

type GetCapsulesRequest struct {
	ConnectionID            string
	DataID                  string
	StartTime               int64
	EndTime                 int64
	CapsuleLimit            int
	LastCertainKeyRequested bool
}

func (m *GetCapsulesRequest) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.ConnectionID)
	e.string(2, m.DataID)
	e.int64(3, m.StartTime)
	e.int64(4, m.EndTime)
	e.int64(5, int64(m.CapsuleLimit))
	e.bool(6, m.LastCertainKeyRequested)
	return e.b
}

func (m *GetCapsulesRequest) unmarshalWire(b []byte) error {
	*m = GetCapsulesRequest{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.ConnectionID = f.string()
		case 2:
			m.DataID = f.string()
		case 3:
			m.StartTime = f.int64()
		case 4:
			m.EndTime = f.int64()
		case 5:
			m.CapsuleLimit = int(f.int64())
		case 6:
			m.LastCertainKeyRequested = f.bool()
		}
	})
}

type Property struct {
	Name  string
	Value string
	Unit  string
}

func (m *Property) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.string(1, m.Name)
	e.string(2, m.Value)
	e.string(3, m.Unit)
	return e.b
}

func (m *Property) unmarshalWire(b []byte) error {
	*m = Property{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Name = f.string()
		case 2:
			m.Value = f.string()
		case 3:
			m.Unit = f.string()
		}
	})
}

type Capsule struct {
	Start      int64
	End        int64
	Properties []*Property
}

func (m *Capsule) marshalWire(b []byte) []byte {
	e := encoder{b}
	e.int64(1, m.Start)
	e.int64(2, m.End)
	appendRepeated(&e, 3, m.Properties)
	return e.b
}

func (m *Capsule) unmarshalWire(b []byte) error {
	*m = Capsule{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Start = f.int64()
		case 2:
			m.End = f.int64()
		case 3:
			m.Properties = append(m.Properties, decodeMessage[Property](f))
		}
	})
}

type CapsulePage struct {
	Capsules       []*Capsule
	Last           bool
	LastCertainKey *int64
}

func (m *CapsulePage) marshalWire(b []byte) []byte {
	e := encoder{b}
	appendRepeated(&e, 1, m.Capsules)
	e.bool(2, m.Last)
	if m.LastCertainKey != nil {
		e.optionalInt64(3, *m.LastCertainKey)
	}
	return e.b
}

func (m *CapsulePage) unmarshalWire(b []byte) error {
	*m = CapsulePage{}
	return readFields(b, func(f *field) {
		switch f.num {
		case 1:
			m.Capsules = append(m.Capsules, decodeMessage[Capsule](f))
		case 2:
			m.Last = f.bool()
		case 3:
			v := f.int64()
			m.LastCertainKey = &v
		}
	})
}
