package linkrpc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	require.Equal(t, CodecName, c.Name())
}

func TestCodecKeepsOptionalFields(t *testing.T) {
	key := int64(42)
	zero := int64(0)
	tests := []struct {
		name string
		in   *SamplePage
	}{
		{"Empty page", &SamplePage{}},
		{"Final page", &SamplePage{Last: true, LastCertainKey: &key}},
		{"Zero last certain key", &SamplePage{Last: true, LastCertainKey: &zero}},
		{"Samples", &SamplePage{Samples: []*Sample{{Key: 1, Value: 0.5}, {Key: 2, Value: -0.25}, {Key: -7}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Codec{}.Marshal(tt.in)
			require.NoError(t, err)

			out := new(SamplePage)
			require.NoError(t, Codec{}.Unmarshal(data, out))
			require.Equal(t, tt.in, out)
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	zero, five := 0, 5
	tests := []struct {
		name string
		in   wireMessage
		out  wireMessage
	}{
		{
			"Connection with zero limit",
			&ConnectionInfo{ID: "c1", Name: "Pumps", Class: "sim", Enabled: true, MaxConcurrentRequests: &zero, MaxResultsPerRequest: &five, IndexingSchedule: "0 0 * * *", Signals: true},
			new(ConnectionInfo),
		},
		{
			"Final index batch",
			&IndexBatch{
				Signals:     []*Signal{{DataID: "1", Name: "Flow", AssetID: "a", InterpolationMethod: "Linear", ValueUnit: "m3/h", MaximumInterpolation: 3600}},
				Conditions:  []*Condition{{DataID: "c", Name: "Cycle", MaximumDuration: 60}},
				Assets:      []*Asset{{DataID: "a", Name: "Plant"}, {DataID: "b", Name: "Line", ParentID: "a"}},
				Inventory:   &Inventory{Count: 4, Checksum: math.MaxUint64 - 1},
				SavedConfig: []byte("{}"),
			},
			new(IndexBatch),
		},
		{
			"Capsules",
			&CapsulePage{Capsules: []*Capsule{{Start: -10, End: 20, Properties: []*Property{{Name: "Batch", Value: "7", Unit: "string"}}}}, Last: true},
			new(CapsulePage),
		},
		{
			"Samples request",
			&GetSamplesRequest{ConnectionID: "c1", DataID: "1", StartTime: -5, EndTime: math.MaxInt64, SampleLimit: 1000, LastCertainKeyRequested: true},
			new(GetSamplesRequest),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Codec{}.Marshal(tt.in)
			require.NoError(t, err)
			require.NoError(t, Codec{}.Unmarshal(data, tt.out))
			require.Equal(t, tt.in, tt.out)
		})
	}
}

func TestCodecSkipsUnknownFields(t *testing.T) {
	data := (&Asset{DataID: "a", Name: "Plant"}).marshalWire(nil)
	data = protowire.AppendTag(data, 99, protowire.VarintType)
	data = protowire.AppendVarint(data, 1)
	data = protowire.AppendTag(data, 98, protowire.BytesType)
	data = protowire.AppendString(data, "extra")

	out := new(Asset)
	require.NoError(t, Codec{}.Unmarshal(data, out))
	require.Equal(t, &Asset{DataID: "a", Name: "Plant"}, out)
}

func TestCodecRejectsBadInput(t *testing.T) {
	wrongType := protowire.AppendTag(nil, 1, protowire.VarintType)
	wrongType = protowire.AppendVarint(wrongType, 3)

	tests := []struct {
		name string
		data []byte
	}{
		{"Truncated tag", []byte{0x80}},
		{"Truncated string", []byte{0x0a, 0x05, 'a'}},
		{"Wrong wire type", wrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, Codec{}.Unmarshal(tt.data, new(Asset)))
		})
	}

	_, err := Codec{}.Marshal(struct{}{})
	require.Error(t, err)
}

func TestCallOptionsPrependsContentSubtype(t *testing.T) {
	opts := callOptions(nil)
	require.Len(t, opts, 1)
}
