package export

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/m3db/prometheus_remote_client_golang/promremote"
	"github.com/prometheus/prometheus/prompb"

	"simlink.dev/connector/pkg/link"
)

const userAgent = "link-agent prometheus_remote_write"

type RemoteWrite struct {
	name   string
	client promremote.Client
}

// NewRemoteWrite sends samples to a Prometheus remote write endpoint. The
// option timeout bounds each request.
func NewRemoteWrite(name, connection string, options map[string]string) (*RemoteWrite, error) {
	opts := []promremote.ConfigOption{
		promremote.WriteURLOption(connection),
		promremote.UserAgent(userAgent),
	}
	if t, ok := options["timeout"]; ok {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", t, err)
		}
		opts = append(opts, promremote.HTTPClientTimeoutOption(d))
	}

	client, err := promremote.NewClient(promremote.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	return &RemoteWrite{name: name, client: client}, nil
}

func (rw *RemoteWrite) Name() string {
	return rw.name
}

func (rw *RemoteWrite) Export(ctx context.Context, datasourceID string, signal link.SignalDefinition, samples []link.Sample) error {
	_, err := rw.client.WriteProto(ctx, toWriteRequest(datasourceID, signal, samples), promremote.WriteOptions{})
	if err != nil {
		return err
	}
	return nil
}

func (rw *RemoteWrite) Close() error {
	return nil
}

func toWriteRequest(datasourceID string, signal link.SignalDefinition, samples []link.Sample) *prompb.WriteRequest {
	promSamples := make([]prompb.Sample, 0, len(samples))
	for _, s := range samples {
		promSamples = append(promSamples, prompb.Sample{
			Value:     s.Value,
			Timestamp: s.Key.Time().UnixMilli(),
		})
	}
	// Remote write senders must send samples of a series in timestamp order.
	slices.SortStableFunc(promSamples, func(a, b prompb.Sample) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	return &prompb.WriteRequest{
		Timeseries: []prompb.TimeSeries{{
			Labels:  signalLabels(datasourceID, signal),
			Samples: promSamples,
		}},
	}
}

// Labels are sorted by name as remote write requires.
func signalLabels(datasourceID string, signal link.SignalDefinition) []prompb.Label {
	return []prompb.Label{
		{Name: "__name__", Value: "link_sample"},
		{Name: "data_id", Value: signal.DataID},
		{Name: "datasource", Value: datasourceID},
		{Name: "name", Value: signal.Name},
	}
}
