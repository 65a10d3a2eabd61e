package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/googleapis/gax-go/v2/apierror"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/api/label"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"

	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/pkg/link"
)

const SAMPLE_METRIC_TYPE = "custom.googleapis.com/link/sample"

// CloudMonitor writes samples to Google Cloud Monitoring as a custom gauge.
type CloudMonitor struct {
	name      string
	client    *monitoring.MetricClient
	resource  *monitoredres.MonitoredResource
	projectID string
}

// NewCloudMonitor finds default credentials. The option credentials_file
// points them at a service account key.
func NewCloudMonitor(ctx context.Context, name string, options map[string]string) (*CloudMonitor, error) {
	if credFile := options["credentials_file"]; credFile != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", credFile)
	}

	creds, err := google.FindDefaultCredentials(ctx, monitoring.DefaultAuthScopes()...)
	if err != nil {
		return nil, err
	}

	client, err := monitoring.NewMetricClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	cm := &CloudMonitor{
		name:      name,
		client:    client,
		resource:  newResource(),
		projectID: "projects/" + creds.ProjectID,
	}
	if _, err := cm.createSampleMetric(ctx); err != nil {
		logger.Warn("Failed to create metric descriptor", slog.String("exporter", name), slog.Any("error", err))
	}
	return cm, nil
}

func (cm *CloudMonitor) Name() string {
	return cm.name
}

// Export writes the newest sample only. A CreateTimeSeries request takes
// exactly one point per series.
func (cm *CloudMonitor) Export(ctx context.Context, datasourceID string, signal link.SignalDefinition, samples []link.Sample) error {
	latest := samples[0]
	for _, s := range samples[1:] {
		if s.Key > latest.Key {
			latest = s
		}
	}

	err := cm.client.CreateTimeSeries(ctx, &monitoringpb.CreateTimeSeriesRequest{
		Name:       cm.projectID,
		TimeSeries: []*monitoringpb.TimeSeries{newTimeSeries(cm.resource, datasourceID, signal, latest)},
	})
	if aErr, ok := apierror.FromError(err); ok {
		details := aErr.Details()
		if len(details.Unknown) > 0 {
			if summary, ok := details.Unknown[0].(*monitoringpb.CreateTimeSeriesSummary); ok {
				return fmt.Errorf("%d of %d points failed: %w",
					summary.TotalPointCount-summary.SuccessPointCount, summary.TotalPointCount, err)
			}
		}
	}
	return err
}

func (cm *CloudMonitor) Close() error {
	return cm.client.Close()
}

func newResource() *monitoredres.MonitoredResource {
	host, _ := os.Hostname()
	return &monitoredres.MonitoredResource{
		Type: "generic_task",
		Labels: map[string]string{
			"location":  "global",
			"namespace": "default",
			"job":       "link-agent",
			"task_id":   host,
		},
	}
}

func newTimeSeries(resource *monitoredres.MonitoredResource, datasourceID string, signal link.SignalDefinition, sample link.Sample) *monitoringpb.TimeSeries {
	stamp := timestamppb.New(sample.Key.Time())
	return &monitoringpb.TimeSeries{
		Metric: &metricpb.Metric{
			Type: SAMPLE_METRIC_TYPE,
			Labels: map[string]string{
				"datasource": datasourceID,
				"data_id":    signal.DataID,
				"name":       signal.Name,
			},
		},
		Resource: resource,
		Points: []*monitoringpb.Point{{
			Interval: &monitoringpb.TimeInterval{
				StartTime: stamp,
				EndTime:   stamp,
			},
			Value: &monitoringpb.TypedValue{
				Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: sample.Value},
			},
		}},
	}
}

func (cm *CloudMonitor) createSampleMetric(ctx context.Context) (*metricpb.MetricDescriptor, error) {
	md := &metricpb.MetricDescriptor{
		Name: "Link sample",
		Type: SAMPLE_METRIC_TYPE,
		Labels: []*label.LabelDescriptor{
			{Key: "datasource", ValueType: label.LabelDescriptor_STRING, Description: "Connection the sample was pulled from"},
			{Key: "data_id", ValueType: label.LabelDescriptor_STRING, Description: "Data id of the signal"},
			{Key: "name", ValueType: label.LabelDescriptor_STRING, Description: "Signal name"},
		},
		MetricKind:  metricpb.MetricDescriptor_GAUGE,
		ValueType:   metricpb.MetricDescriptor_DOUBLE,
		Description: "Signal samples exported by the link agent",
		DisplayName: "Link sample",
	}
	m, err := cm.client.CreateMetricDescriptor(ctx, &monitoringpb.CreateMetricDescriptorRequest{
		Name:             cm.projectID,
		MetricDescriptor: md,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create custom metric: %w", err)
	}
	return m, nil
}
