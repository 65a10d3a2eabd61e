// Package export ships pulled samples to external systems.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"simlink.dev/connector/internal/config"
	"simlink.dev/connector/pkg/link"
)

const (
	PRINT                   = "print"
	PROMETHEUS_REMOTE_WRITE = "prometheus_remote_write"
	GCP_CLOUD_MONITOR       = "gcp_cloud_monitor"
)

var ErrUnknownExporter = errors.New("unknown exporter type")

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "link_export_operations_total",
		Help: "Total number of exported samples",
	}, []string{"exporter_name", "exporter_type"})
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "link_export_errors_total",
		Help: "Total number of samples that failed to export",
	}, []string{"exporter_name", "exporter_type"})
)

type Exporter interface {
	Name() string
	Export(ctx context.Context, datasourceID string, signal link.SignalDefinition, samples []link.Sample) error
	Close() error
}

// New builds the exporter described by conf. Every exporter counts its sent
// and failed samples.
func New(ctx context.Context, conf config.ExporterConf) (Exporter, error) {
	var (
		e   Exporter
		err error
	)
	switch conf.Type {
	case PRINT:
		e = NewPrint(conf.Name, conf.Connection)
	case PROMETHEUS_REMOTE_WRITE:
		e, err = NewRemoteWrite(conf.Name, conf.Connection, conf.Options)
	case GCP_CLOUD_MONITOR:
		e, err = NewCloudMonitor(ctx, conf.Name, conf.Options)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, conf.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter %s: %w", conf.Name, err)
	}
	return instrument(e, conf.Type), nil
}

type instrumented struct {
	Exporter
	sent   prometheus.Counter
	failed prometheus.Counter
}

func instrument(e Exporter, exporterType string) *instrumented {
	return &instrumented{
		Exporter: e,
		sent:     operationsTotal.WithLabelValues(e.Name(), exporterType),
		failed:   errorsTotal.WithLabelValues(e.Name(), exporterType),
	}
}

func (i *instrumented) Export(ctx context.Context, datasourceID string, signal link.SignalDefinition, samples []link.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	n := float64(len(samples))
	i.sent.Add(n)
	err := i.Exporter.Export(ctx, datasourceID, signal, samples)
	if err != nil {
		i.failed.Add(n)
	}
	return err
}
