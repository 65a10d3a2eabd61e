package export

import (
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// IndexStats describes one finished index pass.
type IndexStats struct {
	DatasourceID string
	Mode         string
	Items        int64
	Duration     time.Duration
	Finished     time.Time
}

// Pushgateway pushes index pass statistics, grouped by datasource and sync
// mode.
type Pushgateway struct {
	url string
	job string
}

func NewPushgateway(gatewayURL, job string) (*Pushgateway, error) {
	if _, err := url.Parse(gatewayURL); err != nil {
		return nil, err
	}
	return &Pushgateway{url: gatewayURL, job: job}, nil
}

func (p *Pushgateway) collectors(stats IndexStats) []prometheus.Collector {
	items := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "link_index_items",
		Help: "Items reported by the last index pass",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "link_index_duration_seconds",
		Help: "Duration of the last index pass",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "link_index_last_success",
		Help: "Unix time of the last successful index pass",
	})
	items.Set(float64(stats.Items))
	duration.Set(stats.Duration.Seconds())
	lastSuccess.Set(float64(stats.Finished.Unix()))
	return []prometheus.Collector{items, duration, lastSuccess}
}

func (p *Pushgateway) Push(stats IndexStats) error {
	pusher := push.New(p.url, p.job).
		Grouping("datasource", stats.DatasourceID).
		Grouping("mode", stats.Mode)
	for _, c := range p.collectors(stats) {
		pusher = pusher.Collector(c)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("failed to push index stats: %w", err)
	}
	return nil
}
