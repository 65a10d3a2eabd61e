package config

import (
	"slices"
	"time"

	"simlink.dev/connector/pkg/filter"
)

// CatalogConf selects the store indexed items are written to.
type CatalogConf struct {
	Type       string            `yaml:"type"`
	Connection string            `yaml:"connection"`
	Options    map[string]string `yaml:"options"`
}

// ExporterConf is one sample export target. Every Interval the agent pulls
// the last Lookback of samples for each accepted signal and hands them to
// the exporter.
type ExporterConf struct {
	Name        string              `yaml:"name"`
	Type        string              `yaml:"type"`
	Connection  string              `yaml:"connection"`
	Interval    time.Duration       `yaml:"interval"`
	Lookback    time.Duration       `yaml:"lookback"`
	Connections []string            `yaml:"connections"`
	Filter      filter.FilterConfig `yaml:"filter"`
	Options     map[string]string   `yaml:"options"`
}

// Exports reports whether the exporter covers the datasource. An empty
// Connections list covers all of them.
func (e ExporterConf) Exports(datasourceID string) bool {
	return len(e.Connections) == 0 || slices.Contains(e.Connections, datasourceID)
}

type PushgatewayConf struct {
	URL string `yaml:"url"`
	Job string `yaml:"job"`
}
