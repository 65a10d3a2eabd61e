package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set through -ldflags at build time.
var (
	Version, Commit, BuildDate string
)

var (
	AgentInfo = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "link_agent_build_info",
		Help: "Link agent build information",
		ConstLabels: map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		},
	})
)
