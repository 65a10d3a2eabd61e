package link

import (
	"fmt"
	"time"
)

// ConnectionConfig holds the settings every connection shares. Connector
// specific configuration structs embed it inline.
type ConnectionConfig struct {
	Name    string `yaml:"name"`
	ID      string `yaml:"id"`
	Enabled bool   `yaml:"enabled"`

	// MaxConcurrentRequests bounds parallel pulls against the datasource.
	MaxConcurrentRequests *int `yaml:"max_concurrent_requests,omitempty"`

	// MaxResultsPerRequest caps samples/capsules returned by one pull.
	MaxResultsPerRequest *int `yaml:"max_results_per_request,omitempty"`

	// IndexingSchedule is a Go duration between full index passes.
	IndexingSchedule string `yaml:"indexing_schedule,omitempty"`

	// LastIndexedAt is maintained by the hosting process after a full pass.
	LastIndexedAt *time.Time `yaml:"last_indexed_at,omitempty"`
}

// IndexInterval parses IndexingSchedule. It returns 0 when unset.
func (c *ConnectionConfig) IndexInterval() (time.Duration, error) {
	if c.IndexingSchedule == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.IndexingSchedule)
	if err != nil {
		return 0, fmt.Errorf("invalid indexing schedule %q: %w", c.IndexingSchedule, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid indexing schedule %q: must be positive", c.IndexingSchedule)
	}
	return d, nil
}

// ConnectorConfig is the stored configuration of a connector: a version tag
// and the list of connection configurations.
type ConnectorConfig[T any] struct {
	Version     string `yaml:"version"`
	Connections []T    `yaml:"connections"`
}
