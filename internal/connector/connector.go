// Package connector implements the simulator connector: each connection
// exposes a simulated datasource of sine wave tags and alarm conditions.
package connector

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"simlink.dev/connector/pkg/link"
)

const Name = "Simulator Connector"

// Connector hosts one Connection per enabled, valid connection config.
type Connector struct {
	service link.ConnectorService
	config  ConnectorConfigV1
}

func New() *Connector {
	return &Connector{}
}

func (c *Connector) Name() string {
	return Name
}

func (c *Connector) Initialize(service link.ConnectorService) error {
	c.service = service
	log := service.Logger()

	if _, err := service.LoadConfig(&c.config); err != nil {
		return err
	}
	if c.config.Version == "" {
		c.config.Version = ConfigVersion
	}

	if len(c.config.Connections) == 0 {
		tagCount := 5000
		c.config.Connections = append(c.config.Connections, &ConnectionConfigV1{
			ConnectionConfig: link.ConnectionConfig{
				Name:    "My First Connection",
				ID:      uuid.NewString(),
				Enabled: true,
			},
			TagCount:     &tagCount,
			SamplePeriod: "00:15",
		})
	}

	for _, cfg := range c.config.Connections {
		if cfg.ID == "" {
			cfg.ID = uuid.NewString()
		}
		if !cfg.Enabled {
			continue
		}
		if _, err := cfg.validate(); err != nil {
			log.Warn(fmt.Sprintf("Connection '%s' is invalid. It will be ignored.", cfg.Name),
				slog.String("id", cfg.ID), slog.Any("error", err))
			cfg.Enabled = false
			continue
		}
		service.AddConnection(NewConnection(c, cfg))
	}

	return c.SaveConfig()
}

func (c *Connector) Destroy() {}

// SaveConfig persists the configuration of every connection.
func (c *Connector) SaveConfig() error {
	if c.service == nil {
		return nil
	}
	return c.service.SaveConfig(&c.config)
}

// Config is the loaded connector configuration.
func (c *Connector) Config() *ConnectorConfigV1 {
	return &c.config
}
