package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"simlink.dev/connector/internal/logger"
)

const DEFAULT_AGENT_NAME = "Go Connector SDK Debugging Agent"

const (
	CATALOG_BADGER      = "badger"
	CATALOG_POSTGRES    = "postgres"
	CATALOG_AZURE_TABLE = "azure_table"
)

type AgentConf struct {
	Name                 string          `yaml:"name"`
	ConnectorSearchPaths SearchPaths     `yaml:"connector_search_paths"`
	ConfigDir            string          `yaml:"config_dir"`
	DataDir              string          `yaml:"data_dir"`
	LogLevel             string          `yaml:"log_level"`
	Http                 HTTPConf        `yaml:"http"`
	MonitorInterval      time.Duration   `yaml:"monitor_interval"`
	ReconnectDelay       time.Duration   `yaml:"reconnect_delay"`
	IndexInterval        time.Duration   `yaml:"index_interval"`
	Catalog              CatalogConf     `yaml:"catalog"`
	Exporters            []ExporterConf  `yaml:"exporters"`
	Pushgateway          PushgatewayConf `yaml:"pushgateway"`
	slogLevel            slog.Level
}

type HTTPConf struct {
	ListenPort    int    `yaml:"listen_port"`
	ListenAddress string `yaml:"listen_address"`
}

func (h HTTPConf) Addr() string {
	return fmt.Sprintf("%s:%d", h.ListenAddress, h.ListenPort)
}

// SearchPaths accepts either a YAML list or a single string of
// semicolon separated glob patterns.
type SearchPaths []string

func (s *SearchPaths) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = nil
		for _, p := range strings.Split(value.Value, ";") {
			if p = strings.TrimSpace(p); p != "" {
				*s = append(*s, p)
			}
		}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	return fmt.Errorf("connector_search_paths: expected string or list, got %v", value.Tag)
}

func (ac *AgentConf) setLogLevel() {
	ac.slogLevel = logger.ParseLevel(ac.LogLevel)
}

func (ac *AgentConf) GetLogLevel() slog.Level {
	return ac.slogLevel
}

// LoadAgentConfig reads and normalises the agent configuration.
func LoadAgentConfig(path string) (conf AgentConf, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("cannot read agent config file: %w", err)
	}
	return ParseAgentConfig(file)
}

func ParseAgentConfig(data []byte) (conf AgentConf, err error) {
	if err = yaml.Unmarshal(data, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse agent config: %w", err)
	}
	conf.normalize()
	return conf, nil
}

// MustParseAgentConfig is LoadAgentConfig for start-up code: any error panics.
func MustParseAgentConfig(path string) AgentConf {
	conf, err := LoadAgentConfig(path)
	if err != nil {
		panic(err.Error())
	}
	return conf
}

// Default is the configuration used when no file is given.
func Default() AgentConf {
	var conf AgentConf
	conf.normalize()
	return conf
}

func (ac *AgentConf) normalize() {
	ac.setName()
	ac.setSearchPaths()
	ac.setDirs()
	ac.setPort()
	ac.setIntervals()
	ac.setCatalog()
	ac.setExporters()
	ac.setPushgateway()
	ac.setLogLevel()
}

func (ac *AgentConf) setName() {
	if ac.Name == "" {
		ac.Name = DEFAULT_AGENT_NAME
	}
}

func (ac *AgentConf) setSearchPaths() {
	if len(ac.ConnectorSearchPaths) == 0 {
		ac.ConnectorSearchPaths = SearchPaths{"./bin/*-connector"}
	}
}

func (ac *AgentConf) setDirs() {
	if ac.ConfigDir == "" {
		ac.ConfigDir = "./config"
	}
	if ac.DataDir == "" {
		ac.DataDir = "./data"
	}
}

func (ac *AgentConf) setPort() {
	if ac.Http.ListenPort == 0 {
		ac.Http.ListenPort = 2021
	}
}

func (ac *AgentConf) setIntervals() {
	if ac.MonitorInterval <= 0 {
		ac.MonitorInterval = 5 * time.Second
	}
	if ac.ReconnectDelay <= 0 {
		ac.ReconnectDelay = 10 * time.Second
	}
	if ac.IndexInterval <= 0 {
		ac.IndexInterval = time.Hour
	}
}

func (ac *AgentConf) setCatalog() {
	switch ac.Catalog.Type {
	case CATALOG_BADGER, CATALOG_POSTGRES, CATALOG_AZURE_TABLE:
	default:
		ac.Catalog.Type = CATALOG_BADGER
	}
	if ac.Catalog.Type == CATALOG_BADGER && ac.Catalog.Connection == "" {
		ac.Catalog.Connection = ac.DataDir + "/catalog"
	}
}

func (ac *AgentConf) setExporters() {
	for i := range ac.Exporters {
		e := &ac.Exporters[i]
		if e.Name == "" {
			e.Name = e.Type
		}
		if e.Interval <= 0 {
			e.Interval = time.Minute
		}
		if e.Lookback <= 0 {
			e.Lookback = e.Interval
		}
	}
}

func (ac *AgentConf) setPushgateway() {
	if ac.Pushgateway.URL != "" && ac.Pushgateway.Job == "" {
		ac.Pushgateway.Job = "link_agent"
	}
}
