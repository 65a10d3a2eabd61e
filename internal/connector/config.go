package connector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"simlink.dev/connector/internal/simulator"
	"simlink.dev/connector/pkg/link"
)

const ConfigVersion = "v1"

// ConnectionConfigV1 configures one simulated datasource.
type ConnectionConfigV1 struct {
	link.ConnectionConfig `yaml:",inline"`

	TagCount *int `yaml:"tag_count"`

	// SamplePeriod is the spacing of samples, e.g. "00:15" or "15s".
	// The waveform repeats every 100 samples.
	SamplePeriod string `yaml:"sample_period"`

	// Waveform is one of sine, square, triangle or sawtooth.
	Waveform string `yaml:"waveform,omitempty"`

	// AlarmPeriod is the length of an alarm window. Defaults to a tenth of
	// the waveform period.
	AlarmPeriod string `yaml:"alarm_period,omitempty"`
}

type ConnectorConfigV1 = link.ConnectorConfig[*ConnectionConfigV1]

// settings is the validated form of ConnectionConfigV1.
type settings struct {
	tagCount     int
	samplePeriod time.Duration
	alarmPeriod  time.Duration
	waveform     simulator.Waveform
}

func (c *ConnectionConfigV1) validate() (settings, error) {
	var s settings

	if c.TagCount == nil {
		return s, errors.New("tag count is missing")
	}
	if *c.TagCount < 0 {
		return s, fmt.Errorf("tag count %d is negative", *c.TagCount)
	}
	s.tagCount = *c.TagCount

	period, err := ParsePeriod(c.SamplePeriod)
	if err != nil {
		return s, fmt.Errorf("invalid sample period: %w", err)
	}
	if period > math.MaxInt64/periodsPerSignal {
		return s, fmt.Errorf("sample period %s is too long", period)
	}
	s.samplePeriod = period

	if c.AlarmPeriod != "" {
		alarm, err := ParsePeriod(c.AlarmPeriod)
		if err != nil {
			return s, fmt.Errorf("invalid alarm period: %w", err)
		}
		s.alarmPeriod = alarm
	}

	s.waveform = simulator.ParseWaveform(c.Waveform)
	return s, nil
}
