// Package simulator generates deterministic pseudo-data for the simulator
// connector: numbered tags, periodic waveforms and seeded alarms.
package simulator

import (
	"fmt"
	"iter"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

type Tag struct {
	ID      int
	Name    string
	Stepped bool
}

type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

func (w Waveform) String() string {
	switch w {
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	default:
		return "sine"
	}
}

// ParseWaveform is case insensitive. Unknown names yield Sine.
func ParseWaveform(s string) Waveform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "square":
		return Square
	case "triangle":
		return Triangle
	case "sawtooth":
		return Sawtooth
	default:
		return Sine
	}
}

type Option func(*Simulator)

// WithAlarmPeriod sets the alarm window length. Non-positive values are ignored.
func WithAlarmPeriod(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.alarmPeriod = d
		}
	}
}

type Simulator struct {
	connected    atomic.Bool
	tagCount     int
	signalPeriod time.Duration
	alarmPeriod  time.Duration
}

// New does no I/O. The alarm period defaults to a tenth of the signal period.
func New(tagCount int, signalPeriod time.Duration, opts ...Option) *Simulator {
	s := &Simulator{
		tagCount:     tagCount,
		signalPeriod: signalPeriod,
		alarmPeriod:  signalPeriod / 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alarmPeriod <= 0 {
		s.alarmPeriod = time.Second
	}
	return s
}

func (s *Simulator) Connect() bool {
	s.connected.Store(true)
	return true
}

func (s *Simulator) IsConnected() bool {
	return s.connected.Load()
}

func (s *Simulator) Disconnect() {
	s.connected.Store(false)
}

func (s *Simulator) TagCount() int {
	return s.tagCount
}

func (s *Simulator) SignalPeriod() time.Duration {
	return s.signalPeriod
}

func (s *Simulator) AlarmPeriod() time.Duration {
	return s.alarmPeriod
}

// Tags yields tags 1..TagCount. Even numbered tags are stepped.
func (s *Simulator) Tags() iter.Seq[Tag] {
	return func(yield func(Tag) bool) {
		for n := 1; n <= s.tagCount; n++ {
			tag := Tag{
				ID:      n,
				Name:    fmt.Sprintf("Simulated Tag #%d", n),
				Stepped: n%2 == 0,
			}
			if !yield(tag) {
				return
			}
		}
	}
}

// Query returns the waveform value at timestamp (ns since epoch).
func (s *Simulator) Query(w Waveform, timestamp int64) float64 {
	period := float64(s.signalPeriod.Nanoseconds())
	fraction := math.Mod(float64(timestamp), period) / period
	if fraction < 0 {
		fraction++
	}

	switch w {
	case Square:
		if fraction < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		if fraction < 0.5 {
			return -1 + 4*fraction
		}
		return 3 - 4*fraction
	case Sawtooth:
		return -1 + 2*fraction
	default:
		return math.Sin(fraction * 2.0 * math.Pi)
	}
}
