package simulator

import (
	"iter"
	"math"
	"math/rand/v2"
)

var severities = []string{"LOW", "MEDIUM", "HIGH"}

type Alarm struct {
	Start    int64
	End      int64
	Severity string
	Value    float64
}

// alarmAt decides the alarm of window i. An alarm starts within the first half
// of its window and lasts 10-50% of it, so it always ends inside the window.
func (s *Simulator) alarmAt(seed uint64, i int64) (Alarm, bool) {
	rng := rand.New(rand.NewPCG(seed, uint64(i)))
	if rng.Float64() >= 0.5 {
		return Alarm{}, false
	}

	window := s.alarmPeriod.Nanoseconds()
	offset := int64(rng.Float64() * 0.5 * float64(window))
	duration := int64((0.1 + rng.Float64()*0.4) * float64(window))
	if duration < 1 {
		duration = 1
	}
	start := i*window + offset
	return Alarm{
		Start:    start,
		End:      start + duration,
		Severity: severities[rng.IntN(len(severities))],
		Value:    math.Round(rng.Float64()*10000) / 100,
	}, true
}

// Alarms yields every alarm intersecting [start, end] in start order. The
// same seed and range always produce the same alarms.
func (s *Simulator) Alarms(seed uint64, start, end int64) iter.Seq[Alarm] {
	return func(yield func(Alarm) bool) {
		if end < start {
			return
		}
		window := s.alarmPeriod.Nanoseconds()
		for i := floorDiv(start, window); i <= floorDiv(end, window); i++ {
			alarm, ok := s.alarmAt(seed, i)
			if !ok || alarm.End < start || alarm.Start > end {
				continue
			}
			if !yield(alarm) {
				return
			}
		}
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
