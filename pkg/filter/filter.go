// Package filter selects signals and conditions by glob patterns on their
// data id, name or asset.
package filter

import (
	"simlink.dev/connector/pkg/link"
)

type Filter interface {
	AcceptSignal(s link.SignalDefinition) bool
	AcceptCondition(c link.ConditionDefinition) bool
	FilterSignals(s []link.SignalDefinition) []link.SignalDefinition
	FilterConditions(c []link.ConditionDefinition) []link.ConditionDefinition
}

// FilterConfig lists patterns of the form "field:glob". field is one of
// data_id, name or asset and defaults to name when omitted.
type FilterConfig struct {
	Accepted []string `yaml:"accepted"`
	Rejected []string `yaml:"rejected"`
}

func (c FilterConfig) Empty() bool {
	return len(c.Accepted) == 0 && len(c.Rejected) == 0
}

// NewFilter returns an EmptyFilter for an empty configuration.
func NewFilter(conf FilterConfig) (Filter, error) {
	if conf.Empty() {
		return NewEmptyFilter(), nil
	}
	return NewPatternFilter(conf)
}
