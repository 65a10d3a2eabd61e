package filter

import "simlink.dev/connector/pkg/link"

type EmptyFilter struct{}

func NewEmptyFilter() *EmptyFilter {
	var f EmptyFilter
	return &f
}

func (f *EmptyFilter) AcceptSignal(s link.SignalDefinition) bool {
	return true
}

func (f *EmptyFilter) AcceptCondition(c link.ConditionDefinition) bool {
	return true
}

func (f *EmptyFilter) FilterSignals(s []link.SignalDefinition) []link.SignalDefinition {
	return s
}

func (f *EmptyFilter) FilterConditions(c []link.ConditionDefinition) []link.ConditionDefinition {
	return c
}
