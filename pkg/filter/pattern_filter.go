package filter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v2"

	"simlink.dev/connector/pkg/link"
)

const (
	FieldDataID = "data_id"
	FieldName   = "name"
	FieldAsset  = "asset"
)

type Pattern struct {
	Field string
	Glob  string
}

func (p Pattern) match(item attributes) bool {
	var value string
	switch p.Field {
	case FieldDataID:
		value = item.dataID
	case FieldAsset:
		value = item.assetID
	default:
		value = item.name
	}
	ok, err := doublestar.Match(p.Glob, value)
	return err == nil && ok
}

type attributes struct {
	dataID  string
	name    string
	assetID string
}

type PatternFilter struct {
	AcceptedPatterns []Pattern
	RejectedPatterns []Pattern
	active           bool
}

func NewPatternFilter(conf FilterConfig) (*PatternFilter, error) {
	var f PatternFilter
	var err error

	if f.AcceptedPatterns, err = parsePatterns(conf.Accepted); err != nil {
		return nil, err
	}
	if f.RejectedPatterns, err = parsePatterns(conf.Rejected); err != nil {
		return nil, err
	}

	if len(f.AcceptedPatterns) != 0 || len(f.RejectedPatterns) != 0 {
		f.active = true
	}
	return &f, nil
}

func parsePatterns(raw []string) ([]Pattern, error) {
	var patterns []Pattern
	for _, r := range raw {
		p := Pattern{Field: FieldName, Glob: r}
		if field, glob, ok := strings.Cut(r, ":"); ok {
			switch field {
			case FieldDataID, FieldName, FieldAsset:
				p = Pattern{Field: field, Glob: glob}
			}
		}
		if _, err := doublestar.Match(p.Glob, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", r, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func (f *PatternFilter) AcceptSignal(s link.SignalDefinition) bool {
	return f.patternFilter(attributes{dataID: s.DataID, name: s.Name, assetID: s.AssetID})
}

func (f *PatternFilter) AcceptCondition(c link.ConditionDefinition) bool {
	return f.patternFilter(attributes{dataID: c.DataID, name: c.Name, assetID: c.AssetID})
}

func (f *PatternFilter) FilterSignals(s []link.SignalDefinition) []link.SignalDefinition {
	accepted := make([]link.SignalDefinition, 0, len(s))
	for _, S := range s {
		if f.AcceptSignal(S) {
			accepted = append(accepted, S)
		}
	}
	return accepted
}

func (f *PatternFilter) FilterConditions(c []link.ConditionDefinition) []link.ConditionDefinition {
	accepted := make([]link.ConditionDefinition, 0, len(c))
	for _, C := range c {
		if f.AcceptCondition(C) {
			accepted = append(accepted, C)
		}
	}
	return accepted
}

// Check if an item should be accepted or not
// No patterns specified -> everything is accepted
// only AcceptedPatterns are provided -> only matching items are allowed
// only RejectedPatterns are specified -> everything is allowed except matching items
// both are provided -> only accepted items that were not rejected later are accepted
func (f *PatternFilter) patternFilter(item attributes) (accepted bool) {
	if !f.active {
		return true
	}

	accepted = len(f.AcceptedPatterns) == 0
	for _, p := range f.AcceptedPatterns {
		if p.match(item) {
			accepted = true
			break
		}
	}

	for _, p := range f.RejectedPatterns {
		if p.match(item) {
			return false
		}
	}
	return
}
