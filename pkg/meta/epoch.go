package meta

import "time"

// Epoch is the validity span of a metadata entity. Both bounds are
// optional: a nil Start means valid since before any recorded time, a
// nil End means still valid.
type Epoch struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// SpansInstant reports whether the epoch covers the instant t.
func (e Epoch) SpansInstant(t time.Time) bool {
	if e.Start != nil && t.Before(*e.Start) {
		return false
	}
	if e.End != nil && t.After(*e.End) {
		return false
	}
	return true
}

// SpansInterval reports whether the epoch overlaps the interval [a, b].
// This is overlap, not containment: an epoch covering any part of the
// interval spans it.
func (e Epoch) SpansInterval(a, b time.Time) bool {
	if e.Start != nil && b.Before(*e.Start) {
		return false
	}
	if e.End != nil && e.End.Before(a) {
		return false
	}
	return true
}

// TimeFilter restricts queries to entities whose epoch covers a given
// instant or interval. The zero value accepts any time.
type TimeFilter struct {
	times []time.Time
}

// AnyTime returns a filter that accepts every epoch.
func AnyTime() TimeFilter {
	return TimeFilter{}
}

// At returns a filter matching epochs that cover the instant t.
func At(t time.Time) TimeFilter {
	return TimeFilter{times: []time.Time{t}}
}

// Between returns a filter matching epochs that overlap [a, b].
func Between(a, b time.Time) TimeFilter {
	return TimeFilter{times: []time.Time{a, b}}
}

// Covers reports whether an epoch passes the filter.
func (f TimeFilter) Covers(e Epoch) bool {
	switch len(f.times) {
	case 1:
		return e.SpansInstant(f.times[0])
	case 2:
		return e.SpansInterval(f.times[0], f.times[1])
	default:
		return true
	}
}
