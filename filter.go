package quintctl

import "math"

// ChangeFilter decides whether a new reading differs enough from the last reported one.
// A zero threshold is disabled; with both disabled every reading is reported.
type ChangeFilter struct {
	MinRel float64 // relative change, 0.1 = 10%
	MinAbs float64 // absolute change in engineering units
}

// ShouldReport returns true for the first reading of a register (prev == nil) and for every
// reading that passes one of the enabled thresholds.
func (f ChangeFilter) ShouldReport(prev *DecodedValue, next float64) bool {
	if prev == nil {
		return true
	}
	if f.MinRel <= 0 && f.MinAbs <= 0 {
		return true
	}

	delta := math.Abs(next - prev.Value)
	if f.MinAbs > 0 && delta >= f.MinAbs {
		return true
	}
	if f.MinRel > 0 {
		if prev.Value == 0 {
			return delta != 0
		}
		if delta/math.Abs(prev.Value) >= f.MinRel {
			return true
		}
	}
	return false
}

// FilterState keeps the last reported value per register address for one monitor session.
type FilterState struct {
	filter       ChangeFilter
	lastReported map[uint16]DecodedValue
}

func NewFilterState(f ChangeFilter) *FilterState {
	return &FilterState{filter: f, lastReported: make(map[uint16]DecodedValue)}
}

// Observe reports whether v should be shown and records it as the last reported value if so.
func (s *FilterState) Observe(v DecodedValue) bool {
	addr := v.Def.Address
	var prev *DecodedValue
	if last, ok := s.lastReported[addr]; ok {
		prev = &last
	}
	if !s.filter.ShouldReport(prev, v.Value) {
		return false
	}
	s.lastReported[addr] = v
	return true
}

// Last returns the last reported value of the register at addr.
func (s *FilterState) Last(addr uint16) (DecodedValue, bool) {
	v, ok := s.lastReported[addr]
	return v, ok
}
