package evr

import "math"

// sequenceCounters holds the per-run EVR sequence numbers. Each field stores
// the value the next emission receives, so the first emission carries 0.
// Values are read with peek and only advanced by commit once the body and
// its truth lines are complete, so a failed emission consumes nothing.
//
// The overall counter wraps to 0 after math.MaxInt32 so its wire value never
// has the sign bit set. Category counters use the full unsigned range and
// wrap after math.MaxUint32.
type sequenceCounters struct {
	overall  uint32
	category map[string]uint32
}

func newSequenceCounters() sequenceCounters {
	return sequenceCounters{category: make(map[string]uint32, 8)}
}

// peek returns the category and overall values the next emission at level
// receives.
func (s *sequenceCounters) peek(level string) (category, overall uint32) {
	return s.category[level], s.overall
}

// commit advances both counters past the values peek returned.
func (s *sequenceCounters) commit(level string) {
	if v := s.category[level]; v == math.MaxUint32 {
		s.category[level] = 0
	} else {
		s.category[level] = v + 1
	}
	if s.overall >= math.MaxInt32 {
		s.overall = 0
	} else {
		s.overall++
	}
}

func (s *sequenceCounters) reset() {
	s.overall = 0
	clear(s.category)
}
