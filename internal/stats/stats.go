// Package stats holds the per-run generation statistics: emission counters
// per EVR ID, invalid-ID counters, and the usage trackers consulted for
// post-run coverage assertions. A Statistics value belongs to exactly one
// run; nothing here is process-global.
package stats

import (
	"sort"
	"sync"

	"github.com/alxayo/go-evrgen/internal/generators"
)

// TrackerType names a registered usage tracker.
type TrackerType string

const (
	TrackerInvalidID     TrackerType = "INVALID_ID"
	TrackerValidOpcode   TrackerType = "VALID_OPCODE"
	TrackerInvalidOpcode TrackerType = "INVALID_OPCODE"
	TrackerValidSeqID    TrackerType = "VALID_SEQID"
	TrackerInvalidSeqID  TrackerType = "INVALID_SEQID"
)

// TrackerMap is a synchronized registry of usage trackers.
type TrackerMap struct {
	mu sync.Mutex
	m  map[TrackerType]*generators.UsageTracker
}

func NewTrackerMap() *TrackerMap {
	return &TrackerMap{m: make(map[TrackerType]*generators.UsageTracker)}
}

// Add registers (or replaces) the tracker for typ.
func (tm *TrackerMap) Add(typ TrackerType, u *generators.UsageTracker) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.m[typ] = u
}

// Get returns the tracker registered for typ.
func (tm *TrackerMap) Get(typ TrackerType) (*generators.UsageTracker, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	u, ok := tm.m[typ]
	return u, ok
}

// Types lists registered tracker types in sorted order.
func (tm *TrackerMap) Types() []TrackerType {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	out := make([]TrackerType, 0, len(tm.m))
	for k := range tm.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Statistics accumulates counters for one generation run. Counter methods
// are safe for concurrent use; registered trackers are owned by their
// generators and should only be read once the run has finished.
type Statistics struct {
	mu          sync.Mutex
	runID       string
	totalByID   map[uint32]uint64
	invalidByID map[uint32]uint64
	skipped     uint64
	bytes       uint64
	emitted     uint64
	fillPackets uint64
	fillBytes   uint64
	trackers    *TrackerMap
}

// New returns an empty statistics context for runID.
func New(runID string) *Statistics {
	return &Statistics{
		runID:       runID,
		totalByID:   make(map[uint32]uint64),
		invalidByID: make(map[uint32]uint64),
		trackers:    NewTrackerMap(),
	}
}

func (s *Statistics) RunID() string { return s.runID }

// Trackers returns the run's tracker registry.
func (s *Statistics) Trackers() *TrackerMap { return s.trackers }

// IncrementTotalForID counts one valid emission of EVR id.
func (s *Statistics) IncrementTotalForID(id uint32) {
	s.mu.Lock()
	s.totalByID[id]++
	s.emitted++
	s.mu.Unlock()
}

// IncrementInvalidForID counts one emission of invalid EVR id.
func (s *Statistics) IncrementInvalidForID(id uint32) {
	s.mu.Lock()
	s.invalidByID[id]++
	s.emitted++
	s.mu.Unlock()
}

// IncrementSkipped counts a selection skipped for a dictionary gap.
func (s *Statistics) IncrementSkipped() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

// AddBytes accumulates emitted body bytes.
func (s *Statistics) AddBytes(n int) {
	s.mu.Lock()
	s.bytes += uint64(n)
	s.mu.Unlock()
}

// TotalForID returns the valid emission count for id.
func (s *Statistics) TotalForID(id uint32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalByID[id]
}

// InvalidForID returns the invalid emission count for id.
func (s *Statistics) InvalidForID(id uint32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidByID[id]
}

// IncrementFill counts one fill packet of n bytes.
func (s *Statistics) IncrementFill(n int) {
	s.mu.Lock()
	s.fillPackets++
	s.fillBytes += uint64(n)
	s.mu.Unlock()
}

// FillPercent is the share of fill packets among all packets so far.
func (s *Statistics) FillPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.fillPackets + s.emitted
	if total == 0 {
		return 0
	}
	return float64(s.fillPackets) * 100 / float64(total)
}

// AverageBodySize is the mean EVR body length emitted so far, or 0 before
// the first emission.
func (s *Statistics) AverageBodySize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitted == 0 {
		return 0
	}
	return int(s.bytes / s.emitted)
}
