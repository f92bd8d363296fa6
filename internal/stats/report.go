package stats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrackerCoverage summarizes one usage tracker.
type TrackerCoverage struct {
	Type     TrackerType `json:"type"`
	Used     int         `json:"used"`
	Size     int         `json:"size"`
	Complete bool        `json:"complete"`
	Unused   []int       `json:"unused,omitempty"`
}

// Distribution summarizes per-ID emission counts for valid EVRs.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Report is an immutable snapshot of a run's statistics.
type Report struct {
	RunID        string            `json:"run_id"`
	CreatedAt    time.Time         `json:"created_at"`
	ValidEVRs    uint64            `json:"valid_evrs"`
	InvalidEVRs  uint64            `json:"invalid_evrs"`
	Skipped      uint64            `json:"skipped"`
	Bytes        uint64            `json:"bytes"`
	FillPackets  uint64            `json:"fill_packets,omitempty"`
	FillBytes    uint64            `json:"fill_bytes,omitempty"`
	PerID        map[uint32]uint64 `json:"per_id"`
	InvalidPerID map[uint32]uint64 `json:"invalid_per_id,omitempty"`
	Coverage     []TrackerCoverage `json:"coverage,omitempty"`
	Distribution Distribution      `json:"distribution"`
}

// Report snapshots the counters and trackers.
func (s *Statistics) Report() Report {
	s.mu.Lock()
	r := Report{
		RunID:        s.runID,
		CreatedAt:    time.Now().UTC(),
		Skipped:      s.skipped,
		Bytes:        s.bytes,
		FillPackets:  s.fillPackets,
		FillBytes:    s.fillBytes,
		PerID:        make(map[uint32]uint64, len(s.totalByID)),
		InvalidPerID: make(map[uint32]uint64, len(s.invalidByID)),
	}
	counts := make([]float64, 0, len(s.totalByID))
	for id, n := range s.totalByID {
		r.PerID[id] = n
		r.ValidEVRs += n
		counts = append(counts, float64(n))
	}
	for id, n := range s.invalidByID {
		r.InvalidPerID[id] = n
		r.InvalidEVRs += n
	}
	s.mu.Unlock()

	r.Distribution = distribution(counts)
	for _, typ := range s.trackers.Types() {
		u, _ := s.trackers.Get(typ)
		r.Coverage = append(r.Coverage, TrackerCoverage{
			Type:     typ,
			Used:     u.Count(),
			Size:     u.Size(),
			Complete: u.Complete(),
			Unused:   u.Unmarked(),
		})
	}
	return r
}

func distribution(counts []float64) Distribution {
	if len(counts) == 0 {
		return Distribution{}
	}
	d := Distribution{Min: floats.Min(counts), Max: floats.Max(counts)}
	if len(counts) == 1 {
		d.Mean = counts[0]
		return d
	}
	d.Mean, d.StdDev = stat.MeanStdDev(counts, nil)
	return d
}

// Incomplete lists the coverage entries that did not reach full usage.
func (r Report) Incomplete() []TrackerCoverage {
	var out []TrackerCoverage
	for _, c := range r.Coverage {
		if !c.Complete {
			out = append(out, c)
		}
	}
	return out
}

// WriteText renders a human-readable summary.
func (r Report) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Run: %s\n", r.RunID)
	ew.printf("Valid EVRs: %d\nInvalid EVRs: %d\nSkipped: %d\nBody bytes: %d\n", r.ValidEVRs, r.InvalidEVRs, r.Skipped, r.Bytes)
	if r.FillPackets > 0 {
		ew.printf("Fill packets: %d (%d bytes)\n", r.FillPackets, r.FillBytes)
	}
	ew.printf("Per-ID emissions: mean=%.2f stddev=%.2f min=%.0f max=%.0f\n",
		r.Distribution.Mean, r.Distribution.StdDev, r.Distribution.Min, r.Distribution.Max)
	for _, id := range sortedIDs(r.PerID) {
		ew.printf("  EVR %d: %d\n", id, r.PerID[id])
	}
	for _, id := range sortedIDs(r.InvalidPerID) {
		ew.printf("  invalid EVR %d: %d\n", id, r.InvalidPerID[id])
	}
	for _, c := range r.Coverage {
		ew.printf("Coverage %s: %d/%d\n", c.Type, c.Used, c.Size)
	}
	return ew.err
}

func sortedIDs(m map[uint32]uint64) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
