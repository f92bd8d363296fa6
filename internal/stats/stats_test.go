package stats

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/alxayo/go-evrgen/internal/generators"
)

func TestCountersAndReport(t *testing.T) {
	s := New("run-a")
	for i := 0; i < 3; i++ {
		s.IncrementTotalForID(42)
	}
	s.IncrementTotalForID(7)
	s.IncrementInvalidForID(0xDEAD)
	s.IncrementSkipped()
	s.AddBytes(24)
	s.AddBytes(10)

	inv := generators.NewUsageTracker(2)
	inv.Mark(0)
	s.Trackers().Add(TrackerInvalidID, inv)
	ops := generators.NewUsageTracker(1)
	ops.Mark(0)
	s.Trackers().Add(TrackerValidOpcode, ops)

	r := s.Report()
	if r.RunID != "run-a" || r.ValidEVRs != 4 || r.InvalidEVRs != 1 || r.Skipped != 1 || r.Bytes != 34 {
		t.Fatalf("unexpected totals: %+v", r)
	}
	if diff := cmp.Diff(map[uint32]uint64{42: 3, 7: 1}, r.PerID); diff != "" {
		t.Fatalf("per id (-want +got):\n%s", diff)
	}
	wantCov := []TrackerCoverage{
		{Type: TrackerInvalidID, Used: 1, Size: 2, Complete: false, Unused: []int{1}},
		{Type: TrackerValidOpcode, Used: 1, Size: 1, Complete: true},
	}
	if diff := cmp.Diff(wantCov, r.Coverage); diff != "" {
		t.Fatalf("coverage (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]TrackerCoverage{wantCov[0]}, r.Incomplete()); diff != "" {
		t.Fatalf("incomplete (-want +got):\n%s", diff)
	}
	if r.Distribution.Mean != 2 || r.Distribution.Min != 1 || r.Distribution.Max != 3 {
		t.Fatalf("distribution: %+v", r.Distribution)
	}
	if math.Abs(r.Distribution.StdDev-math.Sqrt2) > 1e-9 {
		t.Fatalf("stddev %v want sqrt(2)", r.Distribution.StdDev)
	}
}

func TestFillAccounting(t *testing.T) {
	s := New("run-fill")
	if s.FillPercent() != 0 || s.AverageBodySize() != 0 {
		t.Fatalf("empty run fill=%v avg=%d", s.FillPercent(), s.AverageBodySize())
	}
	s.IncrementTotalForID(1)
	s.AddBytes(20)
	s.IncrementInvalidForID(900)
	s.AddBytes(10)
	s.IncrementTotalForID(1)
	s.AddBytes(30)
	if got := s.AverageBodySize(); got != 20 {
		t.Fatalf("AverageBodySize=%d want 20", got)
	}
	s.IncrementFill(32)
	if got := s.FillPercent(); got != 25 {
		t.Fatalf("FillPercent=%v want 25", got)
	}
	r := s.Report()
	if r.FillPackets != 1 || r.FillBytes != 32 || r.Bytes != 60 {
		t.Fatalf("fill not reported: %+v", r)
	}
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "Fill packets: 1 (32 bytes)") {
		t.Fatalf("text report missing fill line:\n%s", buf.String())
	}
}

func TestDistributionSingleID(t *testing.T) {
	s := New("one")
	s.IncrementTotalForID(1)
	d := s.Report().Distribution
	if d.Mean != 1 || d.StdDev != 0 {
		t.Fatalf("unexpected distribution %+v", d)
	}
}

func TestConcurrentCounters(t *testing.T) {
	s := New("c")
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.IncrementTotalForID(1)
			}
		}()
	}
	wg.Wait()
	if got := s.TotalForID(1); got != 4000 {
		t.Fatalf("total=%d want 4000", got)
	}
}

func TestWriteText(t *testing.T) {
	s := New("txt")
	s.IncrementTotalForID(42)
	s.IncrementInvalidForID(99)
	var buf bytes.Buffer
	if err := s.Report().WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Run: txt", "Valid EVRs: 1", "EVR 42: 1", "invalid EVR 99: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func testStoreRoundTrip(t *testing.T, st Store) {
	t.Helper()
	s := New("run-1")
	s.IncrementTotalForID(5)
	s.IncrementInvalidForID(6)
	want := s.Report()
	if err := st.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("report (-want +got):\n%s", diff)
	}
	ids, err := st.List()
	if err != nil || len(ids) != 1 || ids[0] != "run-1" {
		t.Fatalf("List = %v, %v", ids, err)
	}
	if _, err := st.Load("missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	st, err := OpenBoltStore(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	defer st.Close()
	testStoreRoundTrip(t, st)
}
