package datagen

import (
	"log/slog"
	"time"
)

// progress logs run completion every ten percent and at least once per
// interval. Completion is the larger of the EVR count and byte ratios
// against the run-wide targets; a zero target is ignored.
type progress struct {
	log       *slog.Logger
	wantEVRs  int64
	wantBytes int64
	interval  time.Duration
	now       func() time.Time

	start    time.Time
	last     time.Time
	lastPct  int
	evrs     int64
	fills    int64
	bytes    int64
	reported int
}

func newProgress(log *slog.Logger, wantEVRs, wantBytes int64, interval time.Duration, now func() time.Time) *progress {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &progress{log: log, wantEVRs: wantEVRs, wantBytes: wantBytes, interval: interval, now: now, start: t, last: t}
}

// evr records one EVR packet of n bytes.
func (p *progress) evr(n int) {
	p.evrs++
	p.bytes += int64(n)
	p.update()
}

// fill records one fill packet of n bytes.
func (p *progress) fill(n int) {
	p.fills++
	p.bytes += int64(n)
	p.update()
}

func (p *progress) percent() int {
	pct := 0
	if p.wantEVRs > 0 {
		pct = int(p.evrs * 100 / p.wantEVRs)
	}
	if p.wantBytes > 0 {
		pct = max(pct, int(p.bytes*100/p.wantBytes))
	}
	return min(pct, 100)
}

func (p *progress) update() {
	pct := p.percent()
	now := p.now()
	if pct < p.lastPct+10 && now.Sub(p.last) < p.interval {
		return
	}
	elapsed := now.Sub(p.start)
	var remaining time.Duration
	if pct > 0 {
		remaining = elapsed / time.Duration(pct) * time.Duration(100-pct)
	}
	p.log.Info("EVR generation progress",
		"percent", pct, "evr_packets", p.evrs, "fill_packets", p.fills, "bytes", p.bytes,
		"elapsed", elapsed.Round(time.Second).String(), "remaining", remaining.Round(time.Second).String())
	if pct >= p.lastPct+10 {
		p.lastPct = pct - pct%10
	}
	p.last = now
	p.reported++
}
