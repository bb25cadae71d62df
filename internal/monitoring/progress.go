package monitoring

import (
	"time"

	"github.com/banshee-data/embedtrack/internal/timeutil"
)

// Progress reports loop completion through Logf, at most once per interval
// plus a final line when done reaches total. Its Update method matches the
// per-sample progress hook of the analysis driver.
type Progress struct {
	label    string
	interval time.Duration
	clock    timeutil.Clock

	start time.Time
	last  time.Time
}

// NewProgress returns a reporter that logs under label every interval.
func NewProgress(label string, interval time.Duration) *Progress {
	return &Progress{label: label, interval: interval, clock: timeutil.RealClock{}}
}

// Update records that done of total items are complete.
func (p *Progress) Update(done, total int) {
	now := p.clock.Now()
	if p.start.IsZero() {
		p.start = now
		p.last = now
	}
	if done < total && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now

	pct := 100.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	var rate float64
	if elapsed := now.Sub(p.start).Seconds(); elapsed > 0 {
		rate = float64(done) / elapsed
	}
	Logf("%s: %d/%d samples (%.1f%%, %.0f samples/s)", p.label, done, total, pct, rate)
}

// WithClock replaces the reporter's clock and returns p.
func (p *Progress) WithClock(c timeutil.Clock) *Progress {
	p.clock = c
	return p
}
