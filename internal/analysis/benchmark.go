package analysis

import "time"

// Benchmark keeps per-packet processing times and the wall-clock span of a run.
type Benchmark struct {
	Best     time.Duration
	Worst    time.Duration
	Total    time.Duration
	Readings int

	Started time.Time
	Ended   time.Time
}

// Start records the beginning of the run.
func (b *Benchmark) Start(now time.Time) {
	b.Started = now
}

// Finish records the end of the run.
func (b *Benchmark) Finish(now time.Time) {
	b.Ended = now
}

// Record adds one per-packet reading. The first reading sets both Best and Worst.
func (b *Benchmark) Record(elapsed time.Duration) {
	if b.Readings == 0 || elapsed < b.Best {
		b.Best = elapsed
	}
	if b.Readings == 0 || elapsed > b.Worst {
		b.Worst = elapsed
	}
	b.Total += elapsed
	b.Readings++
}

// Elapsed returns the wall-clock duration of the run, or 0 if it has not finished.
func (b *Benchmark) Elapsed() time.Duration {
	if b.Started.IsZero() || b.Ended.IsZero() {
		return 0
	}
	return b.Ended.Sub(b.Started)
}

// Mean returns the mean per-packet time over packets. ok is false when packets is 0.
func (b *Benchmark) Mean(packets int) (mean time.Duration, ok bool) {
	if packets <= 0 {
		return 0, false
	}
	return b.Total / time.Duration(packets), true
}

// Rate returns packets per second over the whole run. ok is false when the run took no
// measurable time.
func (b *Benchmark) Rate(packets int) (pps float64, ok bool) {
	secs := b.Elapsed().Seconds()
	if secs <= 0 {
		return 0, false
	}
	return float64(packets) / secs, true
}
