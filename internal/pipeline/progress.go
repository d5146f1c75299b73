package pipeline

import (
	"capdissect/internal/analysis"
	"fmt"
	"io"
	"time"
)

// Snapshot is a copy of the run state taken at a progress point. It shares nothing with
// the driver's accumulators, so it may be handed to another goroutine.
type Snapshot struct {
	Packets     int
	Elapsed     time.Duration
	APs         *analysis.Tally
	Hosts       *analysis.Tally
	HTTPPackets int
	Done        bool
}

// ProgressFunc receives snapshots while a run is in progress.
type ProgressFunc func(Snapshot)

// LineProgress returns a ProgressFunc that rewrites a single "Processed N packets" line on w
// and ends it with a newline when the run is done.
func LineProgress(w io.Writer) ProgressFunc {
	return func(s Snapshot) {
		if s.Done {
			fmt.Fprintf(w, "Processed %d packets\n", s.Packets)
			return
		}
		fmt.Fprintf(w, "Processed %d packets\r", s.Packets)
	}
}
