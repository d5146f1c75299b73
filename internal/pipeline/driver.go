// Package pipeline runs dissected packets through the enabled analysis stages in a single
// pass and collects their results.
package pipeline

import (
	"capdissect/internal/analysis"
	"capdissect/internal/models"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// DefaultProgressEvery is the progress interval used when Options.ProgressEvery is zero.
const DefaultProgressEvery = 100

// Options selects the stages of a run. Accumulators of disabled stages stay nil.
type Options struct {
	RunID   string
	Capture string

	Wireless  bool
	Traffic   bool
	Benchmark bool
	Dump      analysis.Dumper

	// Verbosity gates the default progress line: it is only written at slog.LevelInfo or
	// lower. A caller-supplied Progress hook receives every snapshot.
	Verbosity     slog.Level
	Progress      ProgressFunc
	ProgressEvery int
	// ProgressOut receives the default progress line; os.Stderr when nil.
	ProgressOut io.Writer

	Clock  func() time.Time
	Logger *slog.Logger
}

// Result holds the accumulators of a finished run.
type Result struct {
	RunID     string
	Capture   string
	Packets   int
	Wireless  *analysis.WirelessStage
	Traffic   *analysis.TrafficStage
	Benchmark *analysis.Benchmark
}

// Driver threads each packet through the enabled stages in a fixed order: wireless,
// traffic, dump, then the benchmark reading.
type Driver struct {
	opts Options
	log  *slog.Logger

	lineOnly bool

	started  time.Time
	packets  int
	wireless *analysis.WirelessStage
	traffic  *analysis.TrafficStage
	bench    *analysis.Benchmark
}

// New creates a Driver for one run.
func New(opts Options) *Driver {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	d := &Driver{opts: opts, log: opts.Logger}
	if opts.Progress == nil {
		if opts.ProgressOut == nil {
			opts.ProgressOut = os.Stderr
		}
		d.opts.Progress = LineProgress(opts.ProgressOut)
		d.lineOnly = true
	}
	if opts.Wireless {
		d.wireless = analysis.NewWirelessStage()
	}
	if opts.Traffic {
		d.traffic = analysis.NewTrafficStage()
	}
	if opts.Benchmark {
		d.bench = &analysis.Benchmark{}
	}
	return d
}

// Run consumes src until io.EOF. Any source, stage or dump error aborts the run and is
// returned with the packet number attached. The caller owns src and closes it.
func (d *Driver) Run(ctx context.Context, src Source) (*Result, error) {
	d.started = d.opts.Clock()
	if d.bench != nil {
		d.bench.Start(d.started)
	}
	d.log.Debug("run started", "run_id", d.opts.RunID, "capture", d.opts.Capture,
		"wireless", d.wireless != nil, "traffic", d.traffic != nil,
		"benchmark", d.bench != nil, "dump", d.opts.Dump != nil)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("packet %d: %w", d.packets+1, err)
		}

		pkt, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", d.packets+1, err)
		}

		if err := d.process(pkt); err != nil {
			return nil, fmt.Errorf("packet %d: %w", d.packets+1, err)
		}
		d.packets++

		if d.packets%d.opts.ProgressEvery == 0 {
			d.report(false)
		}
	}

	if d.bench != nil {
		d.bench.Finish(d.opts.Clock())
	}
	d.report(true)
	d.log.Debug("run finished", "run_id", d.opts.RunID, "packets", d.packets)

	return &Result{
		RunID:     d.opts.RunID,
		Capture:   d.opts.Capture,
		Packets:   d.packets,
		Wireless:  d.wireless,
		Traffic:   d.traffic,
		Benchmark: d.bench,
	}, nil
}

func (d *Driver) process(pkt *models.Packet) error {
	var began time.Time
	if d.bench != nil {
		began = d.opts.Clock()
	}

	d.log.Debug("packet", "number", pkt.Number, "src", pkt.Source, "dst", pkt.Destination,
		"protocol", pkt.Protocol, "info", pkt.Info)

	if d.wireless != nil {
		if err := d.wireless.Process(pkt.Tree); err != nil {
			return fmt.Errorf("wireless: %w", err)
		}
	}
	if d.traffic != nil {
		if err := d.traffic.Process(pkt.Tree); err != nil {
			return fmt.Errorf("traffic: %w", err)
		}
	}
	if d.opts.Dump != nil {
		if err := d.opts.Dump.Dump(pkt); err != nil {
			return err
		}
	}

	if d.bench != nil {
		d.bench.Record(d.opts.Clock().Sub(began))
	}
	return nil
}

// Snapshot copies the current run state.
func (d *Driver) Snapshot() Snapshot {
	s := Snapshot{Packets: d.packets}
	if !d.started.IsZero() {
		s.Elapsed = d.opts.Clock().Sub(d.started)
	}
	if d.wireless != nil {
		s.APs = d.wireless.APs.Clone()
	}
	if d.traffic != nil {
		s.Hosts = d.traffic.Hosts.Clone()
		s.HTTPPackets = d.traffic.HTTPPackets
	}
	return s
}

func (d *Driver) report(done bool) {
	if d.lineOnly && d.opts.Verbosity > slog.LevelInfo {
		return
	}
	s := d.Snapshot()
	s.Done = done
	d.opts.Progress(s)
}
