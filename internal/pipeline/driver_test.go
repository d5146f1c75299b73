package pipeline

import (
	"capdissect/internal/analysis"
	"capdissect/internal/models"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeSource struct {
	packets []*models.Packet
	failAt  int // 1-based; 0 never fails
	err     error
	next    int
	closed  bool
}

func (s *fakeSource) Next() (*models.Packet, error) {
	if s.failAt > 0 && s.next+1 == s.failAt {
		return nil, s.err
	}
	if s.next >= len(s.packets) {
		return nil, io.EOF
	}
	p := s.packets[s.next]
	s.next++
	return p, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type recordingDumper struct {
	seen  []int
	log   *[]string
	err   error
	errAt int
}

func (d *recordingDumper) Dump(pkt *models.Packet) error {
	if d.errAt == pkt.Number {
		return d.err
	}
	d.seen = append(d.seen, pkt.Number)
	if d.log != nil {
		*d.log = append(*d.log, "dump")
	}
	return nil
}

func packets(trees ...models.Tree) []*models.Packet {
	out := make([]*models.Packet, len(trees))
	for i, t := range trees {
		out[i] = &models.Packet{Number: i + 1, Tree: t}
	}
	return out
}

func quiet() Options {
	return Options{Verbosity: slog.LevelWarn}
}

func TestRunEmptyStream(t *testing.T) {
	opts := quiet()
	opts.Wireless, opts.Traffic, opts.Benchmark = true, true, true

	res, err := New(opts).Run(context.Background(), &fakeSource{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Packets != 0 {
		t.Errorf("packets = %d", res.Packets)
	}
	if res.Wireless.APs.Len() != 0 || res.Traffic.Hosts.Len() != 0 || res.Traffic.HTTPPackets != 0 {
		t.Error("tallies should be empty")
	}
	if _, ok := res.Benchmark.Mean(res.Packets); ok {
		t.Error("mean over an empty stream must report no data")
	}
}

func TestRunTrafficScenario(t *testing.T) {
	src := &fakeSource{packets: packets(
		models.Tree{{Name: "http", Children: []*models.Field{
			{Name: "http.host", DisplayValue: "example.com"},
		}}},
		models.Tree{{Name: "dns", Children: []*models.Field{
			{Name: "dns.resp.name", DisplayValue: "example.com"},
		}}},
		models.Tree{{Name: "frame"}},
	)}

	opts := quiet()
	opts.Traffic = true
	res, err := New(opts).Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Packets != 3 {
		t.Errorf("packets = %d, want 3", res.Packets)
	}
	if res.Traffic.Hosts.Len() != 1 || res.Traffic.Hosts.Get("example.com") != 2 {
		t.Errorf("hosts = %+v, want {example.com: 2}", res.Traffic.Hosts.Entries())
	}
	if res.Traffic.HTTPPackets != 1 {
		t.Errorf("HTTP packets = %d, want 1", res.Traffic.HTTPPackets)
	}
	if res.Wireless != nil || res.Benchmark != nil {
		t.Error("disabled stages must have no accumulators")
	}
}

func TestRunStageOrderAndTiming(t *testing.T) {
	var calls []string
	now := time.Unix(0, 0)
	clock := func() time.Time {
		calls = append(calls, "clock")
		now = now.Add(time.Millisecond)
		return now
	}
	dumper := &recordingDumper{log: &calls}

	opts := quiet()
	opts.Benchmark = true
	opts.Dump = dumper
	opts.Clock = clock

	res, err := New(opts).Run(context.Background(), &fakeSource{packets: packets(nil, nil)})
	if err != nil {
		t.Fatal(err)
	}

	// run start, then (begin, dump, end) per packet, then run end
	want := []string{"clock", "clock", "dump", "clock", "clock", "dump", "clock", "clock"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if len(dumper.seen) != 2 || dumper.seen[0] != 1 || dumper.seen[1] != 2 {
		t.Errorf("dumped = %v", dumper.seen)
	}
	if res.Benchmark.Readings != 2 || res.Benchmark.Total != 2*time.Millisecond {
		t.Errorf("benchmark = %+v", res.Benchmark)
	}
	if res.Benchmark.Best > res.Benchmark.Worst {
		t.Errorf("best %v > worst %v", res.Benchmark.Best, res.Benchmark.Worst)
	}
}

func TestRunAbortsOnSourceError(t *testing.T) {
	boom := errors.New("truncated capture")
	src := &fakeSource{packets: packets(nil, nil, nil), failAt: 2, err: boom}

	res, err := New(quiet()).Run(context.Background(), src)
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if !strings.Contains(err.Error(), "packet 2") {
		t.Errorf("error should name the packet: %v", err)
	}
	if res != nil {
		t.Error("partial result must not be returned")
	}
}

func TestRunAbortsOnDumpError(t *testing.T) {
	boom := errors.New("broken pipe")
	dumper := &recordingDumper{err: boom, errAt: 2}
	opts := quiet()
	opts.Dump = dumper

	_, err := New(opts).Run(context.Background(), &fakeSource{packets: packets(nil, nil, nil)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected dump error, got %v", err)
	}
	if len(dumper.seen) != 1 {
		t.Errorf("packets after the failure must not be processed, dumped %v", dumper.seen)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(quiet()).Run(ctx, &fakeSource{packets: packets(nil)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProgressCadence(t *testing.T) {
	var got []Snapshot
	opts := Options{
		Verbosity:     slog.LevelInfo,
		Traffic:       true,
		ProgressEvery: 2,
		Progress:      func(s Snapshot) { got = append(got, s) },
	}

	_, err := New(opts).Run(context.Background(), &fakeSource{packets: packets(nil, nil, nil, nil, nil)})
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(got))
	}
	if got[0].Packets != 2 || got[1].Packets != 4 || got[2].Packets != 5 || !got[2].Done {
		t.Errorf("unexpected snapshots: %+v", got)
	}
	if got[0].Hosts == nil || got[0].APs != nil {
		t.Error("snapshot tallies should follow enabled stages")
	}
}

func TestProgressLineSilencedAboveInfo(t *testing.T) {
	for _, tt := range []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelWarn, ""},
		{slog.LevelInfo, "Processed 1 packets\rProcessed 2 packets\rProcessed 2 packets\n"},
	} {
		var sb strings.Builder
		opts := Options{Verbosity: tt.level, ProgressEvery: 1, ProgressOut: &sb}
		if _, err := New(opts).Run(context.Background(), &fakeSource{packets: packets(nil, nil)}); err != nil {
			t.Fatal(err)
		}
		if sb.String() != tt.want {
			t.Errorf("level %v: progress line = %q, want %q", tt.level, sb.String(), tt.want)
		}
	}
}

func TestProgressHookIgnoresVerbosity(t *testing.T) {
	calls := 0
	opts := Options{
		Verbosity:     slog.LevelWarn,
		ProgressEvery: 1,
		Progress:      func(Snapshot) { calls++ },
	}
	if _, err := New(opts).Run(context.Background(), &fakeSource{packets: packets(nil, nil, nil)}); err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("progress hook called %d times at warn verbosity, want 4", calls)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	var snap Snapshot
	opts := Options{
		Traffic:       true,
		ProgressEvery: 1,
		Progress: func(s Snapshot) {
			if !s.Done {
				snap = s
			}
		},
	}
	src := &fakeSource{packets: packets(models.Tree{{Name: "http.host", DisplayValue: "a.example"}})}

	res, err := New(opts).Run(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	snap.Hosts.Inc("a.example")
	if res.Traffic.Hosts.Get("a.example") != 1 {
		t.Error("changing a snapshot must not touch the accumulators")
	}
}

func TestLineProgress(t *testing.T) {
	var sb strings.Builder
	p := LineProgress(&sb)
	p(Snapshot{Packets: 100})
	p(Snapshot{Packets: 150, Done: true})

	want := "Processed 100 packets\rProcessed 150 packets\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}

var _ analysis.Dumper = (*recordingDumper)(nil)
