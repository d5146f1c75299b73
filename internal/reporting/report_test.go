package reporting

import (
	"bytes"
	"capdissect/internal/analysis"
	"capdissect/internal/pipeline"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func sampleResult() *pipeline.Result {
	wireless := analysis.NewWirelessStage()
	wireless.APs.Add("home", 3)
	wireless.APs.Add("<cafe>", 1)

	traffic := analysis.NewTrafficStage()
	traffic.Hosts.Add("example.com", 2)
	traffic.Hosts.Add("google.com", 1)
	traffic.HTTPPackets = 1

	bench := &analysis.Benchmark{}
	start := time.Unix(1700000000, 0)
	bench.Start(start)
	bench.Record(2 * time.Millisecond)
	bench.Record(4 * time.Millisecond)
	bench.Finish(start.Add(time.Second))

	return &pipeline.Result{
		RunID:     "3f2a",
		Capture:   "air.pcap",
		Packets:   2,
		Wireless:  wireless,
		Traffic:   traffic,
		Benchmark: bench,
	}
}

func TestGenerateSessionReport(t *testing.T) {
	dir := t.TempDir()
	filename, err := GenerateSessionReport(sampleResult(), "html", dir)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	if !strings.HasPrefix(filename, dir) {
		t.Errorf("report written outside %s: %s", dir, filename)
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}
	html := string(content)

	for _, want := range []string{
		"capdissect Session Report",
		"air.pcap",
		"example.com",
		"google.com",
		"<td>home</td><td>3</td>",
		"&lt;cafe&gt;",
		"HTTP packets:</strong> 1",
		"Packets/sec",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestGenerateSessionReportOmitsDisabledStages(t *testing.T) {
	filename, err := GenerateSessionReport(&pipeline.Result{Packets: 0}, "html", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	content, _ := os.ReadFile(filename)
	if strings.Contains(string(content), "Host Traffic") || strings.Contains(string(content), "Benchmarks") {
		t.Error("disabled stages should not be reported")
	}
}

func TestGenerateSessionReportFormat(t *testing.T) {
	if _, err := GenerateSessionReport(sampleResult(), "pdf", t.TempDir()); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"Packet Count: 2", "2 WLAN APs detected.", "EXAMPLE.COM", "1 HTTP packet(s)", "0.003000 s"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "home") > strings.Index(out, "<cafe>") {
		t.Error("SSIDs should be sorted by count")
	}
}

func TestWriteTextEmptyRun(t *testing.T) {
	res := &pipeline.Result{
		Wireless:  analysis.NewWirelessStage(),
		Traffic:   analysis.NewTrafficStage(),
		Benchmark: &analysis.Benchmark{},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Packet Count: 0", "0 WLAN APs detected.", "0 HTTP packet(s)", noData} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	LogSummary(log, sampleResult())

	out := buf.String()
	for _, want := range []string{"Packet Count: 2", "WLAN AP: home (3 packets)", "example.com (2 packets)", "1 HTTP packet(s)", "packets/sec"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
