package reporting

import (
	"capdissect/internal/analysis"
	"capdissect/internal/pipeline"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

const noData = "no data"

// WriteText renders the run summary as tables, one per enabled stage.
func WriteText(w io.Writer, res *pipeline.Result) error {
	fmt.Fprintf(w, "Packet Count: %d\n", res.Packets)

	if res.Wireless != nil {
		fmt.Fprintf(w, "\n%d WLAN APs detected.\n", res.Wireless.APs.Len())
		renderTally(w, []string{"SSID", "Packets"}, res.Wireless.APs)
	}

	if res.Traffic != nil {
		fmt.Fprintf(w, "\nHost traffic counts:\n")
		renderTally(w, []string{"Host", "Packets"}, res.Traffic.Hosts)
		fmt.Fprintf(w, "%d HTTP packet(s)\n", res.Traffic.HTTPPackets)
	}

	if res.Benchmark != nil {
		fmt.Fprintf(w, "\nBenchmarks:\n")
		t := tablewriter.NewWriter(w)
		t.SetHeader([]string{"Measure", "Value"})
		t.SetAutoWrapText(false)
		t.AppendBulk(benchmarkRows(res.Benchmark, res.Packets))
		t.Render()
	}

	_, err := fmt.Fprintln(w)
	return err
}

func renderTally(w io.Writer, header []string, tally *analysis.Tally) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetRowLine(false)
	for _, e := range tally.Entries() {
		t.Append([]string{e.Key, strconv.Itoa(e.Count)})
	}
	t.Render()
}

func benchmarkRows(b *analysis.Benchmark, packets int) [][]string {
	rate := noData
	if pps, ok := b.Rate(packets); ok {
		rate = fmt.Sprintf("%.1f", pps)
	}
	mean := noData
	if m, ok := b.Mean(packets); ok {
		mean = seconds(m)
	}

	rows := [][]string{
		{"Run time", seconds(b.Elapsed())},
		{"Packets/sec", rate},
		{"Total per-packet time", seconds(b.Total)},
	}
	if b.Readings == 0 {
		rows = append(rows, []string{"Fastest packet", noData}, []string{"Slowest packet", noData})
	} else {
		rows = append(rows, []string{"Fastest packet", seconds(b.Best)}, []string{"Slowest packet", seconds(b.Worst)})
	}
	return append(rows, []string{"Mean packet", mean})
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.6f s", d.Seconds())
}

// LogSummary emits the run summary through log at info level, one record per line of
// the text report.
func LogSummary(log *slog.Logger, res *pipeline.Result) {
	log.Info(fmt.Sprintf("Packet Count: %d", res.Packets), "run_id", res.RunID)

	if res.Wireless != nil {
		log.Info(fmt.Sprintf("%d WLAN APs detected.", res.Wireless.APs.Len()))
		for _, e := range res.Wireless.APs.Entries() {
			log.Info(fmt.Sprintf("\tWLAN AP: %s (%d packets)", e.Key, e.Count))
		}
	}

	if res.Traffic != nil {
		log.Info("Host traffic counts: ")
		for _, e := range res.Traffic.Hosts.Entries() {
			log.Info(fmt.Sprintf("\t%s (%d packets)", e.Key, e.Count))
		}
		log.Info(fmt.Sprintf("%d HTTP packet(s)", res.Traffic.HTTPPackets))
	}

	if b := res.Benchmark; b != nil {
		rate := noData
		if pps, ok := b.Rate(res.Packets); ok {
			rate = fmt.Sprintf("%.1f packets/sec", pps)
		}
		log.Info(fmt.Sprintf("%d packet(s) processed in %s (%s)", res.Packets, seconds(b.Elapsed()), rate))
		for _, row := range benchmarkRows(b, res.Packets)[2:] {
			log.Info(row[0] + ": " + row[1])
		}
	}
}
