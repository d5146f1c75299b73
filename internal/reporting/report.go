package reporting

import (
	"capdissect/internal/analysis"
	"capdissect/internal/pipeline"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"time"
)

// GenerateSessionReport writes a report of the run into dir and returns its path.
// Currently supports "html" format.
func GenerateSessionReport(res *pipeline.Result, format, dir string) (string, error) {
	if format != "html" {
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	now := time.Now()
	timestamp := now.Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("report_%s.html", timestamp))
	if res.RunID != "" {
		filename = filepath.Join(dir, fmt.Sprintf("report_%s_%s.html", timestamp, res.RunID))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>capdissect Session Report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
    </style>
</head>
<body>
    <h1>capdissect Session Report</h1>
    <div class="summary">
        <p><strong>Date:</strong> %s</p>
        <p><strong>Run:</strong> %s</p>
        <p><strong>Capture:</strong> %s</p>
        <p><strong>Packet Count:</strong> %d</p>
    </div>
`, timestamp, now.Format(time.RFC1123), html.EscapeString(res.RunID), html.EscapeString(res.Capture), res.Packets)

	if res.Wireless != nil {
		page += fmt.Sprintf("\n    <h2>Wireless Access Points (%d)</h2>\n", res.Wireless.APs.Len())
		page += tallyTable("SSID", res.Wireless.APs, "No access points seen.")
	}

	if res.Traffic != nil {
		page += "\n    <h2>Host Traffic</h2>\n"
		page += fmt.Sprintf("    <p><strong>HTTP packets:</strong> %d</p>\n", res.Traffic.HTTPPackets)
		page += tallyTable("Hostname", res.Traffic.Hosts, "No hostnames captured.")
	}

	if res.Benchmark != nil {
		page += `
    <h2>Benchmarks</h2>
    <table>
        <thead>
            <tr>
                <th>Measure</th>
                <th>Value</th>
            </tr>
        </thead>
        <tbody>
`
		for _, row := range benchmarkRows(res.Benchmark, res.Packets) {
			page += fmt.Sprintf("            <tr><td>%s</td><td>%s</td></tr>\n", row[0], row[1])
		}
		page += `        </tbody>
    </table>
`
	}

	page += `</body>
</html>`

	_, err = file.WriteString(page)
	if err != nil {
		return "", err
	}

	return filename, nil
}

func tallyTable(keyHeader string, tally *analysis.Tally, empty string) string {
	out := fmt.Sprintf(`    <table>
        <thead>
            <tr>
                <th>%s</th>
                <th>Packets</th>
            </tr>
        </thead>
        <tbody>
`, keyHeader)

	entries := tally.Entries()
	if len(entries) == 0 {
		out += fmt.Sprintf("            <tr><td colspan=\"2\">%s</td></tr>\n", empty)
	}
	for _, e := range entries {
		out += fmt.Sprintf("            <tr><td>%s</td><td>%d</td></tr>\n", html.EscapeString(e.Key), e.Count)
	}

	return out + `        </tbody>
    </table>
`
}
