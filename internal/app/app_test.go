package app

import (
	"bytes"
	"capdissect/internal/config"
	"capdissect/internal/dissect"
	"capdissect/internal/tshark"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeDNSCapture writes a pcap holding one DNS response for host.
func writeDNSCapture(t *testing.T, host string) string {
	t.Helper()
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: net.IP{10, 0, 0, 53}, DstIP: net.IP{10, 0, 0, 1}}
	udp := &layers.UDP{SrcPort: 53, DstPort: 40000}
	udp.SetNetworkLayerForChecksum(ip)
	dns := &layers.DNS{
		ID: 7, QR: true,
		Questions: []layers.DNSQuestion{{Name: []byte(host), Type: layers.DNSTypeA, Class: layers.DNSClassIN}},
		Answers: []layers.DNSResourceRecord{{
			Name: []byte(host), Type: layers.DNSTypeA, Class: layers.DNSClassIN, TTL: 60, IP: net.IP{192, 0, 2, 10},
		}},
	}
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 2},
			DstMAC:       net.HardwareAddr{2, 0, 0, 0, 0, 1},
			EthernetType: layers.EthernetTypeIPv4,
		}, ip, udp, dns)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "dns.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatal(err)
	}
	frame := buf.Bytes()
	ci := gopacket.CaptureInfo{Timestamp: time.Unix(1700000000, 0), CaptureLength: len(frame), Length: len(frame)}
	if err := w.WritePacket(ci, frame); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseConfig(capture string) *config.Config {
	return &config.Config{
		CaptureFile:   capture,
		Engine:        config.EngineGopacket,
		DumpFormat:    config.DumpText,
		ProgressEvery: 100,
		LogLevel:      "warn",
		LogFormat:     "text",
	}
}

func TestRunGopacketEngine(t *testing.T) {
	cfg := baseConfig(writeDNSCapture(t, "example.com"))
	cfg.Traffic = true
	cfg.Benchmarks = true
	cfg.ShowPackets = true
	cfg.HTMLReport = t.TempDir()

	var out bytes.Buffer
	res, err := Run(context.Background(), cfg, &out, discard())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Packets != 1 || res.Traffic.Hosts.Get("example.com") != 1 {
		t.Errorf("unexpected result: packets=%d hosts=%+v", res.Packets, res.Traffic.Hosts.Entries())
	}
	if res.RunID == "" {
		t.Error("run should carry an ID")
	}

	text := out.String()
	for _, want := range []string{"dns.resp.name:", "Display Value: example.com", "Packet Count: 1", "0 HTTP packet(s)"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}

	reports, _ := filepath.Glob(filepath.Join(cfg.HTMLReport, "report_*.html"))
	if len(reports) != 1 {
		t.Errorf("expected one HTML report, found %v", reports)
	}
}

func TestRunYAMLDump(t *testing.T) {
	cfg := baseConfig(writeDNSCapture(t, "example.org"))
	cfg.ShowPackets = true
	cfg.DumpFormat = config.DumpYAML

	var out bytes.Buffer
	if _, err := Run(context.Background(), cfg, &out, discard()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "# packet 1") || !strings.Contains(out.String(), "dns.resp.name:") {
		t.Errorf("YAML dump missing:\n%s", out.String())
	}
}

func TestOpenSourceRejectsUnsupportedOptions(t *testing.T) {
	cfg := baseConfig(writeDNSCapture(t, "example.com"))
	cfg.Filter = "dns"
	if _, err := OpenSource(context.Background(), cfg, discard()); !errors.Is(err, dissect.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	cfg = baseConfig("air.pcap")
	cfg.Engine = config.EngineTshark
	cfg.Preferences = []string{"not a preference"}
	if _, err := OpenSource(context.Background(), cfg, discard()); !errors.Is(err, tshark.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestRunMissingCapture(t *testing.T) {
	cfg := baseConfig(filepath.Join(t.TempDir(), "missing.pcap"))
	if _, err := Run(context.Background(), cfg, io.Discard, discard()); err == nil {
		t.Error("expected an error for a missing capture file")
	}
}
