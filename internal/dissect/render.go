package dissect

import (
	"bytes"
	"capdissect/internal/models"
	"fmt"
	"net"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Render converts a decoded packet into a field tree named after Wireshark's display
// filter fields. seq numbers the packet within its capture.
func Render(pkt gopacket.Packet, seq int) *models.Packet {
	md := pkt.Metadata()
	r := &renderer{}

	var names []string
	for _, l := range pkt.Layers() {
		if name := r.layer(l); name != "" {
			names = append(names, name)
		}
	}
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		r.roots = append(r.roots, add(proto("_ws.malformed", "[Malformed Packet]"),
			strField("_ws.malformed.expert", "Expert Info", errLayer.Error().Error())))
	}

	frame := proto("frame", fmt.Sprintf("Frame %d: %d bytes on wire (%d bits), %d bytes captured (%d bits)",
		seq, md.Length, md.Length*8, md.CaptureLength, md.CaptureLength*8))
	add(frame,
		field("frame.time", "Arrival Time", md.Timestamp.UTC().Format("Jan  2, 2006 15:04:05.000000000 UTC"), nil),
		uintField("frame.number", "Frame Number", uint64(seq), 4),
		uintField("frame.len", "Frame Length", uint64(md.Length), 4),
		uintField("frame.cap_len", "Capture Length", uint64(md.CaptureLength), 4),
		strField("frame.protocols", "Protocols in frame", strings.Join(names, ":")),
	)

	out := &models.Packet{
		Number:    seq,
		Timestamp: md.Timestamp,
		Length:    md.Length,
		Tree:      append(models.Tree{frame}, r.roots...),
	}
	out.Source, out.Destination = addresses(pkt)
	out.Protocol, out.Info = out.Tree.Columns()
	return out
}

// addresses returns the network-layer endpoints, or the link-layer ones when the packet
// carries no network layer.
func addresses(pkt gopacket.Packet) (src, dst string) {
	if nl := pkt.NetworkLayer(); nl != nil {
		flow := nl.NetworkFlow()
		return flow.Src().String(), flow.Dst().String()
	}
	if d, ok := pkt.Layer(layers.LayerTypeDot11).(*layers.Dot11); ok {
		return hwString(d.Address2), hwString(d.Address1)
	}
	if ll := pkt.LinkLayer(); ll != nil {
		flow := ll.LinkFlow()
		return flow.Src().String(), flow.Dst().String()
	}
	return "", ""
}

func hwString(a []byte) string {
	if len(a) == 0 {
		return ""
	}
	return net.HardwareAddr(a).String()
}

// renderer accumulates roots across layers. 802.11 information elements arrive as one
// layer each and are gathered under the management frame's tagged parameters.
type renderer struct {
	roots  []*models.Field
	tagged *models.Field
}

// layer renders l and returns its protocol name, or "" when l adds nothing to the tree.
func (r *renderer) layer(l gopacket.Layer) string {
	var root *models.Field
	switch l := l.(type) {
	case *layers.Ethernet:
		root = ethernet(l)
	case *layers.IPv4:
		root = ipv4(l)
	case *layers.IPv6:
		root = ipv6(l)
	case *layers.TCP:
		root = tcp(l)
	case *layers.UDP:
		root = udp(l)
	case *layers.DNS:
		root = dns(l)
	case *layers.RadioTap:
		root = radiotap(l)
	case *layers.Dot11:
		root = dot11(l)
	case *layers.Dot11MgmtBeacon:
		root = r.mgmt(beaconFixed(l))
	case *layers.Dot11MgmtProbeResp:
		root = r.mgmt(nil)
	case *layers.Dot11MgmtProbeReq:
		root = r.mgmt(nil)
	case *layers.Dot11InformationElement:
		if r.tagged == nil {
			root = r.mgmt(nil)
		}
		add(r.tagged, infoElement(l))
		if root == nil {
			return ""
		}
	case *gopacket.Payload:
		if isHTTP(l.LayerContents()) {
			root = httpMessage(l.LayerContents())
		} else {
			root = data(l.LayerContents())
		}
	default:
		return ""
	}
	r.roots = append(r.roots, root)
	return root.Name
}

func ethernet(eth *layers.Ethernet) *models.Field {
	return add(proto("eth", fmt.Sprintf("Ethernet II, Src: %s, Dst: %s", eth.SrcMAC, eth.DstMAC)),
		macField("eth.dst", "Destination", eth.DstMAC),
		macField("eth.src", "Source", eth.SrcMAC),
		hexField("eth.type", "Type", uint64(eth.EthernetType), 2),
	)
}

func ipv4(ip *layers.IPv4) *models.Field {
	return add(proto("ip", fmt.Sprintf("Internet Protocol Version 4, Src: %s, Dst: %s", ip.SrcIP, ip.DstIP)),
		uintField("ip.version", "Version", uint64(ip.Version), 1),
		uintField("ip.hdr_len", "Header Length", uint64(ip.IHL)*4, 1),
		uintField("ip.len", "Total Length", uint64(ip.Length), 2),
		hexField("ip.id", "Identification", uint64(ip.Id), 2),
		uintField("ip.ttl", "Time to Live", uint64(ip.TTL), 1),
		uintField("ip.proto", "Protocol", uint64(ip.Protocol), 1),
		hexField("ip.checksum", "Header Checksum", uint64(ip.Checksum), 2),
		ipField("ip.src", "Source Address", ip.SrcIP),
		ipField("ip.dst", "Destination Address", ip.DstIP),
	)
}

func ipv6(ip *layers.IPv6) *models.Field {
	return add(proto("ipv6", fmt.Sprintf("Internet Protocol Version 6, Src: %s, Dst: %s", ip.SrcIP, ip.DstIP)),
		uintField("ipv6.version", "Version", uint64(ip.Version), 1),
		hexField("ipv6.flow", "Flow Label", uint64(ip.FlowLabel), 3),
		uintField("ipv6.plen", "Payload Length", uint64(ip.Length), 2),
		uintField("ipv6.nxt", "Next Header", uint64(ip.NextHeader), 1),
		uintField("ipv6.hlim", "Hop Limit", uint64(ip.HopLimit), 1),
		ipField("ipv6.src", "Source Address", ip.SrcIP),
		ipField("ipv6.dst", "Destination Address", ip.DstIP),
	)
}

func tcp(t *layers.TCP) *models.Field {
	var flags []string
	for _, f := range []struct {
		set  bool
		name string
	}{{t.SYN, "SYN"}, {t.ACK, "ACK"}, {t.FIN, "FIN"}, {t.RST, "RST"}, {t.PSH, "PSH"}, {t.URG, "URG"}} {
		if f.set {
			flags = append(flags, f.name)
		}
	}

	return add(proto("tcp", fmt.Sprintf("Transmission Control Protocol, Src Port: %d, Dst Port: %d, Seq: %d, Len: %d",
		t.SrcPort, t.DstPort, t.Seq, len(t.Payload))),
		uintField("tcp.srcport", "Source Port", uint64(t.SrcPort), 2),
		uintField("tcp.dstport", "Destination Port", uint64(t.DstPort), 2),
		uintField("tcp.seq", "Sequence Number", uint64(t.Seq), 4),
		uintField("tcp.ack", "Acknowledgment Number", uint64(t.Ack), 4),
		uintField("tcp.hdr_len", "Header Length", uint64(t.DataOffset)*4, 1),
		field("tcp.flags", "Flags", "["+strings.Join(flags, ", ")+"]", nil),
		uintField("tcp.window_size_value", "Window", uint64(t.Window), 2),
		hexField("tcp.checksum", "Checksum", uint64(t.Checksum), 2),
		uintField("tcp.len", "TCP Segment Len", uint64(len(t.Payload)), 4),
	)
}

func udp(u *layers.UDP) *models.Field {
	return add(proto("udp", fmt.Sprintf("User Datagram Protocol, Src Port: %d, Dst Port: %d", u.SrcPort, u.DstPort)),
		uintField("udp.srcport", "Source Port", uint64(u.SrcPort), 2),
		uintField("udp.dstport", "Destination Port", uint64(u.DstPort), 2),
		uintField("udp.length", "Length", uint64(u.Length), 2),
		hexField("udp.checksum", "Checksum", uint64(u.Checksum), 2),
	)
}

func dns(d *layers.DNS) *models.Field {
	kind := "query"
	if d.QR {
		kind = "response"
	}
	root := add(proto("dns", "Domain Name System ("+kind+")"),
		hexField("dns.id", "Transaction ID", uint64(d.ID), 2),
		boolField("dns.flags.response", "Response", d.QR),
		uintField("dns.count.queries", "Questions", uint64(len(d.Questions)), 2),
		uintField("dns.count.answers", "Answer RRs", uint64(len(d.Answers)), 2),
	)

	if len(d.Questions) > 0 {
		queries := text("Queries")
		for _, q := range d.Questions {
			add(queries, text(fmt.Sprintf("%s: type %s, class %s", q.Name, q.Type, q.Class),
				strField("dns.qry.name", "Name", string(q.Name)),
				uintField("dns.qry.type", "Type", uint64(q.Type), 2),
				uintField("dns.qry.class", "Class", uint64(q.Class), 2),
			))
		}
		add(root, queries)
	}

	if len(d.Answers) > 0 {
		answers := text("Answers")
		for _, a := range d.Answers {
			add(answers, dnsAnswer(a))
		}
		add(root, answers)
	}
	return root
}

func dnsAnswer(a layers.DNSResourceRecord) *models.Field {
	rr := add(text(fmt.Sprintf("%s: type %s, class %s", a.Name, a.Type, a.Class)),
		strField("dns.resp.name", "Name", string(a.Name)),
		uintField("dns.resp.type", "Type", uint64(a.Type), 2),
		uintField("dns.resp.class", "Class", uint64(a.Class), 2),
		uintField("dns.resp.ttl", "Time to live", uint64(a.TTL), 4),
		uintField("dns.resp.len", "Data length", uint64(a.DataLength), 2),
	)
	switch a.Type {
	case layers.DNSTypeA:
		add(rr, ipField("dns.a", "Address", a.IP))
	case layers.DNSTypeAAAA:
		add(rr, ipField("dns.aaaa", "AAAA Address", a.IP))
	case layers.DNSTypeCNAME:
		add(rr, strField("dns.cname", "CNAME", string(a.CNAME)))
	case layers.DNSTypeNS:
		add(rr, strField("dns.ns", "Name Server", string(a.NS)))
	case layers.DNSTypePTR:
		add(rr, strField("dns.ptr.domain_name", "Domain Name", string(a.PTR)))
	}
	return rr
}

func data(payload []byte) *models.Field {
	return add(proto("data", fmt.Sprintf("Data (%d bytes)", len(payload))),
		field("data.data", "Data", fmt.Sprintf("%x", payload), append([]byte(nil), payload...)),
		uintField("data.len", "Length", uint64(len(payload)), 4),
	)
}

func isHTTP(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	s := string(data[:4])
	return s == "GET " || s == "POST" || s == "PUT " || s == "DELE" ||
		s == "HEAD" || s == "HTTP" || s == "PATC" || s == "OPTI"
}

var httpHeaderFields = map[string]string{
	"host":           "http.host",
	"user-agent":     "http.user_agent",
	"content-type":   "http.content_type",
	"content-length": "http.content_length_header",
	"server":         "http.server",
	"location":       "http.location",
	"referer":        "http.referer",
	"cookie":         "http.cookie",
	"set-cookie":     "http.set_cookie",
	"connection":     "http.connection",
}

// httpMessage renders one HTTP/1.x message head. Bodies become an unnamed item.
func httpMessage(payload []byte) *models.Field {
	head, body, _ := bytes.Cut(payload, []byte("\r\n\r\n"))
	lines := strings.Split(string(head), "\r\n")
	root := proto("http", "Hypertext Transfer Protocol")

	first := lines[0]
	parts := strings.SplitN(first, " ", 3)
	line := text(first + `\r\n`)
	lineField := "http.request.line"
	if strings.HasPrefix(first, "HTTP/") {
		lineField = "http.response.line"
		add(line, strField("http.response.version", "Response Version", parts[0]))
		if len(parts) > 1 {
			add(line, strField("http.response.code", "Status Code", parts[1]))
		}
		if len(parts) > 2 {
			add(line, strField("http.response.phrase", "Response Phrase", parts[2]))
		}
		add(root, line, boolField("http.response", "Response", true))
	} else {
		add(line, strField("http.request.method", "Request Method", parts[0]))
		if len(parts) > 1 {
			add(line, strField("http.request.uri", "Request URI", parts[1]))
		}
		if len(parts) > 2 {
			add(line, strField("http.request.version", "Request Version", parts[2]))
		}
		add(root, line, boolField("http.request", "Request", true))
	}

	for _, l := range lines[1:] {
		name, value, ok := strings.Cut(l, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		fieldName, known := httpHeaderFields[strings.ToLower(name)]
		if !known {
			add(root, &models.Field{Name: lineField, DisplayName: l + `\r\n`, DisplayValue: l + "\r\n", Value: []byte(l + "\r\n")})
			continue
		}
		add(root, &models.Field{
			Name:         fieldName,
			DisplayName:  l + `\r\n`,
			DisplayValue: value,
			Value:        []byte(l + "\r\n"),
		})
	}

	if len(body) > 0 {
		add(root, text(fmt.Sprintf("File Data: %d bytes", len(body))))
	}
	return root
}
