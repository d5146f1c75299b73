package models

import (
	"strings"
	"time"
)

// Packet holds one dissected packet as delivered by an engine.
type Packet struct {
	Number    int       // 1-based position in the capture
	Timestamp time.Time // Capture time, zero if the engine did not report one
	Length    int       // Wire length in bytes

	// Summary columns as a packet list shows them. Addresses are network-layer when the
	// packet has one, link-layer otherwise.
	Source      string
	Destination string
	Protocol    string
	Info        string

	Tree Tree
}

// trailers are roots that never name the packet's protocol.
var trailers = map[string]bool{
	"data":               true,
	"_ws.malformed":      true,
	"_ws.short":          true,
	"fake-field-wrapper": true,
}

var protocolLabels = map[string]string{
	"frame":    "Frame",
	"eth":      "Ethernet",
	"ip":       "IPv4",
	"ipv6":     "IPv6",
	"radiotap": "Radiotap",
	"wlan":     "802.11",
	"wlan_mgt": "802.11",
}

// Columns returns the protocol and info columns for the tree: the label and summary of
// its last protocol root. Both are empty for an empty tree.
func (t Tree) Columns() (protocol, info string) {
	top := t.top()
	if top == nil {
		return "", ""
	}

	protocol = protocolLabels[top.Name]
	if protocol == "" {
		protocol = strings.ToUpper(top.Name)
	}

	info = top.DisplayName
	if top.Name == "http" && len(top.Children) > 0 && top.Children[0] != nil {
		line := top.Children[0].DisplayValue
		line = strings.TrimSuffix(line, "\r\n")
		line = strings.TrimSuffix(line, `\r\n`)
		info = line
	}
	return protocol, info
}

func (t Tree) top() *Field {
	var last *Field
	for i := len(t) - 1; i >= 0; i-- {
		f := t[i]
		if f == nil {
			continue
		}
		if !trailers[f.Name] {
			return f
		}
		if last == nil {
			last = f
		}
	}
	return last
}
