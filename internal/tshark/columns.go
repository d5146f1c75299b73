package tshark

import (
	"capdissect/internal/models"
	"capdissect/internal/query"
)

// addressFields lists, per protocol root, the fields holding the source and destination.
// The first protocol present supplies both columns.
var addressFields = []struct {
	proto, src, dst string
}{
	{"ip", "ip.src", "ip.dst"},
	{"ipv6", "ipv6.src", "ipv6.dst"},
	{"arp", "arp.src.proto_ipv4", "arp.dst.proto_ipv4"},
	{"eth", "eth.src", "eth.dst"},
	{"wlan", "wlan.sa", "wlan.da"},
	{"wlan", "wlan.ta", "wlan.ra"},
}

// applyColumns derives the summary columns from pkt's tree.
func applyColumns(pkt *models.Packet) {
	for _, a := range addressFields {
		root := query.FindFirstByName(pkt.Tree, a.proto)
		if root == nil {
			continue
		}
		src := query.FindFirstDescendantByName(root, a.src)
		dst := query.FindFirstDescendantByName(root, a.dst)
		if src == nil && dst == nil {
			continue
		}
		if src != nil {
			pkt.Source = src.DisplayValue
		}
		if dst != nil {
			pkt.Destination = dst.DisplayValue
		}
		break
	}
	pkt.Protocol, pkt.Info = pkt.Tree.Columns()
}
