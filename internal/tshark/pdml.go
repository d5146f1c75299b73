package tshark

import (
	"capdissect/internal/models"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// pdmlField is a <proto> or <field> element. Nested protos and fields share one shape.
type pdmlField struct {
	Name     string      `xml:"name,attr"`
	ShowName string      `xml:"showname,attr"`
	Show     string      `xml:"show,attr"`
	Value    string      `xml:"value,attr"`
	Size     int         `xml:"size,attr"`
	Children []pdmlField `xml:",any"`
}

// pdmlPacket is one <packet> element of tshark -T pdml output.
type pdmlPacket struct {
	Protos []pdmlField `xml:"proto"`
}

// Decoder reads packets from a PDML stream one <packet> element at a time.
type Decoder struct {
	dec   *xml.Decoder
	count int
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: xml.NewDecoder(r)}
}

// Next returns the next packet, or io.EOF at the end of the document.
func (d *Decoder) Next() (*models.Packet, error) {
	for {
		tok, err := d.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("decode pdml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "packet" {
			continue
		}

		var p pdmlPacket
		if err := d.dec.DecodeElement(&p, &start); err != nil {
			return nil, fmt.Errorf("decode pdml packet %d: %w", d.count+1, err)
		}
		d.count++
		return p.toModel(d.count), nil
	}
}

// toModel converts the packet's protos to root fields. The "geninfo" pseudo-proto only
// supplies packet metadata and is not part of the tree; the summary columns come from the
// remaining protos.
func (p pdmlPacket) toModel(seq int) *models.Packet {
	pkt := &models.Packet{Number: seq}
	for i := range p.Protos {
		proto := &p.Protos[i]
		if proto.Name == "geninfo" {
			applyGeninfo(pkt, proto)
			continue
		}
		pkt.Tree = append(pkt.Tree, proto.toModel())
	}
	applyColumns(pkt)
	return pkt
}

func (f *pdmlField) toModel() *models.Field {
	out := &models.Field{
		Name:         f.Name,
		DisplayName:  f.ShowName,
		DisplayValue: f.Show,
	}
	if f.Value != "" {
		if raw, err := hex.DecodeString(f.Value); err == nil {
			out.Value = raw
		}
	}
	if len(f.Children) > 0 {
		out.Children = make([]*models.Field, 0, len(f.Children))
		for i := range f.Children {
			out.Children = append(out.Children, f.Children[i].toModel())
		}
	}
	return out
}

func applyGeninfo(pkt *models.Packet, geninfo *pdmlField) {
	for _, f := range geninfo.Children {
		switch f.Name {
		case "num":
			if n, err := strconv.Atoi(f.Show); err == nil {
				pkt.Number = n
			}
		case "len":
			if n, err := strconv.Atoi(f.Show); err == nil {
				pkt.Length = n
			}
		case "timestamp":
			if ts, ok := parseEpoch(f.Value); ok {
				pkt.Timestamp = ts
			}
		}
	}
}

// parseEpoch parses "seconds.fraction" as written in the geninfo timestamp value.
func parseEpoch(s string) (time.Time, bool) {
	secStr, fracStr, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		fracStr += strings.Repeat("0", 9-len(fracStr))
		nsec, err = strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
	}
	return time.Unix(sec, nsec).UTC(), true
}
