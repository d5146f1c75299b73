package analysis

import (
	"capdissect/internal/models"
	"capdissect/internal/query"
	"fmt"
	"io"
	"strings"
)

// Dumper writes one packet's fields as the packet is processed.
type Dumper interface {
	Dump(pkt *models.Packet) error
}

// TextDumper renders fields as an indented outline:
//
//	ip:
//	  Display Name: Internet Protocol Version 4
//	    ip.src:
//	      value: c0 a8 01 01
//	      Display Value: 192.168.1.1
type TextDumper struct {
	w io.Writer
}

// NewTextDumper creates a TextDumper writing to w.
func NewTextDumper(w io.Writer) *TextDumper {
	return &TextDumper{w: w}
}

// Dump writes every root field of pkt and its descendants.
func (d *TextDumper) Dump(pkt *models.Packet) error {
	var sb strings.Builder
	err := query.ForEachRoot(pkt.Tree, func(f *models.Field) error {
		return writeField(&sb, f, 0)
	})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(d.w, sb.String()); err != nil {
		return fmt.Errorf("dump packet %d: %w", pkt.Number, err)
	}
	return nil
}

func writeField(sb *strings.Builder, f *models.Field, level int) error {
	indent := strings.Repeat("  ", level)

	if f.HasName() {
		sb.WriteString(indent + f.Name + ":\n")
	} else {
		sb.WriteString(indent + "[no-name]:\n")
	}

	indent += "  "
	if f.DisplayName != "" {
		sb.WriteString(indent + "Display Name: " + f.DisplayName + "\n")
	}
	if len(f.Value) > 0 {
		sb.WriteString(indent + "value:")
		for _, b := range f.Value {
			fmt.Fprintf(sb, " %02x", b)
		}
		sb.WriteString("\n")
	}
	if f.DisplayValue != "" {
		sb.WriteString(indent + "Display Value: " + f.DisplayValue + "\n")
	}

	return query.ForEachChild(f, func(child *models.Field) error {
		return writeField(sb, child, level+2)
	})
}
