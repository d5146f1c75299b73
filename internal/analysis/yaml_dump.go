package analysis

import (
	"capdissect/internal/models"
	"encoding/base64"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLDumper renders each packet as a YAML document: a sequence of single-key mappings
// keyed by field name. Unnamed fields are keyed "<Field#N>" where N is the field's
// pre-order position within the packet.
type YAMLDumper struct {
	w io.Writer
}

// NewYAMLDumper creates a YAMLDumper writing to w.
func NewYAMLDumper(w io.Writer) *YAMLDumper {
	return &YAMLDumper{w: w}
}

// Dump writes pkt as one "---"-separated document.
func (d *YAMLDumper) Dump(pkt *models.Packet) error {
	ordinal := 0
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, f := range pkt.Tree {
		if f == nil {
			continue
		}
		seq.Content = append(seq.Content, yamlField(f, &ordinal))
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: packetHeader(pkt),
		Content:     []*yaml.Node{seq},
	}

	if _, err := io.WriteString(d.w, "---\n"); err != nil {
		return fmt.Errorf("dump packet %d: %w", pkt.Number, err)
	}
	enc := yaml.NewEncoder(d.w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("dump packet %d: %w", pkt.Number, err)
	}
	return enc.Close()
}

// packetHeader summarizes pkt on one line: number, endpoints, protocol and info.
func packetHeader(pkt *models.Packet) string {
	h := fmt.Sprintf("packet %d", pkt.Number)
	if pkt.Source != "" || pkt.Destination != "" {
		h += fmt.Sprintf(": %s -> %s", pkt.Source, pkt.Destination)
	}
	if pkt.Protocol != "" {
		h += " " + pkt.Protocol
	}
	if pkt.Info != "" {
		h += " " + pkt.Info
	}
	return h
}

func yamlField(f *models.Field, ordinal *int) *yaml.Node {
	key := f.Name
	if !f.HasName() {
		key = fmt.Sprintf("<Field#%d>", *ordinal)
	}
	*ordinal++

	attrs := &yaml.Node{Kind: yaml.MappingNode}
	if f.DisplayName != "" {
		attrs.Content = append(attrs.Content, yamlStr("display_name"), yamlStr(f.DisplayName))
	}
	if f.DisplayValue != "" {
		attrs.Content = append(attrs.Content, yamlStr("display_value"), yamlStr(f.DisplayValue))
	}
	if len(f.Value) > 0 {
		attrs.Content = append(attrs.Content, yamlStr("value"), &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!binary",
			Value: base64.StdEncoding.EncodeToString(f.Value),
		})
	}
	if len(f.Children) > 0 {
		children := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range f.Children {
			if c == nil {
				continue
			}
			children.Content = append(children.Content, yamlField(c, ordinal))
		}
		attrs.Content = append(attrs.Content, yamlStr("children"), children)
	}

	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{yamlStr(key), attrs},
	}
}

func yamlStr(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
