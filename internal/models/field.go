package models

// Field is one node of a packet's dissection tree.
type Field struct {
	Name         string // Machine name, e.g. "wlan_mgt.tag.number"; may be empty
	DisplayName  string // Human-readable label
	Value        []byte // Raw bytes as produced by the dissector; never mutated
	DisplayValue string // Rendering of Value
	Children     []*Field
}

// HasName reports whether the field carries a machine name.
func (f *Field) HasName() bool {
	return f != nil && f.Name != ""
}

// Tree is the ordered set of root fields produced for one packet.
type Tree []*Field
