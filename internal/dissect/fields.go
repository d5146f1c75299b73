package dissect

import (
	"capdissect/internal/models"
	"encoding/binary"
	"fmt"
	"net"
)

// proto creates a protocol root with its one-line summary as display name.
func proto(name, summary string) *models.Field {
	return &models.Field{Name: name, DisplayName: summary}
}

// text creates an unnamed item, like Wireshark's subtree labels.
func text(label string, children ...*models.Field) *models.Field {
	return &models.Field{DisplayName: label, DisplayValue: label, Children: children}
}

func field(name, label, show string, raw []byte) *models.Field {
	return &models.Field{
		Name:         name,
		DisplayName:  label + ": " + show,
		DisplayValue: show,
		Value:        raw,
	}
}

func uintField(name, label string, v uint64, size int) *models.Field {
	return field(name, label, fmt.Sprintf("%d", v), beBytes(v, size))
}

func hexField(name, label string, v uint64, size int) *models.Field {
	return field(name, label, fmt.Sprintf("0x%0*x", size*2, v), beBytes(v, size))
}

func boolField(name, label string, v bool) *models.Field {
	var b byte
	show := "False"
	if v {
		b, show = 1, "True"
	}
	return field(name, label, show, []byte{b})
}

func strField(name, label, s string) *models.Field {
	return field(name, label, s, []byte(s))
}

func macField(name, label string, mac net.HardwareAddr) *models.Field {
	return field(name, label, mac.String(), append([]byte(nil), mac...))
}

func ipField(name, label string, ip net.IP) *models.Field {
	raw := ip.To4()
	if raw == nil {
		raw = ip.To16()
	}
	return field(name, label, ip.String(), append([]byte(nil), raw...))
}

func beBytes(v uint64, size int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append([]byte(nil), buf[8-size:]...)
}

func add(parent *models.Field, children ...*models.Field) *models.Field {
	parent.Children = append(parent.Children, children...)
	return parent
}
