package analysis

import (
	"capdissect/internal/models"
	"capdissect/internal/query"
)

// ssidTag matches the interpretation of the "SSID parameter set" tag. The tag number is
// a sibling of the interpretation inside the same tag, not one of its descendants.
var ssidTag = query.And(
	query.NameIs(FieldSSIDTag),
	query.SiblingMatches(query.And(
		query.NameIs(FieldTagNumber),
		query.ValueIs([]byte{tagNumberSSIDParam}),
	)),
)

// WirelessStage tallies packets per advertised SSID.
type WirelessStage struct {
	APs *Tally
}

// NewWirelessStage creates a WirelessStage with an empty tally.
func NewWirelessStage() *WirelessStage {
	return &WirelessStage{APs: NewTally()}
}

// Process counts the first SSID found in tree, if any.
func (s *WirelessStage) Process(tree models.Tree) error {
	tag, err := query.FindFirst(tree, ssidTag)
	if err != nil {
		return err
	}
	if tag != nil {
		s.APs.Inc(tag.DisplayValue)
	}
	return nil
}
