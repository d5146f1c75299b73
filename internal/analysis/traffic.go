package analysis

import (
	"capdissect/internal/models"
	"capdissect/internal/query"
)

// TrafficStage tallies packets per hostname and counts HTTP packets.
type TrafficStage struct {
	Hosts       *Tally
	HTTPPackets int
}

// NewTrafficStage creates a TrafficStage with an empty tally.
func NewTrafficStage() *TrafficStage {
	return &TrafficStage{Hosts: NewTally()}
}

// Process updates the tallies from one packet's tree.
//
// The HTTP host header counts once, every DNS response name counts once each, and a
// packet with any "http" field adds one to HTTPPackets however many layers it holds.
func (s *TrafficStage) Process(tree models.Tree) error {
	if host := query.FindFirstByName(tree, FieldHTTPHost); host != nil {
		s.Hosts.Inc(host.DisplayValue)
	}

	err := query.ForEachMatching(tree, FieldDNSRespName, func(f *models.Field) error {
		s.Hosts.Inc(f.DisplayValue)
		return nil
	})
	if err != nil {
		return err
	}

	if query.Exists(tree, FieldHTTPProtocol) {
		s.HTTPPackets++
	}
	return nil
}
