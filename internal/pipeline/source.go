package pipeline

import "capdissect/internal/models"

// Source yields dissected packets in capture order. Next returns io.EOF once the capture
// is exhausted.
type Source interface {
	Next() (*models.Packet, error)
	Close() error
}
