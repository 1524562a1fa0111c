// Package events contains the product events published to the broker.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/produce/pkg/messaging"
	"go.opentelemetry.io/otel/propagation"
)

// Kind tells which change a ProductEvent describes.
type Kind int

const (
	Created Kind = iota
	Updated
	Deleted
)

// ProductEvent carries the state of a product after a change.
// For Deleted it is the last state before removal.
// Carrier holds the trace context of the request that caused the change.
type ProductEvent struct {
	Carrier    propagation.MapCarrier `json:"carrier,omitempty"`
	Kind       Kind                   `json:"-"`
	ID         string                 `json:"id"`
	Code       float64                `json:"code"`
	Name       string                 `json:"name"`
	Price      float64                `json:"price"`
	Category   string                 `json:"category"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e ProductEvent) Subject() string {
	switch e.Kind {
	case Updated:
		return messaging.ProductsUpdatedSubject
	case Deleted:
		return messaging.ProductsDeletedSubject
	default:
		return messaging.ProductsCreatedSubject
	}
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
