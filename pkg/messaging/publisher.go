// Package messaging defines how domain events leave the service.
package messaging

import (
	"context"
)

// Subjects of the product events.
const (
	ProductsCreatedSubject = "products.created"
	ProductsUpdatedSubject = "products.updated"
	ProductsDeletedSubject = "products.deleted"
)

// ProductsStream is the JetStream stream that captures all product subjects.
const ProductsStream = "PRODUCTS"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
