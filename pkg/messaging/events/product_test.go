package events

import (
	"context"
	"testing"
	"time"

	"github.com/abgdnv/produce/pkg/messaging"
	"go.opentelemetry.io/otel/propagation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ProductEvent_Subject(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{kind: Created, expected: messaging.ProductsCreatedSubject},
		{kind: Updated, expected: messaging.ProductsUpdatedSubject},
		{kind: Deleted, expected: messaging.ProductsDeletedSubject},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, ProductEvent{Kind: tc.kind}.Subject())
		})
	}
}

func Test_ProductEvent_Payload(t *testing.T) {
	// given
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e := ProductEvent{Kind: Updated, ID: "abc", Code: 12, Name: "Tomato", Price: 2.5, Category: "vegetable", OccurredAt: at}
	// when
	data, err := e.Payload()
	// then
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","code":12,"name":"Tomato","price":2.5,"category":"vegetable","occurred_at":"2024-05-01T10:00:00Z"}`, string(data))
}

func Test_ProductEvent_PayloadCarriesTraceContext(t *testing.T) {
	// given
	e := ProductEvent{
		Carrier: propagation.MapCarrier{"traceparent": "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01"},
		ID:      "abc",
	}
	// when
	data, err := e.Payload()
	// then
	require.NoError(t, err)
	assert.Contains(t, string(data), `"carrier":{"traceparent":"00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01"}`)
}

func Test_NoopPublisher(t *testing.T) {
	var p messaging.Publisher = messaging.NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), ProductEvent{}))
}
