package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/produce/pkg/messaging"
	"github.com/abgdnv/produce/pkg/messaging/events"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "PRODUCT_SVC_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// PublisherSuite exercises NatsPublisher against a real JetStream server.
type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *tcnats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = tcnats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")

	require.NoError(s.T(), EnsureProductsStream(s.ctx, s.js))
	// a second call must be a no-op
	require.NoError(s.T(), EnsureProductsStream(s.ctx, s.js))
}

func (s *PublisherSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func (s *PublisherSuite) TestPublishProductEvents() {
	publisher := NewNatsPublisher(s.js)
	consumer, err := s.js.CreateOrUpdateConsumer(s.ctx, messaging.ProductsStream, jetstream.ConsumerConfig{
		Durable:       "publisher-test",
		FilterSubject: messaging.ProductsCreatedSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(s.T(), err)

	event := events.ProductEvent{Kind: events.Created, ID: "1", Code: 1, Name: "Tomato", Price: 2, Category: "vegetable", OccurredAt: time.Now().UTC()}
	require.NoError(s.T(), publisher.Publish(s.ctx, event))

	batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
	require.NoError(s.T(), err)
	var received []jetstream.Msg
	for msg := range batch.Messages() {
		received = append(received, msg)
		_ = msg.Ack()
	}
	require.Len(s.T(), received, 1)
	assert.Equal(s.T(), messaging.ProductsCreatedSubject, received[0].Subject())

	var decoded events.ProductEvent
	require.NoError(s.T(), json.Unmarshal(received[0].Data(), &decoded))
	assert.Equal(s.T(), "Tomato", decoded.Name)
	assert.Equal(s.T(), "1", decoded.ID)
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}
