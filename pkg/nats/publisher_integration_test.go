package nats

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "PRODUCT_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

type testEvent struct {
	subject string
	data    string
}

func (e testEvent) Subject() string          { return e.subject }
func (e testEvent) Payload() ([]byte, error) { return []byte(e.data), nil }

// PublisherSuite is a test suite for the JetStream publisher.
type PublisherSuite struct {
	suite.Suite                       // Embedding testify suite for structured testing
	ctx           context.Context     // Context for the test suite, used for cancellation and timeouts
	logger        *slog.Logger        // Logger for the test suite
	natsContainer *nats.NATSContainer // NATS container for running tests
	nc            *natsgo.Conn        // NATS connection
	js            jetstream.JetStream // JetStream context for NATS operations
}

// SetupSuite starts a NATS container and connects to it through the package helpers.
func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get NATS connection string")

	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

// TearDownSuite cleans up the NATS container after tests are done.
func (s *PublisherSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

// TestPublisherIntegration runs the JetStream publisher integration tests.
func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestEnsureStream_Idempotent() {
	name := "STREAM_" + uuid.NewString()[:8]

	require.NoError(s.T(), EnsureStream(s.ctx, s.js, name, "idem.>"))
	require.NoError(s.T(), EnsureStream(s.ctx, s.js, name, "idem.>"), "Second call must update, not fail")

	stream, err := s.js.Stream(s.ctx, name)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"idem.>"}, stream.CachedInfo().Config.Subjects)
}

func (s *PublisherSuite) TestPublish_DeliversToStream() {
	// given
	name := "STREAM_" + uuid.NewString()[:8]
	prefix := "test" + uuid.NewString()[:8]
	require.NoError(s.T(), EnsureStream(s.ctx, s.js, name, prefix+".>"))
	publisher := NewNatsPublisher(s.js)

	// when
	require.NoError(s.T(), publisher.Publish(s.ctx, testEvent{subject: prefix + ".created", data: `{"n":1}`}))
	require.NoError(s.T(), publisher.Publish(s.ctx, testEvent{subject: prefix + ".deleted", data: `{"n":2}`}))

	// then
	consumer, err := s.js.CreateOrUpdateConsumer(s.ctx, name, jetstream.ConsumerConfig{
		FilterSubject: prefix + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(s.T(), err)
	batch, err := consumer.Fetch(2, jetstream.FetchMaxWait(5*time.Second))
	require.NoError(s.T(), err)

	var subjects, payloads []string
	for msg := range batch.Messages() {
		subjects = append(subjects, msg.Subject())
		payloads = append(payloads, string(msg.Data()))
		require.NoError(s.T(), msg.Ack())
	}
	require.NoError(s.T(), batch.Error())
	assert.Equal(s.T(), []string{prefix + ".created", prefix + ".deleted"}, subjects)
	assert.Equal(s.T(), []string{`{"n":1}`, `{"n":2}`}, payloads)
}

func (s *PublisherSuite) TestConnect_EnsuresStream() {
	name := "STREAM_" + uuid.NewString()[:8]

	nc, js, err := Connect(s.ctx, s.nc.ConnectedUrl(), 5*time.Second, name, "connect.>")
	require.NoError(s.T(), err)
	defer nc.Close()

	assert.True(s.T(), nc.IsConnected())
	stream, err := js.Stream(s.ctx, name)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"connect.>"}, stream.CachedInfo().Config.Subjects)
}

func (s *PublisherSuite) TestConnect_StreamFailureReturnsNoConnection() {
	// stream names must not contain dots
	nc, js, err := Connect(s.ctx, s.nc.ConnectedUrl(), 5*time.Second, "bad.name", "bad.>")

	assert.ErrorIs(s.T(), err, jetstream.ErrInvalidStreamName)
	assert.Nil(s.T(), nc)
	assert.Nil(s.T(), js)
}

func (s *PublisherSuite) TestPublish_NoStream() {
	publisher := NewNatsPublisher(s.js)

	err := publisher.Publish(s.ctx, testEvent{subject: "nobody.listens", data: "{}"})

	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, jetstream.ErrNoStreamResponse)
}
