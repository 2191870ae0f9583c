//go:build integration

package kafkasink

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/BG-NOAA/sar-drift-converter/internal/config"
	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

const testTopic = "sar-drift-vectors"

func TestPublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.6.1",
		tckafka.WithClusterID("sar-drift-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	createTopic(t, ctx, brokers[0])

	cfg := &config.Config{KafkaBrokers: brokers, KafkaTopic: testTopic}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWriter(cfg, logger)
	t.Cleanup(func() { w.Close() })

	obs := make([]domain.Observation, 3)
	for i := range obs {
		obs[i] = domain.Observation{
			Index: i,
			File1: "S1A_a.tif", File2: "S1B_b.tif",
			Date1:   time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
			Date2:   time.Date(2022, 3, 2, 0, 0, 0, 0, time.UTC),
			SceneID: 1,
		}
		obs[i].SetBearing(45)
		obs[i].ResetClassification()
	}
	require.NoError(t, w.Publish(ctx, "SIVelocity_SAR_test_v0", obs))

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		Topic:   testTopic,
		GroupID: "driftcheck-test",
	})
	t.Cleanup(func() { r.Close() })

	for i := 0; i < len(obs); i++ {
		msg, err := r.ReadMessage(ctx)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &m))
		assert.Equal(t, "01", m["category"])
		assert.Equal(t, float64(1), m["scene"])
		assert.Contains(t, string(msg.Key), "SIVelocity_SAR_test_v0:")
	}
}

func createTopic(t *testing.T, ctx context.Context, broker string) {
	t.Helper()

	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.DialContext(ctx, "tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             testTopic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}
