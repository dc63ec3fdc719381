package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodadmin/api/internal/config"
	"moodadmin/api/internal/models"
)

type fakeWriter struct {
	records []models.SessionRecord
}

func (f *fakeWriter) Insert(_ context.Context, record models.SessionRecord) error {
	f.records = append(f.records, record)
	return nil
}

type fakePublisher struct {
	channels []string
}

func (f *fakePublisher) Publish(_ context.Context, channel string, _ string) error {
	f.channels = append(f.channels, channel)
	return nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		Stream:        "sessions:events",
		Group:         "mood-admin",
		Consumer:      "test-1",
		ClaimInterval: time.Minute,
	}
}

func newTestConsumer(t *testing.T) (*Consumer, *fakeWriter, *fakePublisher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	writer := &fakeWriter{}
	pub := &fakePublisher{}
	consumer := NewConsumer(client, writer, pub, testIngestConfig(), zerolog.Nop())
	return consumer, writer, pub, client
}

func TestHandlePersistsValidEvent(t *testing.T) {
	consumer, writer, pub, _ := newTestConsumer(t)

	err := consumer.handle(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"id":          "session-1",
			"mood":        "Anxious",
			"userId":      "device-9",
			"sessionTime": "2026-08-28T09:00:00Z",
		},
	})
	require.NoError(t, err)

	require.Len(t, writer.records, 1)
	record := writer.records[0]
	assert.Equal(t, "session-1", record.ID)
	assert.Equal(t, models.MoodAnxious, record.Mood)
	assert.Equal(t, "device-9", record.UserID)
	assert.Equal(t, 2026, record.OccurredAt.Year())

	assert.Equal(t, []string{"changes:moods:Anxious", "changes:sessions"}, pub.channels)
}

func TestHandleAcceptsEpochTimestamps(t *testing.T) {
	consumer, writer, _, _ := newTestConsumer(t)

	err := consumer.handle(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"id":          "session-2",
			"mood":        "Lost",
			"userId":      "device-1",
			"sessionTime": "1772000000",
		},
	})
	require.NoError(t, err)

	require.Len(t, writer.records, 1)
	assert.Equal(t, int64(1_772_000_000), writer.records[0].OccurredAt.Unix())
}

func TestHandleSkipsUnknownMood(t *testing.T) {
	consumer, writer, pub, _ := newTestConsumer(t)

	err := consumer.handle(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"id":          "session-3",
			"mood":        "Cheerful",
			"userId":      "device-1",
			"sessionTime": "2026-08-28T09:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Empty(t, writer.records)
	assert.Empty(t, pub.channels)
}

func TestHandleSkipsMalformedTimestamp(t *testing.T) {
	consumer, writer, _, _ := newTestConsumer(t)

	err := consumer.handle(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"id":          "session-4",
			"mood":        "Guilty",
			"userId":      "device-1",
			"sessionTime": "yesterday afternoon",
		},
	})
	require.NoError(t, err)
	assert.Empty(t, writer.records)
}

func TestHandleGeneratesMissingID(t *testing.T) {
	consumer, writer, _, _ := newTestConsumer(t)

	err := consumer.handle(context.Background(), redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"mood":        "Stressed",
			"userId":      "device-2",
			"sessionTime": "2026-08-28T09:00:00Z",
		},
	})
	require.NoError(t, err)

	require.Len(t, writer.records, 1)
	assert.NotEmpty(t, writer.records[0].ID)
}

func TestReadConsumesAndAcks(t *testing.T) {
	consumer, writer, _, client := newTestConsumer(t)
	ctx := context.Background()

	require.NoError(t, consumer.ensureGroup(ctx))
	// Re-creating an existing group is tolerated.
	require.NoError(t, consumer.ensureGroup(ctx))

	for _, mood := range []string{"Anxious", "NotAMood", "Empty"} {
		err := client.XAdd(ctx, &redis.XAddArgs{
			Stream: "sessions:events",
			Values: map[string]interface{}{
				"mood":        mood,
				"userId":      "device-1",
				"sessionTime": "2026-08-28T09:00:00Z",
			},
		}).Err()
		require.NoError(t, err)
	}

	require.NoError(t, consumer.read(ctx))

	// The unknown mood is skipped but still acknowledged.
	require.Len(t, writer.records, 2)
	assert.Equal(t, models.MoodAnxious, writer.records[0].Mood)
	assert.Equal(t, models.MoodEmpty, writer.records[1].Mood)

	pending, err := client.XPending(ctx, "sessions:events", "mood-admin").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}
