package watch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodadmin/api/internal/models"
)

func newTestWatcher(t *testing.T) (*Watcher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewWatcher(client, zerolog.Nop()), client
}

// publishUntilReceived retries the publish because subscription setup is
// asynchronous relative to the test goroutine.
func publishUntilReceived(t *testing.T, w *Watcher, events <-chan Event, channel, payload string) Event {
	t.Helper()

	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "event channel closed early")
			return event
		case <-ticker.C:
			require.NoError(t, w.Publish(context.Background(), channel, payload))
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, dispose := w.Subscribe(ctx, SessionsChannel())
	defer dispose()

	event := publishUntilReceived(t, w, events, SessionsChannel(), "Anxious")
	assert.Equal(t, SessionsChannel(), event.Channel)
	assert.Equal(t, "Anxious", event.Payload)
}

func TestSubscribeMultipleChannels(t *testing.T) {
	w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, dispose := w.Subscribe(ctx, MoodChannel(models.MoodLonely), MoodChannel(models.MoodAngry))
	defer dispose()

	event := publishUntilReceived(t, w, events, MoodChannel(models.MoodAngry), "Angry")
	assert.Equal(t, "changes:moods:Angry", event.Channel)
}

func TestCancelClosesEventChannel(t *testing.T) {
	w, _ := newTestWatcher(t)

	events, dispose := w.Subscribe(context.Background(), UsersChannel())
	dispose()
	// Cancel is idempotent.
	dispose()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed, not deliver")
	case <-time.After(3 * time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "changes:sessions", SessionsChannel())
	assert.Equal(t, "changes:users", UsersChannel())
	assert.Equal(t, "changes:meditations", MeditationsChannel())
	assert.Equal(t, "changes:moods:Heartbroken", MoodChannel(models.MoodHeartbroken))
}
