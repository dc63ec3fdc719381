// Package watch carries collection-change notifications between the write
// paths and the live views. Channels are redis pub/sub topics; a dropped
// notification only delays a view until the next event, it never loses data.
package watch

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"moodadmin/api/internal/models"
)

const (
	channelSessions    = "changes:sessions"
	channelUsers       = "changes:users"
	channelMeditations = "changes:meditations"
	channelMoodPrefix  = "changes:moods:"
)

func SessionsChannel() string    { return channelSessions }
func UsersChannel() string       { return channelUsers }
func MeditationsChannel() string { return channelMeditations }

func MoodChannel(mood models.Mood) string {
	return channelMoodPrefix + string(mood)
}

// Event is one change notification. Payload names the changed key (a mood,
// a device id) when the channel is not specific enough on its own.
type Event struct {
	Channel string
	Payload string
}

// Publisher is the write-path half of the feed.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload string) error
}

// Feed is the read half: a live subscription plus its disposal handle.
// Consumers must invoke the cancel func when the subscribed key changes or
// the consumer shuts down, otherwise the forwarding goroutine leaks.
type Feed interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan Event, func())
}

type Watcher struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewWatcher(client *redis.Client, log zerolog.Logger) *Watcher {
	return &Watcher{client: client, log: log}
}

func (w *Watcher) Publish(ctx context.Context, channel string, payload string) error {
	return w.client.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a pub/sub subscription and forwards messages until the
// returned cancel func runs or ctx ends. In-flight messages arriving after
// cancellation are dropped rather than delivered to a disposed consumer.
func (w *Watcher) Subscribe(ctx context.Context, channels ...string) (<-chan Event, func()) {
	sub := w.client.Subscribe(ctx, channels...)

	out := make(chan Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Event{Channel: msg.Channel, Payload: msg.Payload}:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				w.log.Debug().Err(err).Msg("pubsub close")
			}
		})
	}

	return out, cancel
}
