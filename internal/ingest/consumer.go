// Package ingest consumes session events produced by the device app and
// lands them in the document store. This service never creates sessions of
// its own; the stream is the only write path into mood_sessions.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"moodadmin/api/internal/config"
	"moodadmin/api/internal/ids"
	"moodadmin/api/internal/models"
	"moodadmin/api/internal/watch"
)

// SessionWriter persists one incoming session record.
type SessionWriter interface {
	Insert(ctx context.Context, record models.SessionRecord) error
}

type Consumer struct {
	client   *redis.Client
	writer   SessionWriter
	notifier watch.Publisher
	cfg      config.IngestConfig
	log      zerolog.Logger
}

func NewConsumer(client *redis.Client, writer SessionWriter, notifier watch.Publisher, cfg config.IngestConfig, log zerolog.Logger) *Consumer {
	return &Consumer{
		client:   client,
		writer:   writer,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// Start creates the consumer group if needed and reads until ctx ends.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error().Err(err).Msg("stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = c.claimStalled(ctx)
		default:
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			if err := c.handle(ctx, msg); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("handle session event failed")
				continue
			}
			if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
			}
		}
	}
	return nil
}

// handle validates and persists one session event. Unknown moods and
// malformed timestamps are skipped quietly; they are data-quality noise
// from old clients, not failures worth redelivery.
func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) error {
	event := parseEvent(msg.Values)

	if !models.ValidMood(event.Mood) {
		c.log.Debug().Str("mood", event.Mood).Str("message_id", msg.ID).Msg("unknown mood, skipping")
		return nil
	}
	occurredAt := models.CoerceTime(event.SessionTime)
	if occurredAt == nil {
		c.log.Debug().Str("message_id", msg.ID).Msg("unparseable session time, skipping")
		return nil
	}

	record := models.SessionRecord{
		ID:         event.ID,
		Mood:       models.Mood(event.Mood),
		UserID:     event.UserID,
		OccurredAt: *occurredAt,
	}
	if record.ID == "" {
		record.ID = ids.New()
	}

	if err := c.writer.Insert(ctx, record); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := c.notifier.Publish(ctx, watch.MoodChannel(record.Mood), string(record.Mood)); err != nil {
		c.log.Warn().Err(err).Msg("publish mood change failed")
	}
	if err := c.notifier.Publish(ctx, watch.SessionsChannel(), string(record.Mood)); err != nil {
		c.log.Warn().Err(err).Msg("publish sessions change failed")
	}
	return nil
}

type sessionEvent struct {
	ID          string
	Mood        string
	UserID      string
	SessionTime any
}

func parseEvent(values map[string]interface{}) sessionEvent {
	var event sessionEvent
	if v, ok := values["id"].(string); ok {
		event.ID = v
	}
	if v, ok := values["mood"].(string); ok {
		event.Mood = v
	}
	if v, ok := values["userId"].(string); ok {
		event.UserID = v
	}
	event.SessionTime = values["sessionTime"]
	return event
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < c.cfg.ClaimInterval {
			continue
		}
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  c.cfg.ClaimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.log.Error().Err(err).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			if err := c.handle(ctx, msg); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("handle claimed event failed")
				continue
			}
			if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack claimed failed")
			}
		}
	}
	return nil
}
