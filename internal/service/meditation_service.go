package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"moodadmin/api/internal/media/sniffer"
	"moodadmin/api/internal/models"
	"moodadmin/api/internal/watch"
)

// MeditationStore persists meditation entries. There is no create or delete
// path; entries are edited in place.
type MeditationStore interface {
	List(ctx context.Context) ([]models.MeditationEntry, error)
	Get(ctx context.Context, id string) (models.MeditationEntry, error)
	Update(ctx context.Context, entry models.MeditationEntry) error
}

// MeditationUploader stores meditation audio under a timestamped key.
type MeditationUploader interface {
	UploadMeditationAudio(ctx context.Context, entryID string, filename string, contentType string, r io.Reader, size int64) (string, error)
}

type MeditationService struct {
	entries  MeditationStore
	uploader MeditationUploader
	notifier watch.Publisher
	log      zerolog.Logger
}

func NewMeditationService(entries MeditationStore, uploader MeditationUploader, notifier watch.Publisher, log zerolog.Logger) *MeditationService {
	return &MeditationService{
		entries:  entries,
		uploader: uploader,
		notifier: notifier,
		log:      log,
	}
}

func (s *MeditationService) List(ctx context.Context) ([]models.MeditationEntry, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meditations: %w", err)
	}
	return entries, nil
}

// Update merges heading and body, uploading replacement audio first when a
// file is attached. Without an upload the stored audio reference stays.
func (s *MeditationService) Update(ctx context.Context, id string, heading string, body string, upload *AudioUpload) error {
	if _, err := s.entries.Get(ctx, id); err != nil {
		return err
	}

	entry := models.MeditationEntry{
		ID:      id,
		Heading: heading,
		Body:    body,
	}

	if upload != nil {
		result, head, err := sniffer.Detect(upload.Reader)
		if err != nil {
			return ErrUnsupportedAudio
		}
		reader := io.MultiReader(bytes.NewReader(head), upload.Reader)
		url, err := s.uploader.UploadMeditationAudio(ctx, id, upload.Filename, result.MIME, reader, upload.Size)
		if err != nil {
			return fmt.Errorf("upload meditation audio: %w", err)
		}
		entry.AudioName = upload.Filename
		entry.AudioURL = url
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return fmt.Errorf("update meditation: %w", err)
	}

	if err := s.notifier.Publish(ctx, watch.MeditationsChannel(), id); err != nil {
		s.log.Warn().Err(err).Str("meditation_id", id).Msg("publish meditation change failed")
	}
	return nil
}
