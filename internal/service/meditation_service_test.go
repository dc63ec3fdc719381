package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodadmin/api/internal/models"
	"moodadmin/api/internal/repository"
)

type fakeMeditationStore struct {
	entries map[string]models.MeditationEntry
	updates []models.MeditationEntry
}

func (f *fakeMeditationStore) List(context.Context) ([]models.MeditationEntry, error) {
	out := make([]models.MeditationEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (f *fakeMeditationStore) Get(_ context.Context, id string) (models.MeditationEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return models.MeditationEntry{}, repository.ErrMeditationNotFound
	}
	return entry, nil
}

func (f *fakeMeditationStore) Update(_ context.Context, entry models.MeditationEntry) error {
	f.updates = append(f.updates, entry)
	return nil
}

type fakeMeditationUploader struct {
	uploads []string
}

func (f *fakeMeditationUploader) UploadMeditationAudio(_ context.Context, entryID string, filename string, contentType string, r io.Reader, size int64) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	f.uploads = append(f.uploads, entryID+"/"+filename)
	return fmt.Sprintf("https://cdn.example/meditations/%s/%s", entryID, filename), nil
}

func newTestMeditation() (*MeditationService, *fakeMeditationStore, *fakeMeditationUploader, *fakePublisher) {
	store := &fakeMeditationStore{entries: map[string]models.MeditationEntry{
		"morning": {ID: "morning", Heading: "Morning calm", Body: "old body", AudioURL: "https://cdn.example/meditations/morning/old.mp3", AudioName: "old.mp3"},
	}}
	uploader := &fakeMeditationUploader{}
	pub := &fakePublisher{}
	svc := NewMeditationService(store, uploader, pub, zerolog.Nop())
	return svc, store, uploader, pub
}

func TestMeditationUpdateWithoutAudio(t *testing.T) {
	svc, store, uploader, pub := newTestMeditation()

	err := svc.Update(context.Background(), "morning", "New heading", "new body", nil)
	require.NoError(t, err)

	require.Len(t, store.updates, 1)
	assert.Equal(t, "New heading", store.updates[0].Heading)
	// No new file means the audio fields stay empty; the repository keeps
	// the stored reference when the replacement is blank.
	assert.Empty(t, store.updates[0].AudioURL)
	assert.Empty(t, uploader.uploads)

	require.Len(t, pub.published, 1)
	assert.Contains(t, pub.published[0], "changes:meditations")
}

func TestMeditationUpdateWithAudio(t *testing.T) {
	svc, store, uploader, _ := newTestMeditation()

	upload := &AudioUpload{
		Filename: "fresh.mp3",
		Size:     64,
		Reader:   strings.NewReader(string(mp3Bytes())),
	}
	err := svc.Update(context.Background(), "morning", "Heading", "body", upload)
	require.NoError(t, err)

	require.Len(t, uploader.uploads, 1)
	assert.Equal(t, "morning/fresh.mp3", uploader.uploads[0])

	require.Len(t, store.updates, 1)
	assert.Equal(t, "fresh.mp3", store.updates[0].AudioName)
	assert.Contains(t, store.updates[0].AudioURL, "fresh.mp3")
}

func TestMeditationUpdateUnknownEntry(t *testing.T) {
	svc, store, _, pub := newTestMeditation()

	err := svc.Update(context.Background(), "missing", "h", "b", nil)
	assert.ErrorIs(t, err, repository.ErrMeditationNotFound)
	assert.Empty(t, store.updates)
	assert.Empty(t, pub.published)
}

func TestMeditationUpdateRejectsUnknownAudio(t *testing.T) {
	svc, store, _, _ := newTestMeditation()

	upload := &AudioUpload{
		Filename: "essay.txt",
		Size:     24,
		Reader:   strings.NewReader("this is not an audio file"),
	}
	err := svc.Update(context.Background(), "morning", "h", "b", upload)
	assert.ErrorIs(t, err, ErrUnsupportedAudio)
	assert.Empty(t, store.updates)
}
