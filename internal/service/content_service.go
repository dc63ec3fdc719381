package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"moodadmin/api/internal/media/sniffer"
	"moodadmin/api/internal/models"
	"moodadmin/api/internal/watch"
)

var (
	ErrUnknownMood       = errors.New("unknown mood")
	ErrBadVersionName    = errors.New("version name must match V<number>")
	ErrVersionExists     = errors.New("version already exists")
	ErrUnsupportedAudio  = errors.New("unsupported audio type")
)

// VersionStore persists version documents.
type VersionStore interface {
	Create(ctx context.Context, v models.ContentVersion) error
	UpdateLive(ctx context.Context, mood models.Mood, name string, live bool) error
	Get(ctx context.Context, mood models.Mood, name string) (models.ContentVersion, error)
	ListByMood(ctx context.Context, mood models.Mood) ([]models.ContentVersion, error)
	Delete(ctx context.Context, mood models.Mood, name string) error
}

// CategoryStore persists per-tab category documents.
type CategoryStore interface {
	Upsert(ctx context.Context, c models.Category) error
	ListByVersion(ctx context.Context, mood models.Mood, versionName string) ([]models.Category, error)
	Delete(ctx context.Context, mood models.Mood, versionName string, tab models.Tab) error
}

// VoiceUploader stores tab audio and returns its download URL.
type VoiceUploader interface {
	UploadVoice(ctx context.Context, mood models.Mood, versionName string, tab models.Tab, filename string, contentType string, r io.Reader, size int64) (string, error)
}

// AudioUpload is one attached file from a multipart form.
type AudioUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// TabForm is one tab's editor payload. VoiceURL/VoiceName carry a
// previously chosen reference when no new file is attached.
type TabForm struct {
	Heading      string
	Text         string
	Affirmations []string
	Upload       *AudioUpload
	VoiceURL     string
	VoiceName    string
}

// ContentService owns the version write paths. Version and category writes
// are separate sequential documents with no rollback; a failure surfaces to
// the caller and whatever committed stays committed.
type ContentService struct {
	versions   VersionStore
	categories CategoryStore
	uploader   VoiceUploader
	notifier   watch.Publisher
	log        zerolog.Logger
}

func NewContentService(
	versions VersionStore,
	categories CategoryStore,
	uploader VoiceUploader,
	notifier watch.Publisher,
	log zerolog.Logger,
) *ContentService {
	return &ContentService{
		versions:   versions,
		categories: categories,
		uploader:   uploader,
		notifier:   notifier,
		log:        log,
	}
}

// NextVersionName proposes V<max existing + 1> for a mood, V1 when empty.
func (s *ContentService) NextVersionName(ctx context.Context, mood models.Mood) (string, error) {
	versions, err := s.versions.ListByMood(ctx, mood)
	if err != nil {
		return "", fmt.Errorf("list versions: %w", err)
	}
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		names = append(names, v.Name)
	}
	return models.NextVersionName(names), nil
}

// CreateVersion writes the version document, then each tab's category in
// editor order. Attached audio is uploaded before the category write so the
// stored document always references a retrievable URL.
func (s *ContentService) CreateVersion(ctx context.Context, mood models.Mood, versionName string, live bool, forms map[models.Tab]TabForm) error {
	if err := validateTarget(mood, versionName); err != nil {
		return err
	}
	if _, err := s.versions.Get(ctx, mood, versionName); err == nil {
		return ErrVersionExists
	}

	if err := s.versions.Create(ctx, models.ContentVersion{
		Mood: mood,
		Name: versionName,
		Live: live,
	}); err != nil {
		return fmt.Errorf("create version: %w", err)
	}

	if err := s.writeCategories(ctx, mood, versionName, live, forms, nil); err != nil {
		return err
	}

	s.notifyMood(ctx, mood)
	return nil
}

// UpdateVersion overwrites the live flag and merge-upserts every tab. A new
// upload replaces the stored voice reference; otherwise the prior reference
// is retained.
func (s *ContentService) UpdateVersion(ctx context.Context, mood models.Mood, versionName string, live bool, forms map[models.Tab]TabForm) error {
	if err := validateTarget(mood, versionName); err != nil {
		return err
	}

	if err := s.versions.UpdateLive(ctx, mood, versionName, live); err != nil {
		return fmt.Errorf("update version: %w", err)
	}

	existing, err := s.categories.ListByVersion(ctx, mood, versionName)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	prior := make(map[models.Tab]models.Category, len(existing))
	for _, c := range existing {
		prior[c.Tab] = c
	}

	if err := s.writeCategories(ctx, mood, versionName, live, forms, prior); err != nil {
		return err
	}

	s.notifyMood(ctx, mood)
	return nil
}

func (s *ContentService) writeCategories(ctx context.Context, mood models.Mood, versionName string, live bool, forms map[models.Tab]TabForm, prior map[models.Tab]models.Category) error {
	for _, spec := range models.AllTabs {
		form := forms[spec.Tab]

		voiceURL, voiceName := form.VoiceURL, form.VoiceName
		if p, ok := prior[spec.Tab]; ok && voiceURL == "" {
			voiceURL, voiceName = p.VoiceURL, p.VoiceName
		}

		if form.Upload != nil && spec.AllowsVoice {
			url, err := s.uploadVoice(ctx, mood, versionName, spec.Tab, form.Upload)
			if err != nil {
				return fmt.Errorf("upload %s audio: %w", spec.Tab, err)
			}
			voiceURL, voiceName = url, form.Upload.Filename
		}

		body, texts := models.BuildTextFields(spec, form.Text, form.Affirmations)

		category := models.Category{
			Mood:        mood,
			VersionName: versionName,
			Tab:         spec.Tab,
			Heading:     form.Heading,
			Body:        body,
			Texts:       texts,
			VoiceURL:    voiceURL,
			VoiceName:   voiceName,
			Live:        live,
		}
		if err := s.categories.Upsert(ctx, category); err != nil {
			return fmt.Errorf("save %s category: %w", spec.Tab, err)
		}
	}
	return nil
}

func (s *ContentService) uploadVoice(ctx context.Context, mood models.Mood, versionName string, tab models.Tab, upload *AudioUpload) (string, error) {
	result, head, err := sniffer.Detect(upload.Reader)
	if err != nil {
		return "", ErrUnsupportedAudio
	}
	body := io.MultiReader(bytes.NewReader(head), upload.Reader)
	return s.uploader.UploadVoice(ctx, mood, versionName, tab, upload.Filename, result.MIME, body, upload.Size)
}

// DeleteVersion removes every category document, then the version itself.
// The two phases are not transactional; a crash in between leaves orphans
// for the sweep job. A retry that finds no children proceeds straight to
// the version document.
func (s *ContentService) DeleteVersion(ctx context.Context, mood models.Mood, versionName string) error {
	if err := validateTarget(mood, versionName); err != nil {
		return err
	}

	categories, err := s.categories.ListByVersion(ctx, mood, versionName)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if err := s.categories.Delete(ctx, mood, versionName, c.Tab); err != nil {
			return fmt.Errorf("delete %s category: %w", c.Tab, err)
		}
	}

	if err := s.versions.Delete(ctx, mood, versionName); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}

	s.notifyMood(ctx, mood)
	return nil
}

func (s *ContentService) notifyMood(ctx context.Context, mood models.Mood) {
	if err := s.notifier.Publish(ctx, watch.MoodChannel(mood), string(mood)); err != nil {
		s.log.Warn().Err(err).Str("mood", string(mood)).Msg("publish mood change failed")
	}
}

func validateTarget(mood models.Mood, versionName string) error {
	if !models.ValidMood(string(mood)) {
		return ErrUnknownMood
	}
	if _, ok := models.VersionNumber(versionName); !ok {
		return ErrBadVersionName
	}
	return nil
}
