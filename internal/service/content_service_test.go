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
)

type versionKey struct {
	mood models.Mood
	name string
}

type categoryKey struct {
	mood models.Mood
	name string
	tab  models.Tab
}

// fakeContentStore backs both store interfaces and records the operation
// order, which is what the delete-ordering tests assert on.
type fakeContentStore struct {
	versions   map[versionKey]models.ContentVersion
	categories map[categoryKey]models.Category
	ops        []string
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		versions:   make(map[versionKey]models.ContentVersion),
		categories: make(map[categoryKey]models.Category),
	}
}

func (f *fakeContentStore) Create(_ context.Context, v models.ContentVersion) error {
	f.ops = append(f.ops, "create version "+v.Name)
	f.versions[versionKey{v.Mood, v.Name}] = v
	return nil
}

func (f *fakeContentStore) UpdateLive(_ context.Context, mood models.Mood, name string, live bool) error {
	f.ops = append(f.ops, "update version "+name)
	key := versionKey{mood, name}
	v, ok := f.versions[key]
	if !ok {
		return fmt.Errorf("version %s: %w", name, errNotFound)
	}
	v.Live = live
	f.versions[key] = v
	return nil
}

func (f *fakeContentStore) Get(_ context.Context, mood models.Mood, name string) (models.ContentVersion, error) {
	v, ok := f.versions[versionKey{mood, name}]
	if !ok {
		return models.ContentVersion{}, errNotFound
	}
	return v, nil
}

func (f *fakeContentStore) ListByMood(_ context.Context, mood models.Mood) ([]models.ContentVersion, error) {
	var out []models.ContentVersion
	for key, v := range f.versions {
		if key.mood == mood {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeContentStore) Delete(_ context.Context, mood models.Mood, name string) error {
	f.ops = append(f.ops, "delete version "+name)
	delete(f.versions, versionKey{mood, name})
	return nil
}

func (f *fakeContentStore) Upsert(_ context.Context, c models.Category) error {
	f.ops = append(f.ops, "upsert category "+string(c.Tab))
	f.categories[categoryKey{c.Mood, c.VersionName, c.Tab}] = c
	return nil
}

func (f *fakeContentStore) ListByVersion(_ context.Context, mood models.Mood, versionName string) ([]models.Category, error) {
	var out []models.Category
	for _, spec := range models.AllTabs {
		if c, ok := f.categories[categoryKey{mood, versionName, spec.Tab}]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContentStore) DeleteCategory(_ context.Context, mood models.Mood, versionName string, tab models.Tab) error {
	f.ops = append(f.ops, "delete category "+string(tab))
	delete(f.categories, categoryKey{mood, versionName, tab})
	return nil
}

var errNotFound = fmt.Errorf("not found")

// categoryStoreAdapter maps the CategoryStore Delete name onto the shared fake.
type categoryStoreAdapter struct {
	*fakeContentStore
}

func (a categoryStoreAdapter) Delete(ctx context.Context, mood models.Mood, versionName string, tab models.Tab) error {
	return a.DeleteCategory(ctx, mood, versionName, tab)
}

type fakeVoiceUploader struct {
	uploads []string
}

func (f *fakeVoiceUploader) UploadVoice(_ context.Context, mood models.Mood, versionName string, tab models.Tab, filename string, contentType string, r io.Reader, size int64) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	f.uploads = append(f.uploads, string(tab)+"/"+filename)
	return fmt.Sprintf("https://cdn.example/voices/%s/%s/%s/%s", mood, versionName, tab, filename), nil
}

func newTestContentService() (*ContentService, *fakeContentStore, *fakeVoiceUploader, *fakePublisher) {
	store := newFakeContentStore()
	uploader := &fakeVoiceUploader{}
	pub := &fakePublisher{}
	svc := NewContentService(store, categoryStoreAdapter{store}, uploader, pub, zerolog.Nop())
	return svc, store, uploader, pub
}

func allTabForms() map[models.Tab]TabForm {
	forms := make(map[models.Tab]TabForm, len(models.AllTabs))
	for _, spec := range models.AllTabs {
		form := TabForm{Heading: string(spec.Tab) + " heading"}
		if spec.MultiText {
			form.Affirmations = []string{"I am calm", "", "I am strong"}
		} else {
			form.Text = string(spec.Tab) + " body"
		}
		forms[spec.Tab] = form
	}
	return forms
}

func TestCreateVersionWritesAllTabs(t *testing.T) {
	svc, store, _, pub := newTestContentService()

	err := svc.CreateVersion(context.Background(), models.MoodAnxious, "V1", true, allTabForms())
	require.NoError(t, err)

	require.Len(t, store.versions, 1)
	assert.Len(t, store.categories, len(models.AllTabs))
	assert.Equal(t, "create version V1", store.ops[0])

	aff := store.categories[categoryKey{models.MoodAnxious, "V1", models.TabAffirmation}]
	assert.Equal(t, map[string]string{"text1": "I am calm", "text3": "I am strong"}, aff.Texts)
	assert.Empty(t, aff.Body)

	pep := store.categories[categoryKey{models.MoodAnxious, "V1", models.TabPepTalk}]
	assert.Equal(t, "peptalk body", pep.Body)
	assert.Nil(t, pep.Texts)

	require.Len(t, pub.published, 1)
	assert.Contains(t, pub.published[0], "changes:moods:Anxious")
}

func TestCreateVersionRejectsDuplicate(t *testing.T) {
	svc, _, _, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodLost, "V1", false, allTabForms()))
	err := svc.CreateVersion(context.Background(), models.MoodLost, "V1", true, allTabForms())
	assert.ErrorIs(t, err, ErrVersionExists)
}

func TestCreateVersionValidatesTarget(t *testing.T) {
	svc, _, _, _ := newTestContentService()

	err := svc.CreateVersion(context.Background(), "Cheerful", "V1", false, allTabForms())
	assert.ErrorIs(t, err, ErrUnknownMood)

	err = svc.CreateVersion(context.Background(), models.MoodLost, "first", false, allTabForms())
	assert.ErrorIs(t, err, ErrBadVersionName)
}

func TestCreateVersionDoesNotClearSiblingLiveFlags(t *testing.T) {
	svc, store, _, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodEmpty, "V1", true, allTabForms()))
	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodEmpty, "V2", true, allTabForms()))

	assert.True(t, store.versions[versionKey{models.MoodEmpty, "V1"}].Live)
	assert.True(t, store.versions[versionKey{models.MoodEmpty, "V2"}].Live)
}

func TestUpdateVersionRetainsPriorVoice(t *testing.T) {
	svc, store, _, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodAngry, "V1", true, allTabForms()))

	// Seed a stored voice reference as if a prior edit uploaded one.
	key := categoryKey{models.MoodAngry, "V1", models.TabQuickReset}
	c := store.categories[key]
	c.VoiceURL = "https://cdn.example/voices/old.mp3"
	c.VoiceName = "old.mp3"
	store.categories[key] = c

	// An update with no new upload and no explicit reference keeps it.
	require.NoError(t, svc.UpdateVersion(context.Background(), models.MoodAngry, "V1", true, allTabForms()))

	got := store.categories[key]
	assert.Equal(t, "https://cdn.example/voices/old.mp3", got.VoiceURL)
	assert.Equal(t, "old.mp3", got.VoiceName)
}

func TestUpdateVersionUploadReplacesVoice(t *testing.T) {
	svc, store, uploader, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodAngry, "V1", true, allTabForms()))

	forms := allTabForms()
	form := forms[models.TabQuickReset]
	form.Upload = &AudioUpload{
		Filename: "fresh.mp3",
		Size:     int64(len(mp3Bytes())),
		Reader:   strings.NewReader(string(mp3Bytes())),
	}
	forms[models.TabQuickReset] = form

	require.NoError(t, svc.UpdateVersion(context.Background(), models.MoodAngry, "V1", false, forms))

	require.Len(t, uploader.uploads, 1)
	assert.Equal(t, "quickreset/fresh.mp3", uploader.uploads[0])

	got := store.categories[categoryKey{models.MoodAngry, "V1", models.TabQuickReset}]
	assert.Equal(t, "fresh.mp3", got.VoiceName)
	assert.Contains(t, got.VoiceURL, "fresh.mp3")
	assert.False(t, got.Live)
}

func TestUpdateVersionRejectsUnknownAudio(t *testing.T) {
	svc, _, _, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodAngry, "V1", true, allTabForms()))

	forms := allTabForms()
	form := forms[models.TabPepTalk]
	form.Upload = &AudioUpload{
		Filename: "notes.txt",
		Size:     9,
		Reader:   strings.NewReader("plain text content, long enough to sniff"),
	}
	forms[models.TabPepTalk] = form

	err := svc.UpdateVersion(context.Background(), models.MoodAngry, "V1", true, forms)
	assert.ErrorIs(t, err, ErrUnsupportedAudio)
}

func TestDeleteVersionRemovesChildrenFirst(t *testing.T) {
	svc, store, _, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodGuilty, "V1", true, allTabForms()))
	store.ops = nil

	require.NoError(t, svc.DeleteVersion(context.Background(), models.MoodGuilty, "V1"))

	require.NotEmpty(t, store.ops)
	assert.Equal(t, "delete version V1", store.ops[len(store.ops)-1])
	for _, op := range store.ops[:len(store.ops)-1] {
		assert.True(t, strings.HasPrefix(op, "delete category "), op)
	}
	assert.Empty(t, store.versions)
	assert.Empty(t, store.categories)
}

func TestDeleteVersionRetryWithoutChildren(t *testing.T) {
	svc, store, _, _ := newTestContentService()

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodGuilty, "V1", true, allTabForms()))

	// Simulate a half-finished prior delete: children already gone.
	for key := range store.categories {
		delete(store.categories, key)
	}
	store.ops = nil

	require.NoError(t, svc.DeleteVersion(context.Background(), models.MoodGuilty, "V1"))
	assert.Equal(t, []string{"delete version V1"}, store.ops)
}

func TestNextVersionNameService(t *testing.T) {
	svc, _, _, _ := newTestContentService()

	name, err := svc.NextVersionName(context.Background(), models.MoodInsecure)
	require.NoError(t, err)
	assert.Equal(t, "V1", name)

	require.NoError(t, svc.CreateVersion(context.Background(), models.MoodInsecure, "V3", false, allTabForms()))

	name, err = svc.NextVersionName(context.Background(), models.MoodInsecure)
	require.NoError(t, err)
	assert.Equal(t, "V4", name)
}

func mp3Bytes() []byte {
	head := []byte("ID3\x04\x00\x00\x00\x00\x00\x00")
	return append(head, make([]byte, 64)...)
}
