// Package catalog maintains the live content-version view: every mood's
// versions, eagerly joined with their categories, merged and ordered by
// creation time. Writes happen elsewhere; this view re-observes them
// through the change feed.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"moodadmin/api/internal/models"
	"moodadmin/api/internal/watch"
)

// VersionSource reads version documents for one mood.
type VersionSource interface {
	ListByMood(ctx context.Context, mood models.Mood) ([]models.ContentVersion, error)
}

// CategorySource reads a version's category set. Categories are fetched
// once per version-change event, not live-subscribed.
type CategorySource interface {
	ListByVersion(ctx context.Context, mood models.Mood, versionName string) ([]models.Category, error)
}

// Entry is one version joined with its full category set. A version with
// no category documents carries an empty set, not an error.
type Entry struct {
	Version    models.ContentVersion `json:"version"`
	Categories []models.Category     `json:"categories"`
}

// Catalog fans out one subscription per mood and merges results. Each
// mood's slice is replaced independently on its own events, so the merged
// view can briefly serve stale data for moods whose snapshot has not yet
// arrived; ordering is only guaranteed within a mood.
type Catalog struct {
	versions   VersionSource
	categories CategorySource
	feed       watch.Feed
	log        zerolog.Logger

	mu      sync.Mutex
	byMood  map[models.Mood][]Entry
	stopped bool

	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

func New(versions VersionSource, categories CategorySource, feed watch.Feed, log zerolog.Logger) *Catalog {
	return &Catalog{
		versions:   versions,
		categories: categories,
		feed:       feed,
		log:        log,
		byMood:     make(map[models.Mood][]Entry),
	}
}

// Start loads every mood once and then follows per-mood change events.
func (c *Catalog) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelRun = cancel

	channels := make([]string, 0, len(models.AllMoods))
	for _, mood := range models.AllMoods {
		channels = append(channels, watch.MoodChannel(mood))
		c.reload(runCtx, mood)
	}

	events, cancelSub := c.feed.Subscribe(runCtx, channels...)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancelSub()
		for {
			select {
			case <-runCtx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				mood := models.Mood(event.Payload)
				if !models.ValidMood(event.Payload) {
					continue
				}
				c.reload(runCtx, mood)
			}
		}
	}()
}

func (c *Catalog) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.wg.Wait()
}

// reload replaces one mood's slice. Failures keep the previous slice; the
// older view stays served until the next successful event.
func (c *Catalog) reload(ctx context.Context, mood models.Mood) {
	versions, err := c.versions.ListByMood(ctx, mood)
	if err != nil {
		c.log.Error().Err(err).Str("mood", string(mood)).Msg("load versions failed, keeping previous slice")
		return
	}

	entries := make([]Entry, 0, len(versions))
	for _, version := range versions {
		categories, err := c.categories.ListByVersion(ctx, mood, version.Name)
		if err != nil {
			c.log.Error().Err(err).
				Str("mood", string(mood)).
				Str("version", version.Name).
				Msg("load categories failed, keeping previous slice")
			return
		}
		if categories == nil {
			categories = []models.Category{}
		}
		entries = append(entries, Entry{Version: version, Categories: categories})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.byMood[mood] = entries
}

// List returns the cached entries for one mood, or for every mood when
// mood is empty, merged and re-sorted by version creation time descending.
func (c *Catalog) List(mood string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var merged []Entry
	if mood == "" {
		for _, entries := range c.byMood {
			merged = append(merged, entries...)
		}
	} else {
		merged = append(merged, c.byMood[models.Mood(mood)]...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Version.CreatedAt.After(merged[j].Version.CreatedAt)
	})
	if merged == nil {
		merged = []Entry{}
	}
	return merged
}

// VersionNames lists the cached version names for one mood, newest first.
// The editor uses this to propose the next V<n> name.
func (c *Catalog) VersionNames(mood models.Mood) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.byMood[mood]
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Version.Name)
	}
	return names
}
