// Package stats maintains the dashboard's live aggregation over per-mood
// session records: top moods, the trailing 7-day trend matrix, and the
// recent-activity feed.
package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"moodadmin/api/internal/models"
	"moodadmin/api/internal/watch"
)

// TopMoodLimit caps the number of charted mood series.
const TopMoodLimit = 4

// RecentLimit caps the recent-activity feed.
const RecentLimit = 5

// TrendDays is the width of the trend window, current day included.
const TrendDays = 7

// DateLabelLayout renders chart axis labels ("Aug 28").
const DateLabelLayout = "Jan 2"

// SessionSource reads session records from the document store.
type SessionSource interface {
	DistinctMoods(ctx context.Context) ([]models.Mood, error)
	ListByMood(ctx context.Context, mood models.Mood) ([]models.SessionRecord, error)
}

type MoodCount struct {
	Mood  models.Mood `json:"mood"`
	Total int         `json:"total"`
}

type Activity struct {
	UserID     string      `json:"userId"`
	Mood       models.Mood `json:"mood"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// TrendPoint is one chart day: a mood → count mapping over the top moods.
// A day with no sessions for a charted mood carries an explicit zero.
type TrendPoint struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

type Snapshot struct {
	TopMoods       []MoodCount  `json:"topMoods"`
	MostCommonMood string       `json:"mostCommonMood"`
	TrendDates     []string     `json:"trendDates"`
	Trend          []TrendPoint `json:"trend"`
	Recent         []Activity   `json:"recentActivity"`
	GeneratedAt    time.Time    `json:"generatedAt"`
}

// moodState is one registry entry: the mood's cached records plus the
// disposal handle for its change subscription.
type moodState struct {
	cancel  func()
	records []models.SessionRecord
}

// Aggregator owns an explicitly reconciled registry of per-mood
// subscriptions. On every top-level change the current mood set is diffed
// against the registry: vanished moods are disposed, new moods subscribed,
// and the derived snapshot recomputed. Failures leave the previous valid
// snapshot in place.
type Aggregator struct {
	source SessionSource
	feed   watch.Feed
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	registry map[models.Mood]*moodState
	order    []models.Mood
	snapshot Snapshot
	stopped  bool

	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

func NewAggregator(source SessionSource, feed watch.Feed, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		source:   source,
		feed:     feed,
		log:      log,
		now:      time.Now,
		registry: make(map[models.Mood]*moodState),
		snapshot: emptySnapshot(time.Now()),
	}
}

// Start performs the initial aggregation and then follows the change feed
// until Stop or ctx cancellation.
func (a *Aggregator) Start(ctx context.Context) {
	a.runCtx, a.cancelRun = context.WithCancel(ctx)

	a.Refresh(a.runCtx)

	events, cancel := a.feed.Subscribe(a.runCtx, watch.SessionsChannel())
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		for {
			select {
			case <-a.runCtx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				a.Refresh(a.runCtx)
			}
		}
	}()
}

// Stop disposes every subscription. In-flight deliveries after Stop are
// ignored; the last snapshot remains readable.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	a.stopped = true
	for mood, state := range a.registry {
		if state.cancel != nil {
			state.cancel()
		}
		delete(a.registry, mood)
	}
	a.order = nil
	a.mu.Unlock()

	if a.cancelRun != nil {
		a.cancelRun()
	}
	a.wg.Wait()
}

// Snapshot returns the last computed aggregation.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// Refresh reconciles the registry against the current mood set and
// recomputes the snapshot. Also invoked by the midnight cron so the 7-day
// window rolls over even on a quiet day.
func (a *Aggregator) Refresh(ctx context.Context) {
	moods, err := a.source.DistinctMoods(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("list session moods failed, keeping previous state")
		return
	}

	current := make(map[models.Mood]struct{}, len(moods))
	for _, mood := range moods {
		current[mood] = struct{}{}
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}

	// Drop state and subscriptions for moods no longer producing sessions.
	kept := a.order[:0]
	for _, mood := range a.order {
		if _, ok := current[mood]; ok {
			kept = append(kept, mood)
			continue
		}
		if state := a.registry[mood]; state != nil && state.cancel != nil {
			state.cancel()
		}
		delete(a.registry, mood)
	}
	a.order = kept

	var added []models.Mood
	for _, mood := range moods {
		if _, ok := a.registry[mood]; ok {
			continue
		}
		a.registry[mood] = &moodState{}
		a.order = append(a.order, mood)
		added = append(added, mood)
	}
	a.mu.Unlock()

	for _, mood := range added {
		a.subscribeMood(ctx, mood)
	}
	for _, mood := range moods {
		a.reloadMood(ctx, mood)
	}
	a.rebuild()
}

func (a *Aggregator) subscribeMood(ctx context.Context, mood models.Mood) {
	events, cancel := a.feed.Subscribe(ctx, watch.MoodChannel(mood))

	a.mu.Lock()
	state, ok := a.registry[mood]
	if !ok || a.stopped {
		a.mu.Unlock()
		cancel()
		return
	}
	state.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				a.reloadMood(ctx, mood)
				a.rebuild()
			}
		}
	}()
}

// reloadMood refreshes one mood's cached records. Read failures keep the
// previous records; records without a usable timestamp are excluded.
func (a *Aggregator) reloadMood(ctx context.Context, mood models.Mood) {
	records, err := a.source.ListByMood(ctx, mood)
	if err != nil {
		a.log.Error().Err(err).Str("mood", string(mood)).Msg("load sessions failed, keeping previous records")
		return
	}

	filtered := records[:0]
	for _, record := range records {
		if record.OccurredAt.IsZero() {
			continue
		}
		filtered = append(filtered, record)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if state, ok := a.registry[mood]; ok {
		state.records = filtered
	}
}

func (a *Aggregator) rebuild() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	ordered := make([]moodRecords, 0, len(a.order))
	for _, mood := range a.order {
		if state, ok := a.registry[mood]; ok {
			ordered = append(ordered, moodRecords{mood: mood, records: state.records})
		}
	}
	a.snapshot = computeSnapshot(ordered, a.now())
}

type moodRecords struct {
	mood    models.Mood
	records []models.SessionRecord
}

// computeSnapshot derives every dashboard view from the cached registry.
// Moods tied on total keep their encounter order.
func computeSnapshot(ordered []moodRecords, now time.Time) Snapshot {
	snapshot := emptySnapshot(now)

	totals := make([]MoodCount, 0, len(ordered))
	for _, entry := range ordered {
		totals = append(totals, MoodCount{Mood: entry.mood, Total: len(entry.records)})
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
	if len(totals) > TopMoodLimit {
		totals = totals[:TopMoodLimit]
	}
	snapshot.TopMoods = totals
	if len(totals) > 0 {
		snapshot.MostCommonMood = string(totals[0].Mood)
	}

	byMood := make(map[models.Mood][]models.SessionRecord, len(ordered))
	for _, entry := range ordered {
		byMood[entry.mood] = entry.records
	}

	for i, date := range snapshot.TrendDates {
		point := TrendPoint{Date: date, Counts: make(map[string]int, len(totals))}
		for _, top := range totals {
			count := 0
			for _, record := range byMood[top.Mood] {
				if record.OccurredAt.Format(DateLabelLayout) == date {
					count++
				}
			}
			point.Counts[string(top.Mood)] = count
		}
		snapshot.Trend[i] = point
	}

	var all []Activity
	for _, entry := range ordered {
		for _, record := range entry.records {
			all = append(all, Activity{
				UserID:     record.UserID,
				Mood:       entry.mood,
				OccurredAt: record.OccurredAt,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OccurredAt.After(all[j].OccurredAt)
	})
	if len(all) > RecentLimit {
		all = all[:RecentLimit]
	}
	snapshot.Recent = all

	return snapshot
}

// trendDates returns the current day and the 6 preceding calendar days,
// oldest first.
func trendDates(now time.Time) []string {
	dates := make([]string, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(DateLabelLayout))
	}
	return dates
}

func emptySnapshot(now time.Time) Snapshot {
	dates := trendDates(now)
	trend := make([]TrendPoint, len(dates))
	for i, date := range dates {
		trend[i] = TrendPoint{Date: date, Counts: map[string]int{}}
	}
	return Snapshot{
		TopMoods:       []MoodCount{},
		MostCommonMood: "N/A",
		TrendDates:     dates,
		Trend:          trend,
		Recent:         []Activity{},
		GeneratedAt:    now,
	}
}
