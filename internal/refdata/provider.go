package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kidbea/forecast-go/internal/cache"
	"github.com/kidbea/forecast-go/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	festivalCacheKey = "refdata:festivals:calendar"
	seasonalCacheKey = "refdata:seasonal:patterns"

	festivalFileName = "indian_festivals.json"
	seasonalFileName = "seasonal_patterns.json"
)

// Provider hands out the reference datasets. Implementations never fail:
// the worst case is the hardcoded default dataset.
type Provider interface {
	FestivalCalendar(ctx context.Context) FestivalCalendar
	SeasonalPatterns(ctx context.Context) SeasonalPatterns
	FestivalsInRange(ctx context.Context, start, end time.Time) []FestivalOccurrence
	Refresh(ctx context.Context) error
}

// Source loads versioned datasets through object storage with a local-file
// fallback, caching parsed documents for the configured TTL.
type Source struct {
	store    cache.Store
	objects  storage.ObjectStorage
	localDir string
	version  string
	ttl      time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithObjectStorage attaches the bucket the versioned datasets are published
// to. Without it only the local directory and defaults are consulted.
func WithObjectStorage(objects storage.ObjectStorage) Option {
	return func(s *Source) { s.objects = objects }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Source) { s.ttl = ttl }
}

func NewSource(store cache.Store, localDir, version string, opts ...Option) *Source {
	s := &Source{
		store:    store,
		localDir: localDir,
		version:  version,
		ttl:      24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FestivalCalendar returns the festival dataset, falling back to the default
// calendar when no source is loadable.
func (s *Source) FestivalCalendar(ctx context.Context) FestivalCalendar {
	var calendar FestivalCalendar
	if s.loadCached(ctx, festivalCacheKey, &calendar) && len(calendar.Festivals) > 0 {
		return calendar
	}

	data, ok := s.loadRaw(ctx, "festivals", festivalFileName)
	if ok && json.Unmarshal(data, &calendar) == nil && len(calendar.Festivals) > 0 {
		s.storeCached(ctx, festivalCacheKey, calendar)
		return calendar
	}

	calendar = defaultFestivalCalendar()
	s.storeCached(ctx, festivalCacheKey, calendar)
	return calendar
}

// SeasonalPatterns returns the seasonal dataset, falling back to the neutral
// default table.
func (s *Source) SeasonalPatterns(ctx context.Context) SeasonalPatterns {
	var patterns SeasonalPatterns
	if s.loadCached(ctx, seasonalCacheKey, &patterns) && len(patterns.Seasons) > 0 {
		return patterns
	}

	data, ok := s.loadRaw(ctx, "seasonal", seasonalFileName)
	if ok && json.Unmarshal(data, &patterns) == nil && len(patterns.Seasons) > 0 {
		s.storeCached(ctx, seasonalCacheKey, patterns)
		return patterns
	}

	patterns = defaultSeasonalPatterns()
	s.storeCached(ctx, seasonalCacheKey, patterns)
	return patterns
}

// FestivalsInRange resolves festival occurrences inside [start, end], sorted
// by date. DaysUntil is relative to start.
func (s *Source) FestivalsInRange(ctx context.Context, start, end time.Time) []FestivalOccurrence {
	return festivalsInRange(s.FestivalCalendar(ctx), start, end)
}

// Refresh drops the cached documents so the next lookup reloads from source.
func (s *Source) Refresh(ctx context.Context) error {
	if err := s.store.Delete(ctx, festivalCacheKey); err != nil {
		return fmt.Errorf("refdata: drop festival cache: %w", err)
	}
	if err := s.store.Delete(ctx, seasonalCacheKey); err != nil {
		return fmt.Errorf("refdata: drop seasonal cache: %w", err)
	}
	return nil
}

func (s *Source) loadCached(ctx context.Context, key string, out interface{}) bool {
	payload, ok, err := s.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("refdata: cache get failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("refdata: cached document corrupt")
		return false
	}
	return true
}

func (s *Source) storeCached(ctx context.Context, key string, doc interface{}) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("refdata: cache set failed")
	}
}

// loadRaw tries object storage first, then the local data directory.
func (s *Source) loadRaw(ctx context.Context, kind, fileName string) ([]byte, bool) {
	if s.objects != nil {
		key := fmt.Sprintf("%s/%s.json", kind, s.version)
		data, err := s.objects.GetObject(ctx, key)
		if err == nil && len(data) > 0 {
			return data, true
		}
		log.Warn().Err(err).Str("key", key).Msg("refdata: object storage fetch failed, trying local file")
	}

	if s.localDir != "" {
		data, err := os.ReadFile(filepath.Join(s.localDir, fileName))
		if err == nil && len(data) > 0 {
			return data, true
		}
	}

	return nil, false
}

func festivalsInRange(calendar FestivalCalendar, start, end time.Time) []FestivalOccurrence {
	startDay := truncateToDay(start)
	endDay := truncateToDay(end)

	var occurrences []FestivalOccurrence
	for _, festival := range calendar.Festivals {
		for year := startDay.Year(); year <= endDay.Year(); year++ {
			dateStr, ok := festival.Dates[fmt.Sprintf("%d", year)]
			if !ok {
				continue
			}
			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				continue
			}
			if date.Before(startDay) || date.After(endDay) {
				continue
			}

			window := festival.ImpactWindowDays
			if window <= 0 {
				window = 7
			}
			multiplier := festival.DemandMultiplier
			if multiplier <= 0 {
				multiplier = 1.0
			}

			occurrences = append(occurrences, FestivalOccurrence{
				Name:             festival.Name,
				Date:             date,
				DemandMultiplier: multiplier,
				ImpactWindowDays: window,
				DaysUntil:        int(date.Sub(startDay).Hours() / 24),
			})
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Date.Before(occurrences[j].Date)
	})
	return occurrences
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StaticProvider serves fixed datasets; used in tests and as a degraded
// stand-in when no cache store is available.
type StaticProvider struct {
	Calendar FestivalCalendar
	Patterns SeasonalPatterns
}

func NewStaticProvider(calendar FestivalCalendar, patterns SeasonalPatterns) *StaticProvider {
	return &StaticProvider{Calendar: calendar, Patterns: patterns}
}

// NewDefaultProvider returns a StaticProvider on the hardcoded datasets.
func NewDefaultProvider() *StaticProvider {
	return &StaticProvider{
		Calendar: defaultFestivalCalendar(),
		Patterns: defaultSeasonalPatterns(),
	}
}

func (p *StaticProvider) FestivalCalendar(ctx context.Context) FestivalCalendar {
	return p.Calendar
}

func (p *StaticProvider) SeasonalPatterns(ctx context.Context) SeasonalPatterns {
	return p.Patterns
}

func (p *StaticProvider) FestivalsInRange(ctx context.Context, start, end time.Time) []FestivalOccurrence {
	return festivalsInRange(p.Calendar, start, end)
}

func (p *StaticProvider) Refresh(ctx context.Context) error { return nil }

var (
	_ Provider = (*Source)(nil)
	_ Provider = (*StaticProvider)(nil)
)
