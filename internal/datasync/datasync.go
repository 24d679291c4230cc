// Package datasync combines the document API and the local cache into the
// read-only snapshot every screen renders from.
package datasync

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/mosque-times/internal/cache"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

// Source fetches documents from the remote store. *api.Client implements it.
type Source interface {
	FetchPrayerTimes(date time.Time) (*mosque.PrayerTimeSet, error)
	FetchJumuah() (*mosque.JumuahTimeSet, error)
	FetchSettings() (*mosque.Settings, error)
}

// Snapshot is what consumers read. A nil document means no data is
// available, neither remote nor cached.
type Snapshot struct {
	PrayerTimes *mosque.PrayerTimeSet
	Jumuah      *mosque.JumuahTimeSet
	Settings    *mosque.Settings
	// Location is the mosque timezone the snapshot was resolved in.
	Location *time.Location
	// Date is the mosque-local day PrayerTimes belongs to.
	Date time.Time

	Loading   bool // no snapshot has completed yet
	Updating  bool // a refresh is in flight
	Err       error
	FromCache bool
}

// HasData reports whether any document is present.
func (s Snapshot) HasData() bool {
	return s.PrayerTimes != nil || s.Jumuah != nil || s.Settings != nil
}

// IsToday reports whether PrayerTimes is the schedule of now's mosque-local
// day. A snapshot without a date counts as today.
func (s Snapshot) IsToday(now time.Time) bool {
	if s.Date.IsZero() || s.Location == nil {
		return true
	}
	y1, m1, d1 := now.In(s.Location).Date()
	y2, m2, d2 := s.Date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Options configures a Sync.
type Options struct {
	MosqueID string
	// Timezone overrides the mosque's configured zone when set.
	Timezone string
	// Refresh is how long a cached document is served without asking the
	// remote store. Zero always asks.
	Refresh time.Duration
}

// Sync loads documents and keeps the latest snapshot.
type Sync struct {
	source Source
	cache  *cache.Cache
	opts   Options
	now    func() time.Time

	// loadMu serializes loads so Updating stays set until the last one ends.
	loadMu  sync.Mutex
	mu      sync.RWMutex
	current Snapshot
}

// New creates a Sync. c may be nil to disable caching.
func New(source Source, c *cache.Cache, opts Options) *Sync {
	return &Sync{
		source:  source,
		cache:   c,
		opts:    opts,
		now:     time.Now,
		current: Snapshot{Loading: true},
	}
}

// Current returns the most recent snapshot without blocking on I/O.
func (s *Sync) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load refreshes every document for today in the mosque's timezone.
func (s *Sync) Load() Snapshot {
	return s.load(time.Time{})
}

// LoadDate refreshes every document, reading the prayer schedule of date.
func (s *Sync) LoadDate(date time.Time) Snapshot {
	return s.load(date)
}

func (s *Sync) load(date time.Time) Snapshot {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.current.Updating = true
	s.mu.Unlock()

	var (
		snap Snapshot
		errs []error
	)

	settings, cached, err := fetchOrCache(s, "settings",
		func() (*mosque.Settings, time.Time) {
			if e := s.cache.LoadSettings(s.opts.MosqueID); e != nil {
				return &e.Settings, e.CachedAt
			}
			return nil, time.Time{}
		},
		s.source.FetchSettings,
		func(v *mosque.Settings) error { return s.cache.SaveSettings(s.opts.MosqueID, v) },
	)
	snap.Settings = settings
	snap.FromCache = snap.FromCache || cached
	errs = append(errs, err)

	snap.Location = s.location(settings)
	if date.IsZero() {
		date = s.now().In(snap.Location)
	}
	snap.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, snap.Location)

	times, cached, err := fetchOrCache(s, "prayer times",
		func() (*mosque.PrayerTimeSet, time.Time) {
			if e := s.cache.LoadPrayerTimes(s.opts.MosqueID, snap.Date); e != nil {
				return &e.PrayerTimes, e.CachedAt
			}
			return nil, time.Time{}
		},
		func() (*mosque.PrayerTimeSet, error) { return s.source.FetchPrayerTimes(snap.Date) },
		func(v *mosque.PrayerTimeSet) error { return s.cache.SavePrayerTimes(s.opts.MosqueID, snap.Date, v) },
	)
	snap.PrayerTimes = times
	snap.FromCache = snap.FromCache || cached
	errs = append(errs, err)

	jumuah, cached, err := fetchOrCache(s, "jumuah",
		func() (*mosque.JumuahTimeSet, time.Time) {
			if e := s.cache.LoadJumuah(s.opts.MosqueID); e != nil {
				return &e.Jumuah, e.CachedAt
			}
			return nil, time.Time{}
		},
		s.source.FetchJumuah,
		func(v *mosque.JumuahTimeSet) error { return s.cache.SaveJumuah(s.opts.MosqueID, v) },
	)
	snap.Jumuah = jumuah
	snap.FromCache = snap.FromCache || cached
	errs = append(errs, err)

	snap.Err = errors.Join(errs...)

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	return snap
}

func (s *Sync) location(settings *mosque.Settings) *time.Location {
	if s.opts.Timezone != "" {
		loc, fallback := mosque.LoadLocation(s.opts.Timezone)
		if fallback {
			log.Warn().Str("timezone", s.opts.Timezone).Msg("unknown timezone override, using default")
		}
		return loc
	}
	loc, fallback := settings.Location()
	if fallback {
		log.Debug().Str("default", mosque.DefaultTimezone).Msg("mosque has no usable timezone")
	}
	return loc
}

// fetchOrCache serves a fresh cache entry, else fetches and writes back.
// When the fetch fails the cached copy, however old, is returned with the error.
func fetchOrCache[T any](
	s *Sync,
	name string,
	loadCached func() (*T, time.Time),
	fetch func() (*T, error),
	save func(*T) error,
) (*T, bool, error) {
	var (
		cached   *T
		cachedAt time.Time
	)
	if s.cache != nil {
		cached, cachedAt = loadCached()
	}

	if cached != nil && s.opts.Refresh > 0 && s.now().Sub(cachedAt) < s.opts.Refresh {
		log.Debug().Str("doc", name).Time("cached_at", cachedAt).Msg("serving cached document")
		return cached, true, nil
	}

	fresh, err := fetch()
	if err != nil {
		log.Warn().Err(err).Str("doc", name).Bool("cached", cached != nil).Msg("fetch failed")
		return cached, cached != nil, fmt.Errorf("%s: %w", name, err)
	}

	if s.cache != nil {
		if err := save(fresh); err != nil {
			log.Warn().Err(err).Str("doc", name).Msg("failed to write cache")
		}
	}
	return fresh, false, nil
}
