// Package cache keeps the last copy of each mosque document so screens can
// render offline and between refreshes.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

const (
	kindPrayerTimes = "prayer_times"
	kindJumuah      = "jumuah"
	kindSettings    = "settings"
)

// ErrMiss is returned by a Backend when a key holds no entry.
var ErrMiss = errors.New("cache miss")

// Backend stores raw cache entries by key.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// Cache provides typed access to cached mosque documents.
type Cache struct {
	backend Backend
}

// PrayerCacheEntry stores a day's prayer times along with metadata for validation.
type PrayerCacheEntry struct {
	MosqueID    string               `json:"mosque_id"`
	Date        string               `json:"date"` // YYYY-MM-DD
	PrayerTimes mosque.PrayerTimeSet `json:"prayer_times"`
	CachedAt    time.Time            `json:"cached_at"`
}

// JumuahCacheEntry stores the Jumu'ah sessions.
type JumuahCacheEntry struct {
	MosqueID string               `json:"mosque_id"`
	Jumuah   mosque.JumuahTimeSet `json:"jumuah"`
	CachedAt time.Time            `json:"cached_at"`
}

// SettingsCacheEntry stores the mosque settings.
type SettingsCacheEntry struct {
	MosqueID string          `json:"mosque_id"`
	Settings mosque.Settings `json:"settings"`
	CachedAt time.Time       `json:"cached_at"`
}

// New creates a file-backed Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/mosque-times/.
func New(dir string) (*Cache, error) {
	b, err := NewFileBackend(dir)
	if err != nil {
		return nil, err
	}
	return &Cache{backend: b}, nil
}

// NewWithBackend creates a Cache over an arbitrary backend.
func NewWithBackend(b Backend) *Cache {
	return &Cache{backend: b}
}

// cacheKey builds a deterministic hash from the parameters that identify a document.
func cacheKey(kind, mosqueID, date string) string {
	raw := fmt.Sprintf("%s|%s|%s", kind, mosqueID, date)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s_%x", kind, h[:8])
}

// LoadPrayerTimes returns the cached schedule for date, or nil when the
// entry is missing, unreadable or belongs to another day.
func (c *Cache) LoadPrayerTimes(mosqueID string, date time.Time) *PrayerCacheEntry {
	dateStr := date.Format("2006-01-02")

	var entry PrayerCacheEntry
	if !c.load(cacheKey(kindPrayerTimes, mosqueID, dateStr), &entry) {
		return nil
	}
	if entry.Date != dateStr || entry.MosqueID != mosqueID {
		return nil
	}
	return &entry
}

// SavePrayerTimes writes the schedule for date to the cache.
func (c *Cache) SavePrayerTimes(mosqueID string, date time.Time, set *mosque.PrayerTimeSet) error {
	dateStr := date.Format("2006-01-02")
	return c.save(cacheKey(kindPrayerTimes, mosqueID, dateStr), PrayerCacheEntry{
		MosqueID:    mosqueID,
		Date:        dateStr,
		PrayerTimes: *set,
		CachedAt:    time.Now(),
	})
}

// LoadJumuah returns the cached Jumu'ah sessions, or nil.
func (c *Cache) LoadJumuah(mosqueID string) *JumuahCacheEntry {
	var entry JumuahCacheEntry
	if !c.load(cacheKey(kindJumuah, mosqueID, ""), &entry) || entry.MosqueID != mosqueID {
		return nil
	}
	return &entry
}

// SaveJumuah writes the Jumu'ah sessions to the cache.
func (c *Cache) SaveJumuah(mosqueID string, j *mosque.JumuahTimeSet) error {
	return c.save(cacheKey(kindJumuah, mosqueID, ""), JumuahCacheEntry{
		MosqueID: mosqueID,
		Jumuah:   *j,
		CachedAt: time.Now(),
	})
}

// LoadSettings returns the cached mosque settings, or nil.
func (c *Cache) LoadSettings(mosqueID string) *SettingsCacheEntry {
	var entry SettingsCacheEntry
	if !c.load(cacheKey(kindSettings, mosqueID, ""), &entry) || entry.MosqueID != mosqueID {
		return nil
	}
	return &entry
}

// SaveSettings writes the mosque settings to the cache.
func (c *Cache) SaveSettings(mosqueID string, s *mosque.Settings) error {
	return c.save(cacheKey(kindSettings, mosqueID, ""), SettingsCacheEntry{
		MosqueID: mosqueID,
		Settings: *s,
		CachedAt: time.Now(),
	})
}

func (c *Cache) load(key string, v any) bool {
	data, err := c.backend.Get(key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return false
	}
	return true
}

func (c *Cache) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return c.backend.Put(key, data)
}
