package datasync

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/cache"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

type fakeSource struct {
	settings *mosque.Settings
	times    *mosque.PrayerTimeSet
	jumuah   *mosque.JumuahTimeSet
	err      error

	calls     int
	askedDate time.Time
}

func (f *fakeSource) FetchPrayerTimes(date time.Time) (*mosque.PrayerTimeSet, error) {
	f.calls++
	f.askedDate = date
	if f.err != nil {
		return nil, f.err
	}
	return f.times, nil
}

func (f *fakeSource) FetchJumuah() (*mosque.JumuahTimeSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.jumuah, nil
}

func (f *fakeSource) FetchSettings() (*mosque.Settings, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		settings: &mosque.Settings{Name: "Masjid Al-Noor", Timezone: "America/Chicago"},
		times: &mosque.PrayerTimeSet{
			Date: "2026-02-28",
			Fajr: mosque.PrayerEntry{Adhan: "5:30 AM", Policy: mosque.IqamaOffset, Offset: 20},
		},
		jumuah: &mosque.JumuahTimeSet{Sessions: []mosque.JumuahSession{{Khutbah: "1:00 PM"}}},
	}
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// 2026-02-28 03:00 UTC is still the 27th in Chicago.
var testNow = time.Date(2026, 2, 28, 3, 0, 0, 0, time.UTC)

func TestLoad_RemoteSuccess(t *testing.T) {
	src := newFakeSource()
	s := New(src, newTestCache(t), Options{MosqueID: "m1", Refresh: time.Hour})
	s.now = func() time.Time { return testNow }

	snap := s.Load()
	if snap.Err != nil {
		t.Fatalf("unexpected error: %v", snap.Err)
	}
	if snap.FromCache {
		t.Error("FromCache should be false for a remote load")
	}
	if snap.Settings == nil || snap.PrayerTimes == nil || snap.Jumuah == nil {
		t.Fatalf("missing documents: %+v", snap)
	}
	if snap.Location.String() != "America/Chicago" {
		t.Errorf("Location = %s, want America/Chicago", snap.Location)
	}
	if got := src.askedDate.Format("2006-01-02"); got != "2026-02-27" {
		t.Errorf("prayer times requested for %s, want mosque-local 2026-02-27", got)
	}
	if snap.Loading || snap.Updating {
		t.Error("completed snapshot should not be loading or updating")
	}
}

func TestLoad_FreshCacheSkipsRemote(t *testing.T) {
	src := newFakeSource()
	c := newTestCache(t)
	s := New(src, c, Options{MosqueID: "m1", Refresh: time.Hour})
	s.now = func() time.Time { return testNow }

	s.Load()
	calls := src.calls

	s.now = time.Now // cache entries were written with the real clock
	src.askedDate = time.Time{}
	snap := s.LoadDate(time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC))
	if src.calls != calls {
		t.Errorf("remote called %d more times, want 0", src.calls-calls)
	}
	if !snap.FromCache {
		t.Error("FromCache should be true when served from cache")
	}
	if snap.PrayerTimes == nil {
		t.Error("cached prayer times missing")
	}
}

func TestLoad_RemoteFailureServesCache(t *testing.T) {
	src := newFakeSource()
	c := newTestCache(t)
	s := New(src, c, Options{MosqueID: "m1"})
	s.now = func() time.Time { return testNow }

	s.Load()

	src.err = errors.New("network unreachable")
	snap := s.Load()
	if snap.Err == nil {
		t.Fatal("expected error to be reported")
	}
	if !snap.FromCache {
		t.Error("FromCache should be true")
	}
	if snap.Updating {
		t.Error("Updating should be false after a failed refresh")
	}
	if snap.Settings == nil || snap.Settings.Name != "Masjid Al-Noor" {
		t.Errorf("cached settings not served: %+v", snap.Settings)
	}
	if snap.PrayerTimes == nil {
		t.Error("cached prayer times not served")
	}
}

func TestLoad_RemoteFailureNoCache(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("boom")
	s := New(src, nil, Options{MosqueID: "m1"})

	snap := s.Load()
	if snap.Err == nil {
		t.Fatal("expected error")
	}
	if snap.HasData() {
		t.Errorf("expected empty state, got %+v", snap)
	}
	if snap.Location.String() != mosque.DefaultTimezone {
		t.Errorf("Location = %s, want fallback %s", snap.Location, mosque.DefaultTimezone)
	}
}

func TestLoad_TimezoneOverride(t *testing.T) {
	src := newFakeSource()
	s := New(src, nil, Options{MosqueID: "m1", Timezone: "Europe/London"})

	snap := s.Load()
	if snap.Location.String() != "Europe/London" {
		t.Errorf("Location = %s, want Europe/London", snap.Location)
	}
}

func TestCurrent(t *testing.T) {
	s := New(newFakeSource(), nil, Options{MosqueID: "m1"})
	if !s.Current().Loading {
		t.Error("initial snapshot should be loading")
	}
	s.Load()
	cur := s.Current()
	if cur.Loading || cur.Settings == nil {
		t.Errorf("Current() after Load = %+v", cur)
	}
}

// gatedSource holds every settings fetch until the test releases it.
type gatedSource struct {
	*fakeSource
	gate    chan struct{}
	entered atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (g *gatedSource) FetchSettings() (*mosque.Settings, error) {
	g.entered.Add(1)
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		m := g.maxSeen.Load()
		if n <= m || g.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	<-g.gate
	return g.settings, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoad_Serialized(t *testing.T) {
	g := &gatedSource{fakeSource: newFakeSource(), gate: make(chan struct{})}
	s := New(g, nil, Options{MosqueID: "m1"})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Load()
		}()
	}

	waitFor(t, func() bool { return g.entered.Load() == 1 })
	g.gate <- struct{}{}

	// The second load starts only after the first has published its snapshot.
	waitFor(t, func() bool { return g.entered.Load() == 2 })
	if !s.Current().Updating {
		t.Error("Updating = false while a load is in flight")
	}
	g.gate <- struct{}{}
	wg.Wait()

	if got := g.maxSeen.Load(); got != 1 {
		t.Errorf("concurrent fetches = %d, want 1", got)
	}
	if s.Current().Updating {
		t.Error("Updating = true after every load finished")
	}
}

func TestSnapshot_IsToday(t *testing.T) {
	chicago, _ := time.LoadLocation("America/Chicago")
	snap := Snapshot{Location: chicago, Date: time.Date(2026, 2, 28, 0, 0, 0, 0, chicago)}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"same day", time.Date(2026, 2, 28, 13, 0, 0, 0, chicago), true},
		{"utc already tomorrow", time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), true},
		{"next day", time.Date(2026, 3, 1, 0, 30, 0, 0, chicago), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snap.IsToday(tt.now); got != tt.want {
				t.Errorf("IsToday() = %v, want %v", got, tt.want)
			}
		})
	}

	if !(Snapshot{}).IsToday(time.Now()) {
		t.Error("undated snapshot should count as today")
	}
}
