package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/datasync"
	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
	"github.com/smokyabdulrahman/mosque-times/internal/schedule"
)

type staticProvider struct {
	snap datasync.Snapshot
}

func (p staticProvider) Current() datasync.Snapshot { return p.snap }

func fixed(adhan, iqama string) mosque.PrayerEntry {
	return mosque.PrayerEntry{Adhan: adhan, Policy: mosque.IqamaFixed, Iqama: iqama}
}

func testSnapshot(t *testing.T) datasync.Snapshot {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	return datasync.Snapshot{
		PrayerTimes: &mosque.PrayerTimeSet{
			Date:    "2026-02-28",
			Fajr:    fixed("5:15 AM", "5:30 AM"),
			Sunrise: "6:40 AM",
			Dhuhr:   fixed("12:15 PM", "12:30 PM"),
			Asr:     fixed("3:30 PM", "3:45 PM"),
			Maghrib: fixed("6:05 PM", "6:10 PM"),
			Isha:    fixed("7:15 PM", "7:30 PM"),
		},
		Jumuah: &mosque.JumuahTimeSet{Sessions: []mosque.JumuahSession{
			{Khutbah: "1:00 PM", Iqama: "1:30 PM", Label: "English"},
		}},
		Settings: &mosque.Settings{Name: "Masjid Al-Noor", Timezone: "America/New_York"},
		Location: ny,
		Date:     time.Date(2026, 2, 28, 0, 0, 0, 0, ny),
	}
}

func newTestServer(t *testing.T, snap datasync.Snapshot, now time.Time) *Server {
	t.Helper()
	s := New(staticProvider{snap}, schedule.TimeFormat12h)
	s.now = func() time.Time { return now }
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func atNY(t *testing.T, hour, min int) time.Time {
	t.Helper()
	ny, _ := time.LoadLocation("America/New_York")
	return time.Date(2026, 2, 28, hour, min, 0, 0, ny)
}

func TestHealth(t *testing.T) {
	degraded := testSnapshot(t)
	degraded.Err = errors.New("prayer times: timeout")
	degraded.FromCache = true

	tests := []struct {
		name      string
		snap      datasync.Snapshot
		want      string
		wantError string
	}{
		{"ok", testSnapshot(t), "ok", ""},
		{"degraded", degraded, "degraded", "timeout"},
		{"loading", datasync.Snapshot{Loading: true}, "loading", ""},
		{"unavailable", datasync.Snapshot{Err: errors.New("settings: refused")}, "unavailable", "refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, newTestServer(t, tt.snap, atNY(t, 13, 0)), "/health")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			var got healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.want {
				t.Errorf("status = %q, want %q", got.Status, tt.want)
			}
			if !strings.Contains(got.Error, tt.wantError) || (tt.wantError == "") != (got.Error == "") {
				t.Errorf("error = %q, want %q", got.Error, tt.wantError)
			}
			if got.FromCache != tt.snap.FromCache {
				t.Errorf("from_cache = %v, want %v", got.FromCache, tt.snap.FromCache)
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	rr := get(t, newTestServer(t, testSnapshot(t), atNY(t, 13, 0)), "/api/schedule")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got ScheduleView
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Mosque != "Masjid Al-Noor" || got.Date != "2026-02-28" || got.Timezone != "America/New_York" {
		t.Errorf("header fields = %+v", got)
	}
	if len(got.Prayers) != 5 {
		t.Fatalf("len(prayers) = %d, want 5", len(got.Prayers))
	}
	if got.Current != "Dhuhr" {
		t.Errorf("current = %q, want Dhuhr", got.Current)
	}
	if got.Next == nil || got.Next.Name != "Asr" || got.Next.MinutesRemaining != 165 {
		t.Fatalf("next = %+v, want Asr in 165", got.Next)
	}
	if got.Next.Countdown != "2 Hours 45 Minutes" {
		t.Errorf("countdown = %q", got.Next.Countdown)
	}
	if !got.Prayers[2].Next || got.Prayers[1].Next {
		t.Errorf("next flag misplaced: %+v", got.Prayers)
	}
}

func TestNext_Rollover(t *testing.T) {
	rr := get(t, newTestServer(t, testSnapshot(t), atNY(t, 23, 0)), "/api/next")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got NextView
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Fajr" || got.MinutesRemaining != 390 || !got.Tomorrow {
		t.Errorf("next = %+v, want tomorrow's Fajr in 390", got)
	}
}

func TestNext_Unreadable(t *testing.T) {
	snap := testSnapshot(t)
	snap.PrayerTimes = &mosque.PrayerTimeSet{}

	rr := get(t, newTestServer(t, snap, atNY(t, 13, 0)), "/api/next")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestNoData(t *testing.T) {
	snap := datasync.Snapshot{Loading: true}
	s := newTestServer(t, snap, atNY(t, 13, 0))

	for _, path := range []string{"/api/schedule", "/api/next", "/api/jumuah", "/api/mosque"} {
		t.Run(path, func(t *testing.T) {
			rr := get(t, s, path)
			if rr.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "still loading") {
				t.Errorf("body = %s", rr.Body.String())
			}
		})
	}
}

func TestJumuahAndMosque(t *testing.T) {
	snap := testSnapshot(t)
	updated := mosque.NewTimestamp(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	snap.Settings.LastUpdated = updated
	s := newTestServer(t, snap, atNY(t, 13, 0))

	rr := get(t, s, "/api/jumuah")
	var j JumuahView
	if err := json.NewDecoder(rr.Body).Decode(&j); err != nil {
		t.Fatal(err)
	}
	if len(j.Sessions) != 1 || j.Sessions[0].Label != "English" || j.Stale {
		t.Errorf("jumuah = %+v", j)
	}

	rr = get(t, s, "/api/mosque")
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m["name"] != "Masjid Al-Noor" || m["timezone"] != "America/New_York" || m["stale"] != true {
		t.Errorf("mosque = %v", m)
	}
}

func TestUnknownRoute(t *testing.T) {
	rr := get(t, newTestServer(t, testSnapshot(t), atNY(t, 13, 0)), "/api/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
