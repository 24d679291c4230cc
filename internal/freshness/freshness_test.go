package freshness

import (
	"testing"
	"time"

	"github.com/smokyabdulrahman/mosque-times/internal/mosque"
)

type sdkTimestamp struct{ t time.Time }

func (s sdkTimestamp) ToDate() time.Time { return s.t }

type protoTimestamp struct{ t time.Time }

func (p *protoTimestamp) AsTime() time.Time { return p.t }

func TestNormalize(t *testing.T) {
	want := time.Date(2026, 2, 28, 10, 30, 0, 0, time.UTC)
	var nilTS *mosque.Timestamp
	var nilProto *protoTimestamp

	tests := []struct {
		name   string
		in     any
		wantOK bool
	}{
		{"time.Time", want, true},
		{"*time.Time", &want, true},
		{"mosque.Timestamp", *mosque.NewTimestamp(want), true},
		{"*mosque.Timestamp", mosque.NewTimestamp(want), true},
		{"ToDate method", sdkTimestamp{want}, true},
		{"AsTime method", &protoTimestamp{want}, true},
		{"seconds map", map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)}, true},
		{"underscored map", map[string]any{"_seconds": want.Unix(), "_nanoseconds": 0}, true},
		{"seconds only", map[string]any{"seconds": float64(want.Unix())}, true},
		{"nil", nil, false},
		{"nil *mosque.Timestamp", nilTS, false},
		{"unknown mosque.Timestamp", &mosque.Timestamp{}, false},
		{"nil receiver", nilProto, false},
		{"zero time", time.Time{}, false},
		{"string", "2026-02-28", false},
		{"int", 1772274600, false},
		{"map without seconds", map[string]any{"nanos": 1}, false},
		{"map with string seconds", map[string]any{"seconds": "1772274600"}, false},
		{"map with bad nanoseconds", map[string]any{"seconds": 1.0, "nanoseconds": "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Normalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(want) {
				t.Errorf("Normalize() = %v, want %v", got, want)
			}
		})
	}
}

func TestIsStale(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	now := time.Date(2026, 2, 28, 9, 0, 0, 0, ny)

	tests := []struct {
		name    string
		updated any
		want    bool
	}{
		{"absent", nil, false},
		{"today at midnight", time.Date(2026, 2, 28, 0, 0, 0, 0, ny), false},
		{"today later than now", time.Date(2026, 2, 28, 23, 59, 0, 0, ny), false},
		{"yesterday one minute before midnight", time.Date(2026, 2, 27, 23, 59, 0, 0, ny), true},
		{"last week", now.AddDate(0, 0, -7), true},
		{"tomorrow", now.AddDate(0, 0, 1), false},
		{"malformed", struct{ Seconds int }{1}, false},
		{"timestamp from yesterday", mosque.NewTimestamp(now.AddDate(0, 0, -1)), true},
		{"unknown timestamp", &mosque.Timestamp{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.updated, now, ny); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStale_UsesMosqueDay(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")

	// 03:00 UTC on the 28th is still the 27th in New York.
	updated := time.Date(2026, 2, 28, 3, 0, 0, 0, time.UTC)
	// 04:00 UTC on the 28th is 23:00 on the 27th in New York.
	now := time.Date(2026, 2, 28, 4, 0, 0, 0, time.UTC)

	if IsStale(updated, now, ny) {
		t.Error("same mosque-local day should not be stale")
	}

	// 06:00 UTC on the 28th is 01:00 on the 28th in New York.
	now = time.Date(2026, 2, 28, 6, 0, 0, 0, time.UTC)
	if !IsStale(updated, now, ny) {
		t.Error("previous mosque-local day should be stale")
	}
}

func TestStartOfDay(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	in := time.Date(2026, 2, 28, 2, 0, 0, 0, time.UTC)

	got := StartOfDay(in, ny)
	want := time.Date(2026, 2, 27, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}
