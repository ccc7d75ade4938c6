package dashboard

import (
	"reflect"
	"testing"
	"time"

	"water_tank/internal/models"
)

func TestIsDead(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settings := &models.Settings{MaxSensorNoSignalTime: 60}

	cases := []struct {
		name     string
		elapsed  time.Duration
		settings *models.Settings
		want     bool
	}{
		{"over_threshold", 61 * time.Second, settings, true},
		{"under_threshold", 59 * time.Second, settings, false},
		{"exact_boundary_is_alive", 60 * time.Second, settings, false},
		{"one_ms_over", 60*time.Second + time.Millisecond, settings, true},
		{"sub_ms_over_is_alive", 60*time.Second + 500*time.Microsecond, settings, false},
		{"settings_not_loaded", 10 * time.Hour, nil, false},
		{"future_timestamp", -5 * time.Second, settings, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsDead(base, tc.settings, base.Add(tc.elapsed))
			if got != tc.want {
				t.Fatalf("IsDead(elapsed=%v) = %v, want %v", tc.elapsed, got, tc.want)
			}
		})
	}
}

func TestElapsedLabel(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00m 00s ago"},
		{999, "00m 00s ago"},
		{5000, "00m 05s ago"},
		{61_000, "01m 01s ago"},
		{3_600_000, "01h 00m 00s ago"},
		{3_700_000, "01h 01m 40s ago"},
		{86_400_000, "1d 00m 00s ago"},
		{90_000_000, "1d 01h 00m 00s ago"},
		{90_061_000, "1d 01h 01m 01s ago"},
		{12 * 86_400_000, "12d 00m 00s ago"},
	}
	for _, tc := range cases {
		got := ElapsedLabel(base, base.Add(time.Duration(tc.ms)*time.Millisecond))
		if got != tc.want {
			t.Fatalf("ElapsedLabel(%dms) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestWholeValues(t *testing.T) {
	got := wholeValues(90_061_250, elapsedChain)
	want := []int64{250, 1, 1, 1, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wholeValues = %v, want %v", got, want)
	}
}
