package shared

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-06-10", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), false},
		{"2025-06-10T08:30:00Z", time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC), false},
		{"", time.Time{}, false},
		{"10/06/2025", time.Time{}, true},
		{"next tuesday", time.Time{}, true},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
