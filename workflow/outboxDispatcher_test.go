package workflow

import (
	"testing"
	"time"
)

func TestPublishBackoff(t *testing.T) {
	cases := []struct {
		name     string
		initial  time.Duration
		attempt  int
		expected time.Duration
	}{
		{"first attempt", 5 * time.Second, 1, 5 * time.Second},
		{"second attempt doubles", 5 * time.Second, 2, 10 * time.Second},
		{"third attempt doubles again", 5 * time.Second, 3, 20 * time.Second},
		{"seventh attempt", 5 * time.Second, 7, 320 * time.Second},
		{"eighth attempt caps", 5 * time.Second, 8, 10 * time.Minute},
		{"far past the cap stays capped", 5 * time.Second, 50, 10 * time.Minute},
		{"zero attempt falls back to initial", 5 * time.Second, 0, 5 * time.Second},
		{"larger initial caps sooner", time.Minute, 5, 10 * time.Minute},
	}

	for _, tc := range cases {
		if got := publishBackoff(tc.initial, tc.attempt); got != tc.expected {
			t.Fatalf("%s: publishBackoff(%s, %d) expected %s, got %s",
				tc.name, tc.initial, tc.attempt, tc.expected, got)
		}
	}
}
