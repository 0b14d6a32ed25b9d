package spotify

import (
	"errors"
	"testing"

	"github.com/sv4u/spotigo"
)

func TestDescriptorFromItem(t *testing.T) {
	tests := []struct {
		name      string
		item      spotigo.PlaylistTrack
		wantOK    bool
		wantTitle string
	}{
		{
			"full track by value",
			spotigo.PlaylistTrack{Track: spotigo.Track{Name: "Let It Be", DurationMs: 243000}},
			true,
			"Let It Be",
		},
		{
			"full track by pointer",
			spotigo.PlaylistTrack{Track: &spotigo.Track{Name: "Let It Be", DurationMs: 243000}},
			true,
			"Let It Be",
		},
		{
			"simplified track",
			spotigo.PlaylistTrack{Track: spotigo.SimplifiedTrack{Name: "Yesterday", DurationMs: 125000}},
			true,
			"Yesterday",
		},
		{
			"local track skipped",
			spotigo.PlaylistTrack{Track: spotigo.Track{Name: "Home Recording", IsLocal: true}},
			false,
			"",
		},
		{
			"nil pointer skipped",
			spotigo.PlaylistTrack{Track: (*spotigo.Track)(nil)},
			false,
			"",
		},
		{
			"untitled track skipped",
			spotigo.PlaylistTrack{Track: spotigo.Track{DurationMs: 100000}},
			false,
			"",
		},
		{
			"missing track skipped",
			spotigo.PlaylistTrack{},
			false,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, ok := descriptorFromItem(tt.item)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if desc.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", desc.Title, tt.wantTitle)
			}
		})
	}
}

func TestDescriptorFromItem_DurationConversion(t *testing.T) {
	desc, ok := descriptorFromItem(spotigo.PlaylistTrack{
		Track: spotigo.Track{Name: "T", DurationMs: 243999},
	})
	if !ok {
		t.Fatal("expected a descriptor")
	}
	if desc.DurationSeconds != 243 {
		t.Errorf("DurationSeconds = %d, want 243", desc.DurationSeconds)
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429 in message", errors.New("HTTP 429 returned"), true},
		{"rate limit phrase", errors.New("spotify rate limit exceeded"), true},
		{"too many requests", errors.New("Too Many Requests"), true},
		{"ordinary error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRateLimitError(tt.err); got != tt.want {
				t.Errorf("isRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRateLimitError_Unwrap(t *testing.T) {
	inner := errors.New("429")
	err := &RateLimitError{RetryAfter: 3, Original: inner}
	if !errors.Is(err, inner) {
		t.Error("RateLimitError should unwrap to the original error")
	}
}
