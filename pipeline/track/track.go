package track

import "strings"

// Descriptor describes a single playlist entry as fetched from the
// streaming service. Position is 1-based playlist order.
type Descriptor struct {
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
	Position        int
}

// Key returns the stable identity for a track: the (title, artist) pair,
// case-insensitive and whitespace-normalized. Two playlist entries with the
// same key are the same track for download-tracking purposes.
func Key(title, artist string) string {
	return normalize(title) + "|" + normalize(artist)
}

// Key returns the descriptor's identity key.
func (d Descriptor) Key() string {
	return Key(d.Title, d.Artist)
}

// normalize lowercases and collapses all whitespace runs to single spaces.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
