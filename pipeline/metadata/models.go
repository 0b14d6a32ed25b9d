package metadata

// DefaultGenre is written when a track's genre is unknown.
const DefaultGenre = "World Music"

// UnknownArtist is the artist fallback that keeps the non-empty tag
// invariant when a descriptor arrives without one.
const UnknownArtist = "Unknown Artist"

// Tags is the tag block written into an audio file.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	Genre       string
}
