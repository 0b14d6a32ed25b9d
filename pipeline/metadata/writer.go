package metadata

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Writer writes device-compatible tag blocks into MP3 files.
//
// The head unit this targets only parses ID3v2.3 with UTF-16 text frames;
// both are pinned explicitly on every write rather than relying on library
// defaults (which are v2.4/UTF-8).
type Writer struct{}

// NewWriter creates a new tag writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write rewrites the file's tag block in place. The audio payload is left
// untouched. After a successful write the tag always carries a non-empty
// title and artist: empty inputs are substituted before writing.
func (w *Writer) Write(ctx context.Context, filePath string, tags Tags) error {
	if err := ctx.Err(); err != nil {
		return &TagError{
			Message:  fmt.Sprintf("Context cancelled: %v", err),
			Original: err,
		}
	}

	if _, err := os.Stat(filePath); err != nil {
		return &TagError{
			Message:  fmt.Sprintf("File not found: %s", filePath),
			Original: err,
		}
	}

	tags = withFallbacks(filePath, tags)

	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		// No parseable tag; start a fresh one.
		tag, err = id3v2.Open(filePath, id3v2.Options{Parse: false})
		if err != nil {
			return &TagError{
				Message:  fmt.Sprintf("Failed to open MP3 file: %s", filePath),
				Original: err,
			}
		}
	}
	defer tag.Close()

	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingUTF16)

	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}
	if tags.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("TRCK"), id3v2.EncodingUTF16, strconv.Itoa(tags.TrackNumber))
	}
	genre := tags.Genre
	if genre == "" {
		genre = DefaultGenre
	}
	tag.SetGenre(genre)

	if err := tag.Save(); err != nil {
		log.Printf("ERROR: tag_save_failed file=%s error=%v", filePath, err)
		return &TagError{
			Message:  "Failed to save MP3 tags",
			Original: err,
		}
	}
	return nil
}

// Read returns the tag block currently embedded in the file.
func Read(filePath string) (Tags, error) {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}, &TagError{
			Message:  fmt.Sprintf("Failed to read tags from: %s", filePath),
			Original: err,
		}
	}
	defer tag.Close()

	tags := Tags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
		Genre:  tag.Genre(),
	}
	if trck := tag.GetTextFrame(tag.CommonID("TRCK")).Text; trck != "" {
		if n, err := strconv.Atoi(trck); err == nil {
			tags.TrackNumber = n
		}
	}
	return tags, nil
}

// withFallbacks enforces the non-empty title/artist invariant.
func withFallbacks(filePath string, tags Tags) Tags {
	if strings.TrimSpace(tags.Title) == "" {
		base := filepath.Base(filePath)
		tags.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if strings.TrimSpace(tags.Artist) == "" {
		tags.Artist = UnknownArtist
	}
	return tags
}
