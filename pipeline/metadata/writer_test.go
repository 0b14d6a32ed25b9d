package metadata

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

// fakeAudioPayload stands in for MP3 frames; the tag writer must never
// touch it. Longer than an ID3v2 tag header so the writer's open path
// treats the file as taggable audio.
var fakeAudioPayload = []byte{
	0xFF, 0xFB, 0x90, 0x64, 0x00, 0x01, 0x02, 0x03,
	0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B,
}

func createTestMP3(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, fakeAudioPayload, 0644); err != nil {
		t.Fatalf("failed to create test MP3: %v", err)
	}
	return path
}

func TestWriter_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, "track.mp3")

	w := NewWriter()
	in := Tags{
		Title:       "Let It Be",
		Artist:      "The Beatles",
		Album:       "Road Trip Mix",
		TrackNumber: 7,
		Genre:       "Rock",
	}
	if err := w.Write(context.Background(), path, in); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if got.Title != in.Title {
		t.Errorf("Title = %q, want %q", got.Title, in.Title)
	}
	if got.Artist != in.Artist {
		t.Errorf("Artist = %q, want %q", got.Artist, in.Artist)
	}
	if got.Album != in.Album {
		t.Errorf("Album = %q, want %q", got.Album, in.Album)
	}
	if got.TrackNumber != in.TrackNumber {
		t.Errorf("TrackNumber = %d, want %d", got.TrackNumber, in.TrackNumber)
	}
	if got.Genre != in.Genre {
		t.Errorf("Genre = %q, want %q", got.Genre, in.Genre)
	}
}

func TestWriter_PinsVersionAndEncoding(t *testing.T) {
	// Head units only parse ID3v2.3 tags with UTF-16 text frames; the
	// written file must carry exactly that, never the library defaults.
	dir := t.TempDir()
	path := createTestMP3(t, dir, "track.mp3")

	w := NewWriter()
	if err := w.Write(context.Background(), path, Tags{Title: "Let It Be", Artist: "The Beatles"}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("failed to reopen written file: %v", err)
	}
	defer tag.Close()

	if tag.Version() != 3 {
		t.Errorf("tag version = %d, want 3", tag.Version())
	}
	for _, id := range []string{"TIT2", "TPE1"} {
		frame := tag.GetTextFrame(id)
		if frame.Text == "" {
			t.Errorf("frame %s missing from written tag", id)
			continue
		}
		if frame.Encoding.Key != id3v2.EncodingUTF16.Key {
			t.Errorf("frame %s encoding = %s, want %s", id, frame.Encoding.Name, id3v2.EncodingUTF16.Name)
		}
	}
}

func TestWriter_PreservesAudioPayload(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, "track.mp3")

	w := NewWriter()
	if err := w.Write(context.Background(), path, Tags{Title: "T", Artist: "A"}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back file: %v", err)
	}
	if !bytes.HasSuffix(data, fakeAudioPayload) {
		t.Error("audio payload was truncated or corrupted by the tag write")
	}
}

func TestWriter_NonEmptyInvariant(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, "07. Mystery Song.mp3")

	w := NewWriter()
	if err := w.Write(context.Background(), path, Tags{}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if got.Title != "07. Mystery Song" {
		t.Errorf("empty title should fall back to the filename stem, got %q", got.Title)
	}
	if got.Artist != UnknownArtist {
		t.Errorf("empty artist should fall back to %q, got %q", UnknownArtist, got.Artist)
	}
}

func TestWriter_DefaultGenre(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, "track.mp3")

	w := NewWriter()
	if err := w.Write(context.Background(), path, Tags{Title: "T", Artist: "A"}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if got.Genre != DefaultGenre {
		t.Errorf("Genre = %q, want default %q", got.Genre, DefaultGenre)
	}
}

func TestWriter_RewriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, "track.mp3")

	w := NewWriter()
	tags := Tags{Title: "Let It Be", Artist: "The Beatles", Album: "Mix", TrackNumber: 1}
	for i := 0; i < 3; i++ {
		if err := w.Write(context.Background(), path, tags); err != nil {
			t.Fatalf("Write() pass %d failed: %v", i, err)
		}
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if got.Title != tags.Title || got.Artist != tags.Artist {
		t.Errorf("repeated writes changed the tags: %+v", got)
	}
}

func TestWriter_MissingFile(t *testing.T) {
	w := NewWriter()
	err := w.Write(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"), Tags{Title: "T", Artist: "A"})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := err.(*TagError); !ok {
		t.Errorf("expected *TagError, got %T", err)
	}
}

func TestWriter_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := createTestMP3(t, dir, "track.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWriter()
	if err := w.Write(ctx, path, Tags{Title: "T", Artist: "A"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
