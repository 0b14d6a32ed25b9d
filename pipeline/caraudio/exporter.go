package caraudio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cartape/cartape/pipeline/metadata"
)

// Summary reports what an export pass did.
type Summary struct {
	Exported int
	Skipped  int
	Failed   int
}

// Exporter copies tagged MP3s into a destination album folder using
// simplified names the target device can display, re-tagging each copy.
// Source files are never modified.
type Exporter struct {
	writer *metadata.Writer
}

// NewExporter creates a new car-audio exporter.
func NewExporter(writer *metadata.Writer) *Exporter {
	return &Exporter{writer: writer}
}

// Export processes every MP3 under sourceDir into an album folder named
// after sourceDir beneath destRoot. Re-running on an unchanged source set
// derives the same destination names and skips files already exported.
func (e *Exporter) Export(ctx context.Context, sourceDir, destRoot string) (*Summary, error) {
	sources, err := listMP3s(sourceDir)
	if err != nil {
		return nil, &ExportError{
			Message:  fmt.Sprintf("Failed to read source directory: %s", sourceDir),
			Original: err,
		}
	}
	if len(sources) == 0 {
		log.Printf("WARN: car_export_empty source=%s", sourceDir)
		return &Summary{}, nil
	}

	albumDir := filepath.Join(destRoot, filepath.Base(sourceDir))
	if err := os.MkdirAll(albumDir, 0755); err != nil {
		return nil, &ExportError{
			Message:  fmt.Sprintf("Failed to create album directory: %s", albumDir),
			Original: err,
		}
	}

	summary := &Summary{}
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return summary, &ExportError{Message: "Export cancelled", Original: err}
		}

		if err := e.exportOne(ctx, src, albumDir, i+1, summary); err != nil {
			log.Printf("WARN: car_export_failed file=%s error=%v", filepath.Base(src), err)
			summary.Failed++
		}
	}

	log.Printf("INFO: car_export_done album=%s exported=%d skipped=%d failed=%d",
		filepath.Base(albumDir), summary.Exported, summary.Skipped, summary.Failed)
	return summary, nil
}

func (e *Exporter) exportOne(ctx context.Context, src, albumDir string, index int, summary *Summary) error {
	tags, err := metadata.Read(src)
	if err != nil {
		tags = metadata.Tags{}
	}
	if strings.TrimSpace(tags.Title) == "" {
		base := filepath.Base(src)
		tags.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if tags.Album == "" {
		tags.Album = filepath.Base(albumDir)
	}
	tags.TrackNumber = index

	name := fmt.Sprintf("%02d - %s", index, sanitizeName(tags.Title))
	dest, exported := resolveDestination(filepath.Join(albumDir, name+".mp3"), tags.Title)
	if exported {
		summary.Skipped++
		return nil
	}

	if err := copyFile(src, dest); err != nil {
		return &ExportError{
			Message:  fmt.Sprintf("Failed to copy to: %s", dest),
			Original: err,
		}
	}
	if err := e.writer.Write(ctx, dest, tags); err != nil {
		return err
	}

	summary.Exported++
	return nil
}

// resolveDestination walks the derived name and its numeric-suffix
// variants. It returns the first free path, or reports that an existing
// file already carries the wanted title (a prior export to skip).
func resolveDestination(path, title string) (string, bool) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, false
		}
		if existing, err := metadata.Read(candidate); err == nil && existing.Title == title {
			return candidate, true
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

func listMP3s(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
