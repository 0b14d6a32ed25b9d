package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Config holds settings for the audio fetcher.
type Config struct {
	// OutputFormat is the target container, normally "mp3".
	OutputFormat string
	// Bitrate is passed to the ffmpeg postprocessor, e.g. "192k".
	Bitrate string
}

// Fetcher retrieves a video's audio via the yt-dlp binary and transcodes it
// to the configured format through yt-dlp's ffmpeg postprocessor.
type Fetcher struct {
	config *Config
}

// NewFetcher creates a new audio fetcher.
func NewFetcher(config *Config) *Fetcher {
	if config.OutputFormat == "" {
		config.OutputFormat = "mp3"
	}
	if config.Bitrate == "" {
		config.Bitrate = "192k"
	}
	return &Fetcher{config: config}
}

// CheckInstalled verifies the yt-dlp binary (and with it the conversion
// toolchain) is reachable. Called before any track processing begins so a
// missing tool aborts the whole run with an actionable message.
func CheckInstalled() error {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return &DownloadError{
			Message:  "yt-dlp not found in PATH; install it (pip install yt-dlp) before running",
			Original: err,
		}
	}
	return nil
}

// Fetch downloads the audio of a video and converts it to the target
// format. outputPath is the desired final path; the returned path is where
// the file actually landed (yt-dlp controls the final extension).
func (f *Fetcher) Fetch(ctx context.Context, videoID, outputPath string) (string, error) {
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", &DownloadError{
			Message:  fmt.Sprintf("Failed to create output directory: %s", outputDir),
			Original: err,
		}
	}

	// yt-dlp appends the extension itself.
	outputTemplate := outputPath
	if ext := filepath.Ext(outputTemplate); ext != "" {
		outputTemplate = strings.TrimSuffix(outputTemplate, ext)
	}
	outputTemplate = fmt.Sprintf("%s.%%(ext)s", outputTemplate)

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	args := []string{
		"--format", "bestaudio",
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--encoding", "UTF-8",
		"--extract-audio",
		"--audio-format", f.config.OutputFormat,
		"--audio-quality", f.config.Bitrate,
		"--output", outputTemplate,
		url,
	}

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if isRateLimited(string(output)) {
			return "", &DownloadError{
				Message:  "Rate limited by provider",
				Original: err,
			}
		}
		return "", &DownloadError{
			Message:  fmt.Sprintf("yt-dlp download failed: %v (output: %s)", err, string(output)),
			Original: err,
		}
	}

	downloadedPath := f.findDownloadedFile(outputPath)
	if downloadedPath == "" {
		return "", &DownloadError{
			Message: fmt.Sprintf("Downloaded file not found at %s", outputPath),
		}
	}
	return downloadedPath, nil
}

// isRateLimited reports whether yt-dlp output indicates an HTTP 429.
func isRateLimited(output string) bool {
	return strings.Contains(output, "429") ||
		strings.Contains(output, "rate limit") ||
		strings.Contains(output, "Too Many Requests")
}

// findDownloadedFile locates the file yt-dlp actually wrote, probing the
// configured format first and common audio extensions after.
func (f *Fetcher) findDownloadedFile(expectedPath string) string {
	if _, err := os.Stat(expectedPath); err == nil {
		return expectedPath
	}

	basePath := strings.TrimSuffix(expectedPath, filepath.Ext(expectedPath))
	extensions := []string{
		f.config.OutputFormat,
		"mp3", "m4a", "webm", "opus",
	}
	for _, ext := range extensions {
		candidate := fmt.Sprintf("%s.%s", basePath, ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	dir := filepath.Dir(expectedPath)
	baseName := filepath.Base(basePath)
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), baseName) {
				return filepath.Join(dir, entry.Name())
			}
		}
	}
	return ""
}
