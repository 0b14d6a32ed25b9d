// Package pipeline wires the playlist source, match selector, audio
// fetcher, tag writer, and car-audio exporter into one batch run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cartape/cartape/pipeline/caraudio"
	"github.com/cartape/cartape/pipeline/cleaner"
	"github.com/cartape/cartape/pipeline/config"
	"github.com/cartape/cartape/pipeline/logging"
	"github.com/cartape/cartape/pipeline/match"
	"github.com/cartape/cartape/pipeline/metadata"
	"github.com/cartape/cartape/pipeline/spotify"
	"github.com/cartape/cartape/pipeline/track"
	"github.com/cartape/cartape/pipeline/tracker"
)

// PlaylistSource resolves a playlist identifier to its track list.
type PlaylistSource interface {
	FetchPlaylist(ctx context.Context, playlistIDOrURL string) (*spotify.Playlist, error)
}

// Matcher selects the best video candidate for a track.
type Matcher interface {
	Select(ctx context.Context, d track.Descriptor) (*match.Candidate, error)
}

// Fetcher downloads and converts a video's audio.
type Fetcher interface {
	Fetch(ctx context.Context, videoID, outputPath string) (string, error)
}

// Tagger writes the tag block into a downloaded file.
type Tagger interface {
	Write(ctx context.Context, filePath string, tags metadata.Tags) error
}

// MetadataCleaner optionally normalizes raw metadata before tagging.
type MetadataCleaner interface {
	Clean(ctx context.Context, title, artist, album string) cleaner.Result
}

// Summary reports the outcome of one playlist run.
type Summary struct {
	Total          int
	Downloaded     int
	Skipped        int
	FailedMatch    int
	FailedDownload int
}

// Service orchestrates a full playlist download run.
type Service struct {
	cfg     *config.Config
	source  PlaylistSource
	matcher Matcher
	fetcher Fetcher
	tagger  Tagger
	cleaner MetadataCleaner // nil when disabled
	logger  *logging.Logger // nil when file logging is off
}

// NewService creates the batch orchestrator. cleaner and logger may be nil.
func NewService(cfg *config.Config, source PlaylistSource, matcher Matcher, fetcher Fetcher, tagger Tagger, mc MetadataCleaner, logger *logging.Logger) *Service {
	return &Service{
		cfg:     cfg,
		source:  source,
		matcher: matcher,
		fetcher: fetcher,
		tagger:  tagger,
		cleaner: mc,
		logger:  logger,
	}
}

// NewRunID returns a short unique identifier for a batch run.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// ProcessPlaylist downloads every not-yet-downloaded track of the playlist
// into a folder named after it, then refreshes the car-audio export.
// Per-track failures are counted, logged, and never abort the batch.
func (s *Service) ProcessPlaylist(ctx context.Context, playlistIDOrURL string) (*Summary, error) {
	playlist, err := s.fetchPlaylistWithRetry(ctx, playlistIDOrURL)
	if err != nil {
		return nil, err
	}

	playlistDir := filepath.Join(s.cfg.Download.Output, folderName(playlist.Name))
	trk, err := tracker.Load(playlistDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(playlist.Tracks)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Download.Threads)

	s.logInfo(fmt.Sprintf("playlist_run_started playlist=%s tracks=%d threads=%d",
		playlist.Name, len(playlist.Tracks), s.cfg.Download.Threads))

	for _, d := range playlist.Tracks {
		if err := ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		go func(d track.Descriptor) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := s.processTrack(ctx, trk, playlistDir, playlist.Name, d)
			mu.Lock()
			switch outcome {
			case outcomeDownloaded:
				summary.Downloaded++
			case outcomeSkipped:
				summary.Skipped++
			case outcomeNoMatch:
				summary.FailedMatch++
			case outcomeFailed:
				summary.FailedDownload++
			}
			mu.Unlock()
		}(d)
	}
	wg.Wait()

	s.logInfo(fmt.Sprintf("playlist_run_finished playlist=%s downloaded=%d skipped=%d failed_match=%d failed_download=%d",
		playlist.Name, summary.Downloaded, summary.Skipped, summary.FailedMatch, summary.FailedDownload))

	if s.cfg.CarAudio.Enabled {
		exporter := caraudio.NewExporter(metadata.NewWriter())
		if _, err := exporter.Export(ctx, playlistDir, s.cfg.CarAudio.Output); err != nil {
			s.logError("car_export_failed", err)
		}
	}

	return summary, ctx.Err()
}

type trackOutcome int

const (
	outcomeDownloaded trackOutcome = iota
	outcomeSkipped
	outcomeNoMatch
	outcomeFailed
)

func (s *Service) processTrack(ctx context.Context, trk *tracker.Tracker, playlistDir, playlistName string, d track.Descriptor) trackOutcome {
	label := fmt.Sprintf("%s - %s", d.Artist, d.Title)
	key := d.Key()

	if trk.Has(key) {
		log.Printf("INFO: track_already_downloaded track=%s artist=%s", d.Title, d.Artist)
		return outcomeSkipped
	}

	candidate, err := s.selectWithRetry(ctx, d)
	if err != nil {
		var noMatch *match.NoMatchError
		if errors.As(err, &noMatch) {
			log.Printf("WARN: track_no_match track=%s artist=%s", d.Title, d.Artist)
			s.logWarn(label, "no acceptable video match")
			return outcomeNoMatch
		}
		log.Printf("ERROR: track_match_failed track=%s artist=%s error=%v", d.Title, d.Artist, err)
		s.logErrorTrack(label, "match step failed", err)
		return outcomeFailed
	}

	outputPath := collisionFreePath(filepath.Join(playlistDir, trackFileName(d)))
	filePath, err := s.fetchWithRetry(ctx, candidate.VideoID, outputPath)
	if err != nil {
		log.Printf("ERROR: track_download_failed track=%s artist=%s video_id=%s error=%v",
			d.Title, d.Artist, candidate.VideoID, err)
		s.logErrorTrack(label, "download failed", err)
		return outcomeFailed
	}

	tags := metadata.Tags{
		Title:       d.Title,
		Artist:      d.Artist,
		Album:       d.Album,
		TrackNumber: d.Position,
	}
	if tags.Album == "" {
		tags.Album = playlistName
	}
	if s.cleaner != nil {
		cleaned := s.cleaner.Clean(ctx, tags.Title, tags.Artist, tags.Album)
		tags.Title = cleaned.Title
		tags.Artist = cleaned.Artist
		tags.Album = cleaned.Album
		tags.Genre = cleaned.Genre
	}

	// Tag failures are non-fatal: the audio is on disk and usable.
	if err := s.tagger.Write(ctx, filePath, tags); err != nil {
		log.Printf("WARN: track_tag_failed track=%s artist=%s error=%v", d.Title, d.Artist, err)
		s.logErrorTrack(label, "tag write failed", err)
	}

	rec := tracker.Record{
		Title:       d.Title,
		Artist:      d.Artist,
		SearchQuery: fmt.Sprintf("%s %s audio", d.Artist, d.Title),
	}
	if err := trk.MarkComplete(key, filePath, rec); err != nil {
		log.Printf("WARN: tracking_mark_failed track=%s artist=%s error=%v", d.Title, d.Artist, err)
	}

	log.Printf("INFO: track_downloaded track=%s artist=%s path=%s", d.Title, d.Artist, filePath)
	s.logInfoTrack(label, "downloaded")
	return outcomeDownloaded
}

// fetchPlaylistWithRetry retries the playlist fetch, honoring the
// provider's Retry-After on rate limits.
func (s *Service) fetchPlaylistWithRetry(ctx context.Context, playlistIDOrURL string) (*spotify.Playlist, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Download.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		playlist, err := s.source.FetchPlaylist(ctx, playlistIDOrURL)
		if err == nil {
			return playlist, nil
		}

		lastErr = err
		if attempt < s.cfg.Download.MaxRetries {
			s.backoff(ctx, attempt, playlistIDOrURL, err)
		}
	}
	return nil, lastErr
}

// selectWithRetry retries transient match failures. A NoMatchError is
// final: searching again will not produce new uploads.
func (s *Service) selectWithRetry(ctx context.Context, d track.Descriptor) (*match.Candidate, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Download.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, err := s.matcher.Select(ctx, d)
		if err == nil {
			return candidate, nil
		}
		var noMatch *match.NoMatchError
		if errors.As(err, &noMatch) {
			return nil, err
		}

		lastErr = err
		if attempt < s.cfg.Download.MaxRetries {
			s.backoff(ctx, attempt, d.Title, err)
		}
	}
	return nil, lastErr
}

func (s *Service) fetchWithRetry(ctx context.Context, videoID, outputPath string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Download.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		filePath, err := s.fetcher.Fetch(ctx, videoID, outputPath)
		if err == nil {
			return filePath, nil
		}

		lastErr = err
		if attempt < s.cfg.Download.MaxRetries {
			s.backoff(ctx, attempt, videoID, err)
		}
	}
	return "", lastErr
}

func (s *Service) backoff(ctx context.Context, attempt int, subject string, err error) {
	waitTime := retryWait(attempt, err)
	log.Printf("INFO: retry attempt=%d max_retries=%d subject=%s error=%v wait_seconds=%d",
		attempt, s.cfg.Download.MaxRetries, subject, err, int(waitTime.Seconds()))

	select {
	case <-ctx.Done():
	case <-time.After(waitTime):
	}
}

// retryWait is exponential in the attempt number, except when the provider
// stated a Retry-After: then that wins, padded by a safety margin.
func retryWait(attempt int, err error) time.Duration {
	var rateLimitErr *spotify.RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
		return time.Duration(rateLimitErr.RetryAfter+10) * time.Second
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// trackFileName derives the playlist-folder filename: zero-padded position,
// dot, title with path-hostile characters removed.
func trackFileName(d track.Descriptor) string {
	title := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, d.Title)
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("%02d. %s.mp3", d.Position, title)
}

// collisionFreePath appends a numeric suffix until the path is unused, so
// a wiped sidecar never causes silent overwrites of surviving files.
func collisionFreePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// folderName keeps playlist names usable as directory names.
func folderName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`/\:*?"<>|`, r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "playlist"
	}
	return cleaned
}

func (s *Service) logInfo(message string) {
	if s.logger != nil {
		s.logger.Info(message)
	}
}

func (s *Service) logInfoTrack(track, message string) {
	if s.logger != nil {
		s.logger.InfoTrack(track, message)
	}
}

func (s *Service) logWarn(track, message string) {
	if s.logger != nil {
		s.logger.WarnTrack(track, message)
	}
}

func (s *Service) logError(message string, err error) {
	if s.logger != nil {
		s.logger.Error(message, err)
	}
}

func (s *Service) logErrorTrack(track, message string, err error) {
	if s.logger != nil {
		s.logger.ErrorTrack(track, message, err)
	}
}
