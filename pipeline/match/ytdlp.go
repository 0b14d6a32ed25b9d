package match

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// YtDlpSearcher searches YouTube through the yt-dlp binary.
type YtDlpSearcher struct{}

// NewYtDlpSearcher creates a yt-dlp backed searcher.
func NewYtDlpSearcher() *YtDlpSearcher {
	return &YtDlpSearcher{}
}

// ytDlpEntry is the flat-playlist JSON shape yt-dlp emits per result line.
type ytDlpEntry struct {
	ID       string  `json:"id,omitempty"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Search runs a yt-dlp ytsearch and returns up to limit candidates.
func (y *YtDlpSearcher) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 5
	}

	args := []string{
		"--quiet",
		"--no-warnings",
		"--flat-playlist",
		"--dump-json",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	}

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := string(output)
		if strings.Contains(outputStr, "429") ||
			strings.Contains(outputStr, "rate limit") ||
			strings.Contains(outputStr, "HTTP Error 429") {
			return nil, &SearchError{
				Message:  "Rate limited by provider",
				Original: err,
			}
		}
		return nil, &SearchError{
			Message:  fmt.Sprintf("yt-dlp search failed: %v (output: %s)", err, outputStr),
			Original: err,
		}
	}

	// yt-dlp emits one JSON object per line, one line per result.
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	candidates := make([]Candidate, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry ytDlpEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Tolerate noise lines between the JSON results.
			continue
		}
		if entry.ID == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			VideoID:         entry.ID,
			Title:           entry.Title,
			DurationSeconds: int(entry.Duration),
		})
	}

	// Zero results is a successful search, not a failure: the selector
	// moves on to the next query rung instead of retrying this one.
	return candidates, nil
}
