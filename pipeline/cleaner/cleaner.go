package cleaner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const metadataPrompt = `Clean and standardize this music metadata:
Artist: %s
Title: %s
Album: %s

Rules:
1. Standardize artist names (e.g., "Beatles, The" becomes "The Beatles")
2. Clean track titles while preserving essential information
3. Fix capitalization and formatting
4. Remove problematic characters for file systems
5. Add genre if determinable from the track info

Respond with JSON only:
{"artist": "Clean Artist Name", "title": "Clean Track Title", "album": "Album Name", "genre": "Genre if known"}`

const (
	// minSimilarity rejects responses that drift to a different track
	// identity. Legitimate cleanups (suffix stripping, article reorder)
	// stay well above it or pass the containment check instead.
	minSimilarity = 0.4

	maxFieldLength = 100
	maxGenreLength = 50
)

// Result holds cleaned metadata. Fields that failed validation carry the
// original input unchanged.
type Result struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Genre  string `json:"genre"`
}

// Cleaner validates and applies model responses on top of raw metadata.
type Cleaner struct {
	client *Client
}

// NewCleaner creates a metadata cleaner backed by the given client.
func NewCleaner(client *Client) *Cleaner {
	return &Cleaner{client: client}
}

// Clean asks the model for standardized metadata. On any failure
// (unavailable service, timeout, malformed response, identity drift) the
// originals come back untouched.
func (c *Cleaner) Clean(ctx context.Context, title, artist, album string) Result {
	original := Result{Title: title, Artist: artist, Album: album}

	if !c.client.Available(ctx) {
		return original
	}

	prompt := fmt.Sprintf(metadataPrompt, artist, title, album)
	response, err := c.client.Generate(ctx, prompt)
	if err != nil {
		log.Printf("WARN: metadata_clean_failed title=%q error=%v", title, err)
		return original
	}

	cleaned, err := parseResult(response)
	if err != nil {
		log.Printf("WARN: metadata_clean_unparseable title=%q error=%v", title, err)
		return original
	}

	return merge(original, cleaned)
}

// parseResult extracts the first JSON object embedded in the completion.
// Models often wrap the object in prose.
func parseResult(response string) (Result, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return Result{}, fmt.Errorf("no JSON object in response")
	}

	var result Result
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return Result{}, fmt.Errorf("invalid JSON object: %w", err)
	}
	return result, nil
}

// merge accepts cleaned fields one at a time, keeping the original value
// wherever the cleaned one fails validation.
func merge(original, cleaned Result) Result {
	out := original
	if fieldAcceptable(original.Title, cleaned.Title) {
		out.Title = strings.TrimSpace(cleaned.Title)
	}
	if fieldAcceptable(original.Artist, cleaned.Artist) {
		out.Artist = strings.TrimSpace(cleaned.Artist)
	}
	if fieldAcceptable(original.Album, cleaned.Album) {
		out.Album = strings.TrimSpace(cleaned.Album)
	}
	if genre := strings.TrimSpace(cleaned.Genre); genre != "" && len(genre) <= maxGenreLength {
		out.Genre = genre
	}
	return out
}

// fieldAcceptable guards against the model replacing a field with a
// different track's identity. A cleaned value passes when it is non-empty,
// of sane length, and either contained in the original (suffix stripping)
// or close enough by edit distance.
func fieldAcceptable(original, cleaned string) bool {
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || len(cleaned) > maxFieldLength {
		return false
	}
	normOriginal := normalize(original)
	normCleaned := normalize(cleaned)
	if normOriginal == "" {
		return true
	}
	if strings.Contains(normOriginal, normCleaned) {
		return true
	}
	if sameTokens(normOriginal, normCleaned) {
		return true
	}
	return similarity(normOriginal, normCleaned) >= minSimilarity
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// sameTokens reports whether two strings carry the same words in any
// order, ignoring punctuation. Covers article reordering like
// "Beatles, The" to "The Beatles".
func sameTokens(a, b string) bool {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(ta) != len(tb) {
		return false
	}
	for tok, n := range ta {
		if tb[tok] != n {
			return false
		}
	}
	return true
}

func tokenSet(s string) map[string]int {
	set := make(map[string]int)
	for _, f := range strings.Fields(s) {
		f = strings.Trim(f, ".,;:!?'\"()[]")
		if f != "" {
			set[f]++
		}
	}
	return set
}
