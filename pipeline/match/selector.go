package match

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/cartape/cartape/pipeline/track"
)

// Candidate is a single search result from the video platform. Ephemeral:
// it only exists for the duration of the match step.
type Candidate struct {
	VideoID         string
	Title           string
	DurationSeconds int
	Score           float64
}

// Searcher queries the video platform for candidates matching a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// Selector chooses the best video candidate for a track descriptor using
// heuristic scoring over search results.
type Selector struct {
	searcher    Searcher
	weights     Weights
	searchLimit int
}

// NewSelector creates a selector with the given searcher and weights.
func NewSelector(searcher Searcher, weights Weights) *Selector {
	return &Selector{
		searcher:    searcher,
		weights:     weights,
		searchLimit: 5,
	}
}

// Select returns the best-scoring acceptable candidate for the track. A
// *NoMatchError means the platform was searched and no candidate cleared
// the acceptability threshold; it is final. When every query rung fails
// outright (network trouble, rate limiting) the last *SearchError is
// returned instead so the caller can retry.
func (s *Selector) Select(ctx context.Context, d track.Descriptor) (*Candidate, error) {
	queries := buildQueries(d)
	var lastSearchErr error
	searchFailures := 0

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := s.searcher.Search(ctx, query, s.searchLimit)
		if err != nil {
			log.Printf("WARN: video_search_failed query=%q error=%v", query, err)
			lastSearchErr = err
			searchFailures++
			continue
		}

		if best := s.pickBest(d, candidates); best != nil {
			log.Printf("INFO: video_match_selected track=%s artist=%s video_id=%s score=%.2f query=%q",
				d.Title, d.Artist, best.VideoID, best.Score, query)
			return best, nil
		}
	}

	if searchFailures == len(queries) && lastSearchErr != nil {
		return nil, lastSearchErr
	}
	return nil, &NoMatchError{Title: d.Title, Artist: d.Artist}
}

// pickBest scores all candidates and returns the acceptable one with the
// highest score. Ties go to the shortest title, the usual proxy for the
// least embellished upload.
func (s *Selector) pickBest(d track.Descriptor, candidates []Candidate) *Candidate {
	const epsilon = 1e-9

	var best *Candidate
	for i := range candidates {
		c := candidates[i]
		c.Score = s.Score(d, c)
		if c.Score < s.weights.MinAcceptableScore {
			continue
		}
		if best == nil ||
			c.Score > best.Score+epsilon ||
			(math.Abs(c.Score-best.Score) <= epsilon && len(c.Title) < len(best.Title)) {
			picked := c
			best = &picked
		}
	}
	return best
}

// Score computes the heuristic score for a candidate against a track.
func (s *Selector) Score(d track.Descriptor, c Candidate) float64 {
	score := s.weights.Baseline

	// Duration proximity: deviations beyond the tolerance are penalized in
	// proportion to how far off they are. Candidates with unknown duration
	// are neither penalized nor rewarded.
	if d.DurationSeconds > 0 && c.DurationSeconds > 0 {
		deviation := math.Abs(float64(c.DurationSeconds-d.DurationSeconds)) / float64(d.DurationSeconds)
		if deviation > s.weights.DurationTolerance {
			score -= s.weights.DurationPenaltyScale * (deviation - s.weights.DurationTolerance)
		}
	}

	candTitle := strings.ToLower(c.Title)
	wantTitle := strings.ToLower(d.Title)

	for _, group := range markerGroups {
		if containsAny(wantTitle, group) {
			// The track itself asks for this variant.
			continue
		}
		if containsAny(candTitle, group) {
			score -= s.weights.KeywordPenalty
		}
	}

	if containsAny(candTitle, audioMarkers) {
		score += s.weights.AudioBonus
	}

	return score
}

// buildQueries returns search queries ordered from most to least specific.
func buildQueries(d track.Descriptor) []string {
	queries := make([]string, 0, 3)
	if d.Artist != "" {
		queries = append(queries,
			fmt.Sprintf("%s %s audio", d.Artist, d.Title),
			fmt.Sprintf("%s %s", d.Artist, d.Title),
		)
	}
	queries = append(queries, d.Title)
	return queries
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
