package match

import "fmt"

// Weights holds the scoring heuristics for candidate selection. The values
// are deliberately configuration, not hidden constants: they are approximate
// and meant to be tuned against real playlists.
type Weights struct {
	// Baseline is the starting score for every candidate.
	Baseline float64 `yaml:"baseline"`

	// DurationTolerance is the allowed relative deviation between candidate
	// and track duration before a penalty applies (0.10 = +-10%).
	DurationTolerance float64 `yaml:"duration_tolerance"`

	// DurationPenaltyScale multiplies the deviation beyond the tolerance.
	DurationPenaltyScale float64 `yaml:"duration_penalty_scale"`

	// KeywordPenalty is subtracted once per matched marker group
	// (official video, live, cover, lyrics, extended/remix).
	KeywordPenalty float64 `yaml:"keyword_penalty"`

	// AudioBonus is added when the candidate title carries a clean-audio
	// marker such as "audio" or "topic".
	AudioBonus float64 `yaml:"audio_bonus"`

	// MinAcceptableScore is the acceptability threshold: candidates below
	// it are discarded and the next, less specific query is tried.
	MinAcceptableScore float64 `yaml:"min_acceptable_score"`
}

// DefaultWeights returns the tuned default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Baseline:             1.0,
		DurationTolerance:    0.10,
		DurationPenaltyScale: 1.5,
		KeywordPenalty:       0.6,
		AudioBonus:           0.15,
		MinAcceptableScore:   0.25,
	}
}

// SetDefaults fills zero-valued weights with the tuned defaults.
func (w *Weights) SetDefaults() {
	d := DefaultWeights()
	if w.Baseline == 0 {
		w.Baseline = d.Baseline
	}
	if w.DurationTolerance == 0 {
		w.DurationTolerance = d.DurationTolerance
	}
	if w.DurationPenaltyScale == 0 {
		w.DurationPenaltyScale = d.DurationPenaltyScale
	}
	if w.KeywordPenalty == 0 {
		w.KeywordPenalty = d.KeywordPenalty
	}
	if w.AudioBonus == 0 {
		w.AudioBonus = d.AudioBonus
	}
	if w.MinAcceptableScore == 0 {
		w.MinAcceptableScore = d.MinAcceptableScore
	}
}

// Validate rejects weight combinations that can never accept a candidate.
func (w *Weights) Validate() error {
	if w.DurationTolerance < 0 || w.DurationTolerance >= 1 {
		return fmt.Errorf("invalid match.duration_tolerance: %v. Must be in [0, 1)", w.DurationTolerance)
	}
	if w.MinAcceptableScore > w.Baseline+w.AudioBonus {
		return fmt.Errorf("invalid match.min_acceptable_score: %v. Exceeds the best reachable score", w.MinAcceptableScore)
	}
	return nil
}

// markerGroups are title substrings indicating content that usually is not
// the plain studio track. Each group counts at most once per candidate, and
// a group is suppressed when the track's own title carries the same variant
// (a track literally titled "... (Live)" wants the live upload).
var markerGroups = [][]string{
	{"official music video", "official video", "music video", "(mv)"},
	{"live", "concert"},
	{"cover"},
	{"lyric"},
	{"extended", "remix"},
}

// audioMarkers are title substrings indicating a clean audio upload.
var audioMarkers = []string{"audio", "topic", "hq"}
