package match

import "fmt"

// SearchError represents a failure while querying the video platform.
type SearchError struct {
	Message  string
	Original error
}

func (e *SearchError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Video search error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Video search error: %s", e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Original
}

// NoMatchError indicates that no candidate scored above the acceptability
// threshold for any query. Non-fatal: the caller skips the track and
// continues the batch.
type NoMatchError struct {
	Title  string
	Artist string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("No acceptable video match for: %s - %s", e.Artist, e.Title)
}
