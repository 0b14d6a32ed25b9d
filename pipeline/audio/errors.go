package audio

import "fmt"

// DownloadError represents a failure while downloading or converting audio.
type DownloadError struct {
	Message  string
	Original error
}

func (e *DownloadError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Audio download error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Audio download error: %s", e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Original
}
