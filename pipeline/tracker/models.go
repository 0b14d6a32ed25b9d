package tracker

import (
	"encoding/json"
	"time"
)

// Record represents one completed download inside the sidecar file.
type Record struct {
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	FilePath    string    `json:"file_path"`
	SearchQuery string    `json:"search_query,omitempty"`
	Completed   bool      `json:"completed"`
	Timestamp   time.Time `json:"timestamp"`
}

// sidecar is the on-disk shape: track key -> record. Kept as indented JSON
// so the file stays hand-editable; deleting an entry forces a re-download.
type sidecar struct {
	Records map[string]Record `json:"records"`
}

// ToJSON converts the sidecar to JSON bytes.
func (s *sidecar) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON populates the sidecar from JSON bytes.
func (s *sidecar) FromJSON(data []byte) error {
	return json.Unmarshal(data, s)
}
