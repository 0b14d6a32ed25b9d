package tracker

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SidecarName is the tracking file kept inside each playlist folder.
const SidecarName = ".download_tracking.json"

// Tracker persists which tracks of a playlist folder have already been
// downloaded. All mutations are serialized by an internal mutex and flushed
// to the sidecar file immediately, so partial playlist progress survives
// interruption and the worker pool can share a single instance.
type Tracker struct {
	sidecarPath string

	mu   sync.Mutex
	data *sidecar
}

// Load opens (or initializes) the tracker for a playlist folder. A missing,
// unreadable, or corrupt sidecar file is treated as an empty tracker rather
// than an error: downloads stay idempotent through filename collision
// avoidance regardless.
func Load(playlistDir string) (*Tracker, error) {
	if err := os.MkdirAll(playlistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create playlist directory: %w", err)
	}

	t := &Tracker{
		sidecarPath: filepath.Join(playlistDir, SidecarName),
		data:        &sidecar{Records: make(map[string]Record)},
	}

	raw, err := os.ReadFile(t.sidecarPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: tracking_file_unreadable path=%s error=%v, starting fresh", t.sidecarPath, err)
		}
		return t, nil
	}

	var loaded sidecar
	if err := loaded.FromJSON(raw); err != nil {
		log.Printf("WARN: tracking_file_corrupt path=%s error=%v, starting fresh", t.sidecarPath, err)
		return t, nil
	}
	if loaded.Records == nil {
		loaded.Records = make(map[string]Record)
	}
	t.data = &loaded
	return t, nil
}

// Has reports whether a completed record exists for the key and its backing
// file is still present on disk. A record whose file was deleted is dropped
// from the sidecar so the track gets re-downloaded instead of crashing.
func (t *Tracker) Has(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.data.Records[key]
	if !ok || !rec.Completed {
		return false
	}

	if _, err := os.Stat(rec.FilePath); err != nil {
		log.Printf("INFO: tracking_stale_record key=%s file=%s, scheduling re-download", key, rec.FilePath)
		delete(t.data.Records, key)
		t.flushLocked()
		return false
	}
	return true
}

// Get returns the record for a key, if any.
func (t *Tracker) Get(key string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.data.Records[key]
	return rec, ok
}

// MarkComplete records a successful download for the key. Idempotent: a
// prior record for the same key is overwritten. The sidecar is flushed
// before returning.
func (t *Tracker) MarkComplete(key, filePath string, rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec.FilePath = filePath
	rec.Completed = true
	rec.Timestamp = time.Now()
	t.data.Records[key] = rec

	return t.flushLocked()
}

// Len returns the number of tracked records.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.data.Records)
}

// flushLocked writes the sidecar to disk. Callers must hold t.mu.
func (t *Tracker) flushLocked() error {
	data, err := t.data.ToJSON()
	if err != nil {
		log.Printf("WARN: tracking_file_marshal_failed path=%s error=%v", t.sidecarPath, err)
		return err
	}
	if err := os.WriteFile(t.sidecarPath, data, 0644); err != nil {
		log.Printf("WARN: tracking_file_save_failed path=%s error=%v", t.sidecarPath, err)
		return err
	}
	return nil
}
