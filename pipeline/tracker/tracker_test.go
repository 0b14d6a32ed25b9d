package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cartape/cartape/pipeline/track"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("mp3"), 0644); err != nil {
		t.Fatalf("writeFile(%s) failed: %v", path, err)
	}
}

func TestLoad_MissingSidecar(t *testing.T) {
	dir := t.TempDir()

	tr, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("expected empty tracker, got %d records", tr.Len())
	}
}

func TestLoad_CorruptSidecarTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SidecarName), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write corrupt sidecar: %v", err)
	}

	tr, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() with corrupt sidecar must not fail: %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("corrupt sidecar should load as empty, got %d records", tr.Len())
	}
}

func TestMarkComplete_AndHas(t *testing.T) {
	dir := t.TempDir()
	tr, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	key := track.Key("Let It Be", "The Beatles")
	file := filepath.Join(dir, "01. The Beatles - Let It Be.mp3")
	writeFile(t, file)

	if tr.Has(key) {
		t.Error("Has() should be false before MarkComplete()")
	}

	rec := Record{Title: "Let It Be", Artist: "The Beatles"}
	if err := tr.MarkComplete(key, file, rec); err != nil {
		t.Fatalf("MarkComplete() failed: %v", err)
	}

	if !tr.Has(key) {
		t.Error("Has() should be true after MarkComplete()")
	}

	// Marking again with the same key must overwrite, not error.
	if err := tr.MarkComplete(key, file, rec); err != nil {
		t.Fatalf("MarkComplete() second call failed: %v", err)
	}
	if tr.Len() != 1 {
		t.Errorf("expected 1 record after idempotent mark, got %d", tr.Len())
	}
}

func TestHas_StaleRecordDropped(t *testing.T) {
	dir := t.TempDir()
	tr, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	key := track.Key("Yesterday", "The Beatles")
	file := filepath.Join(dir, "02. The Beatles - Yesterday.mp3")
	writeFile(t, file)
	if err := tr.MarkComplete(key, file, Record{Title: "Yesterday", Artist: "The Beatles"}); err != nil {
		t.Fatalf("MarkComplete() failed: %v", err)
	}

	// Delete the backing file; Has must report false and drop the record.
	if err := os.Remove(file); err != nil {
		t.Fatalf("failed to remove backing file: %v", err)
	}
	if tr.Has(key) {
		t.Error("Has() should be false when the backing file is gone")
	}
	if _, ok := tr.Get(key); ok {
		t.Error("stale record should have been dropped")
	}
}

func TestMarkComplete_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	tr, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	key := track.Key("Come Together", "The Beatles")
	file := filepath.Join(dir, "03. The Beatles - Come Together.mp3")
	writeFile(t, file)
	if err := tr.MarkComplete(key, file, Record{Title: "Come Together", Artist: "The Beatles"}); err != nil {
		t.Fatalf("MarkComplete() failed: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() after reload failed: %v", err)
	}
	if !reloaded.Has(key) {
		t.Error("record should survive a reload of the sidecar")
	}
	rec, ok := reloaded.Get(key)
	if !ok {
		t.Fatal("record missing after reload")
	}
	if rec.Title != "Come Together" || rec.Artist != "The Beatles" {
		t.Errorf("unexpected record after reload: %+v", rec)
	}
	if rec.FilePath != file {
		t.Errorf("expected file path %s, got %s", file, rec.FilePath)
	}
}

func TestSidecarDeleted_ForcesFreshStart(t *testing.T) {
	dir := t.TempDir()
	tr, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	key := track.Key("Something", "The Beatles")
	file := filepath.Join(dir, "04. The Beatles - Something.mp3")
	writeFile(t, file)
	if err := tr.MarkComplete(key, file, Record{Title: "Something", Artist: "The Beatles"}); err != nil {
		t.Fatalf("MarkComplete() failed: %v", err)
	}

	// Hand-deleting the sidecar must reset tracking even though the audio
	// file itself is still present.
	if err := os.Remove(filepath.Join(dir, SidecarName)); err != nil {
		t.Fatalf("failed to remove sidecar: %v", err)
	}

	fresh, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() after sidecar delete failed: %v", err)
	}
	if fresh.Has(key) {
		t.Error("Has() should be false after the sidecar was deleted")
	}
}
