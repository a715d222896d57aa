package storage

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func TestLoadBeforeSave(t *testing.T) {
	s := testStore(t)

	blob, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if blob != nil {
		t.Errorf("Load = %q, want nil before any save", blob)
	}

	savedAt, err := s.SavedAt()
	if err != nil {
		t.Fatalf("SavedAt failed: %v", err)
	}
	if !savedAt.IsZero() {
		t.Errorf("SavedAt = %v, want zero time before any save", savedAt)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	want := []byte(`{"version":1,"symbols":{}}`)
	if err := s.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Load = %q, want %q", got, want)
	}

	savedAt, err := s.SavedAt()
	if err != nil {
		t.Fatalf("SavedAt failed: %v", err)
	}
	if time.Since(savedAt) > time.Minute {
		t.Errorf("SavedAt = %v, want a recent timestamp", savedAt)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := testStore(t)

	if err := s.Save([]byte("first")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save([]byte("second")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Load = %q, want the latest blob", got)
	}
}

func TestReopenSeesPersistedBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Save([]byte("persisted")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New (reopen) failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Load after reopen = %q, want %q", got, "persisted")
	}
}
