package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStores_SaveLoad(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	stores := []struct {
		name  string
		store Store
	}{
		{"file", fs},
		{"memory", NewMemoryStore()},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			key := "directed-masks/p01/3.dmask"
			if tt.store.Exists(key) {
				t.Fatal("Exists reported true before Save")
			}

			if err := tt.store.Save(key, []byte("first")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !tt.store.Exists(key) {
				t.Fatal("Exists reported false after Save")
			}

			if err := tt.store.Save(key, []byte("second")); err != nil {
				t.Fatalf("Save (overwrite) failed: %v", err)
			}
			data, err := tt.store.Load(key)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if string(data) != "second" {
				t.Errorf("Load: got %q, want %q", data, "second")
			}
		})
	}
}

func TestStores_NotFound(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	for _, s := range []Store{fs, NewMemoryStore()} {
		_, err := s.Load("missing/artifact.csv")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%T: expected ErrNotFound, got %v", s, err)
		}
	}
}

func TestFileStore_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFileStore(filepath.Join(root, "store"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := fs.Save("../../outside.txt", []byte("x")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "outside.txt")); err == nil {
		t.Fatal("artifact escaped the store root")
	}
	if !fs.Exists("outside.txt") {
		t.Error("artifact should be stored below the root as outside.txt")
	}
}

func TestFileStore_NoTemporaryFilesLeft(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := fs.Save("a/b.bin", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(fs.Root(), "a"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "b.bin" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected directory contents: %v", names)
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	s := NewMemoryStore()
	data := []byte("abc")
	if err := s.Save("k", data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data[0] = 'z'

	loaded, _ := s.Load("k")
	if string(loaded) != "abc" {
		t.Errorf("stored artifact was mutated through caller slice: %q", loaded)
	}
	loaded[1] = 'z'
	again, _ := s.Load("k")
	if string(again) != "abc" {
		t.Errorf("stored artifact was mutated through loaded slice: %q", again)
	}

	if keys := s.Keys(); len(keys) != 1 || keys[0] != "k" {
		t.Errorf("Keys: got %v, want [k]", keys)
	}
}
