package heat

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTestField saves a small field as PNG in a temp directory and returns
// its path.
func writeTestField(t *testing.T, f *Field) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "field.png")
	if err := Save(path, f); err != nil {
		t.Fatalf("failed to save field: %v", err)
	}
	return path
}

func TestLoadRoundTrip(t *testing.T) {
	f := mustRows(t, [][]uint8{
		{0, 10, 20},
		{30, 255, 40},
	})
	path := writeTestField(t, f)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.SameShape(f) {
		t.Fatalf("shape changed: %dx%d", loaded.Width, loaded.Height)
	}
	for i := range f.Pix {
		if loaded.Pix[i] != f.Pix[i] {
			t.Fatalf("pixel %d = %d, want %d", i, loaded.Pix[i], f.Pix[i])
		}
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	f := mustRows(t, [][]uint8{{1, 2}, {3, 4}})
	data, err := EncodePNG(f)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.At(1, 1) != 4 {
		t.Errorf("At(1,1) = %d, want 4", decoded.At(1, 1))
	}
}

func TestFieldCache(t *testing.T) {
	path := writeTestField(t, mustRows(t, [][]uint8{{5}}))
	cache := NewFieldCache()

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Removing the file proves the second load is served from the cache.
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	if first != second {
		t.Error("expected the same cached field")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}

	cache.Evict(path)
	if _, err := cache.Load(path); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after eviction, got %v", err)
	}
}

func TestFieldCacheConcurrentAccess(t *testing.T) {
	path := writeTestField(t, mustRows(t, [][]uint8{{1, 2}}))
	cache := NewFieldCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d", cache.Len())
	}
}

func TestLoadInfo(t *testing.T) {
	path := writeTestField(t, mustRows(t, [][]uint8{{0, 9}, {3, 0}}))

	info, err := LoadInfo(NewFieldCache(), path)
	if err != nil {
		t.Fatalf("LoadInfo failed: %v", err)
	}
	if info.Max != 9 || info.MaxX != 1 || info.MaxY != 0 {
		t.Errorf("unexpected max: %+v", info)
	}
	if info.HotCells != 2 || info.Energy != 12 {
		t.Errorf("unexpected totals: %+v", info)
	}
	if info.FileBytes == 0 {
		t.Error("expected non-zero file size")
	}
}
