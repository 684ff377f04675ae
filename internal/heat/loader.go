package heat

import (
	"bytes"
	"errors"
	"fmt"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// ErrNotFound is returned when a raster file does not exist.
var ErrNotFound = errors.New("heat field not found")

// Load reads a raster file and converts it to a field.
//
// Parameters:
//   - path: Path to the raster. Any registered codec is accepted; lossless
//     formats (PNG, BMP, TIFF) should be preferred since lossy compression
//     introduces spurious local maxima.
//
// Returns:
//   - *Field: The raster intensities.
//   - error: Wraps ErrNotFound if the file does not exist, otherwise reports
//     decoding failures.
func Load(path string) (*Field, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to decode heat field: %w", err)
	}
	return FromImage(img), nil
}

// Save writes the field to path. The format is chosen from the file extension.
func Save(path string, f *Field) error {
	if err := imaging.Save(f.Image(), path); err != nil {
		return fmt.Errorf("failed to save heat field: %w", err)
	}
	return nil
}

// Encode writes the field as PNG.
func Encode(w io.Writer, f *Field) error {
	if err := imaging.Encode(w, f.Image(), imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode heat field: %w", err)
	}
	return nil
}

// EncodePNG returns the field as PNG bytes.
func EncodePNG(f *Field) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a field from any registered raster codec.
func Decode(r io.Reader) (*Field, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode heat field: %w", err)
	}
	return FromImage(img), nil
}

// FieldCache provides thread-safe caching of loaded heat fields.
//
// Fields are keyed by the exact path string passed to Load. Cached fields are
// shared, so callers must Clone before mutating one.
//
// # Memory Management
//
// Cached fields remain in memory until removed via Evict or Clear.
type FieldCache struct {
	mu     sync.RWMutex
	fields map[string]*Field
}

// NewFieldCache creates an empty cache.
func NewFieldCache() *FieldCache {
	return &FieldCache{
		fields: make(map[string]*Field),
	}
}

// Load returns the cached field for path, reading it from disk on first use.
func (c *FieldCache) Load(path string) (*Field, error) {
	c.mu.RLock()
	if f, ok := c.fields[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	f, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.fields[path] = f
	c.mu.Unlock()

	return f, nil
}

// Evict removes a single path from the cache.
func (c *FieldCache) Evict(path string) {
	c.mu.Lock()
	delete(c.fields, path)
	c.mu.Unlock()
}

// Clear removes every cached field.
func (c *FieldCache) Clear() {
	c.mu.Lock()
	c.fields = make(map[string]*Field)
	c.mu.Unlock()
}

// Len returns the number of cached fields.
func (c *FieldCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fields)
}

// FieldInfo summarizes a field without exposing its pixels.
type FieldInfo struct {
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Max       uint8 `json:"max"`
	MaxX      int   `json:"max_x"`
	MaxY      int   `json:"max_y"`
	HotCells  int   `json:"hot_cells"`
	Energy    int   `json:"energy"`
	FileBytes int64 `json:"file_bytes,omitempty"`
}

// Describe returns summary statistics for a field.
func Describe(f *Field) FieldInfo {
	pos, maxVal := f.Max()
	hot := 0
	for _, v := range f.Pix {
		if v > 0 {
			hot++
		}
	}
	return FieldInfo{
		Width:    f.Width,
		Height:   f.Height,
		Max:      maxVal,
		MaxX:     pos.X,
		MaxY:     pos.Y,
		HotCells: hot,
		Energy:   f.Energy(),
	}
}

// LoadInfo loads a field through the cache and describes it, including the
// file size on disk.
func LoadInfo(cache *FieldCache, path string) (*FieldInfo, error) {
	f, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	info := Describe(f)
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	info.FileBytes = stat.Size()
	return &info, nil
}
