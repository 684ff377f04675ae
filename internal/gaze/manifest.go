package gaze

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FixationsHeader is the first line of every fixation table.
const FixationsHeader = "Timestamp,Duration,X,Y"

// Manifest lists the episodes of a data set.
//
// Fixation paths are relative to the manifest's directory. Episodes without
// their own size inherit the manifest's stimulus size.
//
//	{
//	  "width": 1920,
//	  "height": 1080,
//	  "episodes": [
//	    {"subject": "7", "index": 0, "cohort": "3", "specification": "search",
//	     "fixations": "7/0.csv"}
//	  ]
//	}
type Manifest struct {
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Episodes []ManifestEntry `json:"episodes"`
}

// ManifestEntry describes one episode and where its fixations live.
type ManifestEntry struct {
	Episode
	Fixations string `json:"fixations"`
}

// LoadManifest reads a manifest and every fixation table it references.
//
// Fixations are passed through Filter when filter is set.
//
// Returns an error wrapping os.ErrNotExist if the manifest or a fixation table
// is missing, and ErrInvalidInput for malformed content.
func LoadManifest(path string, filter bool) ([]*Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %v", ErrInvalidInput, path, err)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool)
	episodes := make([]*Episode, 0, len(m.Episodes))
	for _, entry := range m.Episodes {
		e := entry.Episode
		if e.Subject == "" {
			return nil, fmt.Errorf("%w: episode without subject in %s", ErrInvalidInput, path)
		}
		if seen[e.Key()] {
			return nil, fmt.Errorf("%w: duplicate episode %s", ErrInvalidInput, e.Key())
		}
		seen[e.Key()] = true
		if e.Width == 0 {
			e.Width = m.Width
		}
		if e.Height == 0 {
			e.Height = m.Height
		}
		if e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("%w: episode %s has no stimulus size", ErrInvalidInput, e.Key())
		}

		fixPath := entry.Fixations
		if !filepath.IsAbs(fixPath) {
			fixPath = filepath.Join(dir, fixPath)
		}
		fixations, err := LoadFixations(fixPath)
		if err != nil {
			return nil, fmt.Errorf("episode %s: %w", e.Key(), err)
		}
		if filter {
			fixations = Filter(fixations)
		}
		e.Fixations = fixations
		episodes = append(episodes, &e)
	}
	return episodes, nil
}

// LoadFixations reads a fixation table from path.
func LoadFixations(path string) ([]Fixation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixations: %w", err)
	}
	defer f.Close()
	return ParseFixations(f)
}

// ParseFixations reads a fixation table with header Timestamp,Duration,X,Y.
func ParseFixations(r io.Reader) ([]Fixation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header %q", ErrInvalidInput, FixationsHeader)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.Join(header, ",") != FixationsHeader {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrInvalidInput, strings.Join(header, ","))
	}

	fixations := make([]Fixation, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		line, _ := cr.FieldPos(0)

		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, line, err)
		}
		var vals [3]float64
		for i := range vals {
			vals[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, line, err)
			}
		}
		if vals[0] < 0 {
			return nil, fmt.Errorf("%w: line %d: negative duration", ErrInvalidInput, line)
		}
		if n := len(fixations); n > 0 && ts < fixations[n-1].Timestamp {
			return nil, fmt.Errorf("%w: line %d: timestamps not chronological", ErrInvalidInput, line)
		}
		fixations = append(fixations, Fixation{Timestamp: ts, Duration: vals[0], X: vals[1], Y: vals[2]})
	}
	return fixations, nil
}

// WriteFixations writes fixations as a fixation table.
func WriteFixations(w io.Writer, fixations []Fixation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(FixationsHeader, ",")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, f := range fixations {
		record := []string{
			strconv.FormatInt(f.Timestamp, 10),
			strconv.FormatFloat(f.Duration, 'g', -1, 64),
			strconv.FormatFloat(f.X, 'g', -1, 64),
			strconv.FormatFloat(f.Y, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write fixation: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
