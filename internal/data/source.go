// Package data feeds rows from CSV or JSON files into unit templates, so
// consecutive units can rotate through a pool of request inputs.
package data

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"volley/internal/core"
)

// Mode defines how rows are picked for each unit.
type Mode string

const (
	// ModeSequential hands rows out in call order and wraps around.
	ModeSequential Mode = "sequential"
	// ModeRandom picks a random row for each unit.
	ModeRandom Mode = "random"
	// ModeUnit binds unit n to row (n-1) mod len, independent of which
	// worker reaches the source first.
	ModeUnit Mode = "unit"
)

// Valid reports whether m is a known mode. The empty mode means sequential.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeSequential, ModeRandom, ModeUnit:
		return true
	}
	return false
}

// Source is a loaded data file. Row is safe for concurrent use.
type Source struct {
	name  string
	rows  []map[string]any
	mode  Mode
	calls atomic.Uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource wraps rows already in memory. An empty mode means sequential.
func NewSource(name string, rows []map[string]any, mode Mode) *Source {
	if mode == "" {
		mode = ModeSequential
	}
	return &Source{
		name: name,
		rows: rows,
		mode: mode,
		rng:  rand.New(rand.NewSource(rand.Int63())),
	}
}

// Name returns the key the source is injected under.
func (s *Source) Name() string { return s.name }

// Len returns the number of rows.
func (s *Source) Len() int { return len(s.rows) }

// Row returns a copy of the row for the given 1-based unit number, or nil
// when the source is empty. Only ModeUnit looks at unit.
func (s *Source) Row(unit int) map[string]any {
	n := len(s.rows)
	if n == 0 {
		return nil
	}

	var idx int
	switch s.mode {
	case ModeRandom:
		s.mu.Lock()
		idx = s.rng.Intn(n)
		s.mu.Unlock()
	case ModeUnit:
		idx = (unit - 1) % n
		if idx < 0 {
			idx += n
		}
	default:
		idx = int((s.calls.Add(1) - 1) % uint64(n))
	}

	row := make(map[string]any, len(s.rows[idx]))
	for k, v := range s.rows[idx] {
		row[k] = v
	}
	return row
}

// LoadFile loads a .csv or .json file. Relative paths are resolved against
// baseDir, normally the directory of the config file.
func LoadFile(name, path string, mode Mode, baseDir string) (*Source, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	var decode func(io.Reader) ([]map[string]any, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		decode = decodeCSV
	case ".json":
		decode = decodeJSON
	default:
		return nil, fmt.Errorf("unsupported file format %q (use .csv or .json)", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("data file %s has no rows", path)
	}
	return NewSource(name, rows, mode), nil
}

// decodeCSV reads a header row followed by data rows. Short rows are padded
// with empty strings; extra trailing cells are dropped.
func decodeCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(header))
		for i, field := range header {
			row[field] = ""
			if i < len(record) {
				row[field] = record[i]
			}
		}
		rows = append(rows, row)
	}
}

// decodeJSON reads an array of objects.
func decodeJSON(r io.Reader) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("expected an array of objects: %w", err)
	}
	return rows, nil
}

// Sources is a set of named data sources.
type Sources map[string]*Source

// Inject sets the row each source picks for unit into vars as
// "data.<source>.<field>".
func (s Sources) Inject(vars core.Variables, unit int) {
	for name, source := range s {
		for field, value := range source.Row(unit) {
			vars.Set("data."+name+"."+field, value)
		}
	}
}

// Names returns the source names in sorted order.
func (s Sources) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
