// Package record persists pipeline results as the JSON array of per-sentence
// objects consumed by the evaluation tooling.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/valpere/tear/internal"
)

// Record is one processed sentence.
type Record struct {
	ID             int    `json:"id"`
	Src            string `json:"src"`
	Ref            string `json:"ref"`
	Hyp            string `json:"hyp"`
	Cor            string `json:"cor"`
	NeedCorrection int    `json:"need correction"`
	MQMInfo        string `json:"mqm_info"`
}

// FromResult converts a pipeline result into a record.
func FromResult(id int, ref string, r *internal.Result) Record {
	return Record{
		ID:             id,
		Src:            r.Source,
		Ref:            ref,
		Hyp:            r.Hypothesis,
		Cor:            r.Correction,
		NeedCorrection: r.CorrectionFlag(),
		MQMInfo:        r.Report,
	}
}

// File is a JSON array on disk. Each Append rewrites the whole file through
// a temporary file and a rename, so readers never see a truncated array.
type File struct {
	path    string
	mu      sync.Mutex
	records []Record
	ids     map[int]struct{}
}

// Open loads path, creating its directory if needed. A missing or empty file
// starts an empty array.
func Open(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f := &File{path: path, ids: make(map[int]struct{})}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	if err := json.Unmarshal(data, &f.records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, r := range f.records {
		f.ids[r.ID] = struct{}{}
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

// Has reports whether a record with id was already written.
func (f *File) Has(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}

// IDs returns the ids already present, in file order.
func (f *File) IDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, len(f.records))
	for i, r := range f.records {
		ids[i] = r.ID
	}
	return ids
}

// Len returns the number of records.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// Records returns a copy of the records.
func (f *File) Records() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.records...)
}

// Append adds r and rewrites the file. Safe for concurrent use.
func (f *File) Append(r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.ids[r.ID]; dup {
		return fmt.Errorf("record %d already written", r.ID)
	}

	records := append(f.records, r)
	if err := writeAtomic(f.path, records); err != nil {
		return err
	}
	f.records = records
	f.ids[r.ID] = struct{}{}
	return nil
}

func writeAtomic(path string, records []Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if records == nil {
		records = []Record{}
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
