package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends records to a manifest file. It is the single writer for
// the duration of a run; every append is flushed before it returns, which
// is a correctness requirement for crash recovery, not an optimization.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Create opens a fresh manifest at path and writes its header. The file
// must not already exist.
func Create(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}

	// O_EXCL reserves the path atomically; a leftover manifest from a
	// prior run is never silently clobbered.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestExists, path)
		}
		return nil, fmt.Errorf("create manifest: %w", err)
	}

	h.Version = currentVersion
	w := &Writer{file: f, path: path}
	if err := w.appendRecord(record{Header: &h}); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

// Append writes one entry line and flushes it to disk.
func (w *Writer) Append(e Entry) error {
	return w.appendRecord(record{Entry: &e})
}

func (w *Writer) appendRecord(r record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode manifest record: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("append manifest record: %w", err)
	}
	return w.file.Sync()
}

// Path returns the manifest file location.
func (w *Writer) Path() string {
	return w.path
}

// Close finalizes the manifest.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
