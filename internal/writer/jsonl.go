package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rickgao/rit-data/internal/state"
)

// JSONL appends records to a file, one JSON document per line, ASCII-safe.
// The file is opened lazily on first append and kept open across cycles.
type JSONL struct {
	path string
	file *os.File
}

// NewJSONL creates a JSONL writer for path. Nothing is created on disk until
// the first append.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Path returns the output file path.
func (w *JSONL) Path() string {
	return w.path
}

// Append writes one record as a single line.
func (w *JSONL) Append(record any) error {
	if w.file == nil {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", w.path, err)
		}
		w.file = f
	}

	data, err := state.MarshalASCII(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	return nil
}

// Close closes the underlying file if it was opened.
func (w *JSONL) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
