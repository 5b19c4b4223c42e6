package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFileWriter is a size-capped log file writer. When the active
// file would exceed maxSize, it is renamed to a numbered backup and a
// fresh file is started; the oldest backup beyond the limit is removed.
type RotatingFileWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	maxSize int64
	backups int
	size    int64
}

// NewRotatingFileWriter opens (or creates) the log file at path.
func NewRotatingFileWriter(path string, maxSize int64, backups int) (*RotatingFileWriter, error) {
	w := &RotatingFileWriter{path: path, maxSize: maxSize, backups: backups}
	if err := w.open(); err != nil {
		return nil, err
	}

	info, err := w.file.Stat()
	if err != nil {
		_ = w.file.Close()
		return nil, err
	}
	w.size = info.Size()
	return w, nil
}

// Write implements io.Writer.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the active log file.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func (w *RotatingFileWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w.file = file
	return nil
}

func (w *RotatingFileWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
	}

	_ = os.Remove(w.backupName(w.backups))
	for i := w.backups - 1; i >= 1; i-- {
		if _, err := os.Stat(w.backupName(i)); err == nil {
			if err := os.Rename(w.backupName(i), w.backupName(i+1)); err != nil {
				return err
			}
		}
	}
	_ = os.Rename(w.path, w.backupName(1))

	if err := w.open(); err != nil {
		return err
	}
	w.size = 0
	return nil
}

func (w *RotatingFileWriter) backupName(index int) string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, fmt.Sprintf("%s.%d%s", name, index, ext))
}

var _ io.WriteCloser = (*RotatingFileWriter)(nil)
