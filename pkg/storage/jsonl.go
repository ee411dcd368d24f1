package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"

	razerdiag "github.com/openrazer-tools/razerdiag"
)

const defaultReportFileName = "reports.jsonl"

// DefaultReportPath returns the capability report log location next to the
// SQLite database.
func DefaultReportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", pkgerrors.Wrap(err, "storage: locate user home failed")
	}
	dir := filepath.Join(home, defaultDBDirName)
	if err := ensureDirExists(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultReportFileName), nil
}

// JSONLEnabled reports whether the JSONL report sink should be used.
func JSONLEnabled() bool {
	return strings.TrimSpace(os.Getenv(razerdiag.EnvDisableJSONL)) == ""
}

// JSONLSink appends one JSON document per line. Writes are flushed
// immediately so partially completed probe sessions still leave a trail.
type JSONLSink struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewJSONLSink opens (or creates) the report log for appending.
func NewJSONLSink(path string) (*JSONLSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, pkgerrors.New("storage: jsonl path is empty")
	}
	if err := ensureDirExists(filepath.Dir(trimmed)); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "storage: open jsonl file failed")
	}
	return &JSONLSink{path: trimmed, file: file, writer: bufio.NewWriter(file)}, nil
}

// Write serializes the payload onto its own line.
func (j *JSONLSink) Write(_ context.Context, payload interface{}) error {
	if j == nil || j.writer == nil {
		return pkgerrors.New("storage: jsonl sink nil")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(err, "storage: marshal json payload failed")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.writer.Write(data); err != nil {
		return pkgerrors.Wrap(err, "storage: write json payload failed")
	}
	if err := j.writer.WriteByte('\n'); err != nil {
		return pkgerrors.Wrap(err, "storage: write newline failed")
	}
	if err := j.writer.Flush(); err != nil {
		return pkgerrors.Wrap(err, "storage: flush json writer failed")
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (j *JSONLSink) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.writer != nil {
		if err := j.writer.Flush(); err != nil {
			return pkgerrors.Wrap(err, "storage: flush on close failed")
		}
	}
	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return pkgerrors.Wrap(err, "storage: close json file failed")
		}
	}
	return nil
}

// Name identifies the sink for log output.
func (j *JSONLSink) Name() string {
	if j == nil || j.path == "" {
		return "jsonl"
	}
	return j.path
}
