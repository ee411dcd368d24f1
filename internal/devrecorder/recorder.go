// Package devrecorder persists device snapshots gathered during diagnostics.
// External callers construct recorders via NewFromEnv; when recording is
// disabled the noop implementation from the root package is returned.
package devrecorder

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/internal/config"
	"github.com/openrazer-tools/razerdiag/pkg/storage"
)

// SQLiteRecorder writes snapshots into the local diagnostics database.
type SQLiteRecorder struct {
	store *storage.Store
}

// NewSQLiteRecorder wraps an already opened store.
func NewSQLiteRecorder(store *storage.Store) (*SQLiteRecorder, error) {
	if store == nil {
		return nil, pkgerrors.New("devrecorder: store is nil")
	}
	return &SQLiteRecorder{store: store}, nil
}

// NewFromEnv builds a recorder from the environment. Recording can be turned
// off entirely, in which case callers get a no-op recorder and no database
// file is created.
func NewFromEnv() (razerdiag.DeviceRecorder, error) {
	if disabled := config.String(razerdiag.EnvDisableRecorder, ""); disabled != "" {
		log.Debug().Msg("devrecorder: recording disabled via environment")
		return razerdiag.NoopRecorder{}, nil
	}
	store, err := storage.Open()
	if err != nil {
		return nil, err
	}
	return &SQLiteRecorder{store: store}, nil
}

// UpsertDevices writes the batch, stamping each snapshot with the toolkit
// version when the caller left it blank.
func (r *SQLiteRecorder) UpsertDevices(ctx context.Context, devices []razerdiag.DeviceSnapshot) error {
	if r == nil || r.store == nil || len(devices) == 0 {
		return nil
	}
	batch := make([]razerdiag.DeviceSnapshot, 0, len(devices))
	for _, d := range devices {
		if strings.TrimSpace(d.ToolkitVersion) == "" {
			d.ToolkitVersion = razerdiag.Version
		}
		batch = append(batch, d)
	}
	if err := r.store.UpsertDevices(ctx, batch); err != nil {
		log.Error().Err(err).Int("count", len(batch)).Msg("devrecorder: upsert devices failed")
		return err
	}
	return nil
}

// Close releases the underlying store.
func (r *SQLiteRecorder) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}
