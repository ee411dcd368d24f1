package devrecorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/pkg/storage"
)

func TestNewFromEnvDisabled(t *testing.T) {
	t.Setenv(razerdiag.EnvDisableRecorder, "1")

	rec, err := NewFromEnv()
	require.NoError(t, err)
	assert.IsType(t, razerdiag.NoopRecorder{}, rec)
}

func TestNewFromEnvOpensStore(t *testing.T) {
	t.Setenv(razerdiag.EnvDisableRecorder, "")
	t.Setenv(razerdiag.EnvDatabasePath, filepath.Join(t.TempDir(), "records.sqlite"))

	rec, err := NewFromEnv()
	require.NoError(t, err)
	sqlite, ok := rec.(*SQLiteRecorder)
	require.True(t, ok)
	defer sqlite.Close()

	err = sqlite.UpsertDevices(context.Background(), []razerdiag.DeviceSnapshot{
		{Serial: "PM0001", Status: razerdiag.StatusIdle, LastSeenAt: time.Now()},
	})
	require.NoError(t, err)
}

func TestUpsertDevicesStampsToolkitVersion(t *testing.T) {
	store, err := storage.OpenAt(filepath.Join(t.TempDir(), "records.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	rec, err := NewSQLiteRecorder(store)
	require.NoError(t, err)

	ctx := context.Background()
	err = rec.UpsertDevices(ctx, []razerdiag.DeviceSnapshot{
		{Serial: "PM0002", Status: razerdiag.StatusIdle},
	})
	require.NoError(t, err)

	devices, err := store.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, razerdiag.Version, devices[0].ToolkitVersion)
}

func TestUpsertDevicesEmptyBatchIsNoop(t *testing.T) {
	var rec *SQLiteRecorder
	assert.NoError(t, rec.UpsertDevices(context.Background(), nil))
}
