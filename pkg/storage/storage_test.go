package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	razerdiag "github.com/openrazer-tools/razerdiag"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.sqlite")
	store, err := OpenAt(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResolveDatabasePathEnvOverride(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "nested", "diag.sqlite")
	t.Setenv(razerdiag.EnvDatabasePath, custom)

	path, err := ResolveDatabasePath()
	require.NoError(t, err)
	assert.Equal(t, custom, path)

	info, err := os.Stat(filepath.Dir(custom))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenAtRejectsEmptyPath(t *testing.T) {
	_, err := OpenAt("   ")
	require.Error(t, err)
}

func TestRecordRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := NewRunRecord(RunKindDoctor)
	rec.Passed = 5
	rec.Total = 6
	rec.Issues = []string{"daemon not running"}
	rec.FinishedAt = rec.StartedAt.Add(2 * time.Second)
	require.NoError(t, store.RecordRun(ctx, rec))

	runs, err := store.RecentRuns(ctx, RunKindDoctor, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.ID, runs[0].ID)
	assert.Equal(t, RunKindDoctor, runs[0].Kind)
	assert.Equal(t, 5, runs[0].Passed)
	assert.Equal(t, 6, runs[0].Total)
	assert.Equal(t, []string{"daemon not running"}, runs[0].Issues)
}

func TestRecordRunReplacesSameID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := NewRunRecord(RunKindDebug)
	rec.Passed = 0
	rec.Total = 4
	require.NoError(t, store.RecordRun(ctx, rec))

	rec.Passed = 4
	rec.Issues = []string{}
	require.NoError(t, store.RecordRun(ctx, rec))

	runs, err := store.RecentRuns(ctx, RunKindDebug, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 4, runs[0].Passed)
}

func TestRecentRunsFiltersByKind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	doctor := NewRunRecord(RunKindDoctor)
	require.NoError(t, store.RecordRun(ctx, doctor))
	debug := NewRunRecord(RunKindDebug)
	require.NoError(t, store.RecordRun(ctx, debug))

	runs, err := store.RecentRuns(ctx, RunKindDebug, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, debug.ID, runs[0].ID)

	all, err := store.RecentRuns(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecordRunValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.RecordRun(ctx, RunRecord{Kind: RunKindDoctor})
	require.Error(t, err)

	err = store.RecordRun(ctx, RunRecord{ID: "abc"})
	require.Error(t, err)
}

func TestUpsertDevicesRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seen := time.Unix(1700000000, 0)
	snaps := []razerdiag.DeviceSnapshot{
		{
			Serial:        "PM1234",
			Name:          "Razer DeathAdder V2",
			Type:          "mouse",
			Firmware:      "v1.0",
			DriverVersion: "3.5.1",
			VidPid:        "1532:0084",
			Status:        razerdiag.StatusIdle,
			LastSeenAt:    seen,
		},
		{Serial: "  ", Status: razerdiag.StatusIdle}, // skipped, no serial
	}
	require.NoError(t, store.UpsertDevices(ctx, snaps))

	devices, err := store.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "PM1234", devices[0].Serial)
	assert.Equal(t, "Razer DeathAdder V2", devices[0].Name)
	assert.Equal(t, razerdiag.StatusIdle, devices[0].Status)
	assert.Equal(t, seen.Unix(), devices[0].LastSeenAt.Unix())

	// Second upsert for the same serial updates in place.
	snaps[0].Status = razerdiag.StatusOffline
	snaps[0].LastError = "bus unreachable"
	require.NoError(t, store.UpsertDevices(ctx, snaps[:1]))

	devices, err = store.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, razerdiag.StatusOffline, devices[0].Status)
	assert.Equal(t, "bus unreachable", devices[0].LastError)
}

func TestJSONLSinkAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, map[string]string{"serial": "PM1234"}))
	require.NoError(t, sink.Write(ctx, map[string]string{"serial": "PM5678"}))
	require.NoError(t, sink.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var serials []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row map[string]string
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		serials = append(serials, row["serial"])
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"PM1234", "PM5678"}, serials)
}

func TestJSONLEnabled(t *testing.T) {
	t.Setenv(razerdiag.EnvDisableJSONL, "")
	assert.True(t, JSONLEnabled())

	t.Setenv(razerdiag.EnvDisableJSONL, "1")
	assert.False(t, JSONLEnabled())
}
