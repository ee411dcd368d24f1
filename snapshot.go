package razerdiag

import (
	"context"
	"time"
)

// DeviceSnapshot captures the state of one device at a point in time. The
// watch loop emits a batch of snapshots on every refresh cycle.
type DeviceSnapshot struct {
	Serial         string
	Name           string
	Type           string
	Firmware       string
	DriverVersion  string
	VidPid         string
	Status         string
	ToolkitVersion string
	LastError      string
	LastSeenAt     time.Time
}

// Device status values recorded by the watch loop.
const (
	StatusIdle    = "idle"
	StatusOffline = "offline"
)

// DeviceRecorder persists device snapshots to a local store.
type DeviceRecorder interface {
	UpsertDevices(ctx context.Context, devices []DeviceSnapshot) error
}

// NoopRecorder is the default implementation when recording is disabled.
type NoopRecorder struct{}

func (NoopRecorder) UpsertDevices(ctx context.Context, devices []DeviceSnapshot) error {
	return nil
}
