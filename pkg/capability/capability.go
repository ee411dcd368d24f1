// Package capability probes what a daemon-managed device can actually do:
// identity properties, lighting effects across the matrix/logo/scroll zones,
// and auxiliary features such as DPI, battery and the game-mode LED. Effects
// are applied for real, so probes space them out to make changes visible and
// always restore values they modified.
package capability

import (
	"context"
	"time"
)

// Device is the slice of the daemon client the prober needs. *razer.Device
// satisfies it; tests substitute fakes.
type Device interface {
	Serial() string
	Has(capability string) bool

	Name(ctx context.Context) (string, error)
	Type(ctx context.Context) (string, error)
	Firmware(ctx context.Context) (string, error)
	DriverVersion(ctx context.Context) (string, error)
	VidPid(ctx context.Context) (string, error)
	DeviceMode(ctx context.Context) (string, error)
	PollRate(ctx context.Context) (int, error)
	MatrixDimensions(ctx context.Context) (rows, cols int, err error)

	Brightness(ctx context.Context) (float64, error)
	SetBrightness(ctx context.Context, value float64) error
	Static(ctx context.Context, r, g, b byte) error
	BreathRandom(ctx context.Context) error
	Wave(ctx context.Context, direction int) error
	Reactive(ctx context.Context, r, g, b, speed byte) error
	Spectrum(ctx context.Context) error
	LogoStatic(ctx context.Context, r, g, b byte) error
	ScrollStatic(ctx context.Context, r, g, b byte) error

	DPI(ctx context.Context) (x, y int, err error)
	AvailableDPI(ctx context.Context) ([]int, error)
	Battery(ctx context.Context) (float64, error)
	IsCharging(ctx context.Context) (bool, error)
	IdleTime(ctx context.Context) (time.Duration, error)
	GameMode(ctx context.Context) (bool, error)
}

// ProbeResult records one attempted capability.
type ProbeResult struct {
	Capability string `json:"capability"`
	OK         bool   `json:"ok"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report is the full capability report for one device.
type Report struct {
	Serial      string        `json:"serial"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Firmware    string        `json:"firmware"`
	Driver      string        `json:"driver"`
	VidPid      string        `json:"vid_pid,omitempty"`
	DeviceMode  string        `json:"device_mode,omitempty"`
	PollRate    int           `json:"poll_rate,omitempty"`
	MatrixRows  int           `json:"matrix_rows,omitempty"`
	MatrixCols  int           `json:"matrix_cols,omitempty"`
	HasLighting bool          `json:"has_lighting"`
	Lighting    []ProbeResult `json:"lighting,omitempty"`
	Other       []ProbeResult `json:"other,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// HasOther reports whether any auxiliary capability probe ran.
func (r *Report) HasOther() bool { return len(r.Other) > 0 }

// Failures counts probes that errored.
func (r *Report) Failures() int {
	n := 0
	for _, p := range r.Lighting {
		if !p.OK {
			n++
		}
	}
	for _, p := range r.Other {
		if !p.OK {
			n++
		}
	}
	return n
}
