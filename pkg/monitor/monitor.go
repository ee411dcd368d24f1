// Package monitor tracks connected devices over repeated bus scans and keeps
// the recorder in sync with connect and disconnect transitions.
package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	razerdiag "github.com/openrazer-tools/razerdiag"
)

const offlineThreshold = 5 * time.Minute

// Provider lists the serials currently visible on the bus.
type Provider interface {
	ListDevices(ctx context.Context) ([]string, error)
}

// Meta holds static device information filled in on first sight.
type Meta struct {
	Name          string
	Type          string
	Firmware      string
	DriverVersion string
	VidPid        string
}

// MetaFetcher resolves metadata for a serial. Called once per device while
// the manager lock is held, so implementations should be quick.
type MetaFetcher func(ctx context.Context, serial string) Meta

// Manager maintains per-serial state between scans.
type Manager struct {
	provider  Provider
	recorder  razerdiag.DeviceRecorder
	allowlist map[string]struct{}

	mu      sync.Mutex
	devices map[string]*state
}

type state struct {
	serial    string
	status    string
	lastSeen  time.Time
	meta      Meta
	metaReady bool
}

// NewManager builds a device state manager. A nil or empty allowlist admits
// every serial.
func NewManager(provider Provider, recorder razerdiag.DeviceRecorder, allowlist []string) *Manager {
	return &Manager{
		provider:  provider,
		recorder:  recorder,
		allowlist: razerdiag.BuildDeviceAllowlistSet(allowlist),
		devices:   make(map[string]*state),
	}
}

// Refresh scans the bus once and pushes resulting snapshots to the recorder.
// Recorder failures are logged, not returned; a broken database must not
// stop the watch loop.
func (m *Manager) Refresh(ctx context.Context, fetchMeta MetaFetcher) error {
	if m == nil || m.provider == nil {
		return errors.New("monitor: provider is nil")
	}
	serials, err := m.provider.ListDevices(ctx)
	if err != nil {
		return errors.Wrap(err, "list devices failed")
	}
	now := time.Now()
	seen := make(map[string]struct{}, len(serials))
	snapshots := make([]razerdiag.DeviceSnapshot, 0, len(serials))

	m.mu.Lock()
	for _, serial := range serials {
		serial = strings.TrimSpace(serial)
		if serial == "" || !m.admits(serial) {
			continue
		}
		seen[serial] = struct{}{}
		dev, exists := m.devices[serial]
		if exists {
			dev.lastSeen = now
			if !dev.metaReady && fetchMeta != nil {
				dev.meta = fetchMeta(ctx, serial)
				dev.metaReady = true
			}
		} else {
			var meta Meta
			if fetchMeta != nil {
				meta = fetchMeta(ctx, serial)
			}
			dev = &state{
				serial:    serial,
				status:    razerdiag.StatusIdle,
				lastSeen:  now,
				meta:      meta,
				metaReady: true,
			}
			m.devices[serial] = dev
			log.Info().Str("serial", serial).Str("name", meta.Name).Msg("device connected")
		}
		snapshots = append(snapshots, m.snapshotLocked(dev, now))
	}

	for serial, dev := range m.devices {
		if _, ok := seen[serial]; ok {
			continue
		}
		if now.Sub(dev.lastSeen) < offlineThreshold {
			continue
		}
		delete(m.devices, serial)
		dev.status = razerdiag.StatusOffline
		snapshots = append(snapshots, m.snapshotLocked(dev, dev.lastSeen))
		log.Info().Str("serial", serial).Msg("device disconnected")
	}
	m.mu.Unlock()

	if m.recorder != nil && len(snapshots) > 0 {
		if err := m.recorder.UpsertDevices(ctx, snapshots); err != nil {
			log.Error().Err(err).Msg("device recorder upsert failed")
		}
	}
	return nil
}

// Run refreshes at the given interval until the context is cancelled. The
// first scan happens immediately.
func (m *Manager) Run(ctx context.Context, interval time.Duration, fetchMeta MetaFetcher) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if err := m.Refresh(ctx, fetchMeta); err != nil {
		log.Warn().Err(err).Msg("initial device scan failed")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.Refresh(ctx, fetchMeta); err != nil {
				log.Warn().Err(err).Msg("device scan failed")
			}
		}
	}
}

// Serials returns the serials currently tracked as present.
func (m *Manager) Serials() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.devices))
	for serial := range m.devices {
		result = append(result, serial)
	}
	return result
}

// Meta returns the cached metadata for a serial.
func (m *Manager) Meta(serial string) Meta {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dev, ok := m.devices[serial]; ok {
		return dev.meta
	}
	return Meta{}
}

func (m *Manager) admits(serial string) bool {
	if len(m.allowlist) == 0 {
		return true
	}
	_, ok := m.allowlist[serial]
	return ok
}

func (m *Manager) snapshotLocked(dev *state, seenAt time.Time) razerdiag.DeviceSnapshot {
	return razerdiag.DeviceSnapshot{
		Serial:         dev.serial,
		Name:           dev.meta.Name,
		Type:           dev.meta.Type,
		Firmware:       dev.meta.Firmware,
		DriverVersion:  dev.meta.DriverVersion,
		VidPid:         dev.meta.VidPid,
		Status:         dev.status,
		ToolkitVersion: razerdiag.Version,
		LastSeenAt:     seenAt,
	}
}
