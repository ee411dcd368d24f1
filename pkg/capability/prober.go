package capability

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/openrazer-tools/razerdiag/pkg/razer"
)

// Probe delays. Effects are sampled by eye, so each one is left visible for
// a moment before the next overwrites it.
const (
	brightnessSettle = 100 * time.Millisecond
	colorDelay       = 500 * time.Millisecond
	effectDelay      = time.Second
)

// Prober walks a device's capability set, printing findings as it goes and
// returning a structured Report.
type Prober struct {
	out io.Writer
	// sleep is swappable so tests do not wait out effect delays.
	sleep func(time.Duration)
	// skipEffects limits the probe to read-only operations.
	skipEffects bool
	clock       func() time.Time
}

// ProberOption tweaks a Prober.
type ProberOption func(*Prober)

// WithSleep substitutes the delay function (tests).
func WithSleep(sleep func(time.Duration)) ProberOption {
	return func(p *Prober) { p.sleep = sleep }
}

// WithClock substitutes the report timestamp source (tests).
func WithClock(clock func() time.Time) ProberOption {
	return func(p *Prober) { p.clock = clock }
}

// SkipEffects restricts the probe to reads; no lighting or zone changes.
func SkipEffects() ProberOption {
	return func(p *Prober) { p.skipEffects = true }
}

// NewProber writes human-readable progress to out.
func NewProber(out io.Writer, opts ...ProberOption) *Prober {
	p := &Prober{out: out, sleep: time.Sleep, clock: time.Now}
	if out == nil {
		p.out = io.Discard
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs the full capability walk for one device.
func (p *Prober) Probe(ctx context.Context, dev Device) *Report {
	report := &Report{Serial: dev.Serial(), GeneratedAt: p.clock()}

	p.probeInfo(ctx, dev, report)
	p.probeLighting(ctx, dev, report)
	p.probeOther(ctx, dev, report)

	if !report.HasLighting && !report.HasOther() {
		p.printf("\n--- Detailed Capabilities for %s ---\n", report.Name)
		p.printf("Use this for debugging:\n")
		caps := capabilityList(dev)
		for _, c := range caps {
			p.printf("  %s\n", c)
		}
	}
	return report
}

func (p *Prober) probeInfo(ctx context.Context, dev Device, report *Report) {
	if name, err := dev.Name(ctx); err == nil {
		report.Name = name
	}
	if report.Name == "" {
		report.Name = dev.Serial()
	}
	p.printf("\n=== %s ===\n", report.Name)

	if typ, err := dev.Type(ctx); err == nil {
		report.Type = typ
		p.printf("Type: %s\n", typ)
	}
	p.printf("Serial: %s\n", dev.Serial())
	if fw, err := dev.Firmware(ctx); err == nil {
		report.Firmware = fw
		p.printf("Firmware: %s\n", fw)
	}
	if drv, err := dev.DriverVersion(ctx); err == nil {
		report.Driver = drv
		p.printf("Driver: %s\n", drv)
	}
	if vidpid, err := dev.VidPid(ctx); err == nil {
		report.VidPid = vidpid
	}
	if dev.Has(razer.CapDeviceMode) {
		if mode, err := dev.DeviceMode(ctx); err == nil {
			report.DeviceMode = mode
			p.printf("Device Mode: %s\n", mode)
		}
	}
	if dev.Has(razer.CapPollRate) {
		if rate, err := dev.PollRate(ctx); err == nil {
			report.PollRate = rate
			p.printf("Poll Rate: %d\n", rate)
		} else {
			p.printf("Poll Rate: not readable\n")
		}
	}
}

func (p *Prober) probeLighting(ctx context.Context, dev Device, report *Report) {
	p.printf("\n--- Lighting Capabilities for %s ---\n", report.Name)

	hasMatrix := dev.Has(razer.CapSetBrightness) || dev.Has(razer.CapStatic)
	if !hasMatrix && !dev.Has(razer.CapLogoStatic) && !dev.Has(razer.CapScrollStatic) {
		p.printf("No lighting effects available\n")
		return
	}

	if hasMatrix {
		p.printf("✓ Matrix lighting available\n")
		report.HasLighting = true
		if dev.Has(razer.CapMatrixDimensions) {
			if rows, cols, err := dev.MatrixDimensions(ctx); err == nil {
				report.MatrixRows = rows
				report.MatrixCols = cols
				p.printf("  Matrix dimensions: %dx%d\n", rows, cols)
			}
		}
		p.probeBrightness(ctx, dev, report)
		p.probeMatrixEffects(ctx, dev, report)
	}

	if dev.Has(razer.CapLogoStatic) {
		p.printf("✓ Logo lighting available\n")
		report.HasLighting = true
		p.runEffect(report, "logo static", func() error {
			if p.skipEffects {
				return nil
			}
			return dev.LogoStatic(ctx, 255, 255, 255)
		})
	}

	if dev.Has(razer.CapScrollStatic) {
		p.printf("✓ Scroll wheel lighting available\n")
		report.HasLighting = true
		p.runEffect(report, "scroll static", func() error {
			if p.skipEffects {
				return nil
			}
			return dev.ScrollStatic(ctx, 255, 255, 0)
		})
	}
}

// probeBrightness reads, changes and restores the matrix brightness. The
// original value is restored even when the intermediate read fails.
func (p *Prober) probeBrightness(ctx context.Context, dev Device, report *Report) {
	if !dev.Has(razer.CapBrightness) || !dev.Has(razer.CapSetBrightness) {
		return
	}
	original, err := dev.Brightness(ctx)
	if err != nil {
		p.recordFail(report, "brightness", err)
		return
	}
	p.printf("  Current brightness: %.0f\n", original)

	if p.skipEffects {
		p.record(report, ProbeResult{Capability: "brightness", OK: true, Detail: fmt.Sprintf("%.0f", original)})
		return
	}

	if err := dev.SetBrightness(ctx, 128); err != nil {
		p.recordFail(report, "brightness", err)
		return
	}
	p.sleep(brightnessSettle)
	readBack, readErr := dev.Brightness(ctx)
	if restoreErr := dev.SetBrightness(ctx, original); restoreErr != nil {
		p.recordFail(report, "brightness restore", restoreErr)
	}
	if readErr != nil {
		p.recordFail(report, "brightness", readErr)
		return
	}
	p.printf("  Set brightness to 128, got: %.0f\n", readBack)
	p.printf("  ✓ Brightness control working\n")
	p.record(report, ProbeResult{Capability: "brightness", OK: true, Detail: fmt.Sprintf("%.0f -> %.0f", original, readBack)})
}

func (p *Prober) probeMatrixEffects(ctx context.Context, dev Device, report *Report) {
	if p.skipEffects {
		return
	}

	if dev.Has(razer.CapStatic) {
		colors := []struct {
			name    string
			label   string
			r, g, b byte
		}{
			{"static red", "Static red", 255, 0, 0},
			{"static green", "Static green", 0, 255, 0},
			{"static blue", "Static blue", 0, 0, 255},
		}
		for _, c := range colors {
			err := dev.Static(ctx, c.r, c.g, c.b)
			if err != nil {
				p.recordFail(report, c.name, err)
				break
			}
			p.printf("  ✓ %s color set\n", c.label)
			p.record(report, ProbeResult{Capability: c.name, OK: true})
			p.sleep(colorDelay)
		}
	}

	effects := []struct {
		capability string
		name       string
		label      string
		apply      func() error
	}{
		{razer.CapBreathRandom, "random breathing", "Random breathing", func() error { return dev.BreathRandom(ctx) }},
		{razer.CapWave, "wave effect", "Wave effect", func() error { return dev.Wave(ctx, razer.WaveRight) }},
		{razer.CapReactive, "reactive effect", "Reactive effect", func() error { return dev.Reactive(ctx, 0, 255, 0, 2) }},
		{razer.CapSpectrum, "spectrum cycling", "Spectrum cycling", func() error { return dev.Spectrum(ctx) }},
	}
	for _, effect := range effects {
		if !dev.Has(effect.capability) {
			continue
		}
		if err := effect.apply(); err != nil {
			p.recordFail(report, effect.name, err)
			continue
		}
		p.printf("  ✓ %s working\n", effect.label)
		p.record(report, ProbeResult{Capability: effect.name, OK: true})
		p.sleep(effectDelay)
	}
}

func (p *Prober) probeOther(ctx context.Context, dev Device, report *Report) {
	p.printf("\n--- Other Capabilities for %s ---\n", report.Name)

	if dev.Has(razer.CapDPI) {
		if x, y, err := dev.DPI(ctx); err == nil {
			detail := fmt.Sprintf("%dx%d", x, y)
			p.printf("  Current DPI: %s\n", detail)
			if dev.Has(razer.CapAvailableDPI) {
				if stops, err := dev.AvailableDPI(ctx); err == nil && len(stops) > 0 {
					p.printf("  Available DPI: %v\n", stops)
					detail += fmt.Sprintf(" of %v", stops)
				}
			}
			report.Other = append(report.Other, ProbeResult{Capability: "dpi", OK: true, Detail: detail})
		} else {
			p.recordOtherFail(report, "dpi", err)
		}
	}

	if dev.Has(razer.CapBattery) {
		if level, err := dev.Battery(ctx); err == nil {
			p.printf("  Battery level: %.0f%%\n", level)
			report.Other = append(report.Other, ProbeResult{Capability: "battery", OK: true, Detail: fmt.Sprintf("%.0f%%", level)})
		} else {
			p.recordOtherFail(report, "battery", err)
		}
	}

	if dev.Has(razer.CapCharging) {
		if charging, err := dev.IsCharging(ctx); err == nil {
			p.printf("  Charging: %t\n", charging)
			report.Other = append(report.Other, ProbeResult{Capability: "charging", OK: true, Detail: fmt.Sprintf("%t", charging)})
		} else {
			p.recordOtherFail(report, "charging", err)
		}
	}

	if dev.Has(razer.CapIdleTime) {
		if idle, err := dev.IdleTime(ctx); err == nil {
			p.printf("  Idle time: %s\n", idle)
			report.Other = append(report.Other, ProbeResult{Capability: "idle time", OK: true, Detail: idle.String()})
		} else {
			p.recordOtherFail(report, "idle time", err)
		}
	}

	if dev.Has(razer.CapGameMode) {
		if on, err := dev.GameMode(ctx); err == nil {
			p.printf("  Game mode LED: %t\n", on)
			report.Other = append(report.Other, ProbeResult{Capability: "game mode", OK: true, Detail: fmt.Sprintf("%t", on)})
		} else {
			p.recordOtherFail(report, "game mode", err)
		}
	}

	if len(report.Other) == 0 {
		p.printf("  No additional capabilities detected\n")
	}
}

func (p *Prober) runEffect(report *Report, name string, apply func() error) {
	if err := apply(); err != nil {
		p.recordFail(report, name, err)
		return
	}
	p.printf("  ✓ %s working\n", name)
	p.record(report, ProbeResult{Capability: name, OK: true})
}

func (p *Prober) record(report *Report, result ProbeResult) {
	report.Lighting = append(report.Lighting, result)
}

func (p *Prober) recordFail(report *Report, name string, err error) {
	p.printf("  ✗ %s failed: %v\n", name, err)
	report.Lighting = append(report.Lighting, ProbeResult{Capability: name, Error: err.Error()})
}

func (p *Prober) recordOtherFail(report *Report, name string, err error) {
	p.printf("  ✗ %s test failed: %v\n", name, err)
	report.Other = append(report.Other, ProbeResult{Capability: name, Error: err.Error()})
}

func (p *Prober) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// capabilityList returns a sorted capability dump for unknown devices.
func capabilityList(dev Device) []string {
	type lister interface{ Capabilities() []string }
	if l, ok := dev.(lister); ok {
		caps := l.Capabilities()
		sort.Strings(caps)
		return caps
	}
	return nil
}
