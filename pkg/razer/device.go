package razer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

// Device is a handle to one daemon-managed device. All property reads and
// effect calls go through DBus; optional operations should be gated on Has.
type Device struct {
	serial string
	path   dbus.ObjectPath
	obj    caller
	caps   map[string]struct{}
}

// Serial returns the serial the device object path was built from.
func (d *Device) Serial() string { return d.serial }

// Path returns the device's DBus object path.
func (d *Device) Path() dbus.ObjectPath { return d.path }

// Has reports whether introspection advertised the given capability key
// ("interface.method", see the Cap constants).
func (d *Device) Has(capability string) bool {
	if d == nil {
		return false
	}
	_, ok := d.caps[capability]
	return ok
}

// Capabilities returns a copy of the discovered capability set.
func (d *Device) Capabilities() []string {
	out := make([]string, 0, len(d.caps))
	for c := range d.caps {
		out = append(out, c)
	}
	return out
}

func (d *Device) call(ctx context.Context, method string, retval interface{}, args ...interface{}) error {
	call := d.obj.CallWithContext(ctx, method, 0, args...)
	if retval == nil {
		if call.Err != nil {
			return errors.Wrapf(call.Err, "call %s on %s failed", method, d.serial)
		}
		return nil
	}
	if err := call.Store(retval); err != nil {
		return errors.Wrapf(err, "call %s on %s failed", method, d.serial)
	}
	return nil
}

// Name returns the marketing name reported by the driver.
func (d *Device) Name(ctx context.Context) (string, error) {
	var name string
	err := d.call(ctx, "razer.device.misc.getDeviceName", &name)
	return strings.TrimSpace(name), err
}

// Type returns the device class (keyboard, mouse, mousemat, ...).
func (d *Device) Type(ctx context.Context) (string, error) {
	var typ string
	err := d.call(ctx, "razer.device.misc.getDeviceType", &typ)
	return strings.TrimSpace(typ), err
}

// Firmware returns the firmware version string.
func (d *Device) Firmware(ctx context.Context) (string, error) {
	var fw string
	err := d.call(ctx, "razer.device.misc.getFirmware", &fw)
	return strings.TrimSpace(fw), err
}

// DriverVersion returns the kernel driver version string.
func (d *Device) DriverVersion(ctx context.Context) (string, error) {
	var v string
	err := d.call(ctx, "razer.device.misc.getDriverVersion", &v)
	return strings.TrimSpace(v), err
}

// VidPid returns the USB vendor/product pair formatted as "1532:0203".
func (d *Device) VidPid(ctx context.Context) (string, error) {
	var ids []int32
	if err := d.call(ctx, "razer.device.misc.getVidPid", &ids); err != nil {
		return "", err
	}
	if len(ids) < 2 {
		return "", errors.Errorf("device %s returned malformed vid/pid %v", d.serial, ids)
	}
	return fmt.Sprintf("%04x:%04x", ids[0], ids[1]), nil
}

// DeviceMode returns the driver/device mode byte pair as reported.
func (d *Device) DeviceMode(ctx context.Context) (string, error) {
	var mode string
	err := d.call(ctx, "razer.device.misc.getDeviceMode", &mode)
	return strings.TrimSpace(mode), err
}

// PollRate returns the polling rate in Hz.
func (d *Device) PollRate(ctx context.Context) (int, error) {
	var rate int32
	err := d.call(ctx, "razer.device.misc.getPollRate", &rate)
	return int(rate), err
}

// MatrixDimensions returns the LED matrix rows/columns.
func (d *Device) MatrixDimensions(ctx context.Context) (rows, cols int, err error) {
	var dims []int32
	if err := d.call(ctx, "razer.device.misc.getMatrixDimensions", &dims); err != nil {
		return 0, 0, err
	}
	if len(dims) < 2 {
		return 0, 0, errors.Errorf("device %s returned malformed matrix dimensions %v", d.serial, dims)
	}
	return int(dims[0]), int(dims[1]), nil
}

// Brightness returns the matrix brightness (0-100).
func (d *Device) Brightness(ctx context.Context) (float64, error) {
	var b float64
	err := d.call(ctx, "razer.device.lighting.brightness.getBrightness", &b)
	return b, err
}

// SetBrightness sets the matrix brightness. The daemon clamps out-of-range
// values.
func (d *Device) SetBrightness(ctx context.Context, value float64) error {
	return d.call(ctx, "razer.device.lighting.brightness.setBrightness", nil, value)
}

// Static sets a static matrix color.
func (d *Device) Static(ctx context.Context, r, g, b byte) error {
	return d.call(ctx, "razer.device.lighting.chroma.setStatic", nil, r, g, b)
}

// BreathRandom starts the random-color breathing effect.
func (d *Device) BreathRandom(ctx context.Context) error {
	return d.call(ctx, "razer.device.lighting.chroma.setBreathRandom", nil)
}

// Wave starts the wave effect in the given direction (WaveRight/WaveLeft).
func (d *Device) Wave(ctx context.Context, direction int) error {
	return d.call(ctx, "razer.device.lighting.chroma.setWave", nil, int32(direction))
}

// Reactive lights keys on press with the given color; speed is 1-4.
func (d *Device) Reactive(ctx context.Context, r, g, b, speed byte) error {
	return d.call(ctx, "razer.device.lighting.chroma.setReactive", nil, r, g, b, speed)
}

// Spectrum starts the spectrum-cycling effect.
func (d *Device) Spectrum(ctx context.Context) error {
	return d.call(ctx, "razer.device.lighting.chroma.setSpectrum", nil)
}

// NoEffect turns the matrix lighting off.
func (d *Device) NoEffect(ctx context.Context) error {
	return d.call(ctx, "razer.device.lighting.chroma.setNone", nil)
}

// LogoStatic sets a static color on the logo zone.
func (d *Device) LogoStatic(ctx context.Context, r, g, b byte) error {
	return d.call(ctx, "razer.device.lighting.logo.setLogoStatic", nil, r, g, b)
}

// ScrollStatic sets a static color on the scroll-wheel zone.
func (d *Device) ScrollStatic(ctx context.Context, r, g, b byte) error {
	return d.call(ctx, "razer.device.lighting.scroll.setScrollStatic", nil, r, g, b)
}

// DPI returns the current x/y DPI.
func (d *Device) DPI(ctx context.Context) (x, y int, err error) {
	var dpi []int32
	if err := d.call(ctx, "razer.device.dpi.getDPI", &dpi); err != nil {
		return 0, 0, err
	}
	if len(dpi) == 0 {
		return 0, 0, errors.Errorf("device %s returned empty dpi", d.serial)
	}
	x = int(dpi[0])
	y = x
	if len(dpi) > 1 {
		y = int(dpi[1])
	}
	return x, y, nil
}

// SetDPI sets the x/y DPI.
func (d *Device) SetDPI(ctx context.Context, x, y int) error {
	return d.call(ctx, "razer.device.dpi.setDPI", nil, uint16(x), uint16(y))
}

// AvailableDPI returns the DPI stops the hardware advertises.
func (d *Device) AvailableDPI(ctx context.Context) ([]int, error) {
	var stops []int32
	if err := d.call(ctx, "razer.device.dpi.availableDPI", &stops); err != nil {
		return nil, err
	}
	out := make([]int, len(stops))
	for i, s := range stops {
		out[i] = int(s)
	}
	return out, nil
}

// MaxDPI returns the maximum supported DPI.
func (d *Device) MaxDPI(ctx context.Context) (int, error) {
	var limit int32
	err := d.call(ctx, "razer.device.dpi.maxDPI", &limit)
	return int(limit), err
}

// Battery returns the charge level in percent.
func (d *Device) Battery(ctx context.Context) (float64, error) {
	var level float64
	err := d.call(ctx, "razer.device.power.getBattery", &level)
	return level, err
}

// IsCharging reports whether the device is currently charging.
func (d *Device) IsCharging(ctx context.Context) (bool, error) {
	var charging bool
	err := d.call(ctx, "razer.device.power.isCharging", &charging)
	return charging, err
}

// IdleTime returns the wireless idle timeout.
func (d *Device) IdleTime(ctx context.Context) (time.Duration, error) {
	var seconds uint16
	if err := d.call(ctx, "razer.device.power.getIdleTime", &seconds); err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// GameMode reports whether the game-mode LED is lit.
func (d *Device) GameMode(ctx context.Context) (bool, error) {
	var on bool
	err := d.call(ctx, "razer.device.led.gamemode.getGameMode", &on)
	return on, err
}
