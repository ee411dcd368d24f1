// Package razer is a session-bus client for the OpenRazer daemon.
//
// The daemon exposes everything over DBus: the well-known name org.razer, a
// root object /org/razer for discovery, and one object per device under
// /org/razer/device/<serial>. Device capabilities are not uniform across the
// product range, so each device handle carries the capability set discovered
// via DBus introspection and callers gate optional operations on Has.
package razer

import "github.com/godbus/dbus/v5"

const (
	// BusName is the daemon's well-known name on the session bus.
	BusName = "org.razer"
	// RootPath hosts daemon-level methods (device listing, version).
	RootPath = dbus.ObjectPath("/org/razer")

	devicePathPrefix = "/org/razer/device/"
)

// Capability keys are fully qualified DBus interface.method names as they
// appear in device introspection data.
const (
	CapBrightness       = "razer.device.lighting.brightness.getBrightness"
	CapSetBrightness    = "razer.device.lighting.brightness.setBrightness"
	CapStatic           = "razer.device.lighting.chroma.setStatic"
	CapBreathRandom     = "razer.device.lighting.chroma.setBreathRandom"
	CapWave             = "razer.device.lighting.chroma.setWave"
	CapReactive         = "razer.device.lighting.chroma.setReactive"
	CapSpectrum         = "razer.device.lighting.chroma.setSpectrum"
	CapNone             = "razer.device.lighting.chroma.setNone"
	CapLogoStatic       = "razer.device.lighting.logo.setLogoStatic"
	CapScrollStatic     = "razer.device.lighting.scroll.setScrollStatic"
	CapMatrixDimensions = "razer.device.misc.getMatrixDimensions"
	CapDeviceMode       = "razer.device.misc.getDeviceMode"
	CapPollRate         = "razer.device.misc.getPollRate"
	CapDPI              = "razer.device.dpi.getDPI"
	CapAvailableDPI     = "razer.device.dpi.availableDPI"
	CapMaxDPI           = "razer.device.dpi.maxDPI"
	CapBattery          = "razer.device.power.getBattery"
	CapCharging         = "razer.device.power.isCharging"
	CapIdleTime         = "razer.device.power.getIdleTime"
	CapGameMode         = "razer.device.led.gamemode.getGameMode"
)

// Wave directions accepted by setWave.
const (
	WaveRight = 1
	WaveLeft  = 2
)
