package razer

import (
	"context"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCaller replays canned DBus call results keyed by method name.
type stubCaller struct {
	responses map[string][]interface{}
	errs      map[string]error
	calls     []stubCall
}

type stubCall struct {
	method string
	args   []interface{}
}

func (s *stubCaller) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	s.calls = append(s.calls, stubCall{method: method, args: args})
	if err, ok := s.errs[method]; ok {
		return &dbus.Call{Err: err}
	}
	body, ok := s.responses[method]
	if !ok {
		return &dbus.Call{Err: dbus.ErrMsgUnknownMethod}
	}
	return &dbus.Call{Body: body}
}

const deviceIntrospection = `<node>
  <interface name="razer.device.misc">
    <method name="getDeviceName"/>
    <method name="getDeviceType"/>
    <method name="getSerial"/>
    <method name="getFirmware"/>
    <method name="getVidPid"/>
  </interface>
  <interface name="razer.device.lighting.brightness">
    <method name="getBrightness"/>
    <method name="setBrightness"/>
  </interface>
  <interface name="razer.device.lighting.chroma">
    <method name="setStatic"/>
    <method name="setSpectrum"/>
  </interface>
</node>`

func newStubClient(root *stubCaller, device *stubCaller) *Client {
	return &Client{
		root: root,
		deviceObject: func(path dbus.ObjectPath) caller {
			return device
		},
	}
}

func TestDaemonVersion(t *testing.T) {
	root := &stubCaller{responses: map[string][]interface{}{
		"razer.daemon.version": {" 3.8.0\n"},
	}}
	client := newStubClient(root, nil)

	version, err := client.DaemonVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.8.0", version)
}

func TestSerialsDropsBlanks(t *testing.T) {
	root := &stubCaller{responses: map[string][]interface{}{
		"razer.devices.getDevices": {[]string{"PM1234", "", "  ", "XX9999"}},
	}}
	client := newStubClient(root, nil)

	serials, err := client.Serials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"PM1234", "XX9999"}, serials)
}

func TestDeviceBuildsCapabilitySet(t *testing.T) {
	device := &stubCaller{responses: map[string][]interface{}{
		introspectMethod: {deviceIntrospection},
	}}
	client := newStubClient(nil, device)

	dev, err := client.Device(context.Background(), " PM1234 ")
	require.NoError(t, err)
	assert.Equal(t, "PM1234", dev.Serial())
	assert.Equal(t, dbus.ObjectPath("/org/razer/device/PM1234"), dev.Path())

	assert.True(t, dev.Has(CapBrightness))
	assert.True(t, dev.Has(CapStatic))
	assert.True(t, dev.Has(CapSpectrum))
	assert.False(t, dev.Has(CapWave))
	assert.False(t, dev.Has(CapBattery))
}

func TestDeviceRejectsEmptySerial(t *testing.T) {
	client := newStubClient(nil, nil)
	_, err := client.Device(context.Background(), "   ")
	require.Error(t, err)
}

func TestDevicePropertyReads(t *testing.T) {
	device := &stubCaller{responses: map[string][]interface{}{
		introspectMethod:                  {deviceIntrospection},
		"razer.device.misc.getDeviceName": {"Razer BlackWidow V3"},
		"razer.device.misc.getDeviceType": {"keyboard"},
		"razer.device.misc.getFirmware":   {"v1.0"},
		"razer.device.misc.getVidPid":     {[]int32{0x1532, 0x024e}},
		"razer.device.misc.getPollRate":   {int32(1000)},
		"razer.device.dpi.getDPI":         {[]int32{800, 600}},
		"razer.device.power.getBattery":   {42.5},
		"razer.device.power.isCharging":   {true},
		"razer.device.power.getIdleTime":  {uint16(600)},
	}}
	client := newStubClient(nil, device)
	dev, err := client.Device(context.Background(), "PM1234")
	require.NoError(t, err)
	ctx := context.Background()

	name, err := dev.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Razer BlackWidow V3", name)

	typ, err := dev.Type(ctx)
	require.NoError(t, err)
	assert.Equal(t, "keyboard", typ)

	vidpid, err := dev.VidPid(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1532:024e", vidpid)

	rate, err := dev.PollRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, rate)

	x, y, err := dev.DPI(ctx)
	require.NoError(t, err)
	assert.Equal(t, 800, x)
	assert.Equal(t, 600, y)

	battery, err := dev.Battery(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, battery, 0.001)

	charging, err := dev.IsCharging(ctx)
	require.NoError(t, err)
	assert.True(t, charging)

	idle, err := dev.IdleTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10m0s", idle.String())
}

func TestDeviceEffectCallsPassArguments(t *testing.T) {
	device := &stubCaller{responses: map[string][]interface{}{
		introspectMethod:                                 {deviceIntrospection},
		"razer.device.lighting.chroma.setStatic":         nil,
		"razer.device.lighting.brightness.setBrightness": nil,
		"razer.device.lighting.chroma.setWave":           nil,
	}}
	client := newStubClient(nil, device)
	dev, err := client.Device(context.Background(), "PM1234")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, dev.Static(ctx, 255, 0, 0))
	require.NoError(t, dev.SetBrightness(ctx, 128))
	require.NoError(t, dev.Wave(ctx, WaveRight))

	last := device.calls[len(device.calls)-1]
	assert.Equal(t, "razer.device.lighting.chroma.setWave", last.method)
	assert.Equal(t, []interface{}{int32(WaveRight)}, last.args)

	static := device.calls[len(device.calls)-3]
	assert.Equal(t, []interface{}{byte(255), byte(0), byte(0)}, static.args)
}

func TestDeviceCallError(t *testing.T) {
	device := &stubCaller{
		responses: map[string][]interface{}{introspectMethod: {deviceIntrospection}},
		errs:      map[string]error{"razer.device.misc.getDeviceName": dbus.ErrMsgNoObject},
	}
	client := newStubClient(nil, device)
	dev, err := client.Device(context.Background(), "PM1234")
	require.NoError(t, err)

	_, err = dev.Name(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getDeviceName")
}
