package razer

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// caller is the slice of dbus.BusObject the client needs; tests substitute a
// stub that replays canned call bodies.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Client talks to the OpenRazer daemon on the session bus.
type Client struct {
	conn *dbus.Conn
	root caller

	// deviceObject builds the caller for a device path; overridable in tests.
	deviceObject func(path dbus.ObjectPath) caller
}

// Connect opens a private session-bus connection and verifies it. It does
// not require the daemon to be running; use Ping for that.
func Connect(ctx context.Context) (*Client, error) {
	conn, err := dbus.SessionBusPrivate(dbus.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "razer: connect session bus failed")
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "razer: session bus auth failed")
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "razer: session bus hello failed")
	}
	c := &Client{conn: conn}
	c.root = conn.Object(BusName, RootPath)
	c.deviceObject = func(path dbus.ObjectPath) caller {
		return conn.Object(BusName, path)
	}
	return c, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Ping confirms the daemon owns its bus name and returns its version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var owned bool
	busObj := c.conn.BusObject()
	if err := busObj.CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned); err != nil {
		return "", errors.Wrap(err, "razer: query bus name owner failed")
	}
	if !owned {
		return "", errors.Errorf("razer: daemon not present on session bus (%s)", BusName)
	}
	return c.DaemonVersion(ctx)
}

// DaemonVersion returns the daemon's reported version string.
func (c *Client) DaemonVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.root.CallWithContext(ctx, "razer.daemon.version", 0).Store(&version); err != nil {
		return "", errors.Wrap(err, "razer: read daemon version failed")
	}
	return strings.TrimSpace(version), nil
}

// Serials lists the serial numbers of all devices the daemon manages. Blank
// entries are dropped.
func (c *Client) Serials(ctx context.Context) ([]string, error) {
	var serials []string
	if err := c.root.CallWithContext(ctx, "razer.devices.getDevices", 0).Store(&serials); err != nil {
		return nil, errors.Wrap(err, "razer: list devices failed")
	}
	out := make([]string, 0, len(serials))
	for _, serial := range serials {
		if trimmed := strings.TrimSpace(serial); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// Device builds a handle for one device, discovering its capability set via
// introspection.
func (c *Client) Device(ctx context.Context, serial string) (*Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, errors.New("razer: device serial is empty")
	}
	path := dbus.ObjectPath(devicePathPrefix + serial)
	obj := c.deviceObject(path)
	caps, err := introspectCapabilities(ctx, obj)
	if err != nil {
		return nil, errors.Wrapf(err, "razer: introspect device %s failed", serial)
	}
	return &Device{serial: serial, path: path, obj: obj, caps: caps}, nil
}

// Devices returns handles for every managed device. Devices that fail
// introspection are skipped with a warning so one flaky device cannot hide
// the rest.
func (c *Client) Devices(ctx context.Context) ([]*Device, error) {
	serials, err := c.Serials(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]*Device, 0, len(serials))
	for _, serial := range serials {
		dev, err := c.Device(ctx, serial)
		if err != nil {
			log.Warn().Err(err).Str("serial", serial).Msg("razer: skip device")
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
