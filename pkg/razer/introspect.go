package razer

import (
	"context"
	"encoding/xml"

	"github.com/godbus/dbus/v5/introspect"
	"github.com/pkg/errors"
)

const introspectMethod = "org.freedesktop.DBus.Introspectable.Introspect"

// introspectCapabilities reads a device object's introspection XML and
// flattens it into a set of "interface.method" capability keys.
func introspectCapabilities(ctx context.Context, obj caller) (map[string]struct{}, error) {
	var raw string
	if err := obj.CallWithContext(ctx, introspectMethod, 0).Store(&raw); err != nil {
		return nil, errors.Wrap(err, "introspect call failed")
	}
	var node introspect.Node
	if err := xml.Unmarshal([]byte(raw), &node); err != nil {
		return nil, errors.Wrap(err, "parse introspection xml failed")
	}
	caps := make(map[string]struct{})
	for _, iface := range node.Interfaces {
		for _, method := range iface.Methods {
			caps[iface.Name+"."+method.Name] = struct{}{}
		}
	}
	return caps, nil
}
