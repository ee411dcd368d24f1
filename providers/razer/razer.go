// Package razer adapts the OpenRazer bus client to the monitor's provider
// contract.
package razer

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/openrazer-tools/razerdiag/pkg/monitor"
	razerbus "github.com/openrazer-tools/razerdiag/pkg/razer"
)

// Provider lists devices through an open daemon client.
type Provider struct {
	client *razerbus.Client
}

// New creates a Provider backed by the given client.
func New(client *razerbus.Client) *Provider {
	return &Provider{client: client}
}

// ListDevices returns all device serials known to the daemon.
func (p *Provider) ListDevices(ctx context.Context) ([]string, error) {
	return p.client.Serials(ctx)
}

// FetchMeta resolves static device details for the monitor. Individual read
// failures leave the affected field blank.
func (p *Provider) FetchMeta(ctx context.Context, serial string) monitor.Meta {
	dev, err := p.client.Device(ctx, serial)
	if err != nil {
		log.Warn().Err(err).Str("serial", serial).Msg("fetch device metadata failed")
		return monitor.Meta{}
	}
	var meta monitor.Meta
	if name, err := dev.Name(ctx); err == nil {
		meta.Name = name
	}
	if typ, err := dev.Type(ctx); err == nil {
		meta.Type = typ
	}
	if fw, err := dev.Firmware(ctx); err == nil {
		meta.Firmware = fw
	}
	if drv, err := dev.DriverVersion(ctx); err == nil {
		meta.DriverVersion = drv
	}
	if vidpid, err := dev.VidPid(ctx); err == nil {
		meta.VidPid = vidpid
	}
	return meta
}
