// Package usbids carries an embedded table of Razer USB product IDs so the
// USB checks can name hardware without the daemon running.
package usbids

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// VendorID is Razer's USB vendor ID in lsusb notation.
const VendorID = "1532"

//go:embed products.yaml
var productsYAML []byte

// Product describes one known Razer USB product.
type Product struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Class is the coarse device class (keyboard, mouse, headset, ...).
	Class string `yaml:"class"`
}

type table struct {
	Products []Product `yaml:"products"`
}

var (
	loadOnce sync.Once
	byPID    map[string]Product
	loadErr  error
)

func load() error {
	loadOnce.Do(func() {
		var t table
		if err := yaml.Unmarshal(productsYAML, &t); err != nil {
			loadErr = errors.Wrap(err, "usbids: parse embedded product table failed")
			return
		}
		byPID = make(map[string]Product, len(t.Products))
		for _, p := range t.Products {
			byPID[strings.ToLower(strings.TrimSpace(p.ID))] = p
		}
	})
	return loadErr
}

// Lookup resolves a product ID ("0203", case-insensitive) to a known product.
func Lookup(pid string) (Product, bool) {
	if err := load(); err != nil {
		return Product{}, false
	}
	p, ok := byPID[strings.ToLower(strings.TrimSpace(pid))]
	return p, ok
}

// FromLsusbLine extracts the "1532:xxxx" token from an lsusb line and looks
// up the product ID.
func FromLsusbLine(line string) (Product, bool) {
	for _, field := range strings.Fields(line) {
		vidpid := strings.SplitN(field, ":", 2)
		if len(vidpid) != 2 || vidpid[0] != VendorID {
			continue
		}
		return Lookup(vidpid[1])
	}
	return Product{}, false
}

// FromVidPid resolves a "1532:0203" pair; non-Razer vendors miss.
func FromVidPid(vidpid string) (Product, bool) {
	parts := strings.SplitN(strings.TrimSpace(vidpid), ":", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], VendorID) {
		return Product{}, false
	}
	return Lookup(parts[1])
}

// Known returns every product in the embedded table.
func Known() []Product {
	if err := load(); err != nil {
		return nil
	}
	out := make([]Product, 0, len(byPID))
	for _, p := range byPID {
		out = append(out, p)
	}
	return out
}
