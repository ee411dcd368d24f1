package syscheck

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/openrazer-tools/razerdiag/pkg/usbids"
)

// Check names shared by the doctor and debug workflows.
const (
	CheckUSBDevices    = "razer usb devices"
	CheckKernelModules = "kernel modules"
	CheckDKMS          = "dkms status"
	CheckModuleFiles   = "module files"
	CheckSysfsDevices  = "sysfs device nodes"
	CheckDaemonUnit    = "daemon unit"
	CheckDaemonBus     = "daemon session bus"
	CheckUserGroups    = "user permissions"
)

// DaemonPing resolves the daemon on the session bus, returning its version.
type DaemonPing func(ctx context.Context) (string, error)

// Checker bundles the environment checks with their collaborators. The zero
// value is not usable; construct with NewChecker.
type Checker struct {
	run  CommandRunner
	ping DaemonPing
	// unit is the systemd unit name for the daemon.
	unit string
	// moduleRoot/sysfsGlob are overridable for tests.
	moduleRoot string
	sysfsGlob  string
}

// Option tweaks a Checker.
type Option func(*Checker)

// WithCommandRunner substitutes the shell-out runner.
func WithCommandRunner(run CommandRunner) Option {
	return func(c *Checker) { c.run = run }
}

// WithDaemonPing wires the session-bus reachability probe.
func WithDaemonPing(ping DaemonPing) Option {
	return func(c *Checker) { c.ping = ping }
}

// WithDaemonUnit overrides the systemd unit name.
func WithDaemonUnit(unit string) Option {
	return func(c *Checker) {
		if strings.TrimSpace(unit) != "" {
			c.unit = unit
		}
	}
}

// WithModuleRoot overrides the kernel module tree root (tests).
func WithModuleRoot(root string) Option {
	return func(c *Checker) { c.moduleRoot = root }
}

// WithSysfsGlob overrides the sysfs driver glob (tests).
func WithSysfsGlob(glob string) Option {
	return func(c *Checker) { c.sysfsGlob = glob }
}

// NewChecker builds a Checker with exec-backed defaults.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		run:        NewExecRunner(DefaultCommandTimeout),
		unit:       "openrazer-daemon",
		moduleRoot: "/lib/modules",
		sysfsGlob:  "/sys/bus/hid/drivers/razer*/*",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// USBDevices scans lsusb output for Razer hardware (vendor 1532) and
// annotates matches with known model names.
func (c *Checker) USBDevices(ctx context.Context) Result {
	res, err := c.run.Run(ctx, "lsusb")
	if err != nil {
		return fail(CheckUSBDevices, err.Error(), "install usbutils to enable USB enumeration")
	}
	var matches []string
	for _, line := range Lines(res.Stdout) {
		if !strings.Contains(line, "1532:") {
			continue
		}
		if product, ok := usbids.FromLsusbLine(line); ok {
			line = line + " (" + product.Name + ")"
		}
		matches = append(matches, line)
	}
	if len(matches) == 0 {
		return fail(CheckUSBDevices,
			"no Razer devices detected by the USB subsystem",
			"try a different USB port or check if the device is powered on")
	}
	return pass(CheckUSBDevices, strings.Join(matches, "\n"))
}

// KernelModules checks lsmod for loaded razer* modules.
func (c *Checker) KernelModules(ctx context.Context) Result {
	res, err := c.run.Run(ctx, "lsmod")
	if err != nil {
		return fail(CheckKernelModules, err.Error(), "")
	}
	var modules []string
	for _, line := range Lines(res.Stdout) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.HasPrefix(fields[0], "razer") {
			modules = append(modules, fields[0])
		}
	}
	if len(modules) == 0 {
		return fail(CheckKernelModules,
			"no OpenRazer kernel modules loaded",
			"try: sudo modprobe razerkbd razermouse razeraccessory")
	}
	return pass(CheckKernelModules, strings.Join(modules, "\n"))
}

// DKMS reports the registration state of the openrazer-driver DKMS module.
func (c *Checker) DKMS(ctx context.Context) Result {
	res, err := c.run.Run(ctx, "dkms", "status", "openrazer-driver")
	if err != nil {
		return skip(CheckDKMS, "dkms not available: "+err.Error())
	}
	detail := strings.TrimSpace(res.Stdout)
	if !res.Ok() || detail == "" {
		return fail(CheckDKMS,
			"DKMS module not found or not installed",
			"reinstall the OpenRazer driver package or check DKMS installation")
	}
	return pass(CheckDKMS, detail)
}

// ModuleFiles walks /lib/modules/<kernel> looking for razer driver objects.
func (c *Checker) ModuleFiles(ctx context.Context) Result {
	kernel, err := c.kernelRelease(ctx)
	if err != nil {
		return fail(CheckModuleFiles, err.Error(), "")
	}
	root := filepath.Join(c.moduleRoot, kernel)
	var found []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are not a finding by themselves.
			return nil
		}
		if !d.IsDir() && strings.Contains(d.Name(), "razer") {
			found = append(found, path)
		}
		return nil
	})
	if walkErr != nil {
		return fail(CheckModuleFiles, walkErr.Error(), "")
	}
	if len(found) == 0 {
		return fail(CheckModuleFiles,
			fmt.Sprintf("no OpenRazer module files under %s", root),
			"reinstall OpenRazer or check the DKMS build for the running kernel")
	}
	return pass(CheckModuleFiles, strings.Join(found, "\n"))
}

// SysfsDevices looks for bound razer driver nodes referencing vendor 1532.
func (c *Checker) SysfsDevices(ctx context.Context) Result {
	paths, err := filepath.Glob(c.sysfsGlob)
	if err != nil {
		return fail(CheckSysfsDevices, err.Error(), "")
	}
	var found []string
	for _, path := range paths {
		if strings.Contains(filepath.Base(path), "1532") {
			found = append(found, path)
		}
	}
	if len(found) == 0 {
		return fail(CheckSysfsDevices,
			"no device nodes in sysfs",
			"check if the loaded modules recognize your specific device model")
	}
	return pass(CheckSysfsDevices, strings.Join(found, "\n"))
}

// DaemonUnit queries systemd for the daemon unit state.
func (c *Checker) DaemonUnit(ctx context.Context) Result {
	res, err := c.run.Run(ctx, "systemctl", "is-active", c.unit)
	if err != nil {
		return fail(CheckDaemonUnit, err.Error(), "")
	}
	state := strings.TrimSpace(res.Stdout)
	if res.Ok() && state == "active" {
		return pass(CheckDaemonUnit, "unit "+c.unit+" is active")
	}
	if state == "" {
		state = "unknown"
	}
	return fail(CheckDaemonUnit,
		fmt.Sprintf("unit %s is %s", c.unit, state),
		fmt.Sprintf("try: systemctl start %s", c.unit))
}

// DaemonJournal returns the last daemon journal lines; advisory only.
func (c *Checker) DaemonJournal(ctx context.Context, lines int) (string, error) {
	if lines <= 0 {
		lines = 10
	}
	res, err := c.run.Run(ctx, "journalctl", "-u", c.unit, "--no-pager", "-n", fmt.Sprintf("%d", lines))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// DaemonBus verifies the daemon answers on the session bus.
func (c *Checker) DaemonBus(ctx context.Context) Result {
	if c.ping == nil {
		return skip(CheckDaemonBus, "no session-bus probe configured")
	}
	version, err := c.ping(ctx)
	if err != nil {
		return fail(CheckDaemonBus, err.Error(),
			fmt.Sprintf("start the daemon: systemctl start %s", c.unit))
	}
	return pass(CheckDaemonBus, "daemon version "+version)
}

// UserGroups verifies plugdev membership for device node access.
func (c *Checker) UserGroups(ctx context.Context) Result {
	res, err := c.run.Run(ctx, "id", "-nG")
	if err != nil {
		return fail(CheckUserGroups, err.Error(), "")
	}
	for _, group := range strings.Fields(res.Stdout) {
		if group == "plugdev" {
			return pass(CheckUserGroups, "user is in the plugdev group")
		}
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "$USER"
	}
	return fail(CheckUserGroups,
		"user is not in the plugdev group",
		fmt.Sprintf("try: sudo usermod -a -G plugdev %s (then log out and back in)", user))
}

func (c *Checker) kernelRelease(ctx context.Context) (string, error) {
	res, err := c.run.Run(ctx, "uname", "-r")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
