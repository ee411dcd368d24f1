package syscheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner replays canned results keyed by the command name.
type stubRunner struct {
	results map[string]ExecResult
	errs    map[string]error
	calls   [][]string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) (ExecResult, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if err, ok := s.errs[name]; ok {
		return ExecResult{}, err
	}
	return s.results[name], nil
}

func newTestChecker(run CommandRunner, opts ...Option) *Checker {
	return NewChecker(append([]Option{WithCommandRunner(run)}, opts...)...)
}

func TestUSBDevicesFound(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"lsusb": {Stdout: strings.Join([]string{
			"Bus 001 Device 002: ID 8087:0024 Intel Corp. Integrated Rate Matching Hub",
			"Bus 001 Device 004: ID 1532:0203 Razer USA, Ltd",
		}, "\n")},
	}}
	res := newTestChecker(run).USBDevices(context.Background())

	assert.Equal(t, StatusPass, res.Status)
	assert.Contains(t, res.Detail, "1532:0203")
	assert.Contains(t, res.Detail, "Razer BlackWidow Chroma")
	assert.NotContains(t, res.Detail, "Intel")
}

func TestUSBDevicesNoneFound(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"lsusb": {Stdout: "Bus 001 Device 002: ID 8087:0024 Intel Corp."},
	}}
	res := newTestChecker(run).USBDevices(context.Background())

	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Tip, "USB port")
}

func TestKernelModules(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"lsmod": {Stdout: strings.Join([]string{
			"Module                  Size  Used by",
			"razerkbd               61440  0",
			"razermouse             77824  0",
			"hid                   151552  3 razerkbd,razermouse,usbhid",
		}, "\n")},
	}}
	res := newTestChecker(run).KernelModules(context.Background())

	require.Equal(t, StatusPass, res.Status)
	assert.Equal(t, "razerkbd\nrazermouse", res.Detail)
}

func TestKernelModulesMissing(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"lsmod": {Stdout: "Module Size Used by\nhid 151552 3"},
	}}
	res := newTestChecker(run).KernelModules(context.Background())

	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Tip, "modprobe")
}

func TestDKMS(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"dkms": {Stdout: "openrazer-driver/3.8.0, 6.8.0-45-generic, x86_64: installed"},
	}}
	res := newTestChecker(run).DKMS(context.Background())
	assert.Equal(t, StatusPass, res.Status)

	run = &stubRunner{results: map[string]ExecResult{"dkms": {ExitCode: 1}}}
	res = newTestChecker(run).DKMS(context.Background())
	assert.Equal(t, StatusFail, res.Status)

	// A missing dkms binary downgrades to a skip, not a failure.
	run = &stubRunner{errs: map[string]error{"dkms": errors.New("exec: dkms: not found")}}
	res = newTestChecker(run).DKMS(context.Background())
	assert.Equal(t, StatusSkip, res.Status)
	assert.True(t, res.Passed())
}

func TestModuleFiles(t *testing.T) {
	root := t.TempDir()
	kernel := "6.8.0-45-generic"
	driverDir := filepath.Join(root, kernel, "kernel", "drivers", "hid")
	require.NoError(t, os.MkdirAll(driverDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(driverDir, "razerkbd.ko"), []byte{}, 0o644))

	run := &stubRunner{results: map[string]ExecResult{
		"uname": {Stdout: kernel + "\n"},
	}}
	res := newTestChecker(run, WithModuleRoot(root)).ModuleFiles(context.Background())

	require.Equal(t, StatusPass, res.Status)
	assert.Contains(t, res.Detail, "razerkbd.ko")
}

func TestModuleFilesMissing(t *testing.T) {
	root := t.TempDir()
	kernel := "6.8.0-45-generic"
	require.NoError(t, os.MkdirAll(filepath.Join(root, kernel), 0o755))

	run := &stubRunner{results: map[string]ExecResult{
		"uname": {Stdout: kernel},
	}}
	res := newTestChecker(run, WithModuleRoot(root)).ModuleFiles(context.Background())

	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Tip, "reinstall OpenRazer")
}

func TestSysfsDevices(t *testing.T) {
	root := t.TempDir()
	driver := filepath.Join(root, "razerkbd")
	require.NoError(t, os.MkdirAll(filepath.Join(driver, "0003:1532:0203.0001"), 0o755))

	checker := newTestChecker(&stubRunner{}, WithSysfsGlob(filepath.Join(root, "razer*", "*")))
	res := checker.SysfsDevices(context.Background())

	require.Equal(t, StatusPass, res.Status)
	assert.Contains(t, res.Detail, "1532:0203")
}

func TestDaemonUnit(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"systemctl": {Stdout: "active\n"},
	}}
	res := newTestChecker(run).DaemonUnit(context.Background())
	assert.Equal(t, StatusPass, res.Status)

	run = &stubRunner{results: map[string]ExecResult{
		"systemctl": {Stdout: "inactive\n", ExitCode: 3},
	}}
	res = newTestChecker(run).DaemonUnit(context.Background())
	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Detail, "inactive")
	assert.Contains(t, res.Tip, "systemctl start openrazer-daemon")
}

func TestDaemonUnitOverride(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"systemctl": {Stdout: "active"},
	}}
	checker := newTestChecker(run, WithDaemonUnit("razer-test.service"))
	res := checker.DaemonUnit(context.Background())

	require.Equal(t, StatusPass, res.Status)
	require.Len(t, run.calls, 1)
	assert.Equal(t, []string{"systemctl", "is-active", "razer-test.service"}, run.calls[0])
}

func TestDaemonBus(t *testing.T) {
	checker := newTestChecker(&stubRunner{}, WithDaemonPing(func(ctx context.Context) (string, error) {
		return "3.8.0", nil
	}))
	res := checker.DaemonBus(context.Background())
	require.Equal(t, StatusPass, res.Status)
	assert.Contains(t, res.Detail, "3.8.0")

	checker = newTestChecker(&stubRunner{}, WithDaemonPing(func(ctx context.Context) (string, error) {
		return "", errors.New("daemon not present on session bus")
	}))
	res = checker.DaemonBus(context.Background())
	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Tip, "systemctl start")

	// Without a probe the check is skipped rather than failed.
	res = newTestChecker(&stubRunner{}).DaemonBus(context.Background())
	assert.Equal(t, StatusSkip, res.Status)
}

func TestUserGroups(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"id": {Stdout: "user adm cdrom plugdev sudo\n"},
	}}
	res := newTestChecker(run).UserGroups(context.Background())
	assert.Equal(t, StatusPass, res.Status)

	run = &stubRunner{results: map[string]ExecResult{
		"id": {Stdout: "user adm sudo\n"},
	}}
	res = newTestChecker(run).UserGroups(context.Background())
	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Tip, "usermod -a -G plugdev")
}

func TestDaemonJournal(t *testing.T) {
	run := &stubRunner{results: map[string]ExecResult{
		"journalctl": {Stdout: "daemon started\n"},
	}}
	out, err := newTestChecker(run).DaemonJournal(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "daemon started", out)
	require.Len(t, run.calls, 1)
	assert.Equal(t, []string{"journalctl", "-u", "openrazer-daemon", "--no-pager", "-n", "10"}, run.calls[0])
}

func TestLines(t *testing.T) {
	assert.Empty(t, Lines(""))
	assert.Equal(t, []string{"a", "b"}, Lines("\na\n\n  b  \n"))
}
