package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/pkg/razer"
	"github.com/openrazer-tools/razerdiag/pkg/storage"
	"github.com/openrazer-tools/razerdiag/pkg/syscheck"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run the basic system test sequence",
		Long: `doctor runs the post-install checks in order: USB enumeration, kernel
modules, the daemon unit, the session bus, device detection and basic
device functionality. One failing check is tolerated; more than one
fails the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
	return cmd
}

func runDoctor(ctx context.Context) error {
	fmt.Println("OpenRazer Basic System Test")
	fmt.Println("===========================")

	checker := newChecker()
	rec := storage.NewRunRecord(storage.RunKindDoctor)

	var passed, total int
	var issues []string

	runCheck := func(step int, banner string, result syscheck.Result) {
		total++
		fmt.Printf("\n%d. %s...\n", step, banner)
		printCheckResult(result)
		if result.Passed() {
			passed++
		} else {
			issues = append(issues, result.Name)
		}
	}

	runCheck(1, "Checking for Razer devices", checker.USBDevices(ctx))
	runCheck(2, "Checking kernel modules", checker.KernelModules(ctx))
	runCheck(3, "Checking daemon status", checker.DaemonUnit(ctx))
	runCheck(4, "Checking daemon session bus", checker.DaemonBus(ctx))

	total++
	fmt.Printf("\n%d. Testing device detection...\n", 5)
	devices, err := detectDevices(ctx)
	if err != nil {
		fmt.Printf("✗ Error testing device detection: %v\n", err)
		issues = append(issues, "device detection")
	} else if len(devices) == 0 {
		fmt.Println("✗ No devices detected by OpenRazer")
		fmt.Println("  This could be due to:")
		fmt.Println("  - No physical devices connected")
		fmt.Println("  - Permission issues")
		fmt.Println("  - Driver not loaded")
		issues = append(issues, "device detection")
	} else {
		fmt.Printf("✓ Found %d device(s):\n", len(devices))
		for _, d := range devices {
			fmt.Printf("  - %s (Serial: %s)\n", d.name, d.serial)
		}
		passed++
	}

	total++
	fmt.Printf("\n%d. Testing basic device functionality...\n", 6)
	if err := testBasicFunctionality(ctx); err != nil {
		fmt.Printf("✗ Error testing device functionality: %v\n", err)
		issues = append(issues, "basic functionality")
	} else {
		passed++
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	fmt.Printf("Test Results: %d/%d passed\n", passed, total)

	rec.Passed = passed
	rec.Total = total
	rec.Issues = issues
	persistRun(ctx, rec)

	switch {
	case passed == total:
		fmt.Println("All tests passed! OpenRazer appears to be working correctly.")
		return nil
	case passed >= total-1:
		fmt.Println("Most tests passed. Minor issues detected.")
		return nil
	default:
		fmt.Println("Multiple tests failed. Please check the issues above.")
		fmt.Println("\nFor troubleshooting, run: razerdiag debug")
		return errors.Errorf("%d of %d checks failed", total-passed, total)
	}
}

func printCheckResult(result syscheck.Result) {
	if result.Passed() {
		fmt.Printf("✓ %s\n", result.Name)
	} else {
		fmt.Printf("✗ %s\n", result.Name)
	}
	for _, line := range syscheck.Lines(result.Detail) {
		fmt.Printf("  %s\n", line)
	}
	if !result.Passed() && result.Tip != "" {
		fmt.Printf("  TIP: %s\n", result.Tip)
	}
}

type detectedDevice struct {
	name   string
	serial string
}

func detectDevices(ctx context.Context) ([]detectedDevice, error) {
	client, err := razer.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	devices, err := client.Devices(ctx)
	if err != nil {
		return nil, err
	}
	admitted := razerdiag.BuildDeviceAllowlistSet(deviceAllowlist())
	var result []detectedDevice
	for _, dev := range devices {
		if len(admitted) > 0 {
			if _, ok := admitted[dev.Serial()]; !ok {
				continue
			}
		}
		name, err := dev.Name(ctx)
		if err != nil {
			name = "(unknown)"
		}
		result = append(result, detectedDevice{name: name, serial: dev.Serial()})
	}
	return result, nil
}

// testBasicFunctionality reads the first device's properties and exercises a
// brightness set/restore when the device supports it. A setup with no
// devices passes; only errors count against the run.
func testBasicFunctionality(ctx context.Context) error {
	client, err := razer.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	devices, err := client.Devices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("  Skipped - no devices available")
		return nil
	}
	dev := devices[0]
	if name, err := dev.Name(ctx); err == nil {
		fmt.Printf("  Testing with: %s\n", name)
	}
	if typ, err := dev.Type(ctx); err == nil {
		fmt.Printf("  - Type: %s\n", typ)
	}
	if fw, err := dev.Firmware(ctx); err == nil {
		fmt.Printf("  - Firmware: %s\n", fw)
	}
	if drv, err := dev.DriverVersion(ctx); err == nil {
		fmt.Printf("  - Driver: %s\n", drv)
	}

	if !dev.Has(razer.CapBrightness) {
		return nil
	}
	original, err := dev.Brightness(ctx)
	if err != nil {
		fmt.Printf("  - Lighting test failed: %v\n", err)
		return nil
	}
	if err := dev.SetBrightness(ctx, 128); err != nil {
		fmt.Printf("  - Lighting test failed: %v\n", err)
		return nil
	}
	current, err := dev.Brightness(ctx)
	if err == nil && current == 128 {
		fmt.Println("  - Brightness control: ✓")
	} else {
		fmt.Println("  - Brightness control: ✗")
	}
	if err := dev.SetBrightness(ctx, original); err != nil {
		fmt.Printf("  - Brightness restore failed: %v\n", err)
	}
	return nil
}
