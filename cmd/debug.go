package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openrazer-tools/razerdiag/pkg/storage"
	"github.com/openrazer-tools/razerdiag/pkg/syscheck"
)

// Issue labels collected while debugging. The NEXT STEPS block keys off
// these exact strings.
const (
	issueNoHardware      = "No hardware detected"
	issueModulesNotLoad  = "Kernel modules not loaded"
	issueModuleFiles     = "Module files missing"
	issueDeviceFiles     = "Device files not created"
	issueDaemonDown      = "Daemon not running"
	issueBusUnreachable  = "Daemon bus unreachable"
	issueDetectionFailed = "Device detection failed"
	issueNotInPlugdev    = "User not in plugdev group"
)

func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Walk through the debugging workflow step by step",
		Long: `debug runs the same checks as doctor but verbosely: every shell
command is echoed with its output, each step gets a banner, and the
run ends with a summary of issues and suggested next steps. The exit
code equals the number of issues found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runDebug(cmd.Context())
			return nil
		},
	}
	return cmd
}

func runDebug(ctx context.Context) {
	fmt.Println("OpenRazer Debug Workflow")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("This walks through a systematic debugging process for OpenRazer.")
	fmt.Println("Follow along to identify issues with your setup.")
	fmt.Println(strings.Repeat("=", 60))

	checker := syscheck.NewChecker(
		syscheck.WithCommandRunner(verboseRunner{inner: syscheck.NewExecRunner(commandTimeout())}),
		syscheck.WithDaemonUnit(daemonUnit()),
		syscheck.WithDaemonPing(daemonPing),
	)
	rec := storage.NewRunRecord(storage.RunKindDebug)

	var issues []string
	var passed, total int
	step := func(name string, result syscheck.Result, issue string) bool {
		total++
		printStepBanner(name)
		printCheckResult(result)
		if result.Passed() {
			passed++
			return true
		}
		if issue != "" {
			issues = append(issues, issue)
		}
		return false
	}

	fmt.Println("\nChecking for Razer devices...")
	hasHardware := step("Hardware Detection", checker.USBDevices(ctx), issueNoHardware)
	if !hasHardware {
		fmt.Println("\nINFO: Continuing with software checks...")
	}

	fmt.Println("\nChecking kernel modules...")
	hasModules := step("Kernel Module Loading", checker.KernelModules(ctx), issueModulesNotLoad)
	if !hasModules {
		fmt.Println("\nChecking DKMS status...")
		dkms := checker.DKMS(ctx)
		printCheckResult(dkms)
	}

	fmt.Println("\nChecking module files...")
	step("Module Files", checker.ModuleFiles(ctx), issueModuleFiles)

	if hasHardware && hasModules {
		fmt.Println("\nChecking device files...")
		step("Device Files", checker.SysfsDevices(ctx), issueDeviceFiles)
	}

	fmt.Println("\nChecking daemon status...")
	daemonRunning := step("Daemon Status", checker.DaemonUnit(ctx), issueDaemonDown)
	if !daemonRunning {
		fmt.Println("\nChecking daemon logs...")
		if logs, err := checker.DaemonJournal(ctx, 10); err == nil && logs != "" {
			fmt.Printf("Recent daemon logs:\n%s\n", logs)
		}
	}

	fmt.Println("\nChecking daemon session bus...")
	busUp := step("Session Bus", checker.DaemonBus(ctx), issueBusUnreachable)

	if busUp {
		total++
		printStepBanner("Device Detection")
		if err := debugDeviceDetection(ctx); err != nil {
			fmt.Printf("✗ Device detection failed: %v\n", err)
			fmt.Println("TIP: Check hardware connection and permissions")
			issues = append(issues, issueDetectionFailed)
		} else {
			passed++
		}
	}

	fmt.Println("\nChecking user groups...")
	step("User Permissions", checker.UserGroups(ctx), issueNotInPlugdev)

	printDebugSummary(issues)

	rec.Passed = passed
	rec.Total = total
	rec.Issues = issues
	persistRun(ctx, rec)

	if len(issues) > 0 {
		os.Exit(len(issues))
	}
}

func printStepBanner(name string) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 50))
	fmt.Printf("STEP: %s\n", name)
	fmt.Println(strings.Repeat("=", 50))
}

func debugDeviceDetection(ctx context.Context) error {
	devices, err := detectDevices(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Found %d device(s)\n", len(devices))
	for _, d := range devices {
		fmt.Printf("  - %s\n", d.name)
	}
	return nil
}

func printDebugSummary(issues []string) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Println("DEBUG SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	if len(issues) == 0 {
		fmt.Println("No issues detected! OpenRazer should be working correctly.")
		fmt.Println("\nIf you're still experiencing problems:")
		fmt.Println("- Try running: razerdiag doctor")
		fmt.Println("- Inspect per-device behavior with: razerdiag capabilities")
		return
	}

	fmt.Printf("Found %d issue(s):\n", len(issues))
	for i, issue := range issues {
		fmt.Printf("  %d. %s\n", i+1, issue)
	}

	fmt.Println("\nNEXT STEPS:")
	has := func(issue string) bool {
		for _, found := range issues {
			if found == issue {
				return true
			}
		}
		return false
	}
	if has(issueNoHardware) {
		fmt.Println("1. Verify your Razer device is connected and powered on")
		fmt.Println("2. Try a different USB port")
		fmt.Println("3. Check if the device model is supported")
	}
	if has(issueModulesNotLoad) || has(issueModuleFiles) {
		fmt.Println("1. Reinstall the OpenRazer kernel modules")
		fmt.Println("2. Check for secure boot issues")
		fmt.Println("3. Verify kernel headers are installed")
	}
	if has(issueDaemonDown) {
		fmt.Printf("1. Start daemon: systemctl start %s\n", daemonUnit())
		fmt.Printf("2. Enable on boot: systemctl enable %s\n", daemonUnit())
		fmt.Printf("3. Check daemon logs: journalctl -u %s\n", daemonUnit())
	}
	if has(issueBusUnreachable) {
		fmt.Println("1. Confirm a DBus session bus is available in this session")
		fmt.Println("2. Restart the daemon and retry")
	}
	if has(issueNotInPlugdev) {
		fmt.Println("1. Add user to group: sudo usermod -a -G plugdev $USER")
		fmt.Println("2. Log out and log in again")
	}
}

// verboseRunner echoes every command and its output before handing the
// result back, mimicking a user typing the checks by hand.
type verboseRunner struct {
	inner syscheck.CommandRunner
}

func (v verboseRunner) Run(ctx context.Context, name string, args ...string) (syscheck.ExecResult, error) {
	fmt.Printf("$ %s", name)
	if len(args) > 0 {
		fmt.Printf(" %s", strings.Join(args, " "))
	}
	fmt.Println()
	res, err := v.inner.Run(ctx, name, args...)
	if err != nil {
		fmt.Printf("Error running command: %v\n", err)
		return res, err
	}
	if strings.TrimSpace(res.Stdout) != "" {
		fmt.Println("STDOUT:")
		fmt.Println(strings.TrimRight(res.Stdout, "\n"))
	}
	if strings.TrimSpace(res.Stderr) != "" {
		fmt.Println("STDERR:")
		fmt.Println(strings.TrimRight(res.Stderr, "\n"))
	}
	fmt.Printf("Exit code: %d\n", res.ExitCode)
	return res, nil
}
