package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/pkg/razer"
)

func newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(cmd.Context())
		},
	}
	return cmd
}

func runDevices(ctx context.Context) error {
	client, err := razer.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	version, err := client.Ping(ctx)
	if err != nil {
		return errors.Wrapf(err, "daemon unreachable (try: systemctl start %s)", daemonUnit())
	}
	fmt.Printf("Daemon version: %s\n", version)

	devices, err := client.Devices(ctx)
	if err != nil {
		return err
	}
	admitted := razerdiag.BuildDeviceAllowlistSet(deviceAllowlist())
	shown := 0
	for _, dev := range devices {
		if len(admitted) > 0 {
			if _, ok := admitted[dev.Serial()]; !ok {
				continue
			}
		}
		shown++
		name, err := dev.Name(ctx)
		if err != nil {
			name = "(unknown)"
		}
		fmt.Printf("\n%s\n", name)
		fmt.Printf("  Serial:   %s\n", dev.Serial())
		if typ, err := dev.Type(ctx); err == nil {
			fmt.Printf("  Type:     %s\n", typ)
		}
		if fw, err := dev.Firmware(ctx); err == nil {
			fmt.Printf("  Firmware: %s\n", fw)
		}
		if vidpid, err := dev.VidPid(ctx); err == nil {
			fmt.Printf("  VID:PID:  %s\n", vidpid)
		}
	}
	if shown == 0 {
		fmt.Println("No devices detected.")
		fmt.Println("Run `razerdiag debug` to troubleshoot your setup.")
		return errors.New("no devices detected")
	}
	fmt.Printf("\n%d device(s) total\n", shown)
	return nil
}
