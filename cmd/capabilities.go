package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/pkg/capability"
	"github.com/openrazer-tools/razerdiag/pkg/razer"
	"github.com/openrazer-tools/razerdiag/pkg/storage"
)

func newCapabilitiesCmd() *cobra.Command {
	var (
		flagSerial      string
		flagSkipEffects bool
	)

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Probe lighting, DPI and battery capabilities per device",
		Long: `capabilities walks every detected device (or a single one via
--serial) and exercises what it advertises: brightness save/restore,
matrix effects, DPI, battery and game mode. Effects visibly change
the device lighting; --skip-effects leaves the hardware untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(cmd.Context(), flagSerial, flagSkipEffects)
		},
	}

	cmd.Flags().StringVar(&flagSerial, "serial", "", "Probe only the device with this serial")
	cmd.Flags().BoolVar(&flagSkipEffects, "skip-effects", false, "Skip lighting effect changes")

	return cmd
}

func runCapabilities(ctx context.Context, serial string, skipEffects bool) error {
	client, err := razer.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Ping(ctx); err != nil {
		return errors.Wrapf(err, "daemon unreachable (try: systemctl start %s)", daemonUnit())
	}

	var targets []*razer.Device
	if strings.TrimSpace(serial) != "" {
		dev, err := client.Device(ctx, strings.TrimSpace(serial))
		if err != nil {
			return err
		}
		targets = append(targets, dev)
	} else {
		devices, err := client.Devices(ctx)
		if err != nil {
			return err
		}
		admitted := razerdiag.BuildDeviceAllowlistSet(deviceAllowlist())
		for _, dev := range devices {
			if len(admitted) > 0 {
				if _, ok := admitted[dev.Serial()]; !ok {
					continue
				}
			}
			targets = append(targets, dev)
		}
	}
	if len(targets) == 0 {
		return errors.New("no devices to probe")
	}
	fmt.Printf("Found %d device(s)\n", len(targets))

	sink := openReportSink()
	if sink != nil {
		defer sink.Close()
	}
	rec := storage.NewRunRecord(storage.RunKindCapabilities)

	opts := []capability.ProberOption{}
	if skipEffects {
		opts = append(opts, capability.SkipEffects())
	}
	prober := capability.NewProber(os.Stdout, opts...)

	failures := 0
	for _, dev := range targets {
		report := prober.Probe(ctx, dev)
		failures += report.Failures()
		if sink != nil {
			if err := sink.Write(ctx, report); err != nil {
				log.Warn().Err(err).Str("serial", dev.Serial()).Msg("write capability report failed")
			}
		}
	}
	fmt.Println("\nCapability testing completed!")

	rec.Passed = len(targets)
	rec.Total = len(targets)
	if failures > 0 {
		rec.Issues = []string{fmt.Sprintf("%d capability probe(s) failed", failures)}
	}
	persistRun(ctx, rec)
	return nil
}

// openReportSink builds the JSONL sink unless disabled. A sink that cannot
// be opened only costs the report trail, never the probe run.
func openReportSink() *storage.JSONLSink {
	if !storage.JSONLEnabled() {
		return nil
	}
	path, err := storage.DefaultReportPath()
	if err != nil {
		log.Warn().Err(err).Msg("resolve report path failed")
		return nil
	}
	sink, err := storage.NewJSONLSink(path)
	if err != nil {
		log.Warn().Err(err).Msg("open report sink failed")
		return nil
	}
	return sink
}
