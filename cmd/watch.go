package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/internal/devrecorder"
	"github.com/openrazer-tools/razerdiag/pkg/monitor"
	"github.com/openrazer-tools/razerdiag/pkg/razer"
	razerprovider "github.com/openrazer-tools/razerdiag/providers/razer"
)

func newWatchCmd() *cobra.Command {
	var (
		flagInterval time.Duration
		flagOnce     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor device connect/disconnect events",
		Long: `watch polls the daemon at a fixed interval and records device
presence transitions to the local database. Devices absent for more
than five minutes are marked offline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), flagInterval, flagOnce)
		},
	}

	cmd.Flags().DurationVar(&flagInterval, "interval", 30*time.Second, "Interval between bus scans")
	cmd.Flags().BoolVar(&flagOnce, "once", false, "Scan once and exit")

	return cmd
}

func runWatch(ctx context.Context, interval time.Duration, once bool) error {
	applyDBPathOverride()
	client, err := razer.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	recorder, err := devrecorder.NewFromEnv()
	if err != nil {
		return err
	}
	if closer, ok := recorder.(*devrecorder.SQLiteRecorder); ok {
		defer closer.Close()
	}

	provider := razerprovider.New(client)
	manager := monitor.NewManager(provider, recorder, deviceAllowlist())

	if once {
		return manager.Refresh(ctx, provider.FetchMeta)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", interval).Msg("starting device watch")
	group := razerdiag.NewSafeGroup(ctx)
	group.GoSafe("device-watch", func(ctx context.Context) error {
		return manager.Run(ctx, interval, provider.FetchMeta)
	})
	err = group.WaitOrInterrupt(5 * time.Second)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("device watch stopped")
		return nil
	}
	return err
}
