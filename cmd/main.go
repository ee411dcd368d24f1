package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openrazer-tools/razerdiag/internal/env"
)

var rootCmd = &cobra.Command{
	Use:   "razerdiag",
	Short: "Diagnostics for OpenRazer installations",
	Long: `razerdiag inspects an OpenRazer setup end to end: USB enumeration,
kernel modules, the daemon unit and session bus, device detection and
per-device capabilities. Results are printed for humans and recorded
to a local SQLite database for later inspection.`,
}

var (
	rootTimeout time.Duration
	rootDBPath  string
)

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.PersistentFlags().DurationVar(&rootTimeout, "timeout", 0, "Per-command timeout override (default from RAZERDIAG_COMMAND_TIMEOUT or 10s)")
	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db-path", "", "SQLite database path override (default from RAZERDIAG_DB_PATH)")
	rootCmd.AddCommand(
		newDoctorCmd(),
		newDebugCmd(),
		newDevicesCmd(),
		newCapabilitiesCmd(),
		newWatchCmd(),
	)
	_ = env.Ensure()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("razerdiag command failed")
	}
}
