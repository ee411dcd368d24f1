package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	razerdiag "github.com/openrazer-tools/razerdiag"
	"github.com/openrazer-tools/razerdiag/internal/config"
	"github.com/openrazer-tools/razerdiag/pkg/razer"
	"github.com/openrazer-tools/razerdiag/pkg/storage"
	"github.com/openrazer-tools/razerdiag/pkg/syscheck"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// commandTimeout resolves --timeout, then the environment, then the default.
func commandTimeout() time.Duration {
	if rootTimeout > 0 {
		return rootTimeout
	}
	return config.Duration(razerdiag.EnvCommandTimeout, syscheck.DefaultCommandTimeout)
}

func daemonUnit() string {
	return config.String(razerdiag.EnvDaemonUnit, razerdiag.DaemonUnitDefault)
}

func deviceAllowlist() []string {
	return razerdiag.ParseDeviceAllowlist(config.String(razerdiag.EnvDeviceAllowlist, ""))
}

// applyDBPathOverride propagates --db-path through the environment so every
// storage consumer resolves the same file.
func applyDBPathOverride() {
	if strings.TrimSpace(rootDBPath) != "" {
		os.Setenv(razerdiag.EnvDatabasePath, rootDBPath)
	}
}

// daemonPing reports the daemon version over a short-lived bus connection.
func daemonPing(ctx context.Context) (string, error) {
	client, err := razer.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()
	return client.Ping(ctx)
}

// newChecker wires the environment checks with the resolved timeout, unit
// and session-bus probe.
func newChecker() *syscheck.Checker {
	return syscheck.NewChecker(
		syscheck.WithCommandRunner(syscheck.NewExecRunner(commandTimeout())),
		syscheck.WithDaemonUnit(daemonUnit()),
		syscheck.WithDaemonPing(daemonPing),
	)
}

// persistRun records the run; failures are logged and swallowed because
// diagnostics must not fail on recording problems.
func persistRun(ctx context.Context, rec storage.RunRecord) {
	applyDBPathOverride()
	store, err := storage.Open()
	if err != nil {
		log.Warn().Err(err).Msg("open run store failed")
		return
	}
	defer store.Close()
	if err := store.RecordRun(ctx, rec); err != nil {
		log.Warn().Err(err).Str("kind", rec.Kind).Msg("record run failed")
	}
}
