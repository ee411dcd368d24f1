package razerdiag

// Version is stamped into diagnostic run records and device snapshots so a
// report can always be traced back to the toolkit build that produced it.
const Version = "0.3.0"

// Razer's USB vendor ID as it appears in lsusb output.
const VendorID = "1532"

// Shared environment variable names. Downstream scripts should prefer these
// root-level constants when wiring razerdiag into their environments.
const (
	// EnvDeviceAllowlist optionally restricts commands to a subset of device
	// serials. The value can be a comma/semicolon/whitespace-separated list,
	// for example:
	//   RAZERDIAG_DEVICE_ALLOWLIST="PM1234567890,PM0987654321"
	EnvDeviceAllowlist = "RAZERDIAG_DEVICE_ALLOWLIST"
	// EnvDatabasePath overrides the default SQLite location
	// (~/.razerdiag/records.sqlite).
	EnvDatabasePath = "RAZERDIAG_DB_PATH"
	// EnvDisableRecorder disables SQLite device recording in the watch loop.
	EnvDisableRecorder = "RAZERDIAG_DISABLE_RECORDER"
	// EnvDisableJSONL disables the JSONL capability-report sink.
	EnvDisableJSONL = "RAZERDIAG_DISABLE_JSONL"
	// EnvCommandTimeout overrides the per-command timeout used by the
	// environment checks (default 10s).
	EnvCommandTimeout = "RAZERDIAG_COMMAND_TIMEOUT"
	// EnvDaemonUnit overrides the systemd unit name probed by the daemon
	// checks (default openrazer-daemon).
	EnvDaemonUnit = "RAZERDIAG_DAEMON_UNIT"
)

// DaemonUnitDefault is the systemd unit the OpenRazer daemon ships with.
const DaemonUnitDefault = "openrazer-daemon"
