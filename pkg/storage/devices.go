package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	razerdiag "github.com/openrazer-tools/razerdiag"
)

// UpsertDevices writes snapshots keyed by serial. Snapshots without a serial
// are skipped with a warning rather than failing the batch.
func (s *Store) UpsertDevices(ctx context.Context, devices []razerdiag.DeviceSnapshot) error {
	if s == nil || s.db == nil {
		return pkgerrors.New("storage: store not open")
	}
	if len(devices) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	stmt := fmt.Sprintf(`INSERT INTO %s
		(serial, name, type, firmware, driver_version, vid_pid, status, toolkit_version, last_error, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(serial) DO UPDATE SET
			name=excluded.name,
			type=excluded.type,
			firmware=excluded.firmware,
			driver_version=excluded.driver_version,
			vid_pid=excluded.vid_pid,
			status=excluded.status,
			toolkit_version=excluded.toolkit_version,
			last_error=excluded.last_error,
			last_seen_at=excluded.last_seen_at`, quoteIdent(deviceTableName))
	for _, d := range devices {
		serial := strings.TrimSpace(d.Serial)
		if serial == "" {
			log.Warn().Str("status", d.Status).Msg("storage: skip device without serial")
			continue
		}
		lastSeen := d.LastSeenAt
		if lastSeen.IsZero() {
			lastSeen = time.Now()
		}
		_, err := s.db.ExecContext(ctx, stmt,
			serial,
			d.Name,
			d.Type,
			d.Firmware,
			d.DriverVersion,
			d.VidPid,
			d.Status,
			d.ToolkitVersion,
			d.LastError,
			lastSeen.Unix(),
		)
		if err != nil {
			return pkgerrors.Wrapf(err, "storage: upsert device %s failed", serial)
		}
	}
	return nil
}

// Devices returns every recorded device ordered by serial.
func (s *Store) Devices(ctx context.Context) ([]razerdiag.DeviceSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, pkgerrors.New("storage: store not open")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	query := fmt.Sprintf(`SELECT serial, name, type, firmware, driver_version, vid_pid,
		status, toolkit_version, last_error, last_seen_at
		FROM %s ORDER BY serial`, quoteIdent(deviceTableName))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "storage: query devices failed")
	}
	defer rows.Close()

	var snapshots []razerdiag.DeviceSnapshot
	for rows.Next() {
		var (
			snap     razerdiag.DeviceSnapshot
			lastSeen int64
			name     sql.NullString
			typ      sql.NullString
			firmware sql.NullString
			driver   sql.NullString
			vidpid   sql.NullString
			toolkit  sql.NullString
			lastErr  sql.NullString
		)
		if err := rows.Scan(&snap.Serial, &name, &typ, &firmware, &driver, &vidpid,
			&snap.Status, &toolkit, &lastErr, &lastSeen); err != nil {
			return nil, pkgerrors.Wrap(err, "storage: scan device failed")
		}
		snap.Name = name.String
		snap.Type = typ.String
		snap.Firmware = firmware.String
		snap.DriverVersion = driver.String
		snap.VidPid = vidpid.String
		snap.ToolkitVersion = toolkit.String
		snap.LastError = lastErr.String
		snap.LastSeenAt = time.Unix(lastSeen, 0)
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "storage: iterate devices failed")
	}
	return snapshots, nil
}
