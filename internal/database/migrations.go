// FilePath: internal/database/migrations.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	nuts "github.com/vaudience/go-nuts"
)

// Migration is one versioned schema step
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sqlx.Tx, dialect Dialect) error
}

// SeedUnit is a unit created at bootstrap
type SeedUnit struct {
	ID   string
	Name string
	Type string
}

// DefaultUnits are the cultivation units and rooms present on a fresh install
var DefaultUnits = []SeedUnit{
	{ID: "DWC1", Name: "Deep Water Culture 1", Type: "DWC"},
	{ID: "DWC2", Name: "Deep Water Culture 2", Type: "DWC"},
	{ID: "NFT", Name: "Nutrient Film Technique", Type: "NFT"},
	{ID: "AERO", Name: "Aeroponic System", Type: "Aeroponic"},
	{ID: "TROUGH", Name: "Trough Based System", Type: "Trough"},
	{ID: "ROOM_FRONT", Name: "Front Room", Type: "Room"},
	{ID: "ROOM_BACK", Name: "Back Room", Type: "Room"},
}

// DefaultACTemperature is the seeded setpoint for every hour
const DefaultACTemperature = 24.0

// Migrations lists every schema step in order. Steps are append-only.
var Migrations = []Migration{
	{Version: 1, Name: "create_tables", Up: createTables},
	{Version: 2, Name: "schedules_control_mode", Up: addControlMode},
	{Version: 3, Name: "unique_indexes", Up: createUniqueIndexes},
	{Version: 4, Name: "seed_defaults", Up: seedDefaults},
}

// Migrate applies every migration that has not been recorded yet
func Migrate(ctx context.Context, db DB) error {
	x := db.GetDB()
	if _, err := x.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("error creating schema_migrations: %w", err)
	}

	var applied []int
	if err := x.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return fmt.Errorf("error reading schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range Migrations {
		if done[m.Version] {
			continue
		}
		if err := apply(ctx, x, db.Dialect(), m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		nuts.L.Infof("[Migrate] Applied migration %d (%s)", m.Version, m.Name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version
func SchemaVersion(ctx context.Context, db DB) (int, error) {
	var v int
	err := db.GetDB().GetContext(ctx, &v, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	return v, err
}

func apply(ctx context.Context, x *sqlx.DB, dialect Dialect, m Migration) error {
	tx, err := x.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Up(ctx, tx, dialect); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`),
		m.Version, m.Name, time.Now().Unix(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func autoID(dialect Dialect) string {
	if dialect == DialectPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func execAll(ctx context.Context, tx *sqlx.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w (statement: %s)", err, strings.SplitN(strings.TrimSpace(stmt), "\n", 2)[0])
		}
	}
	return nil
}

func createTables(ctx context.Context, tx *sqlx.Tx, dialect Dialect) error {
	id := autoID(dialect)
	return execAll(ctx, tx, []string{
		`CREATE TABLE IF NOT EXISTS units (
			unit_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id ` + id + `,
			unit_id TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			ph DOUBLE PRECISION NOT NULL,
			tds DOUBLE PRECISION NOT NULL,
			turbidity DOUBLE PRECISION NOT NULL,
			water_temp DOUBLE PRECISION NOT NULL,
			water_level DOUBLE PRECISION NOT NULL,
			climate_data TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_unit_ts ON sensor_readings (unit_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_ts ON sensor_readings (timestamp)`,
		`CREATE TABLE IF NOT EXISTS room_sensors (
			id ` + id + `,
			unit_id TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			bme_temp DOUBLE PRECISION NOT NULL,
			bme_humidity DOUBLE PRECISION NOT NULL,
			bme_pressure DOUBLE PRECISION NOT NULL,
			bme_iaq DOUBLE PRECISION NOT NULL,
			co2 DOUBLE PRECISION NOT NULL,
			ac_temp DOUBLE PRECISION,
			ac_mode TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_room_sensors_unit_ts ON room_sensors (unit_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS relay_states (
			id ` + id + `,
			unit_id TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			lights TEXT NOT NULL,
			fans TEXT NOT NULL,
			pump TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relay_states_unit_ts ON relay_states (unit_id, timestamp, id)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id ` + id + `,
			unit_id TEXT NOT NULL,
			schedule_type TEXT NOT NULL,
			schedule_data TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_unit_active ON schedules (unit_id, active)`,
		`CREATE TABLE IF NOT EXISTS ac_schedules (
			id ` + id + `,
			hour TEXT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS camera_images (
			id ` + id + `,
			camera_id TEXT NOT NULL,
			unit_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			position INTEGER NOT NULL,
			timestamp BIGINT NOT NULL,
			image_path TEXT NOT NULL,
			file_size BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_camera_images_camera_ts ON camera_images (camera_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_camera_images_unit_ts ON camera_images (unit_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS camera_status (
			camera_id TEXT PRIMARY KEY,
			unit_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			position INTEGER NOT NULL,
			last_image_timestamp BIGINT NOT NULL,
			total_images BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'online',
			updated_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_camera_status_unit ON camera_status (unit_id)`,
	})
}

func addControlMode(ctx context.Context, tx *sqlx.Tx, dialect Dialect) error {
	return execAll(ctx, tx, []string{
		`ALTER TABLE schedules ADD COLUMN control_mode TEXT NOT NULL DEFAULT 'timer'`,
	})
}

func createUniqueIndexes(ctx context.Context, tx *sqlx.Tx, dialect Dialect) error {
	return execAll(ctx, tx, []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_schedules_one_active ON schedules (unit_id) WHERE active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_ac_schedules_hour ON ac_schedules (hour)`,
	})
}

func seedDefaults(ctx context.Context, tx *sqlx.Tx, dialect Dialect) error {
	now := time.Now().Unix()
	for _, u := range DefaultUnits {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO units (unit_id, name, type, active, created_at) VALUES (?, ?, ?, TRUE, ?)
				ON CONFLICT (unit_id) DO NOTHING`),
			u.ID, u.Name, u.Type, now,
		); err != nil {
			return err
		}
	}
	for h := 0; h < 24; h++ {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO ac_schedules (hour, temperature, active, updated_at) VALUES (?, ?, TRUE, ?)
				ON CONFLICT (hour) DO NOTHING`),
			fmt.Sprintf("%02d", h), DefaultACTemperature, now,
		); err != nil {
			return err
		}
	}
	return nil
}
