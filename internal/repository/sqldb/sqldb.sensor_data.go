// FilePath: internal/repository/sqldb/sqldb.sensor_data.go
package sqldb

import (
	"context"
	"database/sql"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

const (
	readingColumns = `id, unit_id, timestamp, ph, tds, turbidity, water_temp, water_level, climate_data`
	roomColumns    = `id, unit_id, timestamp, bme_temp, bme_humidity, bme_pressure, bme_iaq, co2, ac_temp, ac_mode`
)

type SensorDataRepo struct {
	BaseRepo
}

func NewSensorDataRepository(db database.DB) *SensorDataRepo {
	return &SensorDataRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *SensorDataRepo) InsertReading(ctx context.Context, reading *models.SensorReading) error {
	query := r.rebind(`
		INSERT INTO sensor_readings (unit_id, timestamp, ph, tds, turbidity, water_temp, water_level, climate_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.GetDB().GetContext(ctx, &reading.ID, query,
		reading.UnitID, reading.Timestamp,
		reading.PH, reading.TDS, reading.Turbidity, reading.WaterTemp, reading.WaterLevel,
		reading.Climate,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to insert sensor reading", err)
	}
	return nil
}

func (r *SensorDataRepo) LatestReading(ctx context.Context, unitID string) (*models.SensorReading, error) {
	reading := &models.SensorReading{}
	query := r.rebind(`SELECT ` + readingColumns + ` FROM sensor_readings
		WHERE unit_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`)

	err := r.db.GetDB().GetContext(ctx, reading, query, unitID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no sensor readings for unit", err)
		}
		return nil, errors.NewDatabaseError("failed to get latest sensor reading", err)
	}
	return reading, nil
}

// ListReadings returns readings in window, newest first. An empty unitID selects all units.
func (r *SensorDataRepo) ListReadings(ctx context.Context, unitID string, window models.TimeRange) ([]*models.SensorReading, error) {
	readings := []*models.SensorReading{}
	query := `SELECT ` + readingColumns + ` FROM sensor_readings WHERE timestamp BETWEEN ? AND ?`
	args := []interface{}{window.Start, window.End}
	if unitID != "" {
		query += ` AND unit_id = ?`
		args = append(args, unitID)
	}
	query += ` ORDER BY timestamp DESC, id DESC`

	if err := r.db.GetDB().SelectContext(ctx, &readings, r.rebind(query), args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor readings", err)
	}
	return readings, nil
}

func (r *SensorDataRepo) InsertRoomReading(ctx context.Context, reading *models.RoomSensorReading) error {
	reading.SyncColumnsFromAC()
	query := r.rebind(`
		INSERT INTO room_sensors (unit_id, timestamp, bme_temp, bme_humidity, bme_pressure, bme_iaq, co2, ac_temp, ac_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.GetDB().GetContext(ctx, &reading.ID, query,
		reading.UnitID, reading.Timestamp,
		reading.Temp, reading.Humidity, reading.Pressure, reading.IAQ,
		reading.CO2, reading.ACTemp, reading.ACMode,
	)
	if err != nil {
		return errors.NewDatabaseError("failed to insert room reading", err)
	}
	return nil
}

func (r *SensorDataRepo) LatestRoomReading(ctx context.Context, roomID string) (*models.RoomSensorReading, error) {
	reading := &models.RoomSensorReading{}
	query := r.rebind(`SELECT ` + roomColumns + ` FROM room_sensors
		WHERE unit_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`)

	err := r.db.GetDB().GetContext(ctx, reading, query, roomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no readings for room", err)
		}
		return nil, errors.NewDatabaseError("failed to get latest room reading", err)
	}
	reading.SyncACFromColumns()
	return reading, nil
}
