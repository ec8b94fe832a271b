// FilePath: internal/repository/sqldb/sqldb.schedule.go
package sqldb

import (
	"context"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

const scheduleColumns = `id, unit_id, schedule_type, schedule_data, control_mode, active, created_at`

type ScheduleRepo struct {
	BaseRepo
}

func NewScheduleRepository(db database.DB) *ScheduleRepo {
	return &ScheduleRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *ScheduleRepo) ListActive(ctx context.Context, unitID string) ([]*models.Schedule, error) {
	schedules := []*models.Schedule{}
	query := r.rebind(`SELECT ` + scheduleColumns + ` FROM schedules
		WHERE unit_id = ? AND active
		ORDER BY id`)

	if err := r.db.GetDB().SelectContext(ctx, &schedules, query, unitID); err != nil {
		return nil, errors.NewDatabaseError("failed to list schedules", err)
	}
	return schedules, nil
}

func (r *ScheduleRepo) ReplaceActiveTx(ctx context.Context, tx database.Transaction, s *models.Schedule) error {
	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE schedules SET active = FALSE WHERE unit_id = ? AND active`),
		s.UnitID,
	); err != nil {
		return errors.NewDatabaseError("failed to deactivate schedules", err)
	}
	s.Active = true
	return r.InsertTx(ctx, tx, s)
}

func (r *ScheduleRepo) SetControlModeTx(ctx context.Context, tx database.Transaction, unitID string, mode models.ControlMode) (int64, error) {
	res, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE schedules SET control_mode = ? WHERE unit_id = ? AND active`),
		mode, unitID,
	)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to set control mode", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to set control mode", err)
	}
	return n, nil
}

func (r *ScheduleRepo) InsertTx(ctx context.Context, tx database.Transaction, s *models.Schedule) error {
	query := tx.Rebind(`
		INSERT INTO schedules (unit_id, schedule_type, schedule_data, control_mode, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := tx.GetContext(ctx, &s.ID, query,
		s.UnitID, s.Type, s.Data, s.ControlMode, s.Active, s.CreatedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to insert schedule", err)
	}
	return nil
}

func (r *ScheduleRepo) GetACSchedule(ctx context.Context) (models.ACSchedule, error) {
	rows := []struct {
		Hour        string  `db:"hour"`
		Temperature float64 `db:"temperature"`
	}{}
	query := `SELECT hour, temperature FROM ac_schedules WHERE active ORDER BY hour`

	if err := r.db.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.NewDatabaseError("failed to get ac schedule", err)
	}

	schedule := make(models.ACSchedule, len(rows))
	for _, row := range rows {
		schedule[row.Hour] = row.Temperature
	}
	return schedule, nil
}

// UpdateACSchedule upserts the given hours in one transaction; other hours are untouched
func (r *ScheduleRepo) UpdateACSchedule(ctx context.Context, changes models.ACSchedule, updatedAt int64) error {
	return r.withTx(ctx, func(tx database.Transaction) error {
		query := tx.Rebind(`
			INSERT INTO ac_schedules (hour, temperature, active, updated_at)
			VALUES (?, ?, TRUE, ?)
			ON CONFLICT (hour) DO UPDATE SET
				temperature = excluded.temperature,
				active = TRUE,
				updated_at = excluded.updated_at`)
		for _, hour := range changes.Hours() {
			if _, err := tx.ExecContext(ctx, query, hour, changes[hour], updatedAt); err != nil {
				return errors.NewDatabaseError("failed to update ac schedule", err)
			}
		}
		return nil
	})
}
