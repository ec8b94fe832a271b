package hubservice

import (
	"context"
	"sort"
	"strings"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

// ScheduleUpdate is emitted after a unit schedule write
type ScheduleUpdate struct {
	UnitID   string      `json:"unit_id"`
	Schedule models.JSON `json:"schedule"`
}

// GetSchedule returns the merged active schedule payload plus the control mode
func (s *HubService) GetSchedule(ctx context.Context, unitID string) (models.JSON, error) {
	if strings.TrimSpace(unitID) == "" {
		return nil, errors.NewValidationError("unit id is required", nil)
	}
	active, err := s.Schedules.ListActive(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return models.ComposeSchedule(active), nil
}

// SetSchedule replaces the unit's active schedule and hands control back to the timer
func (s *HubService) SetSchedule(ctx context.Context, unitID string, payload models.JSON) (models.JSON, error) {
	if strings.TrimSpace(unitID) == "" {
		return nil, errors.NewValidationError("unit id is required", nil)
	}
	if payload == nil {
		return nil, errors.NewValidationError("schedule body must be a JSON object", nil)
	}

	data := make(models.JSON, len(payload))
	for k, v := range payload {
		if k == models.ControlModeKey {
			continue
		}
		data[k] = v
	}

	sched := &models.Schedule{
		UnitID:      unitID,
		Type:        models.ScheduleTypeTime,
		Data:        data,
		ControlMode: models.ControlModeTimer,
		Active:      true,
		CreatedAt:   s.nowUnix(),
	}

	tx, err := s.Schedules.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.Schedules.LockUnit(ctx, tx, unitID); err != nil {
		return nil, err
	}
	if err := s.Schedules.ReplaceActiveTx(ctx, tx, sched); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseError("failed to commit schedule", err)
	}

	out := models.ComposeSchedule([]*models.Schedule{sched})
	s.emit(EventScheduleUpdated, &ScheduleUpdate{UnitID: unitID, Schedule: out})
	return out, nil
}

// GetACSchedule returns the facility-wide hourly AC targets
func (s *HubService) GetACSchedule(ctx context.Context) (models.ACSchedule, error) {
	return s.Schedules.GetACSchedule(ctx)
}

// UpdateACSchedule applies a partial update; only the given hours change
func (s *HubService) UpdateACSchedule(ctx context.Context, changes models.ACSchedule) (models.ACSchedule, error) {
	if len(changes) == 0 {
		return nil, errors.NewValidationError("ac_schedule must contain at least one hour", nil)
	}
	var invalid []string
	for hour := range changes {
		if !models.ValidACHour(hour) {
			invalid = append(invalid, hour)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, errors.NewValidationError("ac_schedule hours must be 00-23", nil).WithDetails(map[string][]string{"invalid_hours": invalid})
	}
	if err := s.Schedules.UpdateACSchedule(ctx, changes, s.nowUnix()); err != nil {
		return nil, err
	}
	full, err := s.Schedules.GetACSchedule(ctx)
	if err != nil {
		return nil, err
	}
	s.emit(EventACScheduleUpdated, full)
	return full, nil
}

// ScheduledACTemp returns the AC target for the current hour, nil when unset
func (s *HubService) ScheduledACTemp(ctx context.Context) (*float64, error) {
	sched, err := s.Schedules.GetACSchedule(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := sched[models.ACHour(s.now().In(s.location).Hour())]
	if !ok {
		return nil, nil
	}
	return &target, nil
}
