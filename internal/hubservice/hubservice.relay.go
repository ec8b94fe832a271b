package hubservice

import (
	"context"
	"strings"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// GetRelays returns the newest relay state of a unit, all OFF when none was written
func (s *HubService) GetRelays(ctx context.Context, unitID string) (*models.RelayStatus, error) {
	if strings.TrimSpace(unitID) == "" {
		return nil, errors.NewValidationError("unit id is required", nil)
	}
	status, err := s.Relays.Latest(ctx, unitID)
	if errors.IsNotFound(err) {
		return &models.RelayStatus{
			UnitID:    unitID,
			Timestamp: s.nowUnix(),
			Relays:    models.DefaultRelays(),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// SetRelays merges patch into the unit's latest relay state, appends the result
// and switches the unit to manual control. Both happen in one transaction.
// Subscribers get the relay state first, then the schedule now in manual mode.
func (s *HubService) SetRelays(ctx context.Context, unitID string, patch models.RelayPatch) (*models.RelayStatus, error) {
	if strings.TrimSpace(unitID) == "" {
		return nil, errors.NewValidationError("unit id is required", nil)
	}
	if err := patch.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error(), err)
	}

	tx, err := s.Relays.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.Relays.LockUnit(ctx, tx, unitID); err != nil {
		return nil, err
	}

	var prior *models.Relays
	latest, err := s.Relays.LatestTx(ctx, tx, unitID)
	switch {
	case err == nil:
		prior = &latest.Relays
	case !errors.IsNotFound(err):
		return nil, err
	}

	merged, err := patch.Merge(prior)
	if err != nil {
		return nil, errors.NewValidationError(err.Error(), err)
	}

	status := &models.RelayStatus{
		UnitID:    unitID,
		Timestamp: s.nowUnix(),
		Relays:    merged,
	}
	if err := s.Relays.AppendTx(ctx, tx, status); err != nil {
		return nil, err
	}

	affected, err := s.Schedules.SetControlModeTx(ctx, tx, unitID, models.ControlModeManual)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// no schedule yet: the override still needs a row to live on
		err = s.Schedules.InsertTx(ctx, tx, &models.Schedule{
			UnitID:      unitID,
			Type:        models.ScheduleTypeTime,
			Data:        models.JSON{},
			ControlMode: models.ControlModeManual,
			Active:      true,
			CreatedAt:   status.Timestamp,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseError("failed to commit relay update", err)
	}

	nuts.L.Debugf("[HubService] Unit %s relays set to %+v (manual)", unitID, merged)
	s.emit(EventRelayUpdated, status)

	active, err := s.Schedules.ListActive(ctx, unitID)
	if err != nil {
		nuts.L.Warnf("[HubService] Unit %s switched to manual but schedule reload failed: %v", unitID, err)
		return status, nil
	}
	s.emit(EventScheduleUpdated, &ScheduleUpdate{UnitID: unitID, Schedule: models.ComposeSchedule(active)})
	return status, nil
}
