package hubservice

import (
	"context"
	"strings"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// LatestSensors returns the newest reading of a unit, or the fallback sample
func (s *HubService) LatestSensors(ctx context.Context, unitID string) (*models.SensorReading, error) {
	if strings.TrimSpace(unitID) == "" {
		return nil, errors.NewValidationError("unit id is required", nil)
	}
	reading, err := s.SensorData.LatestReading(ctx, unitID)
	if errors.IsNotFound(err) {
		return models.FallbackSensorReading(unitID, s.nowUnix()), nil
	}
	if err != nil {
		return nil, err
	}
	if reading.Climate == nil {
		reading.Climate = models.Climate{}
	}
	return reading, nil
}

// IngestReading appends one unit reading
func (s *HubService) IngestReading(ctx context.Context, reading *models.SensorReading) error {
	if reading.UnitID == "" {
		return errors.NewValidationError("unit id is required", nil)
	}
	if reading.Timestamp == 0 {
		reading.Timestamp = s.nowUnix()
	}
	if err := s.SensorData.InsertReading(ctx, reading); err != nil {
		return err
	}
	s.emit(EventSensorsIngested, reading.Timestamp)
	return nil
}

// RoomSensors returns the newest reading of "front" or "back", or the fallback sample.
// The back room also reports the AC target scheduled for the current hour.
func (s *HubService) RoomSensors(ctx context.Context, room string) (*models.RoomSensorReading, error) {
	roomID, ok := models.RoomUnitID(room)
	if !ok {
		return nil, errors.NewNotFoundError("unknown room", nil)
	}
	reading, err := s.SensorData.LatestRoomReading(ctx, roomID)
	if errors.IsNotFound(err) {
		reading = models.FallbackRoomReading(roomID, s.nowUnix())
	} else if err != nil {
		return nil, err
	}

	if roomID == models.RoomBack {
		if reading.AC == nil {
			reading.AC = &models.ACState{}
		}
		target, err := s.ScheduledACTemp(ctx)
		if err != nil {
			nuts.L.Warnf("[HubService] Could not evaluate AC schedule: %v", err)
		} else if target != nil {
			reading.AC.ScheduledTemp = target
		}
	}
	return reading, nil
}

// IngestRoomReading appends one room reading
func (s *HubService) IngestRoomReading(ctx context.Context, reading *models.RoomSensorReading) error {
	if reading.UnitID != models.RoomFront && reading.UnitID != models.RoomBack {
		return errors.NewValidationError("unknown room", nil)
	}
	if reading.Timestamp == 0 {
		reading.Timestamp = s.nowUnix()
	}
	if err := s.SensorData.InsertRoomReading(ctx, reading); err != nil {
		return err
	}
	s.emit(EventSensorsIngested, reading.Timestamp)
	return nil
}
