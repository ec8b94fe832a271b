package hubservice

import (
	"context"

	"github.com/itsatony/hydrohub/internal/models"
)

// ListUnits returns every registered unit and room
func (s *HubService) ListUnits(ctx context.Context) ([]*models.Unit, error) {
	return s.Units.List(ctx)
}

// CultivationUnits returns the active grow systems, excluding rooms
func (s *HubService) CultivationUnits(ctx context.Context) ([]*models.Unit, error) {
	units, err := s.Units.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Unit, 0, len(units))
	for _, u := range units {
		if u.Active && !u.IsRoom() {
			out = append(out, u)
		}
	}
	return out, nil
}
