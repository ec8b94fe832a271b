// FilePath: internal/repository/sqldb/sqldb.unit.go
package sqldb

import (
	"context"
	"database/sql"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

type UnitRepo struct {
	BaseRepo
}

func NewUnitRepository(db database.DB) *UnitRepo {
	return &UnitRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *UnitRepo) List(ctx context.Context) ([]*models.Unit, error) {
	units := []*models.Unit{}
	query := `SELECT unit_id, name, type, active, created_at FROM units ORDER BY unit_id`

	if err := r.db.GetDB().SelectContext(ctx, &units, query); err != nil {
		return nil, errors.NewDatabaseError("failed to list units", err)
	}
	return units, nil
}

func (r *UnitRepo) Get(ctx context.Context, id string) (*models.Unit, error) {
	unit := &models.Unit{}
	query := r.rebind(`SELECT unit_id, name, type, active, created_at FROM units WHERE unit_id = ?`)

	err := r.db.GetDB().GetContext(ctx, unit, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("unit not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get unit", err)
	}
	return unit, nil
}
