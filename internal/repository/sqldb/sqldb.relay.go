// FilePath: internal/repository/sqldb/sqldb.relay.go
package sqldb

import (
	"context"
	"database/sql"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

const relayColumns = `id, unit_id, timestamp, lights, fans, pump`

type RelayRepo struct {
	BaseRepo
}

func NewRelayRepository(db database.DB) *RelayRepo {
	return &RelayRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *RelayRepo) Latest(ctx context.Context, unitID string) (*models.RelayStatus, error) {
	status := &models.RelayStatus{}
	err := r.db.GetDB().GetContext(ctx, status, r.rebind(latestRelayQuery), unitID)
	return status, relayLookupError(err)
}

func (r *RelayRepo) LatestTx(ctx context.Context, tx database.Transaction, unitID string) (*models.RelayStatus, error) {
	status := &models.RelayStatus{}
	err := tx.GetContext(ctx, status, tx.Rebind(latestRelayQuery), unitID)
	return status, relayLookupError(err)
}

func (r *RelayRepo) AppendTx(ctx context.Context, tx database.Transaction, status *models.RelayStatus) error {
	query := tx.Rebind(`
		INSERT INTO relay_states (unit_id, timestamp, lights, fans, pump)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := tx.GetContext(ctx, &status.ID, query,
		status.UnitID, status.Timestamp, status.Lights, status.Fans, status.Pump)
	if err != nil {
		return errors.NewDatabaseError("failed to append relay state", err)
	}
	return nil
}

const latestRelayQuery = `SELECT ` + relayColumns + ` FROM relay_states
	WHERE unit_id = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1`

func relayLookupError(err error) error {
	switch {
	case err == nil:
		return nil
	case err == sql.ErrNoRows:
		return errors.NewNotFoundError("no relay state for unit", err)
	default:
		return errors.NewDatabaseError("failed to get relay state", err)
	}
}
