// FilePath: internal/repository/sqldb/sqldb.camera.go
package sqldb

import (
	"context"
	"database/sql"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
)

const (
	imageColumns  = `id, camera_id, unit_id, level, position, timestamp, image_path, file_size`
	statusColumns = `camera_id, unit_id, level, position, last_image_timestamp, total_images, status, updated_at`
)

type CameraRepo struct {
	BaseRepo
}

func NewCameraRepository(db database.DB) *CameraRepo {
	return &CameraRepo{BaseRepo: BaseRepo{db: db}}
}

// RecordImage appends the image row and increments the camera aggregate in
// one transaction. The counter is bumped inside the upsert, so concurrent
// ingestions never lose an increment.
func (r *CameraRepo) RecordImage(ctx context.Context, img *models.CameraImage) error {
	return r.withTx(ctx, func(tx database.Transaction) error {
		err := tx.GetContext(ctx, &img.ID, tx.Rebind(`
			INSERT INTO camera_images (camera_id, unit_id, level, position, timestamp, image_path, file_size)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			img.CameraID, img.UnitID, img.Level, img.Position, img.Timestamp, img.ImagePath, img.FileSize,
		)
		if err != nil {
			return errors.NewDatabaseError("failed to insert camera image", err)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO camera_status (camera_id, unit_id, level, position, last_image_timestamp, total_images, status, updated_at)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT (camera_id) DO UPDATE SET
				unit_id = excluded.unit_id,
				level = excluded.level,
				position = excluded.position,
				last_image_timestamp = CASE
					WHEN excluded.last_image_timestamp > camera_status.last_image_timestamp
					THEN excluded.last_image_timestamp
					ELSE camera_status.last_image_timestamp
				END,
				total_images = camera_status.total_images + 1,
				status = excluded.status,
				updated_at = excluded.updated_at`),
			img.CameraID, img.UnitID, img.Level, img.Position, img.Timestamp, models.CameraStatusOnline, img.Timestamp,
		)
		if err != nil {
			return errors.NewDatabaseError("failed to update camera status", err)
		}
		return nil
	})
}

func (r *CameraRepo) GetStatus(ctx context.Context, cameraID string) (*models.CameraStatus, error) {
	status := &models.CameraStatus{}
	query := r.rebind(`SELECT ` + statusColumns + ` FROM camera_status WHERE camera_id = ?`)

	err := r.db.GetDB().GetContext(ctx, status, query, cameraID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("camera not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get camera status", err)
	}
	return status, nil
}

func (r *CameraRepo) ListStatusByUnit(ctx context.Context, unitID string) ([]*models.CameraStatus, error) {
	statuses := []*models.CameraStatus{}
	query := r.rebind(`SELECT ` + statusColumns + ` FROM camera_status WHERE unit_id = ? ORDER BY camera_id`)

	if err := r.db.GetDB().SelectContext(ctx, &statuses, query, unitID); err != nil {
		return nil, errors.NewDatabaseError("failed to list cameras", err)
	}
	return statuses, nil
}

func (r *CameraRepo) ListStatus(ctx context.Context) ([]*models.CameraStatus, error) {
	statuses := []*models.CameraStatus{}
	query := `SELECT ` + statusColumns + ` FROM camera_status ORDER BY unit_id, camera_id`

	if err := r.db.GetDB().SelectContext(ctx, &statuses, query); err != nil {
		return nil, errors.NewDatabaseError("failed to list cameras", err)
	}
	return statuses, nil
}

func (r *CameraRepo) ListImages(ctx context.Context, cameraID string, limit int) ([]*models.CameraImage, error) {
	images := []*models.CameraImage{}
	query := r.rebind(`SELECT ` + imageColumns + ` FROM camera_images
		WHERE camera_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`)

	if err := r.db.GetDB().SelectContext(ctx, &images, query, cameraID, limit); err != nil {
		return nil, errors.NewDatabaseError("failed to list camera images", err)
	}
	return withURLs(images), nil
}

// LatestPerCamera returns, for every camera of the unit, the image(s) carrying its maximum timestamp
func (r *CameraRepo) LatestPerCamera(ctx context.Context, unitID string) ([]*models.CameraImage, error) {
	images := []*models.CameraImage{}
	query := r.rebind(`
		SELECT ci.id, ci.camera_id, ci.unit_id, ci.level, ci.position, ci.timestamp, ci.image_path, ci.file_size
		FROM camera_images ci
		INNER JOIN (
			SELECT camera_id, MAX(timestamp) AS max_timestamp
			FROM camera_images
			WHERE unit_id = ?
			GROUP BY camera_id
		) latest ON ci.camera_id = latest.camera_id AND ci.timestamp = latest.max_timestamp
		WHERE ci.unit_id = ?
		ORDER BY ci.level, ci.position, ci.id`)

	if err := r.db.GetDB().SelectContext(ctx, &images, query, unitID, unitID); err != nil {
		return nil, errors.NewDatabaseError("failed to get latest camera images", err)
	}
	return withURLs(images), nil
}

// ListImagesInRange returns images in window ordered by camera then time. An empty unitID selects all units.
func (r *CameraRepo) ListImagesInRange(ctx context.Context, unitID string, window models.TimeRange) ([]*models.CameraImage, error) {
	images := []*models.CameraImage{}
	query := `SELECT ` + imageColumns + ` FROM camera_images WHERE timestamp BETWEEN ? AND ?`
	args := []interface{}{window.Start, window.End}
	if unitID != "" {
		query += ` AND unit_id = ?`
		args = append(args, unitID)
	}
	query += ` ORDER BY camera_id, timestamp, id`

	if err := r.db.GetDB().SelectContext(ctx, &images, r.rebind(query), args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list camera images", err)
	}
	return withURLs(images), nil
}

func withURLs(images []*models.CameraImage) []*models.CameraImage {
	for _, img := range images {
		img.URL = models.ImageURL(img.ImagePath)
	}
	return images
}
