// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/models"
)

// UnitRepository defines the interface for unit registry operations
type UnitRepository interface {
	database.Repository
	List(ctx context.Context) ([]*models.Unit, error)
	Get(ctx context.Context, id string) (*models.Unit, error)
}

// SensorDataRepository defines the interface for the time-series store.
// Readings are append-only; Latest* return a NotFound error when empty.
type SensorDataRepository interface {
	database.Repository
	InsertReading(ctx context.Context, reading *models.SensorReading) error
	LatestReading(ctx context.Context, unitID string) (*models.SensorReading, error)
	ListReadings(ctx context.Context, unitID string, window models.TimeRange) ([]*models.SensorReading, error)
	InsertRoomReading(ctx context.Context, reading *models.RoomSensorReading) error
	LatestRoomReading(ctx context.Context, roomID string) (*models.RoomSensorReading, error)
}

// RelayRepository defines the interface for the relay state log
type RelayRepository interface {
	database.Repository
	// LockUnit serializes writers of one unit for the lifetime of tx
	LockUnit(ctx context.Context, tx database.Transaction, unitID string) error
	Latest(ctx context.Context, unitID string) (*models.RelayStatus, error)
	LatestTx(ctx context.Context, tx database.Transaction, unitID string) (*models.RelayStatus, error)
	AppendTx(ctx context.Context, tx database.Transaction, status *models.RelayStatus) error
}

// ScheduleRepository defines the interface for unit and AC schedules
type ScheduleRepository interface {
	database.Repository
	// LockUnit serializes writers of one unit for the lifetime of tx
	LockUnit(ctx context.Context, tx database.Transaction, unitID string) error
	ListActive(ctx context.Context, unitID string) ([]*models.Schedule, error)
	// ReplaceActiveTx deactivates every schedule of the unit and inserts s as the active one
	ReplaceActiveTx(ctx context.Context, tx database.Transaction, s *models.Schedule) error
	// SetControlModeTx updates the active schedule's mode and reports the affected rows
	SetControlModeTx(ctx context.Context, tx database.Transaction, unitID string, mode models.ControlMode) (int64, error)
	InsertTx(ctx context.Context, tx database.Transaction, s *models.Schedule) error
	GetACSchedule(ctx context.Context) (models.ACSchedule, error)
	UpdateACSchedule(ctx context.Context, changes models.ACSchedule, updatedAt int64) error
}

// CameraRepository defines the interface for the camera registry
type CameraRepository interface {
	database.Repository
	// RecordImage inserts the image and bumps the camera aggregate atomically
	RecordImage(ctx context.Context, img *models.CameraImage) error
	GetStatus(ctx context.Context, cameraID string) (*models.CameraStatus, error)
	ListStatusByUnit(ctx context.Context, unitID string) ([]*models.CameraStatus, error)
	ListStatus(ctx context.Context) ([]*models.CameraStatus, error)
	ListImages(ctx context.Context, cameraID string, limit int) ([]*models.CameraImage, error)
	LatestPerCamera(ctx context.Context, unitID string) ([]*models.CameraImage, error)
	ListImagesInRange(ctx context.Context, unitID string, window models.TimeRange) ([]*models.CameraImage, error)
}

// ImageStore defines the interface for the image blob storage
type ImageStore interface {
	Save(ctx context.Context, name string, content io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadSeekCloser, time.Time, error)
	Remove(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) bool
}
