package hubservice

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const uploadMessage = "Image uploaded successfully"

// IngestImage validates an upload, stores its bytes and records it in the camera registry
func (s *HubService) IngestImage(ctx context.Context, cameraID, filename string, content io.Reader, ts int64) (*models.UploadResult, error) {
	if content == nil {
		return nil, errors.NewValidationError("No image file provided", nil)
	}
	if strings.TrimSpace(filename) == "" {
		return nil, errors.NewValidationError("No image file selected", nil)
	}
	if !s.allowedFile(filename) {
		return nil, errors.NewValidationError("Invalid file type", nil)
	}
	cam, err := models.ParseCameraID(cameraID)
	if err != nil {
		return nil, errors.NewValidationError(err.Error(), err)
	}
	if ts == 0 {
		ts = s.nowUnix()
	}

	name := fmt.Sprintf("%s_%d.jpg", cameraID, ts)
	size, err := s.Images.Save(ctx, name, content)
	if err != nil {
		return nil, err
	}

	img := &models.CameraImage{
		CameraID:  cameraID,
		UnitID:    cam.UnitID,
		Level:     cam.Level,
		Position:  cam.Position,
		Timestamp: ts,
		ImagePath: name,
		FileSize:  size,
		URL:       models.ImageURL(name),
	}
	if err := s.Cameras.RecordImage(ctx, img); err != nil {
		// the file name may be shared with a concurrent upload of the same second
		nuts.L.Warnf("[HubService] Image %s stored but not recorded: %v", name, err)
		return nil, err
	}

	s.emit(EventCameraIngested, img)
	return &models.UploadResult{
		Message:   uploadMessage,
		CameraID:  cameraID,
		Timestamp: ts,
		ImageURL:  img.URL,
	}, nil
}

func (s *HubService) allowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext != "" && s.allowedExt[ext]
}

// ListCameras returns the status of every camera of a unit
func (s *HubService) ListCameras(ctx context.Context, unitID string) (*models.UnitCameras, error) {
	cameras, err := s.Cameras.ListStatusByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return &models.UnitCameras{UnitID: unitID, Cameras: cameras}, nil
}

// CameraImages returns the newest images of one camera
func (s *HubService) CameraImages(ctx context.Context, cameraID string, filters models.ImageListFilters) (*models.CameraImages, error) {
	images, err := s.Cameras.ListImages(ctx, cameraID, filters.EffectiveLimit())
	if err != nil {
		return nil, err
	}
	return &models.CameraImages{CameraID: cameraID, Images: images}, nil
}

// LatestGrid returns the newest image per camera of a unit, by level and position
func (s *HubService) LatestGrid(ctx context.Context, unitID string) (*models.UnitCameraGrid, error) {
	latest, err := s.Cameras.LatestPerCamera(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return &models.UnitCameraGrid{UnitID: unitID, CameraGrid: models.BuildCameraGrid(latest)}, nil
}

// CameraSummary groups every camera status by unit
func (s *HubService) CameraSummary(ctx context.Context) (*models.CameraSummary, error) {
	statuses, err := s.Cameras.ListStatus(ctx)
	if err != nil {
		return nil, err
	}
	summary := &models.CameraSummary{
		Timestamp:    s.nowUnix(),
		TotalCameras: len(statuses),
		Units:        map[string][]*models.CameraStatus{},
	}
	for _, st := range statuses {
		summary.Units[st.UnitID] = append(summary.Units[st.UnitID], st)
	}
	summary.TotalUnits = len(summary.Units)
	return summary, nil
}

// OpenImage opens a stored image for serving
func (s *HubService) OpenImage(ctx context.Context, filename string) (io.ReadSeekCloser, time.Time, error) {
	return s.Images.Open(ctx, filename)
}
