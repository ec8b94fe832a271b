package hubservice

import (
	"strings"
	"time"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Events emitted after a successful write
const (
	EventRelayUpdated      = "relay.updated"
	EventScheduleUpdated   = "schedule.updated"
	EventACScheduleUpdated = "ac_schedule.updated"
	EventCameraIngested    = "camera.ingested"
	EventSensorsIngested   = "sensors.ingested"
)

// Repositories groups the storage dependencies of the hub service
type Repositories struct {
	Units      repository.UnitRepository
	SensorData repository.SensorDataRepository
	Relays     repository.RelayRepository
	Schedules  repository.ScheduleRepository
	Cameras    repository.CameraRepository
	Images     repository.ImageStore
}

// Options tunes validation and time handling
type Options struct {
	AllowedExtensions []string
	Location          *time.Location
	Now               func() time.Time
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Units      repository.UnitRepository
	SensorData repository.SensorDataRepository
	Relays     repository.RelayRepository
	Schedules  repository.ScheduleRepository
	Cameras    repository.CameraRepository
	Images     repository.ImageStore

	allowedExt map[string]bool
	location   *time.Location
	now        func() time.Time
	events     *nuts.EventEmitter
}

// New creates a new HubService instance
func New(repos Repositories, opts Options) *HubService {
	svc := &HubService{
		Units:      repos.Units,
		SensorData: repos.SensorData,
		Relays:     repos.Relays,
		Schedules:  repos.Schedules,
		Cameras:    repos.Cameras,
		Images:     repos.Images,
		allowedExt: map[string]bool{},
		location:   opts.Location,
		now:        opts.Now,
		events:     nuts.NewEventEmitter(),
	}
	exts := opts.AllowedExtensions
	if len(exts) == 0 {
		exts = []string{"png", "jpg", "jpeg", "gif"}
	}
	for _, ext := range exts {
		svc.allowedExt[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	if svc.location == nil {
		svc.location = time.Local
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Units == nil {
		return ErrMissingRepository("units")
	}
	if s.SensorData == nil {
		return ErrMissingRepository("sensorData")
	}
	if s.Relays == nil {
		return ErrMissingRepository("relays")
	}
	if s.Schedules == nil {
		return ErrMissingRepository("schedules")
	}
	if s.Cameras == nil {
		return ErrMissingRepository("cameras")
	}
	if s.Images == nil {
		return ErrMissingRepository("images")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

// OnEvent registers a callback for a hub event. handlerID must be unique per event.
func (s *HubService) OnEvent(event, handlerID string, handler func(payload interface{})) error {
	if _, err := s.events.On(event, handlerID, handler); err != nil {
		return errors.NewInternalError("failed to register "+event+" handler", err)
	}
	return nil
}

func (s *HubService) emit(event string, payload interface{}) {
	if err := s.events.Emit(event, payload); err != nil {
		nuts.L.Errorf("[HubService] Failed to emit %s: %v", event, err)
	}
}

// Location is the timezone used for calendar ranges and export formatting
func (s *HubService) Location() *time.Location {
	return s.location
}

func (s *HubService) nowUnix() int64 {
	return s.now().Unix()
}
