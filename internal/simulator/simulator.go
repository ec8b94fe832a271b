// FilePath: internal/simulator/simulator.go
package simulator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// placeholder bytes stored for mock captures
var mockImage = []byte{0xFF, 0xD8, 0xFF, 0xE0, 'm', 'o', 'c', 'k', 0xFF, 0xD9}

// Ingestor is the write side the simulator feeds
type Ingestor interface {
	CultivationUnits(ctx context.Context) ([]*models.Unit, error)
	IngestReading(ctx context.Context, reading *models.SensorReading) error
	IngestRoomReading(ctx context.Context, reading *models.RoomSensorReading) error
	IngestImage(ctx context.Context, cameraID, filename string, content io.Reader, ts int64) (*models.UploadResult, error)
}

// Broadcaster announces finished ticks
type Broadcaster interface {
	BroadcastGlobal(event string, data interface{})
}

// TickObserver records tick outcomes
type TickObserver interface {
	ObserveTick(d time.Duration, err error)
}

// Config holds the simulator timing
type Config struct {
	Interval       time.Duration
	CameraInterval time.Duration
}

// Simulator synthesizes readings and images on a fixed period
type Simulator struct {
	config   Config
	ingest   Ingestor
	bus      Broadcaster
	observer TickObserver

	mu  sync.Mutex
	rnd *rand.Rand

	now func() time.Time
}

// New creates a simulator; rnd may be nil for a time-seeded source
func New(cfg Config, ingest Ingestor, bus Broadcaster, observer TickObserver, rnd *rand.Rand) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.CameraInterval <= 0 {
		cfg.CameraInterval = 300 * time.Second
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		config:   cfg,
		ingest:   ingest,
		bus:      bus,
		observer: observer,
		rnd:      rnd,
		now:      time.Now,
	}
}

// Run ticks on multiples of the interval until ctx is cancelled
func (s *Simulator) Run(ctx context.Context) {
	nuts.L.Infof("[Simulator] Started (interval %s, cameras every %s)", s.config.Interval, s.config.CameraInterval)
	for {
		next := nextBoundary(s.now(), s.config.Interval)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			nuts.L.Infof("[Simulator] Stopped")
			return
		case <-timer.C:
			s.Tick(ctx, next.Unix())
		}
	}
}

// nextBoundary returns the first unix-aligned multiple of interval after now
func nextBoundary(now time.Time, interval time.Duration) time.Time {
	step := int64(interval / time.Second)
	if step < 1 {
		return now.Add(interval)
	}
	return time.Unix((now.Unix()/step+1)*step, 0)
}

// Tick runs one simulation step at ts. Failures are logged and never escape;
// clients are only told to re-fetch after a step that completed.
func (s *Simulator) Tick(ctx context.Context, ts int64) {
	start := time.Now()
	err := s.safeTick(ctx, ts)
	if err != nil {
		nuts.L.Errorf("[Simulator] Tick %d failed: %v", ts, err)
	}
	if s.observer != nil {
		s.observer.ObserveTick(time.Since(start), err)
	}
	if err == nil && s.bus != nil {
		s.bus.BroadcastGlobal("sensor_update", map[string]interface{}{
			"timestamp": ts,
			"message":   "Sensor data updated",
		})
	}
}

func (s *Simulator) safeTick(ctx context.Context, ts int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.tick(ctx, ts)
}

func (s *Simulator) tick(ctx context.Context, ts int64) error {
	units, err := s.ingest.CultivationUnits(ctx)
	if err != nil {
		return err
	}

	for _, u := range units {
		if err := s.ingest.IngestReading(ctx, s.unitReading(u.ID, ts)); err != nil {
			return fmt.Errorf("unit %s: %w", u.ID, err)
		}
	}
	for _, room := range []string{models.RoomFront, models.RoomBack} {
		if err := s.ingest.IngestRoomReading(ctx, s.roomReading(room, ts)); err != nil {
			return fmt.Errorf("room %s: %w", room, err)
		}
	}

	if camSecs := int64(s.config.CameraInterval / time.Second); camSecs > 0 && ts%camSecs == 0 {
		for _, u := range units {
			if err := s.mockImages(ctx, u.ID, ts); err != nil {
				return fmt.Errorf("images %s: %w", u.ID, err)
			}
		}
	}
	return nil
}

func (s *Simulator) mockImages(ctx context.Context, unitID string, ts int64) error {
	n := s.intn(2, 6)
	for i := 0; i < n; i++ {
		cam := models.CameraID{UnitID: unitID, Level: s.intn(1, 4), Position: s.intn(1, 2)}
		if _, err := s.ingest.IngestImage(ctx, cam.String(), "mock.jpg", bytes.NewReader(mockImage), ts); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) unitReading(unitID string, ts int64) *models.SensorReading {
	climate := models.Climate{}
	for level := 1; level <= 4; level++ {
		for pos := 1; pos <= 2; pos++ {
			climate[fmt.Sprintf("L%d%d", level, pos)] = models.ZoneClimate{
				Temp:     s.uniform1(22, 26),
				Humidity: float64(s.intn(65, 75)),
			}
		}
	}
	return &models.SensorReading{
		UnitID:    unitID,
		Timestamp: ts,
		Reservoir: models.Reservoir{
			PH:         s.uniform1(5.5, 7.0),
			TDS:        float64(s.intn(800, 1200)),
			Turbidity:  float64(s.intn(8, 20)),
			WaterTemp:  s.uniform1(20, 25),
			WaterLevel: float64(s.intn(70, 90)),
		},
		Climate: climate,
	}
}

func (s *Simulator) roomReading(roomID string, ts int64) *models.RoomSensorReading {
	r := &models.RoomSensorReading{
		UnitID:    roomID,
		Timestamp: ts,
		BME: models.BME{
			Temp:     s.uniform1(22, 28),
			Humidity: float64(s.intn(55, 70)),
			Pressure: float64(s.intn(1000, 1020)),
			IAQ:      float64(s.intn(100, 200)),
		},
		CO2: float64(s.intn(400, 1000)),
	}
	if roomID == models.RoomBack {
		r.AC = &models.ACState{CurrentSetTemp: float64(s.intn(22, 26)), Mode: "COOL"}
		r.SyncColumnsFromAC()
	}
	return r
}

// intn returns an integer in [lo, hi]
func (s *Simulator) intn(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rnd.Intn(hi-lo+1)
}

// uniform1 returns a value in [lo, hi] rounded to one decimal
func (s *Simulator) uniform1(lo, hi float64) float64 {
	s.mu.Lock()
	v := lo + s.rnd.Float64()*(hi-lo)
	s.mu.Unlock()
	return math.Round(v*10) / 10
}
