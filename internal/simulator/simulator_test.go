package simulator

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/itsatony/hydrohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestor struct {
	mu       sync.Mutex
	units    []*models.Unit
	readings []*models.SensorReading
	rooms    []*models.RoomSensorReading
	images   []string
	failUnit error
	panicOn  bool
}

func (f *fakeIngestor) CultivationUnits(ctx context.Context) ([]*models.Unit, error) {
	if f.panicOn {
		panic("boom")
	}
	return f.units, f.failUnit
}

func (f *fakeIngestor) IngestReading(ctx context.Context, r *models.SensorReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeIngestor) IngestRoomReading(ctx context.Context, r *models.RoomSensorReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, r)
	return nil
}

func (f *fakeIngestor) IngestImage(ctx context.Context, cameraID, filename string, content io.Reader, ts int64) (*models.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := io.ReadAll(content); err != nil {
		return nil, err
	}
	f.images = append(f.images, cameraID)
	return &models.UploadResult{CameraID: cameraID, Timestamp: ts}, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (b *fakeBus) BroadcastGlobal(event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if event == "sensor_update" {
		b.events = append(b.events, data.(map[string]interface{}))
	}
}

func (b *fakeBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

type fakeObserver struct {
	errs []error
}

func (o *fakeObserver) ObserveTick(d time.Duration, err error) {
	o.errs = append(o.errs, err)
}

func newUnits(ids ...string) []*models.Unit {
	units := make([]*models.Unit, 0, len(ids))
	for _, id := range ids {
		units = append(units, &models.Unit{ID: id, Active: true})
	}
	return units
}

func newTestSimulator(ing *fakeIngestor, bus *fakeBus, obs *fakeObserver) *Simulator {
	return New(Config{Interval: 30 * time.Second, CameraInterval: 300 * time.Second},
		ing, bus, obs, rand.New(rand.NewSource(42)))
}

func TestTickSynthesizesReadingsInRange(t *testing.T) {
	ing := &fakeIngestor{units: newUnits("DWC1", "NFT")}
	bus := &fakeBus{}
	obs := &fakeObserver{}
	sim := newTestSimulator(ing, bus, obs)

	sim.Tick(context.Background(), 330)

	require.Len(t, ing.readings, 2)
	for _, r := range ing.readings {
		assert.Equal(t, int64(330), r.Timestamp)
		assert.GreaterOrEqual(t, r.PH, 5.5)
		assert.LessOrEqual(t, r.PH, 7.0)
		assert.GreaterOrEqual(t, r.TDS, 800.0)
		assert.LessOrEqual(t, r.TDS, 1200.0)
		assert.GreaterOrEqual(t, r.Turbidity, 8.0)
		assert.LessOrEqual(t, r.Turbidity, 20.0)
		assert.GreaterOrEqual(t, r.WaterTemp, 20.0)
		assert.LessOrEqual(t, r.WaterTemp, 25.0)
		assert.GreaterOrEqual(t, r.WaterLevel, 70.0)
		assert.LessOrEqual(t, r.WaterLevel, 90.0)
		assert.Len(t, r.Climate, 8)
		for zone, c := range r.Climate {
			assert.Regexp(t, `^L[1-4][1-2]$`, zone)
			assert.GreaterOrEqual(t, c.Temp, 22.0)
			assert.LessOrEqual(t, c.Temp, 26.0)
			assert.GreaterOrEqual(t, c.Humidity, 65.0)
			assert.LessOrEqual(t, c.Humidity, 75.0)
		}
	}

	require.Len(t, ing.rooms, 2)
	for _, r := range ing.rooms {
		assert.GreaterOrEqual(t, r.CO2, 400.0)
		assert.LessOrEqual(t, r.CO2, 1000.0)
		assert.GreaterOrEqual(t, r.Pressure, 1000.0)
		assert.LessOrEqual(t, r.Pressure, 1020.0)
		if r.UnitID == models.RoomBack {
			require.NotNil(t, r.AC)
			assert.Equal(t, "COOL", r.AC.Mode)
			require.NotNil(t, r.ACTemp)
			assert.GreaterOrEqual(t, *r.ACTemp, 22.0)
			assert.LessOrEqual(t, *r.ACTemp, 26.0)
		} else {
			assert.Nil(t, r.AC)
		}
	}

	assert.Empty(t, ing.images, "330 is not a camera tick")
	require.Equal(t, 1, bus.count())
	assert.Equal(t, int64(330), bus.events[0]["timestamp"])
	assert.Equal(t, []error{nil}, obs.errs)
}

func TestTickCapturesImagesOnCameraBoundary(t *testing.T) {
	ing := &fakeIngestor{units: newUnits("DWC1", "AERO")}
	sim := newTestSimulator(ing, &fakeBus{}, &fakeObserver{})

	sim.Tick(context.Background(), 600)

	perUnit := map[string]int{}
	for _, id := range ing.images {
		cam, err := models.ParseCameraID(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cam.Level, 1)
		assert.LessOrEqual(t, cam.Level, 4)
		assert.GreaterOrEqual(t, cam.Position, 1)
		assert.LessOrEqual(t, cam.Position, 2)
		perUnit[cam.UnitID]++
	}
	for _, unit := range []string{"DWC1", "AERO"} {
		assert.GreaterOrEqual(t, perUnit[unit], 2, unit)
		assert.LessOrEqual(t, perUnit[unit], 6, unit)
	}
}

func TestTickSurvivesFailures(t *testing.T) {
	bus := &fakeBus{}
	obs := &fakeObserver{}

	failing := &fakeIngestor{failUnit: fmt.Errorf("database is locked")}
	newTestSimulator(failing, bus, obs).Tick(context.Background(), 30)

	panicking := &fakeIngestor{panicOn: true}
	assert.NotPanics(t, func() {
		newTestSimulator(panicking, bus, obs).Tick(context.Background(), 60)
	})

	require.Len(t, obs.errs, 2)
	assert.Error(t, obs.errs[0])
	assert.ErrorContains(t, obs.errs[1], "panic")
	assert.Zero(t, bus.count())

	newTestSimulator(&fakeIngestor{}, bus, obs).Tick(context.Background(), 90)
	require.Len(t, obs.errs, 3)
	assert.NoError(t, obs.errs[2])
	require.Equal(t, 1, bus.count())
	assert.Equal(t, int64(90), bus.events[0]["timestamp"])
}

func TestNextBoundaryIsAligned(t *testing.T) {
	now := time.Unix(1_700_000_007, 0)
	assert.Equal(t, int64(1_700_000_010), nextBoundary(now, 30*time.Second).Unix())
	assert.Equal(t, int64(1_700_000_100), nextBoundary(now, 300*time.Second).Unix())
	assert.Equal(t, int64(1_700_000_040), nextBoundary(time.Unix(1_700_000_010, 0), 30*time.Second).Unix())
}

func TestRunStopsOnCancel(t *testing.T) {
	ing := &fakeIngestor{units: newUnits("DWC1")}
	bus := &fakeBus{}
	sim := New(Config{Interval: time.Second, CameraInterval: time.Hour}, ing, bus, nil, rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return bus.count() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
