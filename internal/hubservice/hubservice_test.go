package hubservice

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itsatony/hydrohub/internal/config"
	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
	"github.com/itsatony/hydrohub/internal/repository/files"
	"github.com/itsatony/hydrohub/internal/repository/sqldb"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc *HubService
	db  database.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewSQLiteDB(config.SQLiteConfig{Path: filepath.Join(dir, "hydro.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	store, err := files.NewFileRepository(files.FileConfig{BasePath: filepath.Join(dir, "images"), MaxFileSize: 1 << 20})
	require.NoError(t, err)

	svc := New(Repositories{
		Units:      sqldb.NewUnitRepository(db),
		SensorData: sqldb.NewSensorDataRepository(db),
		Relays:     sqldb.NewRelayRepository(db),
		Schedules:  sqldb.NewScheduleRepository(db),
		Cameras:    sqldb.NewCameraRepository(db),
		Images:     store,
	}, Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	require.NoError(t, svc.Validate())
	return &testEnv{svc: svc, db: db}
}

func (e *testEnv) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.GetDB().Get(&n, e.db.GetDB().Rebind(query), args...))
	return n
}

func strPtr(s string) *string { return &s }

func TestValidateReportsMissingRepository(t *testing.T) {
	svc := New(Repositories{}, Options{})
	assert.Error(t, svc.Validate())
}

func TestCultivationUnitsExcludeRooms(t *testing.T) {
	env := newTestEnv(t)
	units, err := env.svc.CultivationUnits(context.Background())
	require.NoError(t, err)
	assert.Len(t, units, 5)
	for _, u := range units {
		assert.False(t, u.IsRoom(), u.ID)
	}
}

func TestGetRelaysDefaultsToOff(t *testing.T) {
	env := newTestEnv(t)
	status, err := env.svc.GetRelays(context.Background(), "DWC1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRelays(), status.Relays)
	assert.Equal(t, testNow.Unix(), status.Timestamp)
	assert.Equal(t, "DWC1", status.UnitID)
}

func TestSetRelaysMergesAndSwitchesToManual(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	updates := make(chan *models.RelayStatus, 4)
	require.NoError(t, env.svc.OnEvent(EventRelayUpdated, "test", func(payload interface{}) {
		updates <- payload.(*models.RelayStatus)
	}))

	_, err := env.svc.SetSchedule(ctx, "DWC1", models.JSON{"lights_on": "06:00"})
	require.NoError(t, err)

	first, err := env.svc.SetRelays(ctx, "DWC1", models.RelayPatch{Pump: strPtr("on")})
	require.NoError(t, err)
	assert.Equal(t, models.Relays{Lights: models.RelayOff, Fans: models.RelayOff, Pump: models.RelayOn}, first.Relays)

	second, err := env.svc.SetRelays(ctx, "DWC1", models.RelayPatch{Lights: strPtr("ON")})
	require.NoError(t, err)
	assert.Equal(t, models.Relays{Lights: models.RelayOn, Fans: models.RelayOff, Pump: models.RelayOn}, second.Relays)

	got, err := env.svc.GetRelays(ctx, "DWC1")
	require.NoError(t, err)
	assert.Equal(t, second.Relays, got.Relays)

	sched, err := env.svc.GetSchedule(ctx, "DWC1")
	require.NoError(t, err)
	assert.Equal(t, "manual", sched[models.ControlModeKey])
	assert.Equal(t, "06:00", sched["lights_on"])

	var emitted []models.Relays
	for len(emitted) < 2 {
		select {
		case u := <-updates:
			emitted = append(emitted, u.Relays)
		case <-time.After(2 * time.Second):
			t.Fatal("relay update not emitted")
		}
	}
	assert.ElementsMatch(t, []models.Relays{first.Relays, second.Relays}, emitted)
	assert.Equal(t, 2, env.count(t, `SELECT COUNT(*) FROM relay_states WHERE unit_id = ?`, "DWC1"))
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM schedules WHERE unit_id = ? AND active`, "DWC1"))
}

func TestSetRelaysEmitsManualSchedule(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.SetSchedule(ctx, "DWC2", models.JSON{"lights_on": "07:00"})
	require.NoError(t, err)

	var order []string
	var updates []*ScheduleUpdate
	require.NoError(t, env.svc.OnEvent(EventRelayUpdated, "test", func(payload interface{}) {
		order = append(order, EventRelayUpdated)
	}))
	require.NoError(t, env.svc.OnEvent(EventScheduleUpdated, "test", func(payload interface{}) {
		order = append(order, EventScheduleUpdated)
		updates = append(updates, payload.(*ScheduleUpdate))
	}))

	_, err = env.svc.SetRelays(ctx, "DWC2", models.RelayPatch{Fans: strPtr("ON")})
	require.NoError(t, err)

	assert.Equal(t, []string{EventRelayUpdated, EventScheduleUpdated}, order)
	require.Len(t, updates, 1)
	assert.Equal(t, "DWC2", updates[0].UnitID)
	assert.Equal(t, "manual", updates[0].Schedule[models.ControlModeKey])
	assert.Equal(t, "07:00", updates[0].Schedule["lights_on"])
}

func TestOnEventDeliversPayload(t *testing.T) {
	env := newTestEnv(t)
	var calls int
	require.NoError(t, env.svc.OnEvent(EventSensorsIngested, "test", func(payload interface{}) {
		calls++
		assert.Equal(t, int64(42), payload)
	}))

	env.svc.emit(EventSensorsIngested, int64(42))
	assert.Equal(t, 1, calls)
}

func TestSetRelaysWithoutScheduleCreatesManualOne(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.SetRelays(ctx, "NFT", models.RelayPatch{Fans: strPtr("AUTO")})
	require.NoError(t, err)

	sched, err := env.svc.GetSchedule(ctx, "NFT")
	require.NoError(t, err)
	assert.Equal(t, models.JSON{models.ControlModeKey: "manual"}, sched)
}

func TestSetRelaysRejectsUnknownState(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.SetRelays(ctx, "DWC1", models.RelayPatch{Lights: strPtr("DIM")})
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM relay_states`))
	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM schedules`))
}

func TestSetScheduleResetsToTimer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.SetRelays(ctx, "AERO", models.RelayPatch{Lights: strPtr("ON")})
	require.NoError(t, err)

	payload := models.JSON{"lights": map[string]interface{}{"on": "06:00", "off": "22:00"}, models.ControlModeKey: "manual"}
	out, err := env.svc.SetSchedule(ctx, "AERO", payload)
	require.NoError(t, err)
	assert.Equal(t, "timer", out[models.ControlModeKey])

	got, err := env.svc.GetSchedule(ctx, "AERO")
	require.NoError(t, err)
	assert.Equal(t, "timer", got[models.ControlModeKey])
	assert.Equal(t, map[string]interface{}{"on": "06:00", "off": "22:00"}, got["lights"])
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM schedules WHERE unit_id = ? AND active`, "AERO"))
	assert.Equal(t, 2, env.count(t, `SELECT COUNT(*) FROM schedules WHERE unit_id = ?`, "AERO"))
}

func TestSetScheduleLocksUnitOnPostgres(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := database.Wrap(sqlx.NewDb(mockDB, "postgres"), database.DialectPostgres)
	svc := New(Repositories{
		Relays:    sqldb.NewRelayRepository(db),
		Schedules: sqldb.NewScheduleRepository(db),
	}, Options{Location: time.UTC, Now: func() time.Time { return testNow }})

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("DWC1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE schedules SET active = FALSE`).
		WithArgs("DWC1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO schedules`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	out, err := svc.SetSchedule(context.Background(), "DWC1", models.JSON{"lights_on": "06:00"})
	require.NoError(t, err)
	assert.Equal(t, "timer", out[models.ControlModeKey])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScheduleDefaultsToTimer(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.svc.GetSchedule(context.Background(), "TROUGH")
	require.NoError(t, err)
	assert.Equal(t, models.JSON{models.ControlModeKey: "timer"}, got)
}

func TestUpdateACScheduleIsPartial(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	full, err := env.svc.UpdateACSchedule(ctx, models.ACSchedule{"08": 21.5, "20": 25})
	require.NoError(t, err)
	assert.Len(t, full, 24)
	assert.Equal(t, 21.5, full["08"])
	assert.Equal(t, 25.0, full["20"])
	assert.Equal(t, database.DefaultACTemperature, full["09"])

	_, err = env.svc.UpdateACSchedule(ctx, models.ACSchedule{"24": 20})
	assert.True(t, errors.IsValidation(err))
	_, err = env.svc.UpdateACSchedule(ctx, models.ACSchedule{})
	assert.True(t, errors.IsValidation(err))
}

func TestRoomSensorsFallbackAndSchedule(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.UpdateACSchedule(ctx, models.ACSchedule{"12": 22.5})
	require.NoError(t, err)

	back, err := env.svc.RoomSensors(ctx, "back")
	require.NoError(t, err)
	require.NotNil(t, back.AC)
	assert.Equal(t, "COOL", back.AC.Mode)
	require.NotNil(t, back.AC.ScheduledTemp)
	assert.Equal(t, 22.5, *back.AC.ScheduledTemp)

	front, err := env.svc.RoomSensors(ctx, "front")
	require.NoError(t, err)
	assert.Nil(t, front.AC)
	assert.Equal(t, models.RoomFront, front.UnitID)

	_, err = env.svc.RoomSensors(ctx, "attic")
	assert.True(t, errors.IsNotFound(err))
}

func TestRoomSensorsReturnsStoredReading(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.svc.IngestRoomReading(ctx, &models.RoomSensorReading{
		UnitID:    models.RoomFront,
		Timestamp: 500,
		BME:       models.BME{Temp: 23, Humidity: 60, Pressure: 1010, IAQ: 150},
		CO2:       640,
	}))
	got, err := env.svc.RoomSensors(ctx, "front")
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Timestamp)
	assert.Equal(t, 640.0, got.CO2)
}

func TestLatestSensorsFallback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	got, err := env.svc.LatestSensors(ctx, "DWC2")
	require.NoError(t, err)
	assert.Equal(t, models.FallbackSensorReading("DWC2", testNow.Unix()), got)

	require.NoError(t, env.svc.IngestReading(ctx, &models.SensorReading{UnitID: "DWC2", Reservoir: models.Reservoir{PH: 5.9}}))
	got, err = env.svc.LatestSensors(ctx, "DWC2")
	require.NoError(t, err)
	assert.Equal(t, 5.9, got.PH)
	assert.Equal(t, testNow.Unix(), got.Timestamp)
	assert.NotNil(t, got.Climate)
}

func TestIngestImageRecordsCamera(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.svc.IngestImage(ctx, "DWC1L23", "shot.JPG", strings.NewReader("jpegbytes"), 1000)
	require.NoError(t, err)
	assert.Equal(t, "Image uploaded successfully", res.Message)
	assert.Equal(t, "/camera_images/DWC1L23_1000.jpg", res.ImageURL)

	status, err := env.svc.Cameras.GetStatus(ctx, "DWC1L23")
	require.NoError(t, err)
	assert.Equal(t, "DWC1", status.UnitID)
	assert.Equal(t, 2, status.Level)
	assert.Equal(t, 3, status.Position)
	assert.EqualValues(t, 1, status.TotalImages)
	assert.Equal(t, "online", status.Status)
	assert.True(t, env.svc.Images.Exists(ctx, "DWC1L23_1000.jpg"))
}

func TestIngestImageValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	cases := []struct {
		name     string
		camera   string
		filename string
		message  string
	}{
		{"disallowed extension", "DWC1L23", "notes.txt", "Invalid file type"},
		{"no extension", "DWC1L23", "blob", "Invalid file type"},
		{"empty filename", "DWC1L23", "", "No image file selected"},
		{"malformed camera", "DWC1", "a.png", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.IngestImage(ctx, tc.camera, tc.filename, strings.NewReader("x"), 1000)
			require.True(t, errors.IsValidation(err))
			if tc.message != "" {
				apiErr, _ := errors.AsAPIError(err)
				assert.Equal(t, tc.message, apiErr.Message)
			}
		})
	}

	_, err := env.svc.IngestImage(ctx, "DWC1L23", "a.png", nil, 1000)
	assert.True(t, errors.IsValidation(err))

	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM camera_images`))
	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM camera_status`))
}

func TestLatestGridKeepsNewestPerCamera(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, ts := range []int64{2000, 1000} {
		_, err := env.svc.IngestImage(ctx, "DWC1L11", "a.jpg", strings.NewReader("x"), ts)
		require.NoError(t, err)
	}
	_, err := env.svc.IngestImage(ctx, "DWC1L42", "b.png", strings.NewReader("y"), 1500)
	require.NoError(t, err)

	grid, err := env.svc.LatestGrid(ctx, "DWC1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), grid.CameraGrid["L1"]["pos1"].Timestamp)
	assert.Equal(t, "/camera_images/DWC1L11_2000.jpg", grid.CameraGrid["L1"]["pos1"].ImageURL)
	assert.Equal(t, int64(1500), grid.CameraGrid["L4"]["pos2"].Timestamp)

	images, err := env.svc.CameraImages(ctx, "DWC1L11", models.ImageListFilters{Limit: 1})
	require.NoError(t, err)
	require.Len(t, images.Images, 1)
	assert.Equal(t, int64(2000), images.Images[0].Timestamp)

	summary, err := env.svc.CameraSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalUnits)
	assert.Equal(t, 2, summary.TotalCameras)
}

func TestConcurrentIngestKeepsCount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	const n = 16

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.svc.IngestImage(ctx, "NFTL12", "c.jpg", strings.NewReader("z"), int64(5000+i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	status, err := env.svc.Cameras.GetStatus(ctx, "NFTL12")
	require.NoError(t, err)
	assert.EqualValues(t, n, status.TotalImages)
	assert.Equal(t, int64(5000+n-1), status.LastImageTimestamp)
}

func TestExportSensorsCustomDay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	dayStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	for _, ts := range []int64{dayStart - 1, dayStart, dayStart + 86399, dayStart + 86400} {
		require.NoError(t, env.svc.IngestReading(ctx, &models.SensorReading{
			UnitID:    "DWC1",
			Timestamp: ts,
			Reservoir: models.Reservoir{PH: 6.5, TDS: 900, Turbidity: 10, WaterTemp: 21.5, WaterLevel: 80},
			Climate:   models.Climate{"L11": {Temp: 23, Humidity: 70}},
		}))
	}

	export, err := env.svc.ExportSensors(ctx, models.ExportFilters{Unit: "DWC1", Range: "custom", StartDate: "2024-01-01", EndDate: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, export.Readings, 2)
	assert.Equal(t, "sensor-data-DWC1-custom.csv", export.Filename("csv"))

	var buf bytes.Buffer
	require.NoError(t, env.svc.WriteSensorCSV(&buf, export.Readings))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, sensorExportHeader, rows[0])
	assert.Equal(t, []string{
		"DWC1", fmt.Sprint(dayStart + 86399), "2024-01-01 23:59:59",
		"6.5", "900", "10", "21.5", "80", `{"L11":{"temp":23,"humidity":70}}`,
	}, rows[1])
	assert.Equal(t, "2024-01-01 00:00:00", rows[2][2])
}

func TestExportSensorsRejectsBadRange(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ExportSensors(context.Background(), models.ExportFilters{Range: "custom", StartDate: "2024-02-01"})
	assert.True(t, errors.IsValidation(err))
	_, err = env.svc.ExportSensors(context.Background(), models.ExportFilters{Range: "fortnight"})
	assert.True(t, errors.IsValidation(err))
}

func TestWriteSensorXLSX(t *testing.T) {
	env := newTestEnv(t)
	readings := []*models.SensorReading{{
		UnitID:    "NFT",
		Timestamp: testNow.Unix(),
		Reservoir: models.Reservoir{PH: 6.1},
	}}

	var buf bytes.Buffer
	require.NoError(t, env.svc.WriteSensorXLSX(&buf, readings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sensorSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Unit ID", rows[0][0])
	assert.Equal(t, "NFT", rows[1][0])
	assert.Equal(t, "2024-01-01 12:00:00", rows[1][2])
	assert.Equal(t, []string{sensorSheetName}, f.GetSheetList())
}

func TestExportImagesZip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.ExportImages(ctx, models.ExportFilters{Unit: "DWC1", Range: "today"})
	assert.True(t, errors.IsNotFound(err))

	ts := testNow.Unix() - 3600
	_, err = env.svc.IngestImage(ctx, "DWC1L21", "a.jpg", strings.NewReader("one"), ts)
	require.NoError(t, err)
	_, err = env.svc.IngestImage(ctx, "DWC1L22", "b.jpg", strings.NewReader("two"), ts+1)
	require.NoError(t, err)
	_, err = env.svc.IngestImage(ctx, "NFTL11", "c.jpg", strings.NewReader("three"), ts)
	require.NoError(t, err)
	require.NoError(t, env.svc.Images.Remove(ctx, "DWC1L22_"+fmt.Sprint(ts+1)+".jpg"))

	export, err := env.svc.ExportImages(ctx, models.ExportFilters{Unit: "DWC1", Range: "today"})
	require.NoError(t, err)
	require.Len(t, export.Images, 2)
	assert.Equal(t, "camera-images-DWC1-today.zip", export.Filename())

	var buf bytes.Buffer
	written, err := env.svc.WriteImageZIP(ctx, &buf, export.Images)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "DWC1/DWC1L21/2024-01-01/DWC1L21_11-00-00.jpg", zr.File[0].Name)
}

func TestImageArchivePathUnknownCamera(t *testing.T) {
	env := newTestEnv(t)
	path := env.svc.ImageArchivePath(&models.CameraImage{CameraID: "cam", Timestamp: testNow.Unix()})
	assert.Equal(t, "UNKNOWN/cam/2024-01-01/cam_12-00-00.jpg", path)
}
