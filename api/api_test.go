package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itsatony/hydrohub/internal/config"
	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/hubservice"
	"github.com/itsatony/hydrohub/internal/repository/files"
	"github.com/itsatony/hydrohub/internal/repository/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewSQLiteDB(config.SQLiteConfig{Path: filepath.Join(dir, "hydro.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	store, err := files.NewFileRepository(files.FileConfig{BasePath: filepath.Join(dir, "images"), MaxFileSize: 1 << 20})
	require.NoError(t, err)

	svc := hubservice.New(hubservice.Repositories{
		Units:      sqldb.NewUnitRepository(db),
		SensorData: sqldb.NewSensorDataRepository(db),
		Relays:     sqldb.NewRelayRepository(db),
		Schedules:  sqldb.NewScheduleRepository(db),
		Cameras:    sqldb.NewCameraRepository(db),
		Images:     store,
	}, hubservice.Options{
		AllowedExtensions: []string{"png", "jpg", "jpeg", "gif"},
		Location:          time.UTC,
		Now:               func() time.Time { return fixedNow },
	})
	require.NoError(t, svc.Validate())

	return NewRouter(svc, RouterOptions{
		CORSOrigins:   []string{"*"},
		MaxUploadSize: 1 << 20,
		Health: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		},
	})
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func multipartImage(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	part.Write(content)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRelayWriteSwitchesToManual(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/units/DWC1/relays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	relays := decode(t, rec)["relays"].(map[string]interface{})
	assert.Equal(t, "OFF", relays["lights"])

	rec = do(t, r, http.MethodPost, "/units/DWC1/relay", []byte(`{"lights":"on"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	relays = decode(t, rec)["relays"].(map[string]interface{})
	assert.Equal(t, "ON", relays["lights"])
	assert.Equal(t, "OFF", relays["pump"])

	rec = do(t, r, http.MethodGet, "/units/DWC1/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manual", decode(t, rec)["_control_mode"])
}

func TestRelayWriteRejectsUnknownState(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/units/DWC1/relay", []byte(`{"pump":"MAYBE"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])

	rec = do(t, r, http.MethodPost, "/units/DWC1/relay", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleWriteResetsToTimer(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/units/NFT/relay", []byte(`{"fans":"ON"}`)).Code)

	rec := do(t, r, http.MethodPost, "/units/NFT/schedule", []byte(`{"lights":{"on":"06:00","off":"22:00"},"_control_mode":"manual"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "timer", decode(t, rec)["_control_mode"])

	rec = do(t, r, http.MethodGet, "/units/NFT/schedule", nil)
	body := decode(t, rec)
	assert.Equal(t, "timer", body["_control_mode"])
	assert.Contains(t, body, "lights")
}

func TestACSchedulePartialUpdate(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/room/back/ac_schedule", []byte(`{"ac_schedule":{"13":21.5}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/room/back/ac_schedule", nil)
	schedule := decode(t, rec)["ac_schedule"].(map[string]interface{})
	assert.Len(t, schedule, 24)
	assert.Equal(t, 21.5, schedule["13"])
	assert.Equal(t, 24.0, schedule["14"])

	rec = do(t, r, http.MethodPost, "/room/back/ac_schedule", []byte(`{"ac_schedule":{"24":20,"7":19}}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decode(t, rec)["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"24", "7"}, details["invalid_hours"])
}

func TestRoomSensorsUnknownRoom(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/room/front/sensors", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/room/attic/sensors", nil).Code)
}

func TestCameraStatusRoutesBeforeUnit(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/cameras/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "total_cameras")
	assert.NotContains(t, body, "cameras")
}

func TestUploadAndServeImage(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartImage(t, "shot.jpg", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/cameras/DWC1L23/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode(t, rec)
	assert.Equal(t, "Image uploaded successfully", res["message"])
	url := res["image_url"].(string)
	require.True(t, strings.HasPrefix(url, "/camera_images/DWC1L23_"), url)

	rec = do(t, r, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/cameras/DWC1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cams := decode(t, rec)["cameras"].([]interface{})
	require.Len(t, cams, 1)
	assert.Equal(t, "DWC1L23", cams[0].(map[string]interface{})["camera_id"])
}

func TestUploadRejectsBadFiles(t *testing.T) {
	r := newTestRouter(t)

	body, contentType := multipartImage(t, "notes.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/cameras/DWC1L23/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid file type", decode(t, rec)["error"])

	rec = do(t, r, http.MethodPost, "/cameras/DWC1L23/upload", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeImageUnknownFile(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/camera_images/DWC1L11_1.jpg", nil).Code)
}

func TestExportSensorsCSV(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/export/sensors/csv?unit=DWC1&range=today", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sensor-data-DWC1-today.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Unit ID,Timestamp,DateTime"))

	rec = do(t, r, http.MethodGet, "/export/sensors/csv?range=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportImagesEmptyIsNotFound(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/export/images/zip?range=today", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No images found for the specified criteria", decode(t, rec)["error"])
}

func TestSwaggerAndHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode(t, rec)
	assert.Contains(t, doc["paths"], "/units/{unit}/relay")

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", nil).Code)
}
