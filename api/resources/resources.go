// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/hubservice"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Units       *UnitHandlers
	Rooms       *RoomHandlers
	Cameras     *CameraHandlers
	Export      *ExportHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService, maxUploadSize int64) *Resources {
	return &Resources{
		Units:   &UnitHandlers{hubservice: svc},
		Rooms:   &RoomHandlers{hubservice: svc},
		Cameras: &CameraHandlers{hubservice: svc, maxUploadSize: maxUploadSize},
		Export:  &ExportHandlers{hubservice: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func decodeQuery(dst interface{}, r *http.Request) error {
	return queryDecoder.Decode(dst, r.URL.Query())
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
	} else {
		nuts.L.Warnf("[API] %s", err.Error())
	}
}

// respondWithServiceError keeps typed service errors and hides anything else behind fallback
func respondWithServiceError(w http.ResponseWriter, err error, fallback, requestID string) {
	apiErr, ok := errors.AsAPIError(err)
	if !ok {
		apiErr = errors.NewInternalError(fallback, err)
	}
	respondWithError(w, apiErr.WithRequestID(requestID))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
}
