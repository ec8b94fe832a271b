// FilePath: api/resources/api.resource.units.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/hubservice"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// UnitHandlers encapsulates the unit-related HTTP handlers
type UnitHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List units
// @Description List every cultivation unit and room
// @Tags units
// @Produce json
// @Success 200 {array} models.Unit
// @Router /units [get]
func (h *UnitHandlers) ListUnits(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	units, err := h.hubservice.ListUnits(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "failed to list units", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, units)
}

// @Summary Get current sensor readings
// @Description Newest reading of a unit; a fixed sample is returned when none exists
// @Tags units
// @Produce json
// @Param unit path string true "Unit ID"
// @Success 200 {object} models.SensorReading
// @Router /units/{unit}/sensors [get]
func (h *UnitHandlers) GetSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	reading, err := h.hubservice.LatestSensors(r.Context(), mux.Vars(r)["unit"])
	if err != nil {
		respondWithServiceError(w, err, "failed to load sensor data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Get relay states
// @Description Newest relay state of a unit; all OFF when never set
// @Tags units
// @Produce json
// @Param unit path string true "Unit ID"
// @Success 200 {object} models.RelayStatus
// @Router /units/{unit}/relays [get]
func (h *UnitHandlers) GetRelays(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	status, err := h.hubservice.GetRelays(r.Context(), mux.Vars(r)["unit"])
	if err != nil {
		respondWithServiceError(w, err, "failed to load relay states", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Set relay states
// @Description Merge the given relays into the current state and switch the unit to manual control
// @Tags units
// @Accept json
// @Produce json
// @Param unit path string true "Unit ID"
// @Param relays body models.RelayPatch true "Relays to change"
// @Success 200 {object} models.RelayStatus
// @Failure 400 {object} errors.APIError
// @Router /units/{unit}/relay [post]
func (h *UnitHandlers) SetRelay(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var patch models.RelayPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	status, err := h.hubservice.SetRelays(r.Context(), mux.Vars(r)["unit"], patch)
	if err != nil {
		respondWithServiceError(w, err, "failed to update relays", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Get schedule
// @Description Active schedule payload of a unit plus its control mode
// @Tags units
// @Produce json
// @Param unit path string true "Unit ID"
// @Success 200 {object} map[string]interface{}
// @Router /units/{unit}/schedule [get]
func (h *UnitHandlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	sched, err := h.hubservice.GetSchedule(r.Context(), mux.Vars(r)["unit"])
	if err != nil {
		respondWithServiceError(w, err, "failed to load schedule", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, sched)
}

// @Summary Replace schedule
// @Description Store a new active schedule and return the unit to timer control
// @Tags units
// @Accept json
// @Produce json
// @Param unit path string true "Unit ID"
// @Param schedule body map[string]interface{} true "Schedule payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.APIError
// @Router /units/{unit}/schedule [post]
func (h *UnitHandlers) SetSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var payload models.JSON
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	sched, err := h.hubservice.SetSchedule(r.Context(), mux.Vars(r)["unit"], payload)
	if err != nil {
		respondWithServiceError(w, err, "failed to store schedule", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, sched)
}

// @Summary Latest camera grid
// @Description Newest image of every camera of a unit, keyed by level and position
// @Tags cameras
// @Produce json
// @Param unit path string true "Unit ID"
// @Success 200 {object} models.UnitCameraGrid
// @Router /units/{unit}/cameras/latest [get]
func (h *UnitHandlers) LatestCameraGrid(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	grid, err := h.hubservice.LatestGrid(r.Context(), mux.Vars(r)["unit"])
	if err != nil {
		respondWithServiceError(w, err, "failed to load camera grid", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, grid)
}
