// FilePath: api/resources/api.resource.rooms.go
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

// RoomHandlers encapsulates the room-related HTTP handlers
type RoomHandlers struct {
	hubservice *hubservice.HubService
}

type acScheduleBody struct {
	ACSchedule models.ACSchedule `json:"ac_schedule"`
}

// @Summary Get room sensors
// @Description Newest reading of the front or back room; the back room includes its AC state
// @Tags rooms
// @Produce json
// @Param room path string true "front or back"
// @Success 200 {object} models.RoomSensorReading
// @Failure 404 {object} errors.APIError
// @Router /room/{room}/sensors [get]
func (h *RoomHandlers) GetSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	reading, err := h.hubservice.RoomSensors(r.Context(), mux.Vars(r)["room"])
	if err != nil {
		respondWithServiceError(w, err, "failed to load room data", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Get AC schedule
// @Tags rooms
// @Produce json
// @Success 200 {object} acScheduleBody
// @Router /room/back/ac_schedule [get]
func (h *RoomHandlers) GetACSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	sched, err := h.hubservice.GetACSchedule(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "failed to load ac schedule", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, acScheduleBody{ACSchedule: sched})
}

// @Summary Update AC schedule
// @Description Set the target temperature of the given hours; other hours keep their value
// @Tags rooms
// @Accept json
// @Produce json
// @Param schedule body acScheduleBody true "Hours to change"
// @Success 200 {object} acScheduleBody
// @Failure 400 {object} errors.APIError
// @Router /room/back/ac_schedule [post]
func (h *RoomHandlers) UpdateACSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var body acScheduleBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	sched, err := h.hubservice.UpdateACSchedule(r.Context(), body.ACSchedule)
	if err != nil {
		respondWithServiceError(w, err, "failed to update ac schedule", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, acScheduleBody{ACSchedule: sched})
}
