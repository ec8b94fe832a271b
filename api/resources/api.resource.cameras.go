// FilePath: api/resources/api.resource.cameras.go
package resources

import (
	stderrors "errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/hubservice"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

// CameraHandlers encapsulates the camera-related HTTP handlers
type CameraHandlers struct {
	hubservice    *hubservice.HubService
	maxUploadSize int64
}

// @Summary List unit cameras
// @Tags cameras
// @Produce json
// @Param unit path string true "Unit ID"
// @Success 200 {object} models.UnitCameras
// @Router /cameras/{unit} [get]
func (h *CameraHandlers) ListCameras(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	cameras, err := h.hubservice.ListCameras(r.Context(), mux.Vars(r)["unit"])
	if err != nil {
		respondWithServiceError(w, err, "failed to list cameras", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, cameras)
}

// @Summary List camera images
// @Description Newest images of one camera
// @Tags cameras
// @Produce json
// @Param camera path string true "Camera ID, e.g. DWC1L23"
// @Param limit query int false "Maximum number of images (default 10)"
// @Success 200 {object} models.CameraImages
// @Router /cameras/{camera}/images [get]
func (h *CameraHandlers) ListImages(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.ImageListFilters
	if err := decodeQuery(&filters, r); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	images, err := h.hubservice.CameraImages(r.Context(), mux.Vars(r)["camera"], filters)
	if err != nil {
		respondWithServiceError(w, err, "failed to list images", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, images)
}

// @Summary Upload a camera image
// @Tags cameras
// @Accept multipart/form-data
// @Produce json
// @Param camera path string true "Camera ID, e.g. DWC1L23"
// @Param image formData file true "Image (png, jpg, jpeg, gif)"
// @Success 200 {object} models.UploadResult
// @Failure 400 {object} errors.APIError
// @Router /cameras/{camera}/upload [post]
func (h *CameraHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			respondWithError(w, errors.NewValidationError("file size exceeds maximum allowed size", err).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewValidationError("No image file provided", err).WithRequestID(requestID))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, errors.NewValidationError("No image file provided", err).WithRequestID(requestID))
		return
	}
	defer file.Close()

	res, err := h.hubservice.IngestImage(r.Context(), mux.Vars(r)["camera"], header.Filename, file, 0)
	if err != nil {
		respondWithServiceError(w, err, "failed to store image", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

// @Summary Camera overview
// @Description Status of every camera grouped by unit
// @Tags cameras
// @Produce json
// @Success 200 {object} models.CameraSummary
// @Router /cameras/status [get]
func (h *CameraHandlers) Status(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	summary, err := h.hubservice.CameraSummary(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "failed to load camera status", requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// @Summary Get a stored image
// @Tags cameras
// @Produce image/jpeg
// @Param filename path string true "Stored file name"
// @Success 200 {file} file
// @Failure 404 {object} errors.APIError
// @Router /camera_images/{filename} [get]
func (h *CameraHandlers) ServeImage(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	name := mux.Vars(r)["filename"]

	f, modTime, err := h.hubservice.OpenImage(r.Context(), name)
	if err != nil {
		if errors.IsValidation(err) {
			err = errors.NewNotFoundError("file not found", err)
		}
		respondWithServiceError(w, err, "failed to open image", requestID)
		return
	}
	defer f.Close()

	http.ServeContent(w, r, name, modTime, f)
}
