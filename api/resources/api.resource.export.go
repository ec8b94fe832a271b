// FilePath: api/resources/api.resource.export.go
package resources

import (
	"bytes"
	"net/http"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/hubservice"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandlers encapsulates the export HTTP handlers
type ExportHandlers struct {
	hubservice *hubservice.HubService
}

func (h *ExportHandlers) sensorExport(w http.ResponseWriter, r *http.Request, requestID string) *hubservice.SensorExport {
	var filters models.ExportFilters
	if err := decodeQuery(&filters, r); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return nil
	}
	export, err := h.hubservice.ExportSensors(r.Context(), filters)
	if err != nil {
		respondWithServiceError(w, err, "failed to export sensor data", requestID)
		return nil
	}
	return export
}

// @Summary Export sensor readings as CSV
// @Tags export
// @Produce text/csv
// @Param unit query string false "Unit ID or ALL (default)"
// @Param range query string false "today, yesterday, last7days (default), last30days, thismonth, lastmonth, custom"
// @Param startDate query string false "YYYY-MM-DD, required for custom"
// @Param endDate query string false "YYYY-MM-DD, required for custom"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Router /export/sensors/csv [get]
func (h *ExportHandlers) SensorsCSV(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	export := h.sensorExport(w, r, requestID)
	if export == nil {
		return
	}

	var buf bytes.Buffer
	if err := h.hubservice.WriteSensorCSV(&buf, export.Readings); err != nil {
		respondWithError(w, errors.NewInternalError("failed to render csv", err).WithRequestID(requestID))
		return
	}

	attachment(w, "text/csv", export.Filename("csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// @Summary Export sensor readings as XLSX
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param unit query string false "Unit ID or ALL (default)"
// @Param range query string false "Range name, see CSV export"
// @Param startDate query string false "YYYY-MM-DD, required for custom"
// @Param endDate query string false "YYYY-MM-DD, required for custom"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Router /export/sensors/xlsx [get]
func (h *ExportHandlers) SensorsXLSX(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	export := h.sensorExport(w, r, requestID)
	if export == nil {
		return
	}

	var buf bytes.Buffer
	if err := h.hubservice.WriteSensorXLSX(&buf, export.Readings); err != nil {
		respondWithError(w, errors.NewInternalError("failed to render workbook", err).WithRequestID(requestID))
		return
	}

	attachment(w, xlsxContentType, export.Filename("xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// @Summary Export camera images as ZIP
// @Tags export
// @Produce application/zip
// @Param unit query string false "Unit ID or ALL (default)"
// @Param range query string false "Range name, see CSV export"
// @Param startDate query string false "YYYY-MM-DD, required for custom"
// @Param endDate query string false "YYYY-MM-DD, required for custom"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /export/images/zip [get]
func (h *ExportHandlers) ImagesZIP(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.ExportFilters
	if err := decodeQuery(&filters, r); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	export, err := h.hubservice.ExportImages(r.Context(), filters)
	if err != nil {
		respondWithServiceError(w, err, "failed to export images", requestID)
		return
	}

	var buf bytes.Buffer
	written, err := h.hubservice.WriteImageZIP(r.Context(), &buf, export.Images)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to build archive", err).WithRequestID(requestID))
		return
	}
	if written < len(export.Images) {
		nuts.L.Warnf("[API] Archive %s contains %d of %d images", export.Filename(), written, len(export.Images))
	}

	attachment(w, "application/zip", export.Filename())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
