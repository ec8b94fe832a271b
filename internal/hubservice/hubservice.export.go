package hubservice

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/itsatony/hydrohub/internal/errors"
	"github.com/itsatony/hydrohub/internal/models"
	"github.com/klauspost/compress/zip"
	nuts "github.com/vaudience/go-nuts"
	"github.com/xuri/excelize/v2"
)

const (
	dateTimeLayout  = "2006-01-02 15:04:05"
	sensorSheetName = "Sensor Data"
)

var sensorExportHeader = []string{
	"Unit ID", "Timestamp", "DateTime", "pH", "TDS (ppm)", "Turbidity (NTU)",
	"Water Temp (°C)", "Water Level (%)", "Climate Data",
}

// SensorExport is a resolved sensor export request
type SensorExport struct {
	Filters  models.ExportFilters
	Window   models.TimeRange
	Readings []*models.SensorReading
}

// Filename returns the attachment name for the given extension
func (e *SensorExport) Filename(ext string) string {
	return fmt.Sprintf("sensor-data-%s-%s.%s", e.Filters.Unit, e.Filters.Range, ext)
}

// ImageExport is a resolved image archive request
type ImageExport struct {
	Filters models.ExportFilters
	Window  models.TimeRange
	Images  []*models.CameraImage
}

func (e *ImageExport) Filename() string {
	return fmt.Sprintf("camera-images-%s-%s.zip", e.Filters.Unit, e.Filters.Range)
}

func (s *HubService) resolveExport(filters *models.ExportFilters) (models.TimeRange, error) {
	filters.Normalize()
	window, err := filters.ResolveRange(s.now(), s.location)
	if err != nil {
		return models.TimeRange{}, errors.NewValidationError(err.Error(), err)
	}
	return window, nil
}

// ExportSensors loads the readings selected by filters, newest first
func (s *HubService) ExportSensors(ctx context.Context, filters models.ExportFilters) (*SensorExport, error) {
	window, err := s.resolveExport(&filters)
	if err != nil {
		return nil, err
	}
	readings, err := s.SensorData.ListReadings(ctx, filters.UnitFilter(), window)
	if err != nil {
		return nil, err
	}
	return &SensorExport{Filters: filters, Window: window, Readings: readings}, nil
}

// ExportImages loads the images selected by filters; an empty selection is a NotFound error
func (s *HubService) ExportImages(ctx context.Context, filters models.ExportFilters) (*ImageExport, error) {
	window, err := s.resolveExport(&filters)
	if err != nil {
		return nil, err
	}
	images, err := s.Cameras.ListImagesInRange(ctx, filters.UnitFilter(), window)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errors.NewNotFoundError("No images found for the specified criteria", nil)
	}
	return &ImageExport{Filters: filters, Window: window, Images: images}, nil
}

func (s *HubService) sensorRow(r *models.SensorReading) ([]string, error) {
	climate, err := climateJSON(r.Climate)
	if err != nil {
		return nil, err
	}
	return []string{
		r.UnitID,
		strconv.FormatInt(r.Timestamp, 10),
		time.Unix(r.Timestamp, 0).In(s.location).Format(dateTimeLayout),
		formatFloat(r.PH),
		formatFloat(r.TDS),
		formatFloat(r.Turbidity),
		formatFloat(r.WaterTemp),
		formatFloat(r.WaterLevel),
		climate,
	}, nil
}

func climateJSON(c models.Climate) (string, error) {
	if len(c) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSensorCSV renders readings as CSV with a header row
func (s *HubService) WriteSensorCSV(w io.Writer, readings []*models.SensorReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sensorExportHeader); err != nil {
		return err
	}
	for _, r := range readings {
		row, err := s.sensorRow(r)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSensorXLSX renders readings as a single-sheet workbook
func (s *HubService) WriteSensorXLSX(w io.Writer, readings []*models.SensorReading) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			nuts.L.Warnf("[HubService] Failed to close workbook: %v", err)
		}
	}()

	index, err := f.NewSheet(sensorSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range sensorExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sensorSheetName, cell, h)
		f.SetCellStyle(sensorSheetName, cell, cell, headerStyle)
	}

	for i, r := range readings {
		row := i + 2
		climate, err := climateJSON(r.Climate)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.UnitID,
			r.Timestamp,
			time.Unix(r.Timestamp, 0).In(s.location).Format(dateTimeLayout),
			r.PH, r.TDS, r.Turbidity, r.WaterTemp, r.WaterLevel,
			climate,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sensorSheetName, cell, v)
		}
	}

	widths := []float64{12, 14, 20, 8, 10, 15, 15, 15, 60}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sensorSheetName, col, col, width)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ImageArchivePath is the location of an image inside the export archive
func (s *HubService) ImageArchivePath(img *models.CameraImage) string {
	unitID := "UNKNOWN"
	if cam, err := models.ParseCameraID(img.CameraID); err == nil {
		unitID = cam.UnitID
	}
	t := time.Unix(img.Timestamp, 0).In(s.location)
	return fmt.Sprintf("%s/%s/%s/%s_%s.jpg",
		unitID, img.CameraID, t.Format("2006-01-02"), img.CameraID, t.Format("15-04-05"))
}

// WriteImageZIP streams the selected images into a deflated archive.
// Images whose file vanished are skipped with a warning.
func (s *HubService) WriteImageZIP(ctx context.Context, w io.Writer, images []*models.CameraImage) (int, error) {
	zw := zip.NewWriter(w)
	written := 0
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return written, err
		}
		ok, err := s.addToArchive(ctx, zw, img)
		if err != nil {
			zw.Close()
			return written, err
		}
		if ok {
			written++
		}
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return written, nil
}

func (s *HubService) addToArchive(ctx context.Context, zw *zip.Writer, img *models.CameraImage) (bool, error) {
	src, mod, err := s.Images.Open(ctx, img.ImagePath)
	if err != nil {
		nuts.L.Warnf("[HubService] Skipping image %s in archive: %v", img.ImagePath, err)
		return false, nil
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{
		Name:     s.ImageArchivePath(img),
		Method:   zip.Deflate,
		Modified: mod,
	})
	if err != nil {
		return false, fmt.Errorf("failed to add %s to archive: %w", img.ImagePath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return false, fmt.Errorf("failed to copy %s into archive: %w", img.ImagePath, err)
	}
	return true, nil
}
