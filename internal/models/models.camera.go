// FilePath: internal/models/models.camera.go
package models

import (
	"fmt"
	"path"
	"strings"
)

const (
	CameraStatusOnline = "online"

	// ImageURLPrefix is where stored images are served from
	ImageURLPrefix = "/camera_images/"
)

// CameraID is the parsed form of "{unit}L{level}{position}"
type CameraID struct {
	UnitID   string
	Level    int
	Position int
}

// ParseCameraID splits an id such as "DWC1L23" into unit DWC1, level 2, position 3.
// The unit ends at the first "L"; exactly two digits must follow it.
func ParseCameraID(id string) (CameraID, error) {
	i := strings.IndexByte(id, 'L')
	if i <= 0 {
		return CameraID{}, fmt.Errorf("camera id %q must look like <unit>L<level><position>", id)
	}
	rest := id[i+1:]
	if len(rest) != 2 || !isDigit(rest[0]) || !isDigit(rest[1]) {
		return CameraID{}, fmt.Errorf("camera id %q must have two digits after the first L", id)
	}
	return CameraID{
		UnitID:   id[:i],
		Level:    int(rest[0] - '0'),
		Position: int(rest[1] - '0'),
	}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (c CameraID) String() string {
	return fmt.Sprintf("%sL%d%d", c.UnitID, c.Level, c.Position)
}

// ImageURL derives the public URL of a stored image path
func ImageURL(imagePath string) string {
	return ImageURLPrefix + path.Base(imagePath)
}

// CameraImage is one stored capture
type CameraImage struct {
	ID        int64  `json:"id" db:"id"`
	CameraID  string `json:"camera_id" db:"camera_id"`
	UnitID    string `json:"-" db:"unit_id"`
	Level     int    `json:"-" db:"level"`
	Position  int    `json:"-" db:"position"`
	Timestamp int64  `json:"timestamp" db:"timestamp"`
	ImagePath string `json:"image_path" db:"image_path"`
	FileSize  int64  `json:"file_size" db:"file_size"`
	URL       string `json:"url" db:"-"`
}

// CameraStatus is the per-camera aggregate
type CameraStatus struct {
	CameraID           string `json:"camera_id" db:"camera_id"`
	UnitID             string `json:"-" db:"unit_id"`
	Level              int    `json:"-" db:"level"`
	Position           int    `json:"-" db:"position"`
	LastImageTimestamp int64  `json:"last_image_timestamp" db:"last_image_timestamp"`
	TotalImages        int64  `json:"total_images" db:"total_images"`
	Status             string `json:"status" db:"status"`
	UpdatedAt          int64  `json:"-" db:"updated_at"`
}

// GridCell is one camera's newest capture in the unit grid
type GridCell struct {
	CameraID  string `json:"camera_id"`
	Timestamp int64  `json:"timestamp"`
	ImageURL  string `json:"image_url"`
}

// CameraGrid is keyed "L<level>" then "pos<position>"
type CameraGrid map[string]map[string]GridCell

// BuildCameraGrid places each image by level and position; later images
// overwrite earlier ones in the same cell.
func BuildCameraGrid(latest []*CameraImage) CameraGrid {
	grid := CameraGrid{}
	for _, img := range latest {
		level := fmt.Sprintf("L%d", img.Level)
		if grid[level] == nil {
			grid[level] = map[string]GridCell{}
		}
		grid[level][fmt.Sprintf("pos%d", img.Position)] = GridCell{
			CameraID:  img.CameraID,
			Timestamp: img.Timestamp,
			ImageURL:  ImageURL(img.ImagePath),
		}
	}
	return grid
}

// UnitCameras is the camera list of one unit
type UnitCameras struct {
	UnitID  string          `json:"unit_id"`
	Cameras []*CameraStatus `json:"cameras"`
}

// CameraImages is the recent capture list of one camera
type CameraImages struct {
	CameraID string         `json:"camera_id"`
	Images   []*CameraImage `json:"images"`
}

// UnitCameraGrid is the latest-per-camera view of a unit
type UnitCameraGrid struct {
	UnitID     string     `json:"unit_id"`
	CameraGrid CameraGrid `json:"camera_grid"`
}

// CameraSummary is the fleet-wide camera overview
type CameraSummary struct {
	Timestamp    int64                      `json:"timestamp"`
	TotalUnits   int                        `json:"total_units"`
	TotalCameras int                        `json:"total_cameras"`
	Units        map[string][]*CameraStatus `json:"units"`
}

// UploadResult is returned after an image has been ingested
type UploadResult struct {
	Message   string `json:"message"`
	CameraID  string `json:"camera_id"`
	Timestamp int64  `json:"timestamp"`
	ImageURL  string `json:"image_url"`
}
