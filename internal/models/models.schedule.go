// FilePath: internal/models/models.schedule.go
package models

import (
	"fmt"
	"sort"
	"strconv"
)

// ControlMode decides who owns a unit's relays
type ControlMode string

const (
	ControlModeTimer  ControlMode = "timer"
	ControlModeManual ControlMode = "manual"
)

const (
	ScheduleTypeTime = "time_schedule"

	// ControlModeKey is the reserved key carrying the mode in schedule payloads
	ControlModeKey = "_control_mode"
)

// Schedule is a stored schedule row; Data is opaque to the server
type Schedule struct {
	ID          int64       `json:"id" db:"id"`
	UnitID      string      `json:"unit_id" db:"unit_id"`
	Type        string      `json:"schedule_type" db:"schedule_type"`
	Data        JSON        `json:"schedule_data" db:"schedule_data"`
	ControlMode ControlMode `json:"control_mode" db:"control_mode"`
	Active      bool        `json:"active" db:"active"`
	CreatedAt   int64       `json:"created_at" db:"created_at"`
}

// ComposeSchedule merges active schedule payloads into the public view.
// Later rows win on key clashes; the mode defaults to timer.
func ComposeSchedule(active []*Schedule) JSON {
	out := JSON{}
	mode := ControlModeTimer
	for _, s := range active {
		for k, v := range s.Data {
			out[k] = v
		}
		if s.ControlMode != "" {
			mode = s.ControlMode
		}
	}
	out[ControlModeKey] = string(mode)
	return out
}

// ACSchedule maps "00".."23" to a target temperature
type ACSchedule map[string]float64

// ACHour formats an hour of day as a schedule key
func ACHour(h int) string {
	return fmt.Sprintf("%02d", h)
}

// ValidACHour reports whether key is one of "00".."23"
func ValidACHour(key string) bool {
	if len(key) != 2 {
		return false
	}
	h, err := strconv.Atoi(key)
	return err == nil && h >= 0 && h <= 23
}

// Hours returns the schedule keys in order
func (s ACSchedule) Hours() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
