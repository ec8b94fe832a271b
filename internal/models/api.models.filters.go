// FilePath: internal/models/api.models.filters.go
package models

import (
	"fmt"
	"time"
)

// Range names accepted by the export endpoints
const (
	RangeToday      = "today"
	RangeYesterday  = "yesterday"
	RangeLast7Days  = "last7days"
	RangeLast30Days = "last30days"
	RangeThisMonth  = "thismonth"
	RangeLastMonth  = "lastmonth"
	RangeCustom     = "custom"

	// AllUnits selects every unit in an export
	AllUnits = "ALL"

	dateLayout = "2006-01-02"
	day        = int64(86400)
)

// ExportFilters is decoded from the export query string
type ExportFilters struct {
	Unit      string `schema:"unit" json:"unit"`
	Range     string `schema:"range" json:"range"`
	StartDate string `schema:"startDate" json:"startDate,omitempty"`
	EndDate   string `schema:"endDate" json:"endDate,omitempty"`
}

// Normalize fills the defaults for unit and range
func (f *ExportFilters) Normalize() {
	if f.Unit == "" {
		f.Unit = AllUnits
	}
	if f.Range == "" {
		f.Range = RangeLast7Days
	}
}

// UnitFilter returns the unit to filter by, or "" for all units
func (f *ExportFilters) UnitFilter() string {
	if f.Unit == AllUnits {
		return ""
	}
	return f.Unit
}

// ImageListFilters is decoded from the image list query string
type ImageListFilters struct {
	Limit int `schema:"limit"`
}

const (
	DefaultImageLimit = 10
	MaxImageLimit     = 500
)

// EffectiveLimit clamps the requested limit into [1, MaxImageLimit]
func (f ImageListFilters) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultImageLimit
	case f.Limit > MaxImageLimit:
		return MaxImageLimit
	}
	return f.Limit
}

// TimeRange is an inclusive [Start, End] window in unix seconds
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether ts lies inside the window
func (r TimeRange) Contains(ts int64) bool {
	return ts >= r.Start && ts <= r.End
}

// ResolveRange turns the filter's range name into a concrete window.
// Calendar ranges use loc; rolling ranges are relative to now.
func (f *ExportFilters) ResolveRange(now time.Time, loc *time.Location) (TimeRange, error) {
	end := now.Unix()
	local := now.In(loc)
	switch f.Range {
	case RangeToday:
		return TimeRange{Start: end - day, End: end}, nil
	case RangeYesterday:
		return TimeRange{Start: end - 2*day, End: end - day}, nil
	case RangeLast7Days, "":
		return TimeRange{Start: end - 7*day, End: end}, nil
	case RangeLast30Days:
		return TimeRange{Start: end - 30*day, End: end}, nil
	case RangeThisMonth:
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return TimeRange{Start: first.Unix(), End: end}, nil
	case RangeLastMonth:
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		prev := first.AddDate(0, -1, 0)
		return TimeRange{Start: prev.Unix(), End: first.Unix() - 1}, nil
	case RangeCustom:
		if f.StartDate == "" || f.EndDate == "" {
			return TimeRange{}, fmt.Errorf("custom range requires startDate and endDate")
		}
		start, err := time.ParseInLocation(dateLayout, f.StartDate, loc)
		if err != nil {
			return TimeRange{}, fmt.Errorf("invalid startDate %q, expected YYYY-MM-DD", f.StartDate)
		}
		last, err := time.ParseInLocation(dateLayout, f.EndDate, loc)
		if err != nil {
			return TimeRange{}, fmt.Errorf("invalid endDate %q, expected YYYY-MM-DD", f.EndDate)
		}
		if last.Before(start) {
			return TimeRange{}, fmt.Errorf("endDate %s is before startDate %s", f.EndDate, f.StartDate)
		}
		return TimeRange{Start: start.Unix(), End: last.Unix() + day - 1}, nil
	}
	return TimeRange{}, fmt.Errorf("unknown range %q", f.Range)
}
