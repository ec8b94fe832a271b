// FilePath: internal/models/models.sensor.go
package models

import (
	"database/sql/driver"
	"encoding/json"
)

// ZoneClimate is the air reading of one grow zone (e.g. "L11")
type ZoneClimate struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

// Climate maps zone keys to their readings
type Climate map[string]ZoneClimate

// Value implements the driver.Valuer interface
func (c Climate) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (c *Climate) Scan(value interface{}) error {
	return scanJSONText(value, c)
}

// Reservoir holds the nutrient solution measurements
type Reservoir struct {
	PH         float64 `json:"ph" db:"ph"`
	TDS        float64 `json:"tds" db:"tds"`
	Turbidity  float64 `json:"turbidity" db:"turbidity"`
	WaterTemp  float64 `json:"water_temp" db:"water_temp"`
	WaterLevel float64 `json:"water_level" db:"water_level"`
}

// SensorReading is one timestamped sample of a cultivation unit
type SensorReading struct {
	ID        int64  `json:"-" db:"id"`
	UnitID    string `json:"unit_id" db:"unit_id"`
	Timestamp int64  `json:"timestamp" db:"timestamp"`
	Reservoir `json:"reservoir"`
	Climate   Climate `json:"climate" db:"climate_data"`
}

// BME holds the environmental sensor block of a room
type BME struct {
	Temp     float64 `json:"temp" db:"bme_temp"`
	Humidity float64 `json:"humidity" db:"bme_humidity"`
	Pressure float64 `json:"pressure" db:"bme_pressure"`
	IAQ      float64 `json:"iaq" db:"bme_iaq"`
}

// ACState is the air conditioner report of the back room
type ACState struct {
	CurrentSetTemp float64  `json:"current_set_temp"`
	Mode           string   `json:"mode"`
	ScheduledTemp  *float64 `json:"scheduled_temp,omitempty"`
}

// RoomSensorReading is one timestamped sample of a room
type RoomSensorReading struct {
	ID        int64  `json:"-" db:"id"`
	UnitID    string `json:"unit_id" db:"unit_id"`
	Timestamp int64  `json:"timestamp" db:"timestamp"`
	BME       `json:"bme"`
	CO2       float64  `json:"co2" db:"co2"`
	ACTemp    *float64 `json:"-" db:"ac_temp"`
	ACMode    *string  `json:"-" db:"ac_mode"`
	AC        *ACState `json:"ac,omitempty" db:"-"`
}

// SyncACFromColumns fills AC from the nullable storage columns
func (r *RoomSensorReading) SyncACFromColumns() {
	if r.ACTemp == nil && r.ACMode == nil {
		r.AC = nil
		return
	}
	ac := &ACState{}
	if r.ACTemp != nil {
		ac.CurrentSetTemp = *r.ACTemp
	}
	if r.ACMode != nil {
		ac.Mode = *r.ACMode
	}
	r.AC = ac
}

// SyncColumnsFromAC copies AC into the nullable storage columns
func (r *RoomSensorReading) SyncColumnsFromAC() {
	if r.AC == nil {
		r.ACTemp, r.ACMode = nil, nil
		return
	}
	temp, mode := r.AC.CurrentSetTemp, r.AC.Mode
	r.ACTemp, r.ACMode = &temp, &mode
}

// FallbackSensorReading is served when a unit has no stored reading
func FallbackSensorReading(unitID string, now int64) *SensorReading {
	return &SensorReading{
		UnitID:    unitID,
		Timestamp: now,
		Reservoir: Reservoir{PH: 6.2, TDS: 950, Turbidity: 12, WaterTemp: 22.4, WaterLevel: 78},
		Climate: Climate{
			"L11": {Temp: 24.1, Humidity: 70},
			"L12": {Temp: 24.4, Humidity: 71},
			"L21": {Temp: 23.9, Humidity: 69},
			"L22": {Temp: 24.0, Humidity: 68},
			"L31": {Temp: 24.2, Humidity: 72},
			"L32": {Temp: 24.5, Humidity: 71},
			"L41": {Temp: 25.1, Humidity: 74},
			"L42": {Temp: 25.0, Humidity: 73},
		},
	}
}

// FallbackRoomReading is served when a room has no stored reading
func FallbackRoomReading(roomID string, now int64) *RoomSensorReading {
	r := &RoomSensorReading{
		UnitID:    roomID,
		Timestamp: now,
		BME:       BME{Temp: 25.4, Humidity: 62, Pressure: 1007, IAQ: 132},
		CO2:       780,
	}
	if roomID == RoomBack {
		r.AC = &ACState{CurrentSetTemp: 24, Mode: "COOL"}
		r.SyncColumnsFromAC()
	}
	return r
}
