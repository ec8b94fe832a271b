// FilePath: internal/models/models.unit.go
package models

type UnitType string

const (
	UnitTypeDWC       UnitType = "DWC"
	UnitTypeNFT       UnitType = "NFT"
	UnitTypeAeroponic UnitType = "Aeroponic"
	UnitTypeTrough    UnitType = "Trough"
	UnitTypeRoom      UnitType = "Room"
)

const (
	RoomFront = "ROOM_FRONT"
	RoomBack  = "ROOM_BACK"
)

// Unit is a cultivation system or a climate-controlled room
type Unit struct {
	ID        string   `json:"unit_id" db:"unit_id"`
	Name      string   `json:"name" db:"name"`
	Type      UnitType `json:"type" db:"type"`
	Active    bool     `json:"active" db:"active"`
	CreatedAt int64    `json:"created_at" db:"created_at"`
}

// IsRoom reports whether the unit is a room rather than a grow system
func (u *Unit) IsRoom() bool {
	return u.Type == UnitTypeRoom
}

// RoomUnitID maps the public room name ("front", "back") to its unit id
func RoomUnitID(room string) (string, bool) {
	switch room {
	case "front":
		return RoomFront, true
	case "back":
		return RoomBack, true
	}
	return "", false
}
