// FilePath: internal/models/models.relay.go
package models

import (
	"fmt"
	"strings"
)

// RelayState is the commanded state of one relay
type RelayState string

const (
	RelayOn   RelayState = "ON"
	RelayOff  RelayState = "OFF"
	RelayAuto RelayState = "AUTO"
)

var knownRelayStates = map[RelayState]bool{
	RelayOn:   true,
	RelayOff:  true,
	RelayAuto: true,
}

// ParseRelayState normalizes and validates a relay state
func ParseRelayState(s string) (RelayState, error) {
	state := RelayState(strings.ToUpper(strings.TrimSpace(s)))
	if !knownRelayStates[state] {
		return "", fmt.Errorf("unknown relay state %q", s)
	}
	return state, nil
}

// Relays holds the three controllable relays of a unit
type Relays struct {
	Lights RelayState `json:"lights" db:"lights"`
	Fans   RelayState `json:"fans" db:"fans"`
	Pump   RelayState `json:"pump" db:"pump"`
}

// DefaultRelays is the state of a unit that never had a relay write
func DefaultRelays() Relays {
	return Relays{Lights: RelayOff, Fans: RelayOff, Pump: RelayOff}
}

// RelayStatus is one appended relay record
type RelayStatus struct {
	ID        int64  `json:"-" db:"id"`
	UnitID    string `json:"unit_id" db:"unit_id"`
	Timestamp int64  `json:"timestamp" db:"timestamp"`
	Relays    `json:"relays"`
}

// RelayPatch is a partial relay write; nil fields keep their prior value
type RelayPatch struct {
	Lights *string `json:"lights,omitempty"`
	Fans   *string `json:"fans,omitempty"`
	Pump   *string `json:"pump,omitempty"`
}

// Merge applies the patch on top of prior (or all-OFF when prior is nil)
func (p RelayPatch) Merge(prior *Relays) (Relays, error) {
	merged := DefaultRelays()
	if prior != nil {
		merged = *prior
	}
	fields := []struct {
		name string
		val  *string
		dst  *RelayState
	}{
		{"lights", p.Lights, &merged.Lights},
		{"fans", p.Fans, &merged.Fans},
		{"pump", p.Pump, &merged.Pump},
	}
	for _, f := range fields {
		if f.val == nil {
			continue
		}
		state, err := ParseRelayState(*f.val)
		if err != nil {
			return Relays{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = state
	}
	return merged, nil
}

// Validate checks every provided field without needing a prior state
func (p RelayPatch) Validate() error {
	_, err := p.Merge(nil)
	return err
}
