package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TankType selects the geometry used to turn a sensor distance into a fill percentage.
type TankType int

const (
	TankRectangular           TankType = 1
	TankCylindricalHorizontal TankType = 2
	TankCylindricalVertical   TankType = 3
	TankElliptical            TankType = 4
)

// LengthUnit is the unit a tank dimension or a sensor measurement is expressed in.
type LengthUnit int

const (
	Centimeters LengthUnit = 1
	Meters      LengthUnit = 2
	Inches      LengthUnit = 3
	Feet        LengthUnit = 4
)

// ToMeters converts v from unit u to meters. Unknown units are treated as feet.
func (u LengthUnit) ToMeters(v float64) float64 {
	switch u {
	case Meters:
		return v
	case Centimeters:
		return v / 100
	case Inches:
		return v * 0.0254
	default:
		return v * 0.3048
	}
}

// TankState is the alert band a tank is in. The *Unsafe states hold a tank
// that left a band but has not yet crossed back over its safe level.
type TankState int

const (
	StateUnknown        TankState = 0
	StateNormal         TankState = 1
	StateOverflow       TankState = 2
	StateOverflowUnsafe TankState = 3
	StateWarning        TankState = 4
	StateWarningUnsafe  TankState = 5
	StateCritical       TankState = 6
	StateCriticalUnsafe TankState = 7
)

func (s TankState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateOverflow:
		return "overflow"
	case StateOverflowUnsafe:
		return "overflow_unsafe"
	case StateWarning:
		return "warning"
	case StateWarningUnsafe:
		return "warning_unsafe"
	case StateCritical:
		return "critical"
	case StateCriticalUnsafe:
		return "critical_unsafe"
	}
	return "unknown"
}

// Alerting reports whether entering s is worth telling someone about.
func (s TankState) Alerting() bool {
	return s == StateOverflow || s == StateCritical || s == StateWarning
}

// Tank is a tank definition together with its latest sensor reading.
// The reading fields are what the dashboard consumes; the rest is used by ingestion.
type Tank struct {
	ID                       string    `json:"id" yaml:"id"`
	Label                    string    `json:"label" yaml:"label"`
	Percentage               *float64  `json:"percentage" yaml:"percentage,omitempty"`
	InvalidSensorMeasurement bool      `json:"invalid_sensor_measurement" yaml:"invalid_sensor_measurement"`
	LastUpdated              Timestamp `json:"last_updated" yaml:"-"`
	Enabled                  bool      `json:"enabled" yaml:"enabled"`
	CriticalLevel            *float64  `json:"critical_level" yaml:"critical_level,omitempty"`
	WarningLevel             *float64  `json:"warning_level" yaml:"warning_level,omitempty"`
	OverflowLevel            *float64  `json:"overflow_level" yaml:"overflow_level,omitempty"`

	State             TankState `json:"state,omitempty" yaml:"-"`
	OverflowSafeLevel *float64  `json:"overflow_safe_level,omitempty" yaml:"overflow_safe_level,omitempty"`
	WarningSafeLevel  *float64  `json:"warning_safe_level,omitempty" yaml:"warning_safe_level,omitempty"`
	CriticalSafeLevel *float64  `json:"critical_safe_level,omitempty" yaml:"critical_safe_level,omitempty"`
	LossAlert         bool      `json:"loss_alert,omitempty" yaml:"loss_alert"`

	Type                      TankType   `json:"type,omitempty" yaml:"type"`
	Order                     int        `json:"order" yaml:"order"`
	SensorID                  string     `json:"sensor_id,omitempty" yaml:"sensor_id"`
	SensorMQTTTopic           string     `json:"sensor_mqtt_topic,omitempty" yaml:"sensor_mqtt_topic"`
	SensorMeasurement         *float64   `json:"sensor_measurement,omitempty" yaml:"-"`
	SensorOffsetFromTop       float64    `json:"sensor_offset_from_top,omitempty" yaml:"sensor_offset_from_top"`
	MinValidSensorMeasurement *float64   `json:"min_valid_sensor_measurement,omitempty" yaml:"min_valid_sensor_measurement,omitempty"`
	MaxValidSensorMeasurement *float64   `json:"max_valid_sensor_measurement,omitempty" yaml:"max_valid_sensor_measurement,omitempty"`
	WaterTankUnits            LengthUnit `json:"water_tank_units,omitempty" yaml:"water_tank_units"`
	SensorUnits               LengthUnit `json:"sensor_units,omitempty" yaml:"sensor_units"`

	Width          *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Length         *float64 `json:"length,omitempty" yaml:"length,omitempty"`
	Height         *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Diameter       *float64 `json:"diameter,omitempty" yaml:"diameter,omitempty"`
	HorizontalAxis *float64 `json:"horizontal_axis,omitempty" yaml:"horizontal_axis,omitempty"`
	VerticalAxis   *float64 `json:"vertical_axis,omitempty" yaml:"vertical_axis,omitempty"`
}

// Snapshot is the complete set of tanks keyed by tank id. It is always replaced as a whole.
type Snapshot map[string]Tank

// UnmarshalJSON accepts either an object keyed by tank id or an array of tanks.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("empty snapshot payload")
	}

	out := Snapshot{}
	switch trimmed[0] {
	case '{':
		var byID map[string]Tank
		if err := json.Unmarshal(trimmed, &byID); err != nil {
			return err
		}
		for key, t := range byID {
			if t.ID == "" {
				t.ID = key
			}
			out[t.ID] = t
		}
	case '[':
		var list []Tank
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		for i, t := range list {
			if t.ID == "" {
				return fmt.Errorf("snapshot entry %d has no id", i)
			}
			out[t.ID] = t
		}
	default:
		return fmt.Errorf("snapshot payload must be an object or an array")
	}
	*s = out
	return nil
}

// Ordered returns the tanks sorted by their display order, ties broken by id.
func (s Snapshot) Ordered() []Tank {
	out := make([]Tank, 0, len(s))
	for _, t := range s {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SnapshotOf builds a snapshot from a list of tanks.
func SnapshotOf(tanks []Tank) Snapshot {
	s := make(Snapshot, len(tanks))
	for _, t := range tanks {
		s[t.ID] = t
	}
	return s
}

// timestampLayout is the wire format produced by the tank backend.
const timestampLayout = "2006-01-02 15:04:05"

// Timestamp is a point in time that decodes both RFC3339 and "YYYY-MM-DD HH:MM:SS" (local).
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds, matching the wire precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Local().Format(timestampLayout))
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("last_updated: %w", err)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// ParseTimestamp parses RFC3339 or the backend's local "YYYY-MM-DD HH:MM:SS" format.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{timestampLayout, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
