package dashboard

import "water_tank/internal/models"

// Status is the category a tank row is styled with.
type Status string

const (
	StatusNormal      Status = "normal"
	StatusCritical    Status = "critical"
	StatusWarning     Status = "warning"
	StatusOverflow    Status = "overflow"
	StatusSensorError Status = "sensor_error"
)

// AllStatuses lists every status class a row can carry.
var AllStatuses = []Status{StatusNormal, StatusCritical, StatusWarning, StatusOverflow, StatusSensorError}

// Classify derives the status of a reading. First match wins:
// invalid measurement, then unknown percentage, then critical, warning and overflow levels.
func Classify(t models.Tank) Status {
	if t.InvalidSensorMeasurement {
		return StatusSensorError
	}
	if t.Percentage == nil {
		return StatusNormal
	}
	p := *t.Percentage
	switch {
	case t.CriticalLevel != nil && p <= *t.CriticalLevel:
		return StatusCritical
	case t.WarningLevel != nil && p <= *t.WarningLevel:
		return StatusWarning
	case t.OverflowLevel != nil && p >= *t.OverflowLevel:
		return StatusOverflow
	default:
		return StatusNormal
	}
}
