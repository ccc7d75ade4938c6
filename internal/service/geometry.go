package service

import (
	"math"
	"time"

	"water_tank/internal/models"
)

// ApplyMeasurement records a raw sensor distance on t and recomputes its
// fill percentage and state. It reports whether the measurement was usable; an
// unusable one marks the tank as having an invalid measurement and clears the
// percentage, leaving the state as it was.
func ApplyMeasurement(t *models.Tank, measurement float64, now time.Time) bool {
	t.LastUpdated = models.NewTimestamp(now)
	m := measurement
	t.SensorMeasurement = &m

	p, ok := FillPercentage(*t, measurement)
	if !ok {
		t.InvalidSensorMeasurement = true
		t.Percentage = nil
		return false
	}
	t.InvalidSensorMeasurement = false
	t.Percentage = &p
	if st, ok := NextState(*t); ok {
		t.State = st
	}
	return true
}

// FillPercentage validates measurement (distance from the sensor down to the
// water surface, in sensor units) and converts it into a whole fill percentage.
func FillPercentage(t models.Tank, measurement float64) (float64, bool) {
	if !MeasurementIsValid(t, measurement) {
		return 0, false
	}

	// distance from the tank top to the water surface, in meters
	d := t.SensorUnits.ToMeters(measurement) - t.WaterTankUnits.ToMeters(t.SensorOffsetFromTop)
	meters := t.WaterTankUnits.ToMeters

	switch t.Type {
	case models.TankRectangular:
		if t.Width == nil || t.Length == nil || t.Height == nil || *t.Height <= 0 {
			return 0, false
		}
		return linearPercentage(meters(*t.Height), d), true

	case models.TankCylindricalVertical:
		if t.Diameter == nil || t.Height == nil || *t.Height <= 0 {
			return 0, false
		}
		return linearPercentage(meters(*t.Height), d), true

	case models.TankCylindricalHorizontal:
		if t.Diameter == nil || t.Length == nil || *t.Diameter <= 0 {
			return 0, false
		}
		diameter := meters(*t.Diameter)
		return segmentPercentage(diameter-d, diameter)

	case models.TankElliptical:
		if t.Length == nil || t.HorizontalAxis == nil || t.VerticalAxis == nil || *t.VerticalAxis <= 0 {
			return 0, false
		}
		a := meters(*t.VerticalAxis)
		return segmentPercentage(a-d, a)
	}
	return 0, false
}

// MeasurementIsValid applies the configured bounds and rejects readings that
// are negative or would put the water surface below the tank bottom.
func MeasurementIsValid(t models.Tank, measurement float64) bool {
	height := tankHeight(t)
	if height == nil {
		return false
	}
	if t.MinValidSensorMeasurement != nil && measurement < *t.MinValidSensorMeasurement {
		return false
	}
	if t.MaxValidSensorMeasurement != nil && measurement > *t.MaxValidSensorMeasurement {
		return false
	}
	if measurement < 0 {
		return false
	}
	h := t.WaterTankUnits.ToMeters(*height)
	m := t.SensorUnits.ToMeters(measurement)
	o := t.WaterTankUnits.ToMeters(t.SensorOffsetFromTop)
	return h >= m-o
}

// tankHeight is the vertical extent of the tank in tank units.
func tankHeight(t models.Tank) *float64 {
	switch t.Type {
	case models.TankRectangular, models.TankCylindricalVertical:
		return t.Height
	case models.TankCylindricalHorizontal:
		return t.Diameter
	case models.TankElliptical:
		return t.VerticalAxis
	}
	return nil
}

func linearPercentage(height, empty float64) float64 {
	return roundPercent(100 * (height - empty) / height)
}

// segmentPercentage is the filled share of a circular or elliptical cross
// section of vertical extent span, with liquid depth depth.
func segmentPercentage(depth, span float64) (float64, bool) {
	k := 1 - 2*depth/span
	if k < -1 || k > 1 || math.IsNaN(k) {
		return 0, false
	}
	fraction := (math.Acos(k) - k*math.Sqrt(1-k*k)) / math.Pi
	return roundPercent(100 * fraction), true
}

func roundPercent(v float64) float64 {
	return math.RoundToEven(v)
}
