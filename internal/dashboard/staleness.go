package dashboard

import (
	"strconv"
	"strings"
	"time"

	"water_tank/internal/models"
)

// elapsedChain splits milliseconds into seconds, minutes, hours and days, in that order.
var elapsedChain = []int64{1000, 60, 60, 24}

// IsDead reports whether more than max_sensor_no_signal_time has passed since lastUpdated.
// Without settings nothing can be evaluated and the sensor is treated as alive.
func IsDead(lastUpdated time.Time, settings *models.Settings, now time.Time) bool {
	if settings == nil {
		return false
	}
	elapsedMs := now.Sub(lastUpdated).Milliseconds()
	return elapsedMs > int64(settings.MaxSensorNoSignalTime)*1000
}

// ElapsedLabel formats the time since lastUpdated, e.g. "1d 01h 01m 01s ago".
// Days and hours are omitted when zero; minutes and seconds are always present.
func ElapsedLabel(lastUpdated time.Time, now time.Time) string {
	parts := wholeValues(now.Sub(lastUpdated).Milliseconds(), elapsedChain)
	// parts: [ms, s, m, h, d]
	var b strings.Builder
	if parts[4] > 0 {
		b.WriteString(strconv.FormatInt(parts[4], 10))
		b.WriteString("d ")
	}
	if parts[3] > 0 {
		b.WriteString(pad2(parts[3]))
		b.WriteString("h ")
	}
	b.WriteString(pad2(parts[2]))
	b.WriteString("m ")
	b.WriteString(pad2(parts[1]))
	b.WriteString("s ago")
	return b.String()
}

// wholeValues divides base successively by each fraction. Element i keeps the
// remainder at that unit and the last element keeps the undivided quotient.
func wholeValues(base int64, fractions []int64) []int64 {
	out := make([]int64, 0, len(fractions)+1)
	out = append(out, base)
	for i, f := range fractions {
		out = append(out, out[i]/f)
		out[i] = out[i] % f
	}
	return out
}

func pad2(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
