package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "water_tank_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	sensorMessages   *prometheus.CounterVec
	sensorLatency    *prometheus.HistogramVec
	snapshotMessages *prometheus.CounterVec
	snapshotPublish  *prometheus.CounterVec
	deadSensors      prometheus.Gauge
	boardSubscribers prometheus.Gauge
	exportsTotal     *prometheus.CounterVec
	tankEvents       *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call more than once.
// Until Init runs every Observe/Set function is a no-op.
func Init() {
	registerOnce.Do(func() {
		sensorMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_messages_total",
				Help: "Sensor messages received by result",
			},
			[]string{"result"},
		)
		sensorLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "sensor_message_latency_seconds",
				Help:    "Time spent handling one sensor message",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		snapshotMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_messages_total",
				Help: "Snapshot payloads received by the dashboard by result",
			},
			[]string{"result"},
		)
		snapshotPublish = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_publish_total",
				Help: "Snapshot publications by result",
			},
			[]string{"result"},
		)
		deadSensors = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "dead_sensors",
				Help: "Tanks whose sensor exceeded the no-signal time at the last check",
			},
		)
		boardSubscribers = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "board_subscribers",
				Help: "Connected dashboard streams",
			},
		)
		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_log_exports_total",
				Help: "Sensor log downloads by format and result",
			},
			[]string{"format", "result"},
		)

		tankEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tank_events_total",
				Help: "Tank events raised by kind",
			},
			[]string{"kind"},
		)

		prometheus.MustRegister(
			sensorMessages,
			sensorLatency,
			snapshotMessages,
			snapshotPublish,
			deadSensors,
			boardSubscribers,
			exportsTotal,
			tankEvents,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSensorMessage records the outcome of handling one sensor message.
func ObserveSensorMessage(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if sensorMessages != nil {
		sensorMessages.WithLabelValues(result).Inc()
	}
	if sensorLatency != nil {
		sensorLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveSnapshotMessage counts snapshot payloads seen by the dashboard.
func ObserveSnapshotMessage(ok bool) {
	if snapshotMessages != nil {
		snapshotMessages.WithLabelValues(resultLabel(ok)).Inc()
	}
}

// ObserveSnapshotPublish counts snapshot publications.
func ObserveSnapshotPublish(ok bool) {
	if snapshotPublish != nil {
		snapshotPublish.WithLabelValues(resultLabel(ok)).Inc()
	}
}

// SetDeadSensors sets the dead sensor gauge.
func SetDeadSensors(n int) {
	if deadSensors != nil {
		deadSensors.Set(float64(n))
	}
}

// AddBoardSubscribers moves the subscriber gauge by delta.
func AddBoardSubscribers(delta int) {
	if boardSubscribers != nil {
		boardSubscribers.Add(float64(delta))
	}
}

// ObserveExport counts a sensor log export.
func ObserveExport(format string, ok bool) {
	if format == "" {
		format = "unknown"
	}
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(format, resultLabel(ok)).Inc()
	}
}

// ObserveTankEvent counts a tank event of the given kind.
func ObserveTankEvent(kind string) {
	if tankEvents != nil {
		tankEvents.WithLabelValues(kind).Inc()
	}
}

func resultLabel(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultError
}
