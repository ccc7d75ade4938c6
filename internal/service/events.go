package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/models"
	"water_tank/internal/pubsub"
)

// EventKind names something about a tank worth reporting.
type EventKind string

const (
	EventStateChanged       EventKind = "state_changed"
	EventWaterLoss          EventKind = "water_loss"
	EventInvalidMeasurement EventKind = "invalid_measurement"
	EventDeadSensor         EventKind = "dead_sensor"
	EventUnassociatedSensor EventKind = "unassociated_sensor"
)

// TankEvent is one report. Tank fields are empty for an unassociated sensor.
type TankEvent struct {
	Kind               EventKind        `json:"kind"`
	TankID             string           `json:"tank_id,omitempty"`
	TankLabel          string           `json:"tank_label,omitempty"`
	SensorID           string           `json:"sensor_id,omitempty"`
	Topic              string           `json:"topic,omitempty"`
	State              string           `json:"state,omitempty"`
	PreviousState      string           `json:"previous_state,omitempty"`
	Alert              bool             `json:"alert,omitempty"`
	Percentage         *float64         `json:"percentage,omitempty"`
	PreviousPercentage *float64         `json:"previous_percentage,omitempty"`
	Measurement        *float64         `json:"measurement,omitempty"`
	LastUpdated        models.Timestamp `json:"last_updated"`
	At                 models.Timestamp `json:"at"`
}

// tankEvent fills the tank part of an event from t.
func tankEvent(kind EventKind, t models.Tank, topic string, at time.Time) TankEvent {
	return TankEvent{
		Kind:        kind,
		TankID:      t.ID,
		TankLabel:   t.Label,
		SensorID:    t.SensorID,
		Topic:       topic,
		State:       stateName(t.State),
		Percentage:  t.Percentage,
		Measurement: t.SensorMeasurement,
		LastUpdated: t.LastUpdated,
		At:          models.NewTimestamp(at),
	}
}

func stateName(s models.TankState) string {
	if s == models.StateUnknown {
		return ""
	}
	return s.String()
}

// EventNotifier logs and counts tank events, publishes them on the events
// topic when one is configured and hands them to registered hooks.
type EventNotifier struct {
	pub   Publisher
	topic string
	log   *logger.Logger

	mu    sync.Mutex
	hooks []func(ctx context.Context, e TankEvent)
}

func NewEventNotifier(pub Publisher, topic string, log *logger.Logger) *EventNotifier {
	return &EventNotifier{pub: pub, topic: topic, log: log}
}

// OnEvent registers fn to receive every event after it was logged.
func (n *EventNotifier) OnEvent(fn func(ctx context.Context, e TankEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, fn)
}

func (n *EventNotifier) Notify(ctx context.Context, events ...TankEvent) {
	if len(events) == 0 {
		return
	}
	n.mu.Lock()
	hooks := append([]func(context.Context, TankEvent){}, n.hooks...)
	n.mu.Unlock()

	for _, e := range events {
		n.logEvent(e)
		metrics.ObserveTankEvent(string(e.Kind))
		n.publish(ctx, e)
		for _, fn := range hooks {
			fn(ctx, e)
		}
	}
}

func (n *EventNotifier) logEvent(e TankEvent) {
	kv := []any{"tank_id", e.TankID, "tank_label", e.TankLabel, "sensor_id", e.SensorID, "topic", e.Topic}
	if e.Measurement != nil {
		kv = append(kv, "measurement", *e.Measurement)
	}
	if e.Percentage != nil {
		kv = append(kv, "percentage", *e.Percentage)
	}

	switch e.Kind {
	case EventStateChanged:
		kv = append(kv, "state", e.State, "previous_state", e.PreviousState)
		if !e.Alert {
			n.log.Infow(string(e.Kind), kv...)
			return
		}
	case EventWaterLoss:
		if e.PreviousPercentage != nil {
			kv = append(kv, "previous_percentage", *e.PreviousPercentage)
		}
	case EventDeadSensor:
		kv = append(kv, "last_updated", e.LastUpdated.Local().Format(logDateLayout))
	}
	n.log.Warnw(string(e.Kind), kv...)
}

func (n *EventNotifier) publish(ctx context.Context, e TankEvent) {
	if n.pub == nil || n.topic == "" {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		n.log.Warnw("event_encode_failed", "kind", e.Kind, "error", err)
		return
	}
	if err := n.pub.Publish(ctx, n.topic, pubsub.QoSAtLeastOnce, false, payload); err != nil {
		n.log.Warnw("event_publish_failed", "kind", e.Kind, "topic", n.topic, "error", err)
	}
}
