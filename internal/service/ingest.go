package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/models"
	"water_tank/internal/pubsub"
)

// sensorCommand is one {"sensor_id": ..., "measurement": ...} item.
type sensorCommand struct {
	SensorID    string
	Measurement float64
}

type IngestService struct {
	tanks     *TankService
	settings  Settings
	sensorLog SensorLog
	log       *logger.Logger
	events    *EventNotifier
	now       func() time.Time

	mu           sync.Mutex
	sub          Subscriber
	extraTopics  []string
	sensorTopics map[string]struct{}
	onSensor     pubsub.Handler
}

func NewIngestService(tanks *TankService, settings Settings, sensorLog SensorLog, log *logger.Logger) *IngestService {
	return &IngestService{
		tanks:        tanks,
		settings:     settings,
		sensorLog:    sensorLog,
		log:          log,
		events:       NewEventNotifier(nil, "", log),
		now:          time.Now,
		sensorTopics: map[string]struct{}{},
	}
}

// HandleSensorMessage applies a sensor payload to every tank using the
// reported sensor and publishes the new snapshot when a tank changed.
func (s *IngestService) HandleSensorMessage(ctx context.Context, topic string, payload []byte) error {
	start := time.Now()
	err := s.handleSensorMessage(ctx, topic, payload)
	metrics.ObserveSensorMessage(sensorResult(err), time.Since(start))
	return err
}

func (s *IngestService) handleSensorMessage(ctx context.Context, topic string, payload []byte) error {
	now := s.now()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warnw("settings_unavailable", "error", err)
	} else if settings.SensorLogEnabled {
		if err := s.sensorLog.Record(ctx, topic, payload, settings.MaxSensorLogRecords); err != nil {
			s.log.Warnw("sensor_log_append_failed", "topic", topic, "error", err)
		}
	}

	cmds, err := decodeSensorCommands(payload)
	if err != nil {
		s.log.Warnw("unrecognised_sensor_message", "topic", topic, "payload", string(payload), "error", err)
		return fmt.Errorf("topic %s: %w", topic, err)
	}

	readings := make(map[string]float64, len(cmds))
	for _, c := range cmds {
		readings[c.SensorID] = c.Measurement
	}

	matched := map[string]bool{}
	invalid := 0
	var events []TankEvent
	updated, err := s.tanks.Mutate(ctx, func(t *models.Tank) bool {
		if t.SensorID == "" {
			return false
		}
		m, ok := readings[t.SensorID]
		if !ok {
			return false
		}
		matched[t.SensorID] = true
		prevPercentage, prevState := t.Percentage, t.State
		if !ApplyMeasurement(t, m, now) {
			invalid++
			events = append(events, tankEvent(EventInvalidMeasurement, *t, topic, now))
			return true
		}
		if t.LossAlert && prevPercentage != nil && *t.Percentage < *prevPercentage {
			e := tankEvent(EventWaterLoss, *t, topic, now)
			e.PreviousPercentage = prevPercentage
			events = append(events, e)
		}
		if t.State != prevState {
			e := tankEvent(EventStateChanged, *t, topic, now)
			e.PreviousState = stateName(prevState)
			e.Alert = t.State.Alerting()
			events = append(events, e)
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("apply sensor readings: %w", err)
	}

	var unknown []string
	for id := range readings {
		if !matched[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		m := readings[id]
		events = append(events, TankEvent{
			Kind:        EventUnassociatedSensor,
			SensorID:    id,
			Topic:       topic,
			Measurement: &m,
			At:          models.NewTimestamp(now),
		})
	}
	s.events.Notify(ctx, events...)

	switch {
	case updated == 0 && len(unknown) > 0:
		return fmt.Errorf("%w: %s", ErrUnknownSensor, strings.Join(unknown, ", "))
	case updated > 0 && invalid == updated:
		return fmt.Errorf("%w: topic %s", ErrInvalidMeasurement, topic)
	}
	return nil
}

// HandleDataRequest answers a request on the request topic by republishing the snapshot.
func (s *IngestService) HandleDataRequest(ctx context.Context) error {
	return s.tanks.Publish(ctx)
}

// Attach subscribes to the request topic and to every sensor topic, and keeps
// the sensor subscriptions following tank changes.
func (s *IngestService) Attach(ctx context.Context, sub Subscriber, requestTopic string, extraTopics []string) error {
	s.mu.Lock()
	s.sub = sub
	s.extraTopics = append([]string(nil), extraTopics...)
	s.onSensor = func(topic string, payload []byte) {
		if err := s.HandleSensorMessage(ctx, topic, payload); err != nil {
			s.log.Warnw("sensor_message_rejected", "topic", topic, "error", err)
		}
	}
	s.mu.Unlock()

	if requestTopic != "" {
		err := sub.Subscribe(ctx, requestTopic, pubsub.QoSExactlyOnce, func(string, []byte) {
			if err := s.HandleDataRequest(ctx); err != nil {
				s.log.Warnw("data_request_failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", requestTopic, err)
		}
	}

	s.tanks.OnChange(func(c context.Context) {
		if err := s.SyncSubscriptions(c); err != nil {
			s.log.Warnw("sensor_subscriptions_sync_failed", "error", err)
		}
	})
	return s.SyncSubscriptions(ctx)
}

// SyncSubscriptions subscribes to new sensor topics and drops ones no tank uses.
func (s *IngestService) SyncSubscriptions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return nil
	}

	tanks, err := s.tanks.List(ctx)
	if err != nil {
		return err
	}
	want := map[string]struct{}{}
	for _, topic := range s.extraTopics {
		if topic != "" {
			want[topic] = struct{}{}
		}
	}
	for _, t := range tanks {
		if t.SensorMQTTTopic != "" {
			want[t.SensorMQTTTopic] = struct{}{}
		}
	}

	var errs []error
	for topic := range want {
		if _, ok := s.sensorTopics[topic]; ok {
			continue
		}
		if err := s.sub.Subscribe(ctx, topic, pubsub.QoSExactlyOnce, s.onSensor); err != nil {
			errs = append(errs, fmt.Errorf("subscribe %s: %w", topic, err))
			continue
		}
		s.sensorTopics[topic] = struct{}{}
	}

	var stale []string
	for topic := range s.sensorTopics {
		if _, ok := want[topic]; !ok {
			stale = append(stale, topic)
		}
	}
	if len(stale) > 0 {
		sort.Strings(stale)
		if err := s.sub.Unsubscribe(ctx, stale...); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe %v: %w", stale, err))
		} else {
			for _, topic := range stale {
				delete(s.sensorTopics, topic)
			}
		}
	}
	return errors.Join(errs...)
}

// decodeSensorCommands accepts a single command object or a list of them.
// List items without a sensor_id are skipped.
func decodeSensorCommands(payload []byte) ([]sensorCommand, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognisedMessage, err)
	}

	switch x := v.(type) {
	case map[string]any:
		if _, ok := x["sensor_id"]; !ok {
			return nil, fmt.Errorf("%w: object without sensor_id", ErrUnrecognisedMessage)
		}
		c, err := commandFrom(x)
		if err != nil {
			return nil, err
		}
		return []sensorCommand{c}, nil

	case []any:
		var (
			out     []sensorCommand
			lastErr error
		)
		for _, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := m["sensor_id"]; !ok {
				continue
			}
			c, err := commandFrom(m)
			if err != nil {
				lastErr = err
				continue
			}
			out = append(out, c)
		}
		if len(out) == 0 {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, fmt.Errorf("%w: list without sensor commands", ErrUnrecognisedMessage)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unexpected %T", ErrUnrecognisedMessage, v)
}

func commandFrom(m map[string]any) (sensorCommand, error) {
	var c sensorCommand
	switch id := m["sensor_id"].(type) {
	case string:
		c.SensorID = id
	case json.Number:
		c.SensorID = id.String()
	}
	if c.SensorID == "" {
		return c, fmt.Errorf("%w: empty sensor_id", ErrUnrecognisedMessage)
	}

	var err error
	switch v := m["measurement"].(type) {
	case json.Number:
		c.Measurement, err = v.Float64()
	case string:
		c.Measurement, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("got %T", v)
	}
	if err != nil {
		return c, fmt.Errorf("%w: sensor %s: %v", ErrInvalidMeasurement, c.SensorID, err)
	}
	return c, nil
}

func sensorResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnrecognisedMessage):
		return "unrecognised"
	case errors.Is(err, ErrUnknownSensor):
		return "unknown_sensor"
	case errors.Is(err, ErrInvalidMeasurement):
		return "invalid_measurement"
	}
	return "error"
}
