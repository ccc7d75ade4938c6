package service

import (
	"context"
	"time"

	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/models"
)

// DeadSensorMonitor periodically looks for tanks whose sensor has been
// silent for at least max_sensor_no_signal_time.
type DeadSensorMonitor struct {
	tanks    Tanks
	settings Settings
	log      *logger.Logger
	events   *EventNotifier
	now      func() time.Time

	// OnDead, when set, is called with the tanks found by each check.
	OnDead func(ctx context.Context, dead []models.Tank)
}

func NewDeadSensorMonitor(tanks Tanks, settings Settings, log *logger.Logger) *DeadSensorMonitor {
	return &DeadSensorMonitor{
		tanks:    tanks,
		settings: settings,
		log:      log,
		events:   NewEventNotifier(nil, "", log),
		now:      time.Now,
	}
}

// Check returns the tanks with a sensor that has reported before and then went quiet.
func (m *DeadSensorMonitor) Check(ctx context.Context) ([]models.Tank, error) {
	st, err := m.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	tanks, err := m.tanks.List(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	limit := st.NoSignalTimeout()
	var dead []models.Tank
	for _, t := range tanks {
		if t.SensorID == "" || t.LastUpdated.IsZero() {
			continue
		}
		if now.Sub(t.LastUpdated.Time) < limit {
			continue
		}
		dead = append(dead, t)
	}
	metrics.SetDeadSensors(len(dead))
	return dead, nil
}

// Run checks once immediately and then every interval until ctx is canceled.
// A non-positive interval falls back to max_sensor_no_signal_time.
func (m *DeadSensorMonitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.fallbackInterval(ctx)
	}

	m.runCheck(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.runCheck(ctx)
		}
	}
}

func (m *DeadSensorMonitor) runCheck(ctx context.Context) {
	dead, err := m.Check(ctx)
	if err != nil {
		m.log.Warnw("dead_sensor_check_failed", "error", err)
		return
	}
	now := m.now()
	events := make([]TankEvent, 0, len(dead))
	for _, t := range dead {
		events = append(events, tankEvent(EventDeadSensor, t, t.SensorMQTTTopic, now))
	}
	m.events.Notify(ctx, events...)
	if m.OnDead != nil && len(dead) > 0 {
		m.OnDead(ctx, dead)
	}
}

func (m *DeadSensorMonitor) fallbackInterval(ctx context.Context) time.Duration {
	if st, err := m.settings.Get(ctx); err == nil && st.MaxSensorNoSignalTime > 0 {
		return st.NoSignalTimeout()
	}
	return 10 * time.Second
}
