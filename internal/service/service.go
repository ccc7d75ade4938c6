package service

import (
	"context"
	"errors"
	"io"
	"time"

	"water_tank/internal/logger"
	"water_tank/internal/models"
	"water_tank/internal/pubsub"
	"water_tank/internal/repository"
)

var (
	ErrInvalidTank         = errors.New("invalid tank")
	ErrInvalidSettings     = errors.New("invalid settings")
	ErrUnknownSensor       = errors.New("no tank uses this sensor")
	ErrInvalidMeasurement  = errors.New("invalid sensor measurement")
	ErrUnrecognisedMessage = errors.New("unrecognised sensor message")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
)

// Publisher is the outbound side of the broker connection.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error

func (f PublisherFunc) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	return f(ctx, topic, qos, retain, payload)
}

// Subscriber is the inbound side of the broker connection.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, qos byte, h pubsub.Handler) error
	Unsubscribe(ctx context.Context, topics ...string) error
}

// Tanks manages tank definitions and publishes the snapshot after every change.
type Tanks interface {
	List(ctx context.Context) ([]models.Tank, error)
	Snapshot(ctx context.Context) (models.Snapshot, error)
	Get(ctx context.Context, id string) (models.Tank, error)
	Save(ctx context.Context, t models.Tank) (models.Tank, error)
	Delete(ctx context.Context, id string) error
	SaveOrder(ctx context.Context, ids []string) error
	Publish(ctx context.Context) error
}

type Settings interface {
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
	MQTT(ctx context.Context) models.MQTTSettings
}

// Ingest turns raw broker messages into tank readings.
type Ingest interface {
	HandleSensorMessage(ctx context.Context, topic string, payload []byte) error
	HandleDataRequest(ctx context.Context) error
}

type SensorLog interface {
	Record(ctx context.Context, topic string, payload []byte, keep int) error
	List(ctx context.Context, limit int) ([]models.SensorLogEntry, error)
	Clear(ctx context.Context) error
	Export(ctx context.Context, format string, w io.Writer) error
}

// Monitor reports tanks whose sensors stopped sending.
type Monitor interface {
	Check(ctx context.Context) ([]models.Tank, error)
	Run(ctx context.Context, interval time.Duration)
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Repos     *repository.Repository
	Publisher Publisher
	Broker    BrokerConfig
	Defaults  models.Settings
	Log       *logger.Logger

	// EventsTopic, when set, receives every tank event as JSON.
	EventsTopic string
}

type Service struct {
	Tanks     Tanks
	Settings  Settings
	Ingest    Ingest
	SensorLog SensorLog
	Monitor   Monitor
	Events    *EventNotifier

	ingest *IngestService
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}

	settings := NewSettingsService(d.Repos.Settings, d.Defaults, d.Broker)
	tanks := NewTankService(d.Repos.Tanks, d.Publisher, d.Broker.DataTopic, log.Named("tanks"))
	sensorLog := NewSensorLogService(d.Repos.SensorLog)
	events := NewEventNotifier(d.Publisher, d.EventsTopic, log.Named("events"))
	ingest := NewIngestService(tanks, settings, sensorLog, log.Named("ingest"))
	ingest.events = events
	monitor := NewDeadSensorMonitor(tanks, settings, log.Named("dead_sensor_monitor"))
	monitor.events = events

	return &Service{
		Tanks:     tanks,
		Settings:  settings,
		Ingest:    ingest,
		SensorLog: sensorLog,
		Monitor:   monitor,
		Events:    events,
		ingest:    ingest,
	}
}

// Subscribe attaches the ingest side to sub and keeps sensor topic
// subscriptions in sync with the stored tanks.
func (s *Service) Subscribe(ctx context.Context, sub Subscriber, requestTopic string, extraTopics []string) error {
	return s.ingest.Attach(ctx, sub, requestTopic, extraTopics)
}
