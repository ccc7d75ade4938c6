package service

import (
	"context"
	"fmt"
	"net"
	"strings"

	"water_tank/internal/models"
	"water_tank/internal/repository"
)

// BrokerConfig is the broker side of the configuration, handed to dashboard clients.
type BrokerConfig struct {
	Host         string
	Port         int
	WSPort       int
	DataTopic    string
	RequestTopic string
}

type SettingsService struct {
	repo     repository.SettingsRepo
	defaults models.Settings
	broker   BrokerConfig

	// outboundIP is swapped in tests.
	outboundIP func() string
}

func NewSettingsService(repo repository.SettingsRepo, defaults models.Settings, broker BrokerConfig) *SettingsService {
	return &SettingsService{repo: repo, defaults: defaults, broker: broker, outboundIP: outboundIP}
}

// Get returns the stored settings, or the configured defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	st, found, err := s.repo.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if !found {
		return s.defaults, nil
	}
	return st, nil
}

func (s *SettingsService) Save(ctx context.Context, st models.Settings) error {
	if st.MaxSensorNoSignalTime <= 0 {
		return fmt.Errorf("%w: max_sensor_no_signal_time must be positive", ErrInvalidSettings)
	}
	if st.MaxSensorLogRecords < 0 {
		return fmt.Errorf("%w: max_sensor_log_records must not be negative", ErrInvalidSettings)
	}
	return s.repo.Save(ctx, st)
}

// MQTT returns the broker settings a browser needs. A loopback broker host is
// replaced by this machine's outbound address so remote browsers can reach it.
func (s *SettingsService) MQTT(_ context.Context) models.MQTTSettings {
	host := s.broker.Host
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1":
		host = s.outboundIP()
	}
	return models.MQTTSettings{
		BrokerHost:       host,
		BrokerPort:       s.broker.Port,
		BrokerWSPort:     s.broker.WSPort,
		DataPublishTopic: s.broker.DataTopic,
		RequestTopic:     s.broker.RequestTopic,
	}
}

// outboundIP finds the local address used for outgoing traffic. UDP dial sends nothing.
func outboundIP() string {
	conn, err := net.Dial("udp", "10.254.254.254:1")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
