package models

import "time"

// Settings are the operator-configured values the dashboard and the ingest side read.
type Settings struct {
	// MaxSensorNoSignalTime is in seconds.
	MaxSensorNoSignalTime int  `json:"max_sensor_no_signal_time"`
	MaxSensorLogRecords   int  `json:"max_sensor_log_records"`
	SensorLogEnabled      bool `json:"sensor_log_enabled"`
}

// NoSignalTimeout returns MaxSensorNoSignalTime as a duration.
func (s Settings) NoSignalTimeout() time.Duration {
	return time.Duration(s.MaxSensorNoSignalTime) * time.Second
}

// MQTTSettings is what a dashboard client needs to reach the snapshot topic.
type MQTTSettings struct {
	BrokerHost       string `json:"broker_host"`
	BrokerPort       int    `json:"broker_port"`
	BrokerWSPort     int    `json:"mqtt_broker_ws_port"`
	DataPublishTopic string `json:"data_publish_mqtt_topic"`
	RequestTopic     string `json:"request_subscribe_mqtt_topic"`
}

// SensorLogEntry is one raw message received on a sensor topic.
type SensorLogEntry struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	MQTTTopic   string    `json:"mqtt_topic"`
	MQTTPayload string    `json:"mqtt_payload"`
}
