package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"water_tank/internal/logger"
)

// QoS levels used by the application.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
	QoSExactlyOnce byte = 2
)

const (
	defaultPort           = 1883
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// ErrNotConnected is returned when publishing before Connect succeeded.
var ErrNotConnected = errors.New("mqtt client not connected")

// Handler receives one message delivered on a subscribed topic.
type Handler func(topic string, payload []byte)

// Config describes how to reach the broker.
type Config struct {
	BrokerHost     string
	BrokerPort     int
	Username       string
	Password       string
	ClientIDPrefix string
	ConnectTimeout time.Duration
	// PublishTimeout bounds the wait for the broker acknowledgement of one publish.
	PublishTimeout time.Duration
}

// BrokerURL returns the tcp URL of the broker.
func (c Config) BrokerURL() string {
	port := c.BrokerPort
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("tcp://%s:%d", c.BrokerHost, port)
}

type subscription struct {
	qos     byte
	handler Handler
}

// Client is a Paho MQTT client that remembers its subscriptions and restores them after reconnects.
type Client struct {
	cfg      Config
	clientID string
	log      *logger.Logger
	client   mqtt.Client

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient prepares a client with a random id "<prefix>_<uuid>". It does not connect.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	c := &Client{
		cfg:      cfg,
		clientID: NewClientID(cfg.ClientIDPrefix),
		log:      log,
		subs:     make(map[string]subscription),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(c.clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		// handlers publish and wait for the ack; with ordered delivery that
		// wait would hold up the router that delivers the ack
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	c.client = mqtt.NewClient(opts)
	return c
}

// NewClientID returns prefix + "_" + a random uuid.
func NewClientID(prefix string) string {
	if prefix == "" {
		prefix = "water_tank"
	}
	return prefix + "_" + uuid.NewString()
}

// ClientID is the identity presented to the broker.
func (c *Client) ClientID() string {
	return c.clientID
}

// Connect dials the broker and waits until connected or ctx is done.
func (c *Client) Connect(ctx context.Context) error {
	if c.log != nil {
		c.log.Infow("mqtt_connecting", "broker", c.cfg.BrokerURL(), "client_id", c.clientID)
	}
	if err := waitToken(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("connect to %s: %w", c.cfg.BrokerURL(), err)
	}
	return nil
}

// Subscribe registers h for topic. The subscription survives reconnects.
func (c *Client) Subscribe(ctx context.Context, topic string, qos byte, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: h}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		// restored by onConnect
		return nil
	}
	if err := waitToken(ctx, c.client.Subscribe(topic, qos, adapt(h))); err != nil {
		return fmt.Errorf("subscribe %q: %w", topic, err)
	}
	if c.log != nil {
		c.log.Infow("mqtt_subscribed", "topic", topic, "qos", qos)
	}
	return nil
}

// Unsubscribe drops the given topics.
func (c *Client) Unsubscribe(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	c.mu.Lock()
	for _, t := range topics {
		delete(c.subs, t)
	}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil
	}
	if err := waitToken(ctx, c.client.Unsubscribe(topics...)); err != nil {
		return fmt.Errorf("unsubscribe %v: %w", topics, err)
	}
	return nil
}

// Topics lists the currently registered subscription topics.
func (c *Client) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.subs))
	for t := range c.subs {
		out = append(out, t)
	}
	return out
}

// Publish sends payload to topic and waits for the broker acknowledgement (QoS > 0),
// at most PublishTimeout.
func (c *Client) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	if err := waitTokenFor(ctx, c.client.Publish(topic, qos, retain, payload), c.cfg.PublishTimeout); err != nil {
		return fmt.Errorf("publish %q: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	if c.client.IsConnected() {
		c.client.Disconnect(disconnectQuiesceMs)
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for t, s := range c.subs {
		subs[t] = s
	}
	c.mu.Unlock()

	if c.log != nil {
		c.log.Infow("mqtt_connected", "client_id", c.clientID, "subscriptions", len(subs))
	}
	for topic, s := range subs {
		tok := client.Subscribe(topic, s.qos, adapt(s.handler))
		if !tok.WaitTimeout(c.cfg.ConnectTimeout) || tok.Error() != nil {
			if c.log != nil {
				c.log.Errorw("mqtt_resubscribe_failed", "topic", topic, "err", tok.Error())
			}
		}
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	if c.log != nil {
		c.log.Warnw("mqtt_connection_lost", "err", err)
	}
}

// adapt turns a Handler into a Paho callback.
func adapt(h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		h(m.Topic(), m.Payload())
	}
}

// waitTokenFor is waitToken bounded by d.
func waitTokenFor(ctx context.Context, tok mqtt.Token, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return waitToken(ctx, tok)
}

func waitToken(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
