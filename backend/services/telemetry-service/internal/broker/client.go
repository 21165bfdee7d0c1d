package broker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/metrics"
)

const defaultKeepAlive = 60 * time.Second

// MessageHandler receives raw payloads from a subscribed topic. Handlers run
// on paho's callback goroutine and must not block.
type MessageHandler func(topic string, payload []byte)

// Config for the broker connection.
type Config struct {
	BrokerURL      string
	ClientID       string
	ConnectTimeout time.Duration
}

// Client wraps the paho MQTT client. Subscriptions registered through it are
// replayed on every (re)connect, so a broker restart does not silently leave
// the listener deaf.
type Client struct {
	paho    mqtt.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu       sync.Mutex
	handlers map[string]MessageHandler
}

// NewClient builds the client. Connect must be called before publishing.
func NewClient(cfg Config, m *metrics.Metrics, logger *zap.Logger) (*Client, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("broker: broker url is empty")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	c := &Client{
		logger:   logger,
		metrics:  m,
		timeout:  cfg.ConnectTimeout,
		handlers: make(map[string]MessageHandler),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.paho = mqtt.NewClient(opts)
	return c, nil
}

// Connect performs the initial broker connection. Only this attempt carries a
// timeout; a connection lost later is retried by paho while a failed first
// connect is surfaced so the supervising process can restart the service.
func (c *Client) Connect() error {
	token := c.paho.Connect()
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("broker: connect timed out after %s", c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("broker: connect: %w", err)
	}
	return nil
}

// Subscribe registers a handler for a topic. Safe to call before Connect; the
// actual MQTT subscribe happens in the OnConnect callback.
func (c *Client) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	c.handlers[topic] = handler
	c.mu.Unlock()

	if c.paho.IsConnected() {
		c.subscribe(topic, handler)
	}
}

// Publish sends a payload at QoS 0 without waiting for delivery.
func (c *Client) Publish(topic string, payload []byte) {
	c.paho.Publish(topic, 0, false, payload)
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (c *Client) Close() {
	c.paho.Disconnect(250)
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.logger.Info("connected to mqtt broker")
	if c.metrics != nil {
		c.metrics.BrokerConnected.Set(1)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, handler := range c.handlers {
		c.subscribe(topic, handler)
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("mqtt connection lost", zap.Error(err))
	if c.metrics != nil {
		c.metrics.BrokerConnected.Set(0)
	}
}

func (c *Client) subscribe(topic string, handler MessageHandler) {
	token := c.paho.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	go func() {
		if token.Wait() && token.Error() != nil {
			c.logger.Error("failed to subscribe", zap.String("topic", topic), zap.Error(token.Error()))
		} else {
			c.logger.Info("subscribed", zap.String("topic", topic))
		}
	}()
}
