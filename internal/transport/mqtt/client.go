// Package mqtt wraps an autopaho connection manager with the small surface
// the node and the server bridge need: connect, publish, subscribe.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"parking_spot/internal/logger"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// ErrNotConnected is returned by Publish while the broker session is down.
var ErrNotConnected = errors.New("mqtt: not connected")

const (
	defaultKeepAlive        = 30
	defaultReconnectBackoff = 5 * time.Second
)

// Config describes the broker session.
type Config struct {
	Broker         string
	Username       string
	Password       string
	ClientID       string
	ConnectTimeout time.Duration

	// ReconnectBackoff is the fixed wait between connection attempts made
	// by the connection manager.
	ReconnectBackoff time.Duration
	KeepAlive        uint16
}

// Handler receives one inbound message.
type Handler func(topic string, payload []byte)

type subscription struct {
	filter  string
	handler Handler
}

// Client is safe for concurrent use.
type Client struct {
	cfg Config
	log *logger.Logger

	mu   sync.Mutex
	cm   *autopaho.ConnectionManager
	subs []subscription

	connected atomic.Bool

	// start and await are replaced in tests.
	start func(ctx context.Context) error
	await func(ctx context.Context) error
}

// New returns an unstarted client.
func New(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = defaultReconnectBackoff
	}
	c := &Client{cfg: cfg, log: log.Named("mqtt")}
	c.start = c.Start
	c.await = c.awaitManager
	return c
}

// Start creates the connection manager. autopaho keeps reconnecting in the
// background until ctx is done; Start itself does not wait for the broker.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cm != nil {
		return nil
	}

	brokerURL, err := url.Parse(c.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	cm, err := autopaho.NewConnection(ctx, c.clientConfig(ctx, brokerURL))
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.cm = cm
	c.log.Infow("mqtt_started", "broker", c.cfg.Broker, "client_id", c.cfg.ClientID)
	return nil
}

// clientConfig builds the autopaho settings. Reconnects use a constant
// backoff so the configured period is the real retry cadence.
func (c *Client) clientConfig(ctx context.Context, brokerURL *url.URL) autopaho.ClientConfig {
	return autopaho.ClientConfig{
		ServerUrls:       []*url.URL{brokerURL},
		KeepAlive:        c.cfg.KeepAlive,
		ConnectUsername:  c.cfg.Username,
		ConnectPassword:  []byte(c.cfg.Password),
		ConnectTimeout:   c.cfg.ConnectTimeout,
		ReconnectBackoff: autopaho.NewConstantBackoff(c.cfg.ReconnectBackoff),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			c.onConnectionUp(ctx, cm)
		},
		OnConnectError: func(err error) {
			c.connected.Store(false)
			c.log.Warnw("mqtt_connect_error", "broker", c.cfg.Broker, "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: c.cfg.ClientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					c.dispatch(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
			OnClientError: func(err error) {
				c.connected.Store(false)
				c.log.Warnw("mqtt_client_error", "error", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				c.connected.Store(false)
				c.log.Warnw("mqtt_server_disconnect", "reason_code", d.ReasonCode)
			},
		},
	}
}

// Connected reports whether the broker session is currently up.
func (c *Client) Connected() bool { return c.connected.Load() }

// Reconnect starts the client if needed and waits up to the connect timeout
// for the session to come up.
func (c *Client) Reconnect(ctx context.Context) error {
	if err := c.start(ctx); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	if err := c.await(waitCtx); err != nil {
		return fmt.Errorf("await mqtt connection: %w", err)
	}
	// The manager signals the connection before it runs OnConnectionUp.
	c.connected.Store(true)
	return nil
}

func (c *Client) awaitManager(ctx context.Context) error {
	cm := c.manager()
	if cm == nil {
		return ErrNotConnected
	}
	return cm.AwaitConnection(ctx)
}

// Publish sends payload at QoS 0 without retain.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	cm := c.manager()
	if cm == nil || !c.Connected() {
		return ErrNotConnected
	}
	if _, err := cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     0,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers handler for filter. The subscription is (re)issued on
// every connection, so it may be called before the broker is reachable.
func (c *Client) Subscribe(ctx context.Context, filter string, handler Handler) error {
	c.mu.Lock()
	c.subs = append(c.subs, subscription{filter: filter, handler: handler})
	cm := c.cm
	c.mu.Unlock()

	if cm == nil || !c.Connected() {
		return nil
	}
	return subscribe(ctx, cm, filter)
}

// Disconnect closes the session.
func (c *Client) Disconnect(ctx context.Context) error {
	cm := c.manager()
	if cm == nil {
		return nil
	}
	c.connected.Store(false)
	return cm.Disconnect(ctx)
}

func (c *Client) manager() *autopaho.ConnectionManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cm
}

func (c *Client) onConnectionUp(ctx context.Context, cm *autopaho.ConnectionManager) {
	c.connected.Store(true)
	c.log.Infow("mqtt_connection_up", "broker", c.cfg.Broker)

	if cm == nil {
		return
	}
	for _, f := range c.filters() {
		if err := subscribe(ctx, cm, f); err != nil {
			c.log.Warnw("mqtt_subscribe_failed", "filter", f, "error", err)
		}
	}
}

func (c *Client) filters() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s.filter)
	}
	return out
}

func (c *Client) dispatch(topic string, payload []byte) {
	c.mu.Lock()
	subs := append([]subscription(nil), c.subs...)
	c.mu.Unlock()

	for _, s := range subs {
		if MatchTopic(s.filter, topic) {
			s.handler(topic, payload)
		}
	}
}

func subscribe(ctx context.Context, cm *autopaho.ConnectionManager, filter string) error {
	if _, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: 0}},
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}
	return nil
}
