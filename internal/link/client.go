package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// probeTimeout bounds the session liveness probe. The band issues one per
// repaint, so an unreachable Redis must read as "disconnected" quickly
// rather than stall the display.
const probeTimeout = 250 * time.Millisecond

// announceBeacon is the payload of every advertising beacon.
const announceBeacon = "announce"

// Client provides device-scoped Redis operations for the companion link.
// All keys and channels are automatically namespaced with the device name.
// The client is thread-safe and carries both halves of the link: the band
// uses Connected/Notify/Announce/Listen, the companion uses the session
// and send methods.
type Client struct {
	rdb        *redis.Client
	deviceName string
}

// NewClient creates a link client for the named band.
//
// Returns an error if deviceName is empty.
func NewClient(redisOpts *redis.Options, deviceName string) (*Client, error) {
	if deviceName == "" {
		return nil, fmt.Errorf("device name cannot be empty")
	}

	return &Client{
		rdb:        redis.NewClient(redisOpts),
		deviceName: deviceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Band side

// Connected reports whether a companion currently holds the session key.
// The probe is bounded by probeTimeout and failure-tolerant: an
// unreachable Redis reads as disconnected, not as an error.
func (c *Client) Connected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	exists, err := c.rdb.Exists(ctx, SessionKey(c.deviceName)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// Notify pushes one payload to the companion. Delivering to zero
// subscribers returns a LINK_CLOSED error, the same way a notification to
// a central that left range fails.
func (c *Client) Notify(ctx context.Context, payload []byte) error {
	receivers, err := c.rdb.Publish(ctx, NotificationsChannel(c.deviceName), payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	if receivers == 0 {
		return device.NewLinkClosedError()
	}
	return nil
}

// Announce publishes an advertising beacon. Announcing with nobody
// scanning is normal and not an error.
func (c *Client) Announce(ctx context.Context) error {
	if err := c.rdb.Publish(ctx, PresenceChannel(c.deviceName), announceBeacon).Err(); err != nil {
		return fmt.Errorf("failed to publish announce beacon: %w", err)
	}
	return nil
}

// CommandSubscription represents an active Pub/Sub subscription to the
// band's command channel. Caller must call Close() when done to clean up
// resources. Payloads are delivered raw; parsing is the consumer's job.
type CommandSubscription struct {
	payloads <-chan []byte
	cancel   func()
	once     sync.Once
}

// Payloads returns the channel of raw command payloads.
// The channel is closed when the subscription is closed or the context is
// cancelled.
func (s *CommandSubscription) Payloads() <-chan []byte {
	return s.payloads
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *CommandSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Listen subscribes to the band's command channel.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Payloads are delivered on a buffered channel (size 10) to prevent
// blocking. A slow consumer can lose messages to Redis Pub/Sub's
// at-most-once delivery.
func (c *Client) Listen(ctx context.Context) (*CommandSubscription, error) {
	pubsub := c.rdb.Subscribe(ctx, CommandsChannel(c.deviceName))

	payloadsChan := make(chan []byte, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go forwardPayloads(subCtx, pubsub, payloadsChan)

	return &CommandSubscription{
		payloads: payloadsChan,
		cancel:   cancelFunc,
	}, nil
}

// Companion side

// EstablishSession marks a companion as connected by setting the session
// key with a TTL. Calling it again refreshes the TTL; the companion must
// do so before the TTL lapses or the band sees a disconnect.
func (c *Client) EstablishSession(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if err := c.rdb.Set(ctx, SessionKey(c.deviceName), "connected", ttl).Err(); err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	return nil
}

// EndSession drops the session key immediately rather than waiting for
// the TTL to lapse.
func (c *Client) EndSession(ctx context.Context) error {
	if err := c.rdb.Del(ctx, SessionKey(c.deviceName)).Err(); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Send publishes one raw command payload to the band.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	if err := c.rdb.Publish(ctx, CommandsChannel(c.deviceName), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish command: %w", err)
	}
	return nil
}

// NotificationSubscription represents an active Pub/Sub subscription to
// the band's notification channel. Caller must call Close() when done.
type NotificationSubscription struct {
	payloads <-chan []byte
	cancel   func()
	once     sync.Once
}

// Payloads returns the channel of raw notification payloads.
func (s *NotificationSubscription) Payloads() <-chan []byte {
	return s.payloads
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
func (s *NotificationSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeNotifications subscribes to the band's notification channel.
// Caller must call subscription.Close() when done.
func (c *Client) SubscribeNotifications(ctx context.Context) (*NotificationSubscription, error) {
	pubsub := c.rdb.Subscribe(ctx, NotificationsChannel(c.deviceName))

	payloadsChan := make(chan []byte, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go forwardPayloads(subCtx, pubsub, payloadsChan)

	return &NotificationSubscription{
		payloads: payloadsChan,
		cancel:   cancelFunc,
	}, nil
}

// forwardPayloads pumps raw message payloads from a Pub/Sub subscription
// into out until the context is cancelled or the subscription closes.
func forwardPayloads(ctx context.Context, pubsub *redis.PubSub, out chan<- []byte) {
	defer close(out)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}
