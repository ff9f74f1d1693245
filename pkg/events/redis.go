package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/gatehouse-dev/gatehouse/pkg/observability"
)

// BridgeConfig holds Redis bridge construction options.
type BridgeConfig struct {
	Addr     string
	Password string
	// Channel is the pub/sub channel events travel on.
	Channel string
	Logger  *observability.Logger
}

// Bridge fans change events out across instances over Redis pub/sub. Local
// events published on the bound notifier are forwarded to the channel;
// remote events arriving on the channel are replayed into the notifier.
// Events are tagged with the forwarding bridge's origin id so a bridge never
// echoes its own messages back.
type Bridge struct {
	client   *redis.Client
	channel  string
	origin   string
	notifier *Notifier
	logger   *observability.Logger

	pubsub    *redis.PubSub
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewBridge connects to Redis and binds the notifier. Start must be called to
// begin receiving.
func NewBridge(cfg BridgeConfig, notifier *Notifier) (*Bridge, error) {
	if cfg.Channel == "" {
		cfg.Channel = "gatehouse:events"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       0, // use default DB
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Bridge{
		client:   client,
		channel:  cfg.Channel,
		origin:   uuid.NewString(),
		notifier: notifier,
		logger:   logger,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes to the channel and begins forwarding in both directions.
func (b *Bridge) Start(ctx context.Context) error {
	b.pubsub = b.client.Subscribe(ctx, b.channel)
	if _, err := b.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	// Local events with no origin have not traveled yet; forward them.
	b.notifier.Subscribe(func(evt Event) {
		if evt.Origin != "" {
			return
		}
		if err := b.Publish(context.Background(), evt); err != nil {
			b.logger.WithError(err).WithField("event_id", evt.ID).Warn("failed to forward event to Redis")
		}
	})

	go b.receive()
	return nil
}

// Publish sends one event to the channel, stamping this bridge as origin.
func (b *Bridge) Publish(ctx context.Context, evt Event) error {
	evt.Origin = b.origin
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Close stops receiving and releases the Redis connection. Idempotent.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.pubsub != nil {
			err = b.pubsub.Close()
			<-b.doneCh
		} else {
			close(b.doneCh)
		}
		if cerr := b.client.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (b *Bridge) receive() {
	defer close(b.doneCh)
	for msg := range b.pubsub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			b.logger.WithError(err).Warn("dropping undecodable event payload")
			continue
		}
		if evt.Origin == b.origin {
			continue
		}
		if err := b.notifier.Publish(evt); err != nil {
			b.logger.WithError(err).WithField("event_id", evt.ID).Warn("failed to replay remote event")
			return
		}
	}
}
