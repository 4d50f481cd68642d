package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
)

const (
	defaultRelayChannel = "xenon:cache:invalidate"
	defaultCloseTimeout = 5 * time.Second
)

// RedisConfig holds the connection settings of the relay
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// redisPublisher is the part of *redis.Client the relay publishes through
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// relayMessage is the payload exchanged on the Pub/Sub channel
type relayMessage struct {
	Origin   string               `json:"origin"`
	Entity   catalog.Entity       `json:"entity"`
	Action   catalog.ChangeAction `json:"action"`
	RecordID int64                `json:"record_id,omitempty"`
	SentAt   int64                `json:"sent_at"`
}

// RedisInvalidationRelay forwards local collection changes to other dashboard
// instances over Redis Pub/Sub and republishes their changes on the local bus.
type RedisInvalidationRelay struct {
	client     *redis.Client
	publisher  redisPublisher
	ownsClient bool
	channel    string
	origin     string
	bus        shared.EventPublisher
	logger     *zap.Logger
	cancelFn   context.CancelFunc
	doneCh     chan struct{}
	doneOnce   sync.Once
	mu         sync.Mutex
	isRunning  bool
}

// RedisRelayOption is a functional option for configuring the relay
type RedisRelayOption func(*RedisInvalidationRelay)

// WithRelayChannel sets the Pub/Sub channel name
func WithRelayChannel(channel string) RedisRelayOption {
	return func(r *RedisInvalidationRelay) {
		if channel != "" {
			r.channel = channel
		}
	}
}

// WithRelayLogger sets the logger
func WithRelayLogger(logger *zap.Logger) RedisRelayOption {
	return func(r *RedisInvalidationRelay) {
		r.logger = logger
	}
}

// NewRedisInvalidationRelay connects to Redis and creates a relay publishing remote
// changes on bus.
func NewRedisInvalidationRelay(cfg RedisConfig, bus shared.EventPublisher, opts ...RedisRelayOption) (*RedisInvalidationRelay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r := newRelay(client, client, bus, opts...)
	r.ownsClient = true
	return r, nil
}

// NewRedisInvalidationRelayWithClient creates a relay on an existing client.
// The caller keeps ownership of the client.
func NewRedisInvalidationRelayWithClient(client *redis.Client, bus shared.EventPublisher, opts ...RedisRelayOption) *RedisInvalidationRelay {
	return newRelay(client, client, bus, opts...)
}

func newRelay(client *redis.Client, pub redisPublisher, bus shared.EventPublisher, opts ...RedisRelayOption) *RedisInvalidationRelay {
	r := &RedisInvalidationRelay{
		client:    client,
		publisher: pub,
		channel:   defaultRelayChannel,
		origin:    uuid.NewString(),
		bus:       bus,
		logger:    zap.NewNop(),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle forwards a locally published collection change to the channel.
// Changes that arrived from the channel are not sent back.
func (r *RedisInvalidationRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	ev, ok := event.(*catalog.CollectionChangedEvent)
	if !ok || ev.Remote {
		return nil
	}

	data, err := json.Marshal(relayMessage{
		Origin:   r.origin,
		Entity:   ev.Entity,
		Action:   ev.Action,
		RecordID: ev.RecordID,
		SentAt:   time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal relay message: %w", err)
	}
	if err := r.publisher.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Error("Failed to publish invalidation",
			zap.String("channel", r.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	r.logger.Debug("Published invalidation",
		zap.String("entity", string(ev.Entity)),
		zap.String("action", string(ev.Action)))
	return nil
}

// Run subscribes to the channel and republishes remote changes until ctx is done
// or Close is called. It blocks; call it in a goroutine.
func (r *RedisInvalidationRelay) Run(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("relay has no redis client")
	}

	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	r.isRunning = true
	subCtx, cancel := context.WithCancel(ctx)
	r.cancelFn = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
		r.markDone()
	}()

	pubsub := r.client.Subscribe(subCtx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	r.logger.Info("Subscribed to invalidation channel", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			r.logger.Info("Invalidation subscription stopped")
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				r.logger.Warn("Invalidation channel closed")
				return nil
			}
			r.handlePayload(subCtx, msg.Payload)
		}
	}
}

// handlePayload decodes one channel message and republishes it locally
func (r *RedisInvalidationRelay) handlePayload(ctx context.Context, payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Error("Failed to unmarshal invalidation",
			zap.String("payload", payload),
			zap.Error(err))
		return
	}
	if msg.Origin == r.origin {
		return
	}
	if _, err := catalog.ParseEntity(string(msg.Entity)); err != nil {
		r.logger.Warn("Ignoring invalidation for unknown entity", zap.String("entity", string(msg.Entity)))
		return
	}

	ev := catalog.NewCollectionChangedEvent(msg.Entity, msg.Action, msg.RecordID)
	ev.Remote = true
	if err := r.bus.Publish(ctx, ev); err != nil {
		r.logger.Error("Failed to republish remote invalidation", zap.Error(err))
	}
}

func (r *RedisInvalidationRelay) markDone() {
	r.doneOnce.Do(func() {
		close(r.doneCh)
	})
}

// Close stops the subscription and releases the client if the relay owns it
func (r *RedisInvalidationRelay) Close() error {
	r.mu.Lock()
	cancelFn := r.cancelFn
	r.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-r.doneCh:
		case <-time.After(defaultCloseTimeout):
			r.logger.Warn("Timeout waiting for subscription to stop")
		}
	}

	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}

var _ shared.EventHandler = (*RedisInvalidationRelay)(nil)
