package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "gatetrack:changes:"

// RedisFeed carries change events over one Redis pub/sub channel per table.
type RedisFeed struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisFeed(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*RedisFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisFeed{client: client, logger: logger}, nil
}

func (f *RedisFeed) Publish(ctx context.Context, table string, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	if err := f.client.Publish(ctx, channelPrefix+table, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, table string) (Subscription, error) {
	channel := channelPrefix + table

	pubsub := f.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{
		feed:    f,
		channel: channel,
		pubsub:  pubsub,
		events:  make(chan Event),
		done:    make(chan struct{}),
	}
	go sub.run(ctx)

	return sub, nil
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}

type redisSubscription struct {
	feed    *RedisFeed
	channel string
	pubsub  *redis.PubSub
	events  chan Event
	done    chan struct{}
	once    sync.Once
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

// run decodes messages until the subscription is closed. A dropped connection
// is retried with capped exponential backoff so a silent feed stall does not
// strand the view forever.
func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.events)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		msg, err := s.pubsub.ReceiveMessage(ctx)
		if err != nil {
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			default:
			}

			s.feed.logger.Warn("feed receive failed, retrying",
				zap.String("channel", s.channel),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-time.After(backoff):
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			s.feed.logger.Warn("discarding malformed feed event",
				zap.String("channel", s.channel), zap.Error(err))
			continue
		}

		select {
		case s.events <- evt:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
