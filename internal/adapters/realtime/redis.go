package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/metrics"
)

// RedisFeed получает уведомления об изменениях через Redis pub/sub.
type RedisFeed struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

var _ domain.ChangeFeed = (*RedisFeed)(nil)

// NewRedisFeed создаёт подписчика на канал Redis.
func NewRedisFeed(client *redis.Client, channel string, logger zerolog.Logger) *RedisFeed {
	return &RedisFeed{client: client, channel: channel, log: logger}
}

// Subscribe подписывается и ждёт подтверждения от сервера.
func (f *RedisFeed) Subscribe(ctx context.Context) (domain.Subscription, error) {
	start := time.Now()
	ps := f.client.Subscribe(ctx, f.channel)
	_, err := ps.Receive(ctx)
	metrics.ObserveNetworkRequest("redis", "subscribe", f.channel, start, err)
	if err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	f.log.Debug().Str("channel", f.channel).Msg("realtime: redis subscribed")
	return newRedisSubscription(ps), nil
}

// Publish сообщает подписчикам об изменении очереди.
func (f *RedisFeed) Publish(ctx context.Context, op string) error {
	start := time.Now()
	err := f.client.Publish(ctx, f.channel, op).Err()
	metrics.ObserveNetworkRequest("redis", "publish", f.channel, start, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", f.channel, err)
	}
	return nil
}

// messageSource покрывает используемую часть *redis.PubSub.
type messageSource interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

type redisSubscription struct {
	ps     messageSource
	events chan domain.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func newRedisSubscription(ps messageSource) *redisSubscription {
	sub := &redisSubscription{
		ps:     ps,
		events: make(chan domain.ChangeEvent, eventBuffer),
		done:   make(chan struct{}),
	}
	go sub.loop()
	return sub
}

func (s *redisSubscription) loop() {
	defer close(s.done)
	defer close(s.events)
	for msg := range s.ps.Channel() {
		deliver(s.events, domain.ChangeEvent{Op: strings.ToUpper(msg.Payload), ReceivedAt: time.Now()})
	}
}

func (s *redisSubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

// Close отписывается. Канал событий закрывается после остановки чтения.
func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
		<-s.done
	})
	return err
}
