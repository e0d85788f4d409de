package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/metrics"
)

// eventBuffer ограничивает число уведомлений, ожидающих обработки. Остальные схлопываются.
const eventBuffer = 16

// PGFeed получает уведомления через LISTEN на выделенном соединении.
type PGFeed struct {
	pool    *pgxpool.Pool
	channel string
	log     zerolog.Logger
}

var _ domain.ChangeFeed = (*PGFeed)(nil)

// NewPGFeed создаёт подписчика на канал NOTIFY.
func NewPGFeed(pool *pgxpool.Pool, channel string, logger zerolog.Logger) *PGFeed {
	return &PGFeed{pool: pool, channel: channel, log: logger}
}

// Subscribe забирает соединение из пула и выполняет LISTEN.
func (f *PGFeed) Subscribe(ctx context.Context) (domain.Subscription, error) {
	start := time.Now()
	pc, err := f.pool.Acquire(ctx)
	metrics.ObserveNetworkRequest("postgres", "acquire_listen", f.channel, start, err)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	conn := pc.Hijack()

	start = time.Now()
	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize())
	metrics.ObserveNetworkRequest("postgres", "listen", f.channel, start, err)
	if err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}

	return newPGSubscription(ctx, conn, f.log), nil
}

// notificationSource покрывает используемую часть *pgx.Conn.
type notificationSource interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type pgSubscription struct {
	conn   notificationSource
	events chan domain.ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newPGSubscription(ctx context.Context, conn notificationSource, logger zerolog.Logger) *pgSubscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &pgSubscription{
		conn:   conn,
		events: make(chan domain.ChangeEvent, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.loop(subCtx, logger)
	return sub
}

func (s *pgSubscription) loop(ctx context.Context, logger zerolog.Logger) {
	defer close(s.done)
	defer close(s.events)
	for {
		n, err := s.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error().Err(err).Msg("realtime: postgres listen failed")
			}
			return
		}
		deliver(s.events, domain.ChangeEvent{Op: strings.ToUpper(n.Payload), ReceivedAt: time.Now()})
	}
}

func (s *pgSubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

// Close прерывает ожидание и закрывает соединение.
func (s *pgSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		err = s.conn.Close(context.Background())
	})
	return err
}

// deliver кладёт событие в буфер. При переполнении событие отбрасывается:
// в очереди уже есть триггер полного перечитывания.
func deliver(ch chan<- domain.ChangeEvent, ev domain.ChangeEvent) {
	select {
	case ch <- ev:
	default:
	}
}
