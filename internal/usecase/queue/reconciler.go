package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/metrics"
)

// Reconciler держит подписку на изменения и перечитывает очередь на каждое событие.
type Reconciler struct {
	feed       domain.ChangeFeed
	svc        *Service
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewReconciler создаёт реконсилер. retryDelay: пауза перед повторной подпиской.
func NewReconciler(feed domain.ChangeFeed, svc *Service, retryDelay time.Duration, logger zerolog.Logger) *Reconciler {
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &Reconciler{feed: feed, svc: svc, retryDelay: retryDelay, log: logger}
}

// Run работает до отмены ctx. Содержимое событий игнорируется: любое событие ведёт к полному resync.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			r.log.Error().Err(err).Msg("reconciler: subscription failed")
		} else {
			r.log.Warn().Msg("reconciler: subscription closed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.retryDelay):
		}
	}
}

func (r *Reconciler) listen(ctx context.Context) error {
	sub, err := r.feed.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil {
			r.log.Warn().Err(err).Msg("reconciler: close subscription")
		}
	}()
	r.log.Info().Msg("reconciler: subscribed")

	// Ошибка resync уже залогирована сервисом; кэш остаётся прежним до следующего события.
	_ = r.svc.Resync(ctx)

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			metrics.RealtimeEvents.Inc()
			r.log.Debug().Str("op", ev.Op).Msg("reconciler: change received")
			_ = r.svc.Resync(ctx)
		}
	}
}
