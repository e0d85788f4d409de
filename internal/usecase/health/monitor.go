package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/infra/metrics"
)

// DefaultInterval задаёт период опроса воркера.
const DefaultInterval = 30 * time.Second

// Checker проверяет доступность воркера.
type Checker interface {
	Health(ctx context.Context) error
}

// Monitor периодически опрашивает воркер и хранит последний результат.
// До первой успешной проверки воркер считается офлайн.
type Monitor struct {
	checker  Checker
	interval time.Duration
	online   atomic.Bool
	log      zerolog.Logger
}

// NewMonitor создаёт монитор.
func NewMonitor(checker Checker, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{checker: checker, interval: interval, log: logger}
}

// Online сообщает результат последней проверки.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Run проверяет сразу, затем каждые interval до отмены ctx.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()
	err := m.checker.Health(checkCtx)
	online := err == nil
	if prev := m.online.Swap(online); prev != online {
		if online {
			m.log.Info().Msg("health: worker online")
		} else {
			m.log.Warn().Err(err).Msg("health: worker offline")
		}
	}
	metrics.SetWorkerOnline(online)
}
