package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
)

// CachedAnalytics кэширует сводку аналитики, остальные вызовы проксирует как есть.
type CachedAnalytics struct {
	domain.Worker
	cache domain.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedAnalytics оборачивает воркер кэшем сводок.
func NewCachedAnalytics(w domain.Worker, cache domain.Cache, ttl time.Duration, logger zerolog.Logger) *CachedAnalytics {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedAnalytics{Worker: w, cache: cache, ttl: ttl, log: logger}
}

func analyticsKey(tf domain.TimeFrame) string {
	return "worker:analytics:" + string(tf)
}

// AnalyticsSummary отдаёт сводку из кэша или запрашивает воркер и кладёт её в кэш.
// Ошибки кэша не прерывают запрос.
func (c *CachedAnalytics) AnalyticsSummary(ctx context.Context, tf domain.TimeFrame) (domain.AnalyticsSummary, error) {
	key := analyticsKey(tf)
	if raw, err := c.cache.Get(key); err == nil {
		var summary domain.AnalyticsSummary
		if err := json.Unmarshal(raw, &summary); err == nil {
			return summary, nil
		}
	}

	summary, err := c.Worker.AnalyticsSummary(ctx, tf)
	if err != nil {
		return domain.AnalyticsSummary{}, err
	}
	raw, err := json.Marshal(summary)
	if err == nil {
		err = c.cache.Set(key, raw, c.ttl)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("worker: analytics cache write failed")
	}
	return summary, nil
}
