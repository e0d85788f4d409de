package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/metrics"
)

// ErrInvalidTimezone возвращается, если указан некорректный часовой пояс.
var ErrInvalidTimezone = errors.New("invalid timezone")

// ItemSource отдаёт задачи из кэша очереди.
type ItemSource interface {
	Items(query string) []domain.ContentItem
}

// Service строит общую ленту задач и прогноза.
type Service struct {
	niches domain.NicheRepo
	items  ItemSource
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

// NewService создаёт сервис. timezone задаёт, в каком поясе считаются слоты дня.
func NewService(niches domain.NicheRepo, items ItemSource, timezone string, logger zerolog.Logger) (*Service, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Service{niches: niches, items: items, loc: loc, now: time.Now, log: logger}, nil
}

// Location возвращает пояс, в котором строится прогноз.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Bots возвращает активные профили ниш. Некорректные строки пропускаются.
func (s *Service) Bots(ctx context.Context) ([]domain.NicheProfile, error) {
	bots, err := s.niches.ListActiveNiches(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение ботов: %w", err)
	}
	valid := bots[:0]
	for _, b := range bots {
		if err := b.Validate(); err != nil {
			s.log.Warn().Err(err).Msg("schedule: bot skipped")
			continue
		}
		valid = append(valid, b)
	}
	return valid, nil
}

// Timeline возвращает ленту с фильтром по названию.
// Если боты недоступны, лента состоит только из реальных задач.
func (s *Service) Timeline(ctx context.Context, query string) []domain.TimelineEntry {
	var projections []domain.TimelineEntry
	bots, err := s.Bots(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("schedule: bots unavailable, projection skipped")
	} else {
		projections = Project(bots, s.now(), s.loc)
	}
	metrics.ProjectedEntries.Set(float64(len(projections)))
	return Filter(Merge(s.items.Items(""), projections), query)
}

// LoadLocation разбирает часовой пояс, допуская регистр и пробелы вместо подчёркиваний.
// Пустое значение означает UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if strings.TrimSpace(timezone) == "" {
		return time.UTC, nil
	}
	normalized, err := normalizeTimezone(timezone)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(normalized)
}

func normalizeTimezone(raw string) (string, error) {
	candidate := strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, nil
	}
	// europe/amsterdam -> Europe/Amsterdam
	b := []byte(strings.ToLower(candidate))
	upper := true
	for i, c := range b {
		if upper && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		upper = c == '/' || c == '_' || c == '-'
	}
	if _, err := time.LoadLocation(string(b)); err == nil {
		return string(b), nil
	}
	return "", ErrInvalidTimezone
}
