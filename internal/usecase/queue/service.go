package queue

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

var (
	// ErrEmptyTopic возвращается, если тема новой задачи пуста.
	ErrEmptyTopic = errors.New("topic is required")
	// ErrDeleteNotConfirmed возвращается при удалении без подтверждения.
	ErrDeleteNotConfirmed = errors.New("delete must be confirmed")
)

const (
	defaultTone = "Hype"

	sourceSystem = "System"
	sourceDB     = "DB"
	sourceWorker = "Worker"
)

var defaultPlatforms = []domain.Platform{domain.PlatformTikTok, domain.PlatformYouTube}

var nicheCatalog = map[string]string{
	"tech":       "Tech News",
	"motivation": "Motivation",
	"finance":    "Finance",
	"facts":      "Fun Facts",
}

// NicheLabel возвращает тему ниши по ключу каталога. Неизвестный ключ даёт "General".
func NicheLabel(key string) string {
	if label, ok := nicheCatalog[strings.ToLower(strings.TrimSpace(key))]; ok {
		return label
	}
	return "General"
}

// Journal принимает записи, видимые оператору.
type Journal interface {
	Info(source, message string)
	Warn(source, message string)
	Error(source, message string)
}

// Service управляет очередью задач: кэшем, оптимистичными правками и перечитыванием.
type Service struct {
	repo    domain.ContentRepo
	store   *Store
	journal Journal
	log     zerolog.Logger
}

// NewService создаёт сервис очереди.
func NewService(repo domain.ContentRepo, store *Store, journal Journal, logger zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, journal: journal, log: logger}
}

// Store возвращает кэш сервиса.
func (s *Service) Store() *Store {
	return s.store
}

// Resync перечитывает всю очередь. При ошибке кэш не меняется.
func (s *Service) Resync(ctx context.Context) error {
	start := time.Now()
	startGen := s.store.Generation()

	rows, err := s.repo.ListContent(ctx)
	if err != nil {
		metrics.ObserveResync(start, 0, 0, err)
		s.log.Error().Err(err).Msg("queue: resync failed")
		s.journal.Error(sourceDB, "Failed to fetch queue: "+err.Error())
		return fmt.Errorf("получение очереди: %w", err)
	}

	valid := make([]domain.ContentItem, 0, len(rows))
	quarantined := 0
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			quarantined++
			s.log.Warn().Err(err).Str("id", row.ID).Msg("queue: row quarantined")
			continue
		}
		valid = append(valid, row)
	}
	if quarantined > 0 {
		s.journal.Warn(sourceDB, fmt.Sprintf("Skipped %d malformed rows", quarantined))
	}

	s.store.Replace(valid, startGen)
	metrics.ObserveResync(start, s.store.Len(), quarantined, nil)
	s.log.Debug().Int("items", len(valid)).Int("quarantined", quarantined).Msg("queue: resync done")
	return nil
}

// CreateItem создаёт нишу и черновик одной транзакцией и выбирает новую задачу.
func (s *Service) CreateItem(ctx context.Context, topic, nicheKey string) (domain.ContentItem, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.ContentItem{}, ErrEmptyTopic
	}
	item, niche, err := s.repo.CreateDraft(ctx, domain.CreateDraftParams{
		UserEmail: domain.DemoUserEmail,
		Topic:     NicheLabel(nicheKey),
		Tone:      defaultTone,
		Title:     topic,
		Platforms: append([]domain.Platform(nil), defaultPlatforms...),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("queue: create failed")
		s.journal.Error(sourceDB, "Failed to create project: "+err.Error())
		return domain.ContentItem{}, fmt.Errorf("создание задачи: %w", err)
	}
	item.Niche = domain.NicheSummary{Topic: niche.Topic}

	s.store.Prepend(item)
	s.store.Select(item.ID)
	s.journal.Info(sourceSystem, "Created project: "+topic)
	return item, nil
}

// UpdateItem записывает изменения удалённо, затем применяет их к кэшу.
// Смена статуса проверяется машиной состояний от имени пользователя.
func (s *Service) UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) (domain.ContentItem, error) {
	current, ok := s.store.Get(id)
	if !ok {
		return domain.ContentItem{}, domain.ErrItemNotFound
	}
	if patch.Empty() {
		return current, nil
	}
	if patch.Status != nil {
		if err := domain.Transition(current.Status, *patch.Status, domain.ActorUser); err != nil {
			return domain.ContentItem{}, err
		}
		normalized, _ := domain.ParseStatus(string(*patch.Status))
		patch.Status = &normalized
	}

	if err := s.repo.UpdateContent(ctx, id, patch); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("queue: update failed")
		s.journal.Error(sourceDB, "Failed to update project: "+err.Error())
		return domain.ContentItem{}, fmt.Errorf("обновление задачи: %w", err)
	}

	updated, ok := s.store.Patch(id, patch)
	if !ok {
		// Задача пропала из кэша во время записи: следующий resync её вернёт.
		return patch.Apply(current), nil
	}
	return updated, nil
}

// DeleteItem удаляет задачу после явного подтверждения.
func (s *Service) DeleteItem(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}
	if err := s.repo.DeleteContent(ctx, id); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("queue: delete failed")
		s.journal.Error(sourceDB, "Failed to delete project: "+err.Error())
		return fmt.Errorf("удаление задачи: %w", err)
	}
	s.store.Remove(id)
	s.journal.Info(sourceSystem, "Deleted project "+id)
	return nil
}

// StartAutomation переводит черновик в scripting, что подхватывает воркер.
func (s *Service) StartAutomation(ctx context.Context, id string) (domain.ContentItem, error) {
	return s.sendToWorker(ctx, id)
}

// RestartAutomation повторно запускает завершённую задачу. video_url и error_log не очищаются.
func (s *Service) RestartAutomation(ctx context.Context, id string) (domain.ContentItem, error) {
	return s.sendToWorker(ctx, id)
}

func (s *Service) sendToWorker(ctx context.Context, id string) (domain.ContentItem, error) {
	status := domain.StatusScripting
	item, err := s.UpdateItem(ctx, id, domain.ItemPatch{Status: &status})
	if err != nil {
		return domain.ContentItem{}, err
	}
	s.journal.Info(sourceWorker, "Job sent to Viral Engine...")
	return item, nil
}

// Items возвращает задачи из кэша с фильтром по названию.
func (s *Service) Items(query string) []domain.ContentItem {
	return s.store.Items(query)
}

// Select выбирает задачу и возвращает её.
func (s *Service) Select(id string) (domain.ContentItem, error) {
	if !s.store.Select(id) {
		return domain.ContentItem{}, domain.ErrItemNotFound
	}
	item, _ := s.store.Selected()
	return item, nil
}
