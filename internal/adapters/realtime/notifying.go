package realtime

import (
	"context"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
)

// Publisher рассылает уведомление об изменении очереди.
type Publisher interface {
	Publish(ctx context.Context, op string) error
}

// NotifyingRepo публикует событие после каждой успешной записи в очередь.
// Нужен для Redis-канала: триггер Postgres в него не пишет.
type NotifyingRepo struct {
	domain.ContentRepo
	pub Publisher
	log zerolog.Logger
}

// NewNotifyingRepo оборачивает репозиторий очереди.
func NewNotifyingRepo(repo domain.ContentRepo, pub Publisher, logger zerolog.Logger) *NotifyingRepo {
	return &NotifyingRepo{ContentRepo: repo, pub: pub, log: logger}
}

func (r *NotifyingRepo) CreateDraft(ctx context.Context, params domain.CreateDraftParams) (domain.ContentItem, domain.NicheProfile, error) {
	item, niche, err := r.ContentRepo.CreateDraft(ctx, params)
	if err == nil {
		r.publish(ctx, "INSERT")
	}
	return item, niche, err
}

func (r *NotifyingRepo) UpdateContent(ctx context.Context, id string, patch domain.ItemPatch) error {
	err := r.ContentRepo.UpdateContent(ctx, id, patch)
	if err == nil {
		r.publish(ctx, "UPDATE")
	}
	return err
}

func (r *NotifyingRepo) DeleteContent(ctx context.Context, id string) error {
	err := r.ContentRepo.DeleteContent(ctx, id)
	if err == nil {
		r.publish(ctx, "DELETE")
	}
	return err
}

// publish не возвращает ошибку: запись уже выполнена, потерянное событие исправит следующий resync.
func (r *NotifyingRepo) publish(ctx context.Context, op string) {
	if err := r.pub.Publish(ctx, op); err != nil {
		r.log.Warn().Err(err).Str("op", op).Msg("realtime: publish failed")
	}
}
