package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrItemNotFound возвращается, когда задача отсутствует в хранилище.
	ErrItemNotFound = errors.New("content item not found")
	// ErrNicheNotFound возвращается, когда профиль ниши отсутствует.
	ErrNicheNotFound = errors.New("niche profile not found")
)

// ContentRepo управляет очередью content_queue.
type ContentRepo interface {
	// ListContent возвращает всю очередь, отсортированную по created_at по убыванию.
	ListContent(ctx context.Context) ([]ContentItem, error)
	// CreateDraft атомарно создаёт (при необходимости) пользователя, нишу и черновик.
	CreateDraft(ctx context.Context, params CreateDraftParams) (ContentItem, NicheProfile, error)
	UpdateContent(ctx context.Context, id string, patch ItemPatch) error
	DeleteContent(ctx context.Context, id string) error
}

// NicheRepo управляет профилями ниш.
type NicheRepo interface {
	GetNiche(ctx context.Context, id string) (NicheProfile, error)
	ListActiveNiches(ctx context.Context) ([]NicheProfile, error)
	// SaveNicheSettings записывает все поля настроек одной операцией.
	SaveNicheSettings(ctx context.Context, id string, settings NicheSettings) error
}

// ConnectionRepo читает подключённые аккаунты площадок.
type ConnectionRepo interface {
	ListConnections(ctx context.Context) ([]SocialConnection, error)
}

// ChangeEvent описывает уведомление об изменении очереди. Содержимое не используется для слияния.
type ChangeEvent struct {
	Op         string
	ReceivedAt time.Time
}

// Subscription представляет открытый канал уведомлений.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// ChangeFeed открывает подписку на изменения content_queue.
type ChangeFeed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Worker описывает HTTP-поверхность внешнего воркера.
type Worker interface {
	Health(ctx context.Context) error
	AnalyticsSummary(ctx context.Context, tf TimeFrame) (AnalyticsSummary, error)
	AuthURL(platform Platform) string
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
