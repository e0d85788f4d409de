package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ContentRepo    = (*Postgres)(nil)
	_ domain.NicheRepo      = (*Postgres)(nil)
	_ domain.ConnectionRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const contentColumns = `
c.id::text, c.title, c.status, c.niche_id::text, COALESCE(n.topic, ''), c.platforms_destinations,
c.script_body, c.video_url, c.error_log, c.created_at, c.updated_at`

func scanContent(row pgx.Row) (domain.ContentItem, error) {
	var (
		item      domain.ContentItem
		status    string
		platforms []string
	)
	err := row.Scan(&item.ID, &item.Title, &status, &item.NicheID, &item.Niche.Topic, &platforms,
		&item.ScriptBody, &item.VideoURL, &item.ErrorLog, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.ContentItem{}, err
	}
	item.Status = domain.ContentStatus(status)
	item.Platforms = domain.PlatformsFromStrings(platforms)
	return item, nil
}

// ListContent возвращает всю очередь, новые задачи первыми.
func (p *Postgres) ListContent(ctx context.Context) ([]domain.ContentItem, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+contentColumns+`
FROM content_queue c
LEFT JOIN niche_profiles n ON n.id = c.niche_id
ORDER BY c.created_at DESC
`)
	metrics.ObserveNetworkRequest("postgres", "content_queue_list", "content_queue", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateDraft создаёт пользователя (при необходимости), нишу и черновик в одной транзакции.
func (p *Postgres) CreateDraft(ctx context.Context, params domain.CreateDraftParams) (domain.ContentItem, domain.NicheProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "content_queue", start, err)
	if err != nil {
		return domain.ContentItem{}, domain.NicheProfile{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO users (email) VALUES ($1)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING id::text
`, params.UserEmail).Scan(&userID)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if err != nil {
		return domain.ContentItem{}, domain.NicheProfile{}, fmt.Errorf("upsert user: %w", err)
	}

	start = time.Now()
	niche, err := scanNiche(tx.QueryRow(ctx, `
INSERT INTO niche_profiles (user_id, topic, tone)
VALUES ($1::uuid, $2, $3)
RETURNING `+nicheColumns, userID, params.Topic, params.Tone))
	metrics.ObserveNetworkRequest("postgres", "niche_profiles_insert", "niche_profiles", start, err)
	if err != nil {
		return domain.ContentItem{}, domain.NicheProfile{}, fmt.Errorf("insert niche: %w", err)
	}

	start = time.Now()
	item, err := scanContent(tx.QueryRow(ctx, `
WITH c AS (
    INSERT INTO content_queue (niche_id, title, status, platforms_destinations)
    VALUES ($1::uuid, $2, $3, $4)
    RETURNING *
)
SELECT `+contentColumns+`
FROM c LEFT JOIN niche_profiles n ON n.id = $1::uuid
`, niche.ID, params.Title, string(domain.StatusDraft), domain.PlatformStrings(params.Platforms)))
	metrics.ObserveNetworkRequest("postgres", "content_queue_insert", "content_queue", start, err)
	if err != nil {
		return domain.ContentItem{}, domain.NicheProfile{}, fmt.Errorf("insert content: %w", err)
	}
	item.Niche.Topic = niche.Topic

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "content_queue", start, err)
	if err != nil {
		return domain.ContentItem{}, domain.NicheProfile{}, err
	}
	return item, niche, nil
}

// UpdateContent записывает только заданные поля патча.
func (p *Postgres) UpdateContent(ctx context.Context, id string, patch domain.ItemPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrItemNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE content_queue
SET title = COALESCE($2, title),
    script_body = COALESCE($3, script_body),
    status = COALESCE($4, status)
WHERE id = $1::uuid
`, id, patch.Title, patch.ScriptBody, status)
	metrics.ObserveNetworkRequest("postgres", "content_queue_update", "content_queue", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// DeleteContent удаляет задачу.
func (p *Postgres) DeleteContent(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrItemNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM content_queue WHERE id = $1::uuid`, id)
	metrics.ObserveNetworkRequest("postgres", "content_queue_delete", "content_queue", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

const nicheColumns = `
id::text, user_id::text, topic, tone, is_active, schedule_config, target_platforms, last_run_at, created_at`

func scanNiche(row pgx.Row) (domain.NicheProfile, error) {
	var (
		niche     domain.NicheProfile
		schedule  []byte
		platforms []string
	)
	err := row.Scan(&niche.ID, &niche.UserID, &niche.Topic, &niche.Tone, &niche.IsActive,
		&schedule, &platforms, &niche.LastRunAt, &niche.CreatedAt)
	if err != nil {
		return domain.NicheProfile{}, err
	}
	niche.ScheduleConfig = decodeSchedule(schedule)
	niche.TargetPlatforms = domain.PlatformsFromStrings(platforms)
	return niche, nil
}

// decodeSchedule разбирает schedule_config. Повреждённый JSON даёт пустую конфигурацию.
func decodeSchedule(raw []byte) domain.ScheduleConfig {
	var cfg domain.ScheduleConfig
	if len(raw) == 0 {
		return cfg
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.ScheduleConfig{}
	}
	return cfg
}

// GetNiche возвращает профиль ниши.
func (p *Postgres) GetNiche(ctx context.Context, id string) (domain.NicheProfile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NicheProfile{}, domain.ErrNicheNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	niche, err := scanNiche(p.pool.QueryRow(ctx, `SELECT `+nicheColumns+` FROM niche_profiles WHERE id = $1::uuid`, id))
	metrics.ObserveNetworkRequest("postgres", "niche_profiles_get", "niche_profiles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NicheProfile{}, domain.ErrNicheNotFound
	}
	return niche, err
}

// ListActiveNiches возвращает активные профили ниш.
func (p *Postgres) ListActiveNiches(ctx context.Context) ([]domain.NicheProfile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+nicheColumns+` FROM niche_profiles WHERE is_active ORDER BY created_at`)
	metrics.ObserveNetworkRequest("postgres", "niche_profiles_list_active", "niche_profiles", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var niches []domain.NicheProfile
	for rows.Next() {
		niche, err := scanNiche(rows)
		if err != nil {
			return nil, err
		}
		niches = append(niches, niche)
	}
	return niches, rows.Err()
}

// SaveNicheSettings записывает активность, каденцию и площадки одним UPDATE.
func (p *Postgres) SaveNicheSettings(ctx context.Context, id string, settings domain.NicheSettings) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNicheNotFound
	}
	schedule, err := json.Marshal(settings.ScheduleConfig)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE niche_profiles
SET is_active = $2, schedule_config = $3::jsonb, target_platforms = $4
WHERE id = $1::uuid
`, id, settings.IsActive, string(schedule), domain.PlatformStrings(settings.TargetPlatforms))
	metrics.ObserveNetworkRequest("postgres", "niche_profiles_save", "niche_profiles", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNicheNotFound
	}
	return nil
}

// ListConnections возвращает подключённые аккаунты площадок.
func (p *Postgres) ListConnections(ctx context.Context) ([]domain.SocialConnection, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT platform, account_name FROM social_connections ORDER BY platform`)
	metrics.ObserveNetworkRequest("postgres", "social_connections_list", "social_connections", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []domain.SocialConnection
	for rows.Next() {
		var (
			platform string
			conn     domain.SocialConnection
		)
		if err := rows.Scan(&platform, &conn.AccountName); err != nil {
			return nil, err
		}
		conn.Platform = domain.Platform(platform)
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}
