package botconfig

import (
	"context"
	"errors"
	"fmt"

	"autostream-dashboard/internal/domain"
)

var (
	// ErrInvalidVideosPerDay возвращается, если каденция вне диапазона 1..3.
	ErrInvalidVideosPerDay = errors.New("videos_per_day must be 1, 2 or 3")
	// ErrInvalidPlatform возвращается для пустого списка или неизвестной площадки.
	ErrInvalidPlatform = errors.New("invalid target platforms")
)

const (
	minVideosPerDay = 1
	maxVideosPerDay = 3
)

// Settings содержит редактируемые поля профиля ниши.
type Settings struct {
	IsActive        bool              `json:"is_active"`
	VideosPerDay    int               `json:"videos_per_day"`
	TargetPlatforms []domain.Platform `json:"target_platforms"`
}

// Config объединяет профиль ниши и настройки с применёнными значениями по умолчанию.
type Config struct {
	Niche    domain.NicheProfile `json:"niche"`
	Settings Settings            `json:"settings"`
}

// Service управляет настройками каденции ботов.
type Service struct {
	niches      domain.NicheRepo
	connections domain.ConnectionRepo
	worker      domain.Worker
}

// NewService создаёт сервис.
func NewService(niches domain.NicheRepo, connections domain.ConnectionRepo, worker domain.Worker) *Service {
	return &Service{niches: niches, connections: connections, worker: worker}
}

// Load возвращает профиль ниши. Отсутствующий профиль даёт domain.ErrNicheNotFound.
func (s *Service) Load(ctx context.Context, nicheID string) (Config, error) {
	niche, err := s.niches.GetNiche(ctx, nicheID)
	if err != nil {
		return Config{}, fmt.Errorf("получение ниши: %w", err)
	}
	settings := Settings{
		IsActive:        niche.IsActive,
		VideosPerDay:    niche.ScheduleConfig.VideosPerDay,
		TargetPlatforms: niche.TargetPlatforms,
	}
	if settings.VideosPerDay < minVideosPerDay {
		settings.VideosPerDay = minVideosPerDay
	}
	if len(settings.TargetPlatforms) == 0 {
		settings.TargetPlatforms = []domain.Platform{domain.PlatformTikTok}
	}
	return Config{Niche: niche, Settings: settings}, nil
}

// Save проверяет и записывает все настройки одной операцией.
func (s *Service) Save(ctx context.Context, nicheID string, settings Settings) error {
	if settings.VideosPerDay < minVideosPerDay || settings.VideosPerDay > maxVideosPerDay {
		return ErrInvalidVideosPerDay
	}
	platforms, err := normalizePlatforms(settings.TargetPlatforms)
	if err != nil {
		return err
	}
	err = s.niches.SaveNicheSettings(ctx, nicheID, domain.NicheSettings{
		IsActive: settings.IsActive,
		ScheduleConfig: domain.ScheduleConfig{
			VideosPerDay: settings.VideosPerDay,
			PostTimes:    domain.PostTimes(settings.VideosPerDay),
		},
		TargetPlatforms: platforms,
	})
	if err != nil {
		return fmt.Errorf("сохранение настроек: %w", err)
	}
	return nil
}

func normalizePlatforms(raw []domain.Platform) ([]domain.Platform, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidPlatform
	}
	seen := make(map[domain.Platform]struct{}, len(raw))
	out := make([]domain.Platform, 0, len(raw))
	for _, p := range raw {
		if !domain.KnownPlatform(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPlatform, p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Connections возвращает подключённые аккаунты по площадкам.
func (s *Service) Connections(ctx context.Context) (map[domain.Platform]string, error) {
	conns, err := s.connections.ListConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение подключений: %w", err)
	}
	out := make(map[domain.Platform]string, len(conns))
	for _, c := range conns {
		name := c.AccountName
		if name == "" {
			name = "Connected"
		}
		out[c.Platform] = name
	}
	return out, nil
}

// AuthURL возвращает адрес OAuth-авторизации площадки на стороне воркера.
func (s *Service) AuthURL(platform domain.Platform) (string, error) {
	if !domain.KnownPlatform(platform) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, platform)
	}
	return s.worker.AuthURL(platform), nil
}
