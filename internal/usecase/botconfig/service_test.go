package botconfig

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"autostream-dashboard/internal/domain"
)

type stubNiches struct {
	niche   domain.NicheProfile
	found   bool
	saveErr error
	saved   []domain.NicheSettings
}

func (s *stubNiches) GetNiche(ctx context.Context, id string) (domain.NicheProfile, error) {
	if !s.found {
		return domain.NicheProfile{}, domain.ErrNicheNotFound
	}
	return s.niche, nil
}

func (s *stubNiches) ListActiveNiches(ctx context.Context) ([]domain.NicheProfile, error) {
	return nil, nil
}

func (s *stubNiches) SaveNicheSettings(ctx context.Context, id string, settings domain.NicheSettings) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, settings)
	return nil
}

type stubConnections struct {
	conns []domain.SocialConnection
}

func (s stubConnections) ListConnections(ctx context.Context) ([]domain.SocialConnection, error) {
	return s.conns, nil
}

type stubWorker struct{}

func (stubWorker) Health(ctx context.Context) error { return nil }

func (stubWorker) AnalyticsSummary(ctx context.Context, tf domain.TimeFrame) (domain.AnalyticsSummary, error) {
	return domain.AnalyticsSummary{}, nil
}

func (stubWorker) AuthURL(p domain.Platform) string {
	return "https://worker/auth/" + string(p) + "/login"
}

func TestLoadDefaults(t *testing.T) {
	niches := &stubNiches{found: true, niche: domain.NicheProfile{ID: "n1", Topic: "Finance"}}
	svc := NewService(niches, stubConnections{}, stubWorker{})
	cfg, err := svc.Load(context.Background(), "n1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if cfg.Settings.IsActive || cfg.Settings.VideosPerDay != 1 {
		t.Fatalf("неверные значения по умолчанию: %+v", cfg.Settings)
	}
	if !reflect.DeepEqual(cfg.Settings.TargetPlatforms, []domain.Platform{domain.PlatformTikTok}) {
		t.Fatalf("площадка по умолчанию tiktok, получили %v", cfg.Settings.TargetPlatforms)
	}
}

func TestLoadNotFound(t *testing.T) {
	svc := NewService(&stubNiches{}, stubConnections{}, stubWorker{})
	if _, err := svc.Load(context.Background(), "missing"); !errors.Is(err, domain.ErrNicheNotFound) {
		t.Fatalf("ожидали ErrNicheNotFound, получили %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	cases := []struct {
		name     string
		settings Settings
		want     error
	}{
		{"zero cadence", Settings{VideosPerDay: 0, TargetPlatforms: []domain.Platform{"tiktok"}}, ErrInvalidVideosPerDay},
		{"too many", Settings{VideosPerDay: 4, TargetPlatforms: []domain.Platform{"tiktok"}}, ErrInvalidVideosPerDay},
		{"no platforms", Settings{VideosPerDay: 2}, ErrInvalidPlatform},
		{"unknown platform", Settings{VideosPerDay: 2, TargetPlatforms: []domain.Platform{"myspace"}}, ErrInvalidPlatform},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			niches := &stubNiches{found: true}
			svc := NewService(niches, stubConnections{}, stubWorker{})
			if err := svc.Save(context.Background(), "n1", tc.settings); !errors.Is(err, tc.want) {
				t.Fatalf("ожидали %v, получили %v", tc.want, err)
			}
			if len(niches.saved) != 0 {
				t.Fatalf("некорректные настройки не должны записываться")
			}
		})
	}
}

func TestSaveWritesAllFields(t *testing.T) {
	niches := &stubNiches{found: true}
	svc := NewService(niches, stubConnections{}, stubWorker{})
	err := svc.Save(context.Background(), "n1", Settings{
		IsActive:        true,
		VideosPerDay:    3,
		TargetPlatforms: []domain.Platform{"youtube", "tiktok", "youtube"},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got := niches.saved[0]
	if !got.IsActive || got.ScheduleConfig.VideosPerDay != 3 {
		t.Fatalf("неверные настройки: %+v", got)
	}
	if !reflect.DeepEqual(got.ScheduleConfig.PostTimes, []string{"10:00", "14:00", "18:00"}) {
		t.Fatalf("неверные post_times: %v", got.ScheduleConfig.PostTimes)
	}
	if !reflect.DeepEqual(got.TargetPlatforms, []domain.Platform{"youtube", "tiktok"}) {
		t.Fatalf("дубликаты площадок должны убираться: %v", got.TargetPlatforms)
	}
}

func TestSaveFailureIsAllOrNothing(t *testing.T) {
	niches := &stubNiches{found: true, saveErr: domain.ErrNicheNotFound}
	svc := NewService(niches, stubConnections{}, stubWorker{})
	err := svc.Save(context.Background(), "n1", Settings{VideosPerDay: 1, TargetPlatforms: []domain.Platform{"tiktok"}})
	if !errors.Is(err, domain.ErrNicheNotFound) {
		t.Fatalf("ожидали ErrNicheNotFound, получили %v", err)
	}
}

func TestConnectionsAndAuthURL(t *testing.T) {
	conns := stubConnections{conns: []domain.SocialConnection{
		{Platform: "youtube", AccountName: "My Channel"},
		{Platform: "tiktok"},
	}}
	svc := NewService(&stubNiches{}, conns, stubWorker{})
	got, err := svc.Connections(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got["youtube"] != "My Channel" || got["tiktok"] != "Connected" {
		t.Fatalf("неверные подключения: %v", got)
	}

	url, err := svc.AuthURL("youtube")
	if err != nil || url != "https://worker/auth/youtube/login" {
		t.Fatalf("неверный URL: %s %v", url, err)
	}
	if _, err := svc.AuthURL("myspace"); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("ожидали ErrInvalidPlatform, получили %v", err)
	}
}
