package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
)

func TestHealth(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("неожиданный путь %s", r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	status = http.StatusOK
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	status = http.StatusServiceUnavailable
	if err := client.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ожидали ErrUnavailable, получили %v", err)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analytics/summary" || r.URL.Query().Get("time_frame") != "30d" {
			t.Fatalf("неожиданный запрос %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stats":{"views":1200,"subscribers":40,"videos":7},"history":[{"date":"2026-05-01","views":300}],"channel_title":"Viral","connected":true}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := client.AnalyticsSummary(context.Background(), domain.TimeFrameMonth)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Stats.Views != 1200 || got.ChannelTitle != "Viral" || !got.Connected || len(got.History) != 1 {
		t.Fatalf("неверная сводка: %+v", got)
	}
}

func TestAuthURL(t *testing.T) {
	client, err := New("https://worker.example/base/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := client.AuthURL(domain.PlatformYouTube); got != "https://worker.example/base/auth/youtube/login" {
		t.Fatalf("неверный URL: %s", got)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("ожидали ошибку для пустого адреса")
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Set(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

type countingWorker struct {
	calls int
	err   error
}

func (w *countingWorker) Health(ctx context.Context) error { return nil }

func (w *countingWorker) AnalyticsSummary(ctx context.Context, tf domain.TimeFrame) (domain.AnalyticsSummary, error) {
	w.calls++
	if w.err != nil {
		return domain.AnalyticsSummary{}, w.err
	}
	return domain.AnalyticsSummary{ChannelTitle: string(tf)}, nil
}

func (w *countingWorker) AuthURL(p domain.Platform) string { return "u" }

func TestCachedAnalytics(t *testing.T) {
	inner := &countingWorker{}
	cached := NewCachedAnalytics(inner, &memCache{data: map[string][]byte{}}, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		got, err := cached.AnalyticsSummary(context.Background(), domain.TimeFrameWeek)
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if got.ChannelTitle != "7d" {
			t.Fatalf("неверная сводка: %+v", got)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("ожидали один запрос к воркеру, получили %d", inner.calls)
	}

	if _, err := cached.AnalyticsSummary(context.Background(), domain.TimeFrameDay); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("другое окно должно запрашиваться отдельно")
	}
	if cached.AuthURL("tiktok") != "u" {
		t.Fatalf("остальные вызовы должны проксироваться")
	}
}

func TestCachedAnalyticsErrorNotCached(t *testing.T) {
	inner := &countingWorker{err: errors.New("down")}
	cached := NewCachedAnalytics(inner, &memCache{data: map[string][]byte{}}, time.Minute, zerolog.Nop())
	if _, err := cached.AnalyticsSummary(context.Background(), domain.TimeFrameWeek); err == nil {
		t.Fatalf("ожидали ошибку")
	}
	inner.err = nil
	if _, err := cached.AnalyticsSummary(context.Background(), domain.TimeFrameWeek); err != nil {
		t.Fatalf("после восстановления запрос должен проходить: %v", err)
	}
}
