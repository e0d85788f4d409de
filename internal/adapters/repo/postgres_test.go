package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"autostream-dashboard/internal/domain"
)

// stubRow раскладывает values по указателям Scan в порядке колонок.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d колонок, %d значений", len(dest), len(r.values))
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestScanContent(t *testing.T) {
	created := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	script := "hook"
	row := stubRow{values: []any{
		"8d0f64c4-3c3a-4a8e-9a55-3f0f9a6a0c11", "Finance basics", "generating_video",
		"44444444-4444-4444-8444-444444444444", "Finance", []string{"TikTok", " youtube", ""},
		&script, (*string)(nil), (*string)(nil), created, created,
	}}
	item, err := scanContent(row)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if item.Status != domain.StatusGeneratingVideo || item.Niche.Topic != "Finance" {
		t.Fatalf("неверно разобрана задача: %+v", item)
	}
	want := []domain.Platform{domain.PlatformTikTok, domain.PlatformYouTube}
	if !reflect.DeepEqual(item.Platforms, want) {
		t.Fatalf("ожидали площадки %v, получили %v", want, item.Platforms)
	}
	if item.ScriptBody == nil || *item.ScriptBody != "hook" || item.VideoURL != nil {
		t.Fatalf("неверно разобраны nullable поля: %+v", item)
	}
}

func TestScanContentError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := scanContent(stubRow{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("ожидали исходную ошибку, получили %v", err)
	}
}

func TestScanNiche(t *testing.T) {
	created := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	row := stubRow{values: []any{
		"44444444-4444-4444-8444-444444444444", "11111111-1111-4111-8111-111111111111",
		"Finance", "Hype", true, []byte(`{"videos_per_day": 2}`), []string{"instagram"},
		(*time.Time)(nil), created,
	}}
	niche, err := scanNiche(row)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !niche.IsActive || niche.ScheduleConfig.VideosPerDay != 2 {
		t.Fatalf("неверно разобрана ниша: %+v", niche)
	}
	if len(niche.TargetPlatforms) != 1 || niche.TargetPlatforms[0] != domain.PlatformInstagram {
		t.Fatalf("ожидали instagram, получили %v", niche.TargetPlatforms)
	}
}

func TestMalformedIDsSkipDatabase(t *testing.T) {
	p := NewPostgres(nil)
	ctx := context.Background()
	if err := p.UpdateContent(ctx, "nope", domain.ItemPatch{}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("UpdateContent: ожидали ErrItemNotFound, получили %v", err)
	}
	if err := p.DeleteContent(ctx, "nope"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("DeleteContent: ожидали ErrItemNotFound, получили %v", err)
	}
	if _, err := p.GetNiche(ctx, "nope"); !errors.Is(err, domain.ErrNicheNotFound) {
		t.Fatalf("GetNiche: ожидали ErrNicheNotFound, получили %v", err)
	}
	if err := p.SaveNicheSettings(ctx, "nope", domain.NicheSettings{}); !errors.Is(err, domain.ErrNicheNotFound) {
		t.Fatalf("SaveNicheSettings: ожидали ErrNicheNotFound, получили %v", err)
	}
}

func TestDecodeSchedule(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want domain.ScheduleConfig
	}{
		{"empty", "", domain.ScheduleConfig{}},
		{"full", `{"videos_per_day": 2, "post_times": ["10:00", "16:00"]}`, domain.ScheduleConfig{VideosPerDay: 2, PostTimes: []string{"10:00", "16:00"}}},
		{"partial", `{"videos_per_day": 3}`, domain.ScheduleConfig{VideosPerDay: 3}},
		{"garbage", `{"videos_per_day": "many"}`, domain.ScheduleConfig{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeSchedule([]byte(tc.raw)); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ожидали %+v, получили %+v", tc.want, got)
			}
		})
	}
}
