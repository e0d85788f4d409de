package domain

import (
	"errors"
	"testing"
	"time"
)

func TestContentItemValidate(t *testing.T) {
	ok := ContentItem{ID: "8d0f64c4-3c3a-4a8e-9a55-3f0f9a6a0c11", CreatedAt: time.Now()}
	if err := ok.Validate(); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	bad := []ContentItem{
		{ID: "not-a-uuid", CreatedAt: time.Now()},
		{ID: ok.ID},
	}
	for _, item := range bad {
		if err := item.Validate(); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("ожидали ErrMalformedRecord для %+v, получили %v", item, err)
		}
	}
}

func TestNicheProfileValidate(t *testing.T) {
	const id = "44444444-4444-4444-8444-444444444444"
	cases := []struct {
		name    string
		niche   NicheProfile
		wantErr bool
	}{
		{"ok", NicheProfile{ID: id, ScheduleConfig: ScheduleConfig{VideosPerDay: 3}}, false},
		{"zero cadence", NicheProfile{ID: id}, false},
		{"max cadence", NicheProfile{ID: id, ScheduleConfig: ScheduleConfig{VideosPerDay: MaxVideosPerDay}}, false},
		{"bad id", NicheProfile{ID: "x"}, true},
		{"absurd cadence", NicheProfile{ID: id, ScheduleConfig: ScheduleConfig{VideosPerDay: 100_000_000}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.niche.Validate()
			if tc.wantErr && !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("ожидали ErrMalformedRecord, получили %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("не ожидали ошибку: %v", err)
			}
		})
	}
}

func TestItemPatchApplyAndMerge(t *testing.T) {
	title := "New"
	body := "script"
	status := StatusScripting
	item := ContentItem{Title: "Old", Status: StatusDraft}

	patch := ItemPatch{Title: &title}.Merge(ItemPatch{ScriptBody: &body, Status: &status})
	if patch.Empty() {
		t.Fatalf("патч не должен быть пустым")
	}
	got := patch.Apply(item)
	if got.Title != "New" || got.Status != StatusScripting || got.ScriptBody == nil || *got.ScriptBody != "script" {
		t.Fatalf("неверный результат патча: %+v", got)
	}
	if item.Title != "Old" {
		t.Fatalf("исходная задача изменилась")
	}
	if !(ItemPatch{}).Empty() {
		t.Fatalf("пустой патч должен быть Empty")
	}
}

func TestParseTimeFrame(t *testing.T) {
	if tf, err := ParseTimeFrame(""); err != nil || tf != TimeFrameWeek {
		t.Fatalf("пустое окно должно давать 7d, получили %s %v", tf, err)
	}
	if tf, err := ParseTimeFrame("30d"); err != nil || tf != TimeFrameMonth {
		t.Fatalf("ожидали 30d, получили %s %v", tf, err)
	}
	if _, err := ParseTimeFrame("1y"); err == nil {
		t.Fatalf("ожидали ошибку для 1y")
	}
}
