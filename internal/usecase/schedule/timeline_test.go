package schedule

import (
	"testing"
	"time"

	"autostream-dashboard/internal/domain"
)

func TestMergeOrdersDescending(t *testing.T) {
	t1 := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)
	items := []domain.ContentItem{{ID: "real", Title: "Real", Status: "weird", CreatedAt: t1}}
	projections := []domain.TimelineEntry{{ID: "proj", Title: "(Scheduled) X Video #1", Timestamp: t2, IsProjection: true}}

	got := Merge(items, projections)
	if len(got) != 2 || got[0].ID != "proj" || got[1].ID != "real" {
		t.Fatalf("ожидали [proj real], получили %+v", got)
	}
	if got[1].Status != string(domain.StatusDraft) {
		t.Fatalf("неизвестный статус должен отображаться как draft, получили %s", got[1].Status)
	}
}

func TestMergeStableOnEqualTimestamps(t *testing.T) {
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	items := []domain.ContentItem{{ID: "real", CreatedAt: ts}}
	projections := []domain.TimelineEntry{{ID: "proj", Timestamp: ts}}
	got := Merge(items, projections)
	if got[0].ID != "real" {
		t.Fatalf("при равном времени задача идёт первой, получили %s", got[0].ID)
	}
}

func TestFilter(t *testing.T) {
	entries := []domain.TimelineEntry{
		{ID: "1", Title: "(Scheduled) Finance Video #1"},
		{ID: "2", Title: "Budget tips"},
	}
	if got := Filter(entries, "FINANCE"); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("фильтр должен работать и для прогноза: %+v", got)
	}
	if got := Filter(entries, ""); len(got) != 2 {
		t.Fatalf("пустой запрос возвращает всё")
	}
}
