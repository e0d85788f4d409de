package schedule

import (
	"sort"
	"strings"

	"autostream-dashboard/internal/domain"
)

// FromItem превращает реальную задачу в элемент ленты.
func FromItem(item domain.ContentItem) domain.TimelineEntry {
	return domain.TimelineEntry{
		ID:         item.ID,
		Title:      item.Title,
		NicheTopic: item.Niche.Topic,
		Status:     string(domain.DisplayStatus(string(item.Status))),
		Platforms:  item.Platforms,
		Timestamp:  item.CreatedAt,
		VideoURL:   item.VideoURL,
	}
}

// Merge объединяет задачи и прогноз в одну ленту по убыванию времени.
// Сортировка стабильная: при равном времени задачи идут раньше прогноза.
func Merge(items []domain.ContentItem, projections []domain.TimelineEntry) []domain.TimelineEntry {
	out := make([]domain.TimelineEntry, 0, len(items)+len(projections))
	for _, it := range items {
		out = append(out, FromItem(it))
	}
	out = append(out, projections...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Filter оставляет элементы, чьё название содержит query без учёта регистра.
func Filter(entries []domain.TimelineEntry, query string) []domain.TimelineEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]domain.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}
