package schedule

import (
	"fmt"
	"time"

	"autostream-dashboard/internal/domain"
)

// HorizonDays задаёт глубину прогноза в днях, начиная с сегодняшнего.
const HorizonDays = 7

// Project строит прогноз публикаций активных ботов на HorizonDays дней.
// Слоты раньше now отбрасываются. Результат зависит только от аргументов.
func Project(bots []domain.NicheProfile, now time.Time, loc *time.Location) []domain.TimelineEntry {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	year, month, day := local.Date()

	var out []domain.TimelineEntry
	for _, bot := range bots {
		if !bot.IsActive {
			continue
		}
		platforms := bot.TargetPlatforms
		if len(platforms) == 0 {
			platforms = []domain.Platform{domain.PlatformTikTok}
		}
		hours := domain.SlotHours(bot.ScheduleConfig.VideosPerDay)
		for d := 0; d < HorizonDays; d++ {
			for i, hour := range hours {
				slot := time.Date(year, month, day+d, hour, 0, 0, 0, loc)
				if slot.Before(now) {
					continue
				}
				out = append(out, domain.TimelineEntry{
					ID:           fmt.Sprintf("proj-%s-%d-%d", bot.ID, d, i),
					Title:        fmt.Sprintf("(Scheduled) %s Video #%d", bot.Topic, i+1),
					NicheTopic:   bot.Topic,
					Status:       string(domain.StatusScheduledFuture),
					Platforms:    append([]domain.Platform(nil), platforms...),
					Timestamp:    slot,
					IsProjection: true,
				})
			}
		}
	}
	return out
}

// SlotTimes возвращает слоты дня HH:MM для каденции videosPerDay.
func SlotTimes(videosPerDay int) []string {
	return domain.PostTimes(videosPerDay)
}
