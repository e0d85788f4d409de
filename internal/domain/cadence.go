package domain

import "fmt"

const (
	// BaseSlotHour задаёт час первого слота публикации.
	BaseSlotHour = 10
	// SlotWindowHours задаёт окно в часах, по которому равномерно распределяются слоты дня.
	SlotWindowHours = 12
	// MaxVideosPerDay задаёт предел каденции для строк из БД. Строки выше считаются повреждёнными.
	MaxVideosPerDay = 24
)

// EffectiveVideosPerDay возвращает число слотов в день; значения меньше 1 считаются 1.
func EffectiveVideosPerDay(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// SlotHours возвращает часы слотов дня для заданной каденции.
func SlotHours(videosPerDay int) []int {
	n := EffectiveVideosPerDay(videosPerDay)
	spacing := SlotWindowHours / n
	hours := make([]int, 0, n)
	for i := 0; i < n; i++ {
		hours = append(hours, BaseSlotHour+spacing*i)
	}
	return hours
}

// PostTimes возвращает слоты дня в формате HH:MM.
func PostTimes(videosPerDay int) []string {
	hours := SlotHours(videosPerDay)
	times := make([]string, 0, len(hours))
	for _, h := range hours {
		times = append(times, fmt.Sprintf("%02d:00", h))
	}
	return times
}
