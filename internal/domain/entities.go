package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedRecord возвращается, если строка из хранилища не проходит проверку формы.
var ErrMalformedRecord = errors.New("malformed record")

// Platform описывает площадку публикации.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
)

// KnownPlatform сообщает, поддерживается ли площадка.
func KnownPlatform(p Platform) bool {
	switch p {
	case PlatformTikTok, PlatformYouTube, PlatformInstagram:
		return true
	}
	return false
}

// PlatformsFromStrings приводит сырые значения к списку площадок.
func PlatformsFromStrings(raw []string) []Platform {
	out := make([]Platform, 0, len(raw))
	for _, v := range raw {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, Platform(v))
	}
	return out
}

// PlatformStrings возвращает площадки в виде строк для записи в БД.
func PlatformStrings(platforms []Platform) []string {
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, string(p))
	}
	return out
}

// DemoUserEmail идентифицирует единственного пользователя демо-режима.
const DemoUserEmail = "demo@example.com"

// User описывает владельца ниш.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NicheSummary содержит поля ниши, которые подтягиваются вместе с задачей.
type NicheSummary struct {
	Topic string `json:"topic"`
}

// ContentItem описывает задачу на производство контента.
type ContentItem struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Status     ContentStatus `json:"status"`
	NicheID    string        `json:"niche_id"`
	Niche      NicheSummary  `json:"niche_profiles"`
	Platforms  []Platform    `json:"platforms_destinations"`
	ScriptBody *string       `json:"script_body,omitempty"`
	VideoURL   *string       `json:"video_url,omitempty"`
	ErrorLog   *string       `json:"error_log,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Validate проверяет форму записи, пришедшей из хранилища.
// Неизвестный статус ошибкой не считается: он отображается как draft.
func (c ContentItem) Validate() error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("%w: content id %q", ErrMalformedRecord, c.ID)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("%w: content %s without created_at", ErrMalformedRecord, c.ID)
	}
	return nil
}

// ItemPatch содержит частичное обновление задачи. nil означает "не менять".
type ItemPatch struct {
	Title      *string        `json:"title,omitempty"`
	ScriptBody *string        `json:"script_body,omitempty"`
	Status     *ContentStatus `json:"status,omitempty"`
}

// Empty сообщает, что патч ничего не меняет.
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.ScriptBody == nil && p.Status == nil
}

// Apply возвращает копию задачи с применённым патчем.
func (p ItemPatch) Apply(item ContentItem) ContentItem {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.ScriptBody != nil {
		body := *p.ScriptBody
		item.ScriptBody = &body
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	return item
}

// Merge накладывает next поверх p: заданные в next поля выигрывают.
func (p ItemPatch) Merge(next ItemPatch) ItemPatch {
	if next.Title != nil {
		p.Title = next.Title
	}
	if next.ScriptBody != nil {
		p.ScriptBody = next.ScriptBody
	}
	if next.Status != nil {
		p.Status = next.Status
	}
	return p
}

// ScheduleConfig хранит каденцию публикаций ниши.
type ScheduleConfig struct {
	VideosPerDay int      `json:"videos_per_day"`
	PostTimes    []string `json:"post_times"`
}

// NicheProfile описывает политику автоматизации для одной тематики.
type NicheProfile struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	Topic           string         `json:"topic"`
	Tone            string         `json:"tone"`
	IsActive        bool           `json:"is_active"`
	ScheduleConfig  ScheduleConfig `json:"schedule_config"`
	TargetPlatforms []Platform     `json:"target_platforms"`
	LastRunAt       *time.Time     `json:"last_run_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Validate проверяет форму профиля ниши.
func (n NicheProfile) Validate() error {
	if _, err := uuid.Parse(n.ID); err != nil {
		return fmt.Errorf("%w: niche id %q", ErrMalformedRecord, n.ID)
	}
	if n.ScheduleConfig.VideosPerDay > MaxVideosPerDay {
		return fmt.Errorf("%w: videos_per_day %d", ErrMalformedRecord, n.ScheduleConfig.VideosPerDay)
	}
	return nil
}

// NicheSettings содержит поля, которые сохраняются одной операцией.
type NicheSettings struct {
	IsActive        bool
	ScheduleConfig  ScheduleConfig
	TargetPlatforms []Platform
}

// SocialConnection описывает подключённый аккаунт площадки.
type SocialConnection struct {
	Platform    Platform `json:"platform"`
	AccountName string   `json:"account_name"`
}

// CreateDraftParams содержит данные для создания черновика вместе с нишей.
type CreateDraftParams struct {
	UserEmail string
	Topic     string
	Tone      string
	Title     string
	Platforms []Platform
}

// TimelineEntry описывает элемент общей ленты: реальную задачу или прогноз.
type TimelineEntry struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	NicheTopic   string     `json:"niche_topic"`
	Status       string     `json:"status"`
	Platforms    []Platform `json:"platforms"`
	Timestamp    time.Time  `json:"timestamp"`
	IsProjection bool       `json:"is_projection"`
	VideoURL     *string    `json:"video_url,omitempty"`
}

// LogType описывает важность записи журнала.
type LogType string

const (
	LogInfo  LogType = "info"
	LogWarn  LogType = "warn"
	LogError LogType = "error"
)

// LogEntry описывает запись операционного журнала, видимого оператору.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// TimeFrame задаёт окно аналитики.
type TimeFrame string

const (
	TimeFrameDay   TimeFrame = "1d"
	TimeFrameWeek  TimeFrame = "7d"
	TimeFrameMonth TimeFrame = "30d"
)

// ParseTimeFrame проверяет окно аналитики. Пустое значение означает 7d.
func ParseTimeFrame(raw string) (TimeFrame, error) {
	switch tf := TimeFrame(strings.TrimSpace(raw)); tf {
	case "":
		return TimeFrameWeek, nil
	case TimeFrameDay, TimeFrameWeek, TimeFrameMonth:
		return tf, nil
	}
	return "", fmt.Errorf("unsupported time frame %q", raw)
}

// AnalyticsStats содержит агрегаты канала.
type AnalyticsStats struct {
	Views       int64 `json:"views"`
	Subscribers int64 `json:"subscribers"`
	Videos      int64 `json:"videos"`
}

// AnalyticsPoint описывает точку истории просмотров.
type AnalyticsPoint struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// AnalyticsSummary содержит ответ воркера на /analytics/summary.
type AnalyticsSummary struct {
	Stats        AnalyticsStats   `json:"stats"`
	History      []AnalyticsPoint `json:"history"`
	ChannelTitle string           `json:"channel_title"`
	Connected    bool             `json:"connected"`
}
