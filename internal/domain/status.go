package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition возвращается при попытке недопустимого перехода статуса.
var ErrInvalidTransition = errors.New("invalid status transition")

// ContentStatus описывает этап жизненного цикла задачи.
type ContentStatus string

const (
	StatusDraft           ContentStatus = "draft"
	StatusScripting       ContentStatus = "scripting"
	StatusGeneratingVideo ContentStatus = "generating_video"
	StatusDone            ContentStatus = "done"
	StatusFailed          ContentStatus = "failed"

	// StatusScheduledFuture помечает прогнозные записи ленты. В машине состояний не участвует.
	StatusScheduledFuture ContentStatus = "scheduled_future"
)

// Actor определяет, кто инициирует переход.
type Actor string

const (
	ActorUser   Actor = "user"
	ActorWorker Actor = "worker"
)

var statusLabels = map[ContentStatus]string{
	StatusDraft:           "Idea",
	StatusScripting:       "Scripting",
	StatusGeneratingVideo: "Generating",
	StatusDone:            "Published",
	StatusFailed:          "Failed",
}

type transition struct {
	from ContentStatus
	to   ContentStatus
}

var transitions = map[transition]Actor{
	{StatusDraft, StatusScripting}:           ActorUser,
	{StatusDone, StatusScripting}:            ActorUser,
	{StatusFailed, StatusScripting}:          ActorUser,
	{StatusScripting, StatusGeneratingVideo}: ActorWorker,
	{StatusGeneratingVideo, StatusDone}:      ActorWorker,
	{StatusGeneratingVideo, StatusFailed}:    ActorWorker,
}

// ParseStatus строго разбирает статус. Регистр не учитывается.
func ParseStatus(raw string) (ContentStatus, bool) {
	s := ContentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statusLabels[s]; ok {
		return s, true
	}
	return "", false
}

// DisplayStatus возвращает статус для отображения: всё нераспознанное показывается как draft.
// Хранимое значение при этом не меняется.
func DisplayStatus(raw string) ContentStatus {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return StatusDraft
}

// Label возвращает подпись статуса для интерфейса.
func (s ContentStatus) Label() string {
	return statusLabels[DisplayStatus(string(s))]
}

// CanTransition сообщает, разрешён ли переход для данного инициатора.
func CanTransition(from, to ContentStatus, actor Actor) bool {
	target, ok := ParseStatus(string(to))
	if !ok {
		return false
	}
	owner, ok := transitions[transition{from: DisplayStatus(string(from)), to: target}]
	return ok && owner == actor
}

// Transition проверяет переход и возвращает ErrInvalidTransition, если он запрещён.
func Transition(from, to ContentStatus, actor Actor) error {
	if !CanTransition(from, to, actor) {
		return fmt.Errorf("%w: %s -> %s by %s", ErrInvalidTransition, DisplayStatus(string(from)), to, actor)
	}
	return nil
}

// UserAction возвращает действие, доступное пользователю в текущем статусе:
// "start" для черновика, "restart" для завершённых задач, пусто, пока задачей владеет воркер.
func UserAction(status ContentStatus) string {
	switch DisplayStatus(string(status)) {
	case StatusDraft:
		return "start"
	case StatusDone, StatusFailed:
		return "restart"
	}
	return ""
}
