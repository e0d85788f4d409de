package domain

import (
	"errors"
	"testing"
)

func TestDisplayStatus(t *testing.T) {
	cases := map[string]ContentStatus{
		"draft":             StatusDraft,
		"SCRIPTING":         StatusScripting,
		" generating_video": StatusGeneratingVideo,
		"done":              StatusDone,
		"failed":            StatusFailed,
		"":                  StatusDraft,
		"queued":            StatusDraft,
		"scheduled_future":  StatusDraft,
	}
	for raw, want := range cases {
		if got := DisplayStatus(raw); got != want {
			t.Fatalf("DisplayStatus(%q) = %s, ожидали %s", raw, got, want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := ContentStatus("mystery").Label(); got != "Idea" {
		t.Fatalf("неизвестный статус должен подписываться как Idea, получили %s", got)
	}
	if got := StatusDone.Label(); got != "Published" {
		t.Fatalf("ожидали Published, получили %s", got)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name  string
		from  ContentStatus
		to    ContentStatus
		actor Actor
		want  bool
	}{
		{"start", StatusDraft, StatusScripting, ActorUser, true},
		{"restart done", StatusDone, StatusScripting, ActorUser, true},
		{"restart failed", StatusFailed, StatusScripting, ActorUser, true},
		{"unknown from acts as draft", ContentStatus("weird"), StatusScripting, ActorUser, true},
		{"skip to done", StatusDraft, StatusDone, ActorUser, false},
		{"user cannot drive worker step", StatusScripting, StatusGeneratingVideo, ActorUser, false},
		{"worker step", StatusScripting, StatusGeneratingVideo, ActorWorker, true},
		{"worker finishes", StatusGeneratingVideo, StatusDone, ActorWorker, true},
		{"worker fails", StatusGeneratingVideo, StatusFailed, ActorWorker, true},
		{"worker cannot start", StatusDraft, StatusScripting, ActorWorker, false},
		{"future never valid", StatusDraft, StatusScheduledFuture, ActorUser, false},
		{"self loop", StatusScripting, StatusScripting, ActorUser, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to, tc.actor); got != tc.want {
				t.Fatalf("CanTransition(%s, %s, %s) = %v", tc.from, tc.to, tc.actor, got)
			}
		})
	}
}

func TestTransitionError(t *testing.T) {
	err := Transition(StatusDraft, StatusDone, ActorUser)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ожидали ErrInvalidTransition, получили %v", err)
	}
	if err := Transition(StatusDraft, StatusScripting, ActorUser); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}

func TestUserAction(t *testing.T) {
	cases := map[ContentStatus]string{
		StatusDraft:           "start",
		StatusScripting:       "",
		StatusGeneratingVideo: "",
		StatusDone:            "restart",
		StatusFailed:          "restart",
	}
	for status, want := range cases {
		if got := UserAction(status); got != want {
			t.Fatalf("UserAction(%s) = %q, ожидали %q", status, got, want)
		}
	}
}
