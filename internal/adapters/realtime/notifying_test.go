package realtime

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
)

type stubRepo struct {
	err error
}

func (s stubRepo) ListContent(ctx context.Context) ([]domain.ContentItem, error) { return nil, nil }

func (s stubRepo) CreateDraft(ctx context.Context, p domain.CreateDraftParams) (domain.ContentItem, domain.NicheProfile, error) {
	return domain.ContentItem{}, domain.NicheProfile{}, s.err
}

func (s stubRepo) UpdateContent(ctx context.Context, id string, patch domain.ItemPatch) error {
	return s.err
}

func (s stubRepo) DeleteContent(ctx context.Context, id string) error { return s.err }

type recordingPublisher struct {
	ops []string
	err error
}

func (p *recordingPublisher) Publish(ctx context.Context, op string) error {
	p.ops = append(p.ops, op)
	return p.err
}

func TestNotifyingRepoPublishesAfterWrites(t *testing.T) {
	pub := &recordingPublisher{}
	repo := NewNotifyingRepo(stubRepo{}, pub, zerolog.Nop())
	ctx := context.Background()

	_, _, _ = repo.CreateDraft(ctx, domain.CreateDraftParams{})
	_ = repo.UpdateContent(ctx, "id", domain.ItemPatch{})
	_ = repo.DeleteContent(ctx, "id")

	if want := []string{"INSERT", "UPDATE", "DELETE"}; !reflect.DeepEqual(pub.ops, want) {
		t.Fatalf("ожидали %v, получили %v", want, pub.ops)
	}
}

func TestNotifyingRepoSkipsFailedWrites(t *testing.T) {
	pub := &recordingPublisher{}
	repo := NewNotifyingRepo(stubRepo{err: errors.New("boom")}, pub, zerolog.Nop())
	if err := repo.UpdateContent(context.Background(), "id", domain.ItemPatch{}); err == nil {
		t.Fatalf("ошибка записи должна возвращаться")
	}
	if len(pub.ops) != 0 {
		t.Fatalf("после ошибки публиковать нечего: %v", pub.ops)
	}
}

func TestNotifyingRepoIgnoresPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("redis down")}
	repo := NewNotifyingRepo(stubRepo{}, pub, zerolog.Nop())
	if err := repo.DeleteContent(context.Background(), "id"); err != nil {
		t.Fatalf("ошибка публикации не должна влиять на запись: %v", err)
	}
}
