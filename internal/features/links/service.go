// Package links: service.go: публикация тредов и комментариев и поиск дубликатов ссылок.
package links

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/common"
)

// Store: то, что сервису нужно от хранилища.
type Store interface {
	CreateThread(ctx context.Context, t *Thread) error
	CreateComment(ctx context.Context, c *Comment) error
	GetThread(ctx context.Context, id int64) (*Thread, error)
	FindRecentByLink(ctx context.Context, chamber, normalizedLink string, since time.Time) (*Thread, error)
}

type Service struct {
	store           Store
	duplicateWindow time.Duration // 0: дубликаты разрешены
	now             func() time.Time
}

// NewService создаёт сервис. duplicateWindow: ALLOWED_DUPLICATE_LINK_HOURS.
func NewService(store Store, duplicateWindow time.Duration) *Service {
	return &Service{store: store, duplicateWindow: duplicateWindow, now: common.NowUTC}
}

// FindDuplicate возвращает тред той же палаты с той же ссылкой внутри окна,
// или nil. Без ссылки или с выключенным окном дубликатов не бывает.
func (s *Service) FindDuplicate(ctx context.Context, t *Thread) (*Thread, error) {
	if s.duplicateWindow <= 0 {
		return nil, nil
	}
	normalized := NormalizeLink(t.Link)
	if normalized == "" {
		return nil, nil
	}
	return s.store.FindRecentByLink(ctx, t.Chamber, normalized, s.now().Add(-s.duplicateWindow))
}

// CreateThread сохраняет тред, проставляя нормализованную ссылку и дату публикации.
func (s *Service) CreateThread(ctx context.Context, t *Thread) error {
	t.NormalizedLink = NormalizeLink(t.Link)
	if t.PublishDate.IsZero() {
		t.PublishDate = s.now()
	}
	if err := s.store.CreateThread(ctx, t); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"thread_id": t.ID,
		"chamber":   t.Chamber,
		"author_id": t.AuthorID,
	}).Info("Тред опубликован")
	return nil
}

// GetThread возвращает тред по ID.
func (s *Service) GetThread(ctx context.Context, id int64) (*Thread, error) {
	return s.store.GetThread(ctx, id)
}

// CreateComment сохраняет комментарий. Палата берётся из треда.
func (s *Service) CreateComment(ctx context.Context, c *Comment) error {
	thread, err := s.store.GetThread(ctx, c.ThreadID)
	if err != nil {
		return err
	}
	c.Chamber = thread.Chamber
	if c.SubmitDate.IsZero() {
		c.SubmitDate = s.now()
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"comment_id": c.ID,
		"thread_id":  c.ThreadID,
		"author_id":  c.AuthorID,
	}).Info("Комментарий опубликован")
	return nil
}
