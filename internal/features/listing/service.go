// Package listing: service.go: граница выдачи лент.
// База сортирует и режет страницу, RankingFunction пересчитывает её в памяти,
// результат кешируется в expirable LRU.
package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/links"
	"serotonyl.ru/drum/internal/features/ranking"
)

// Store: то, что сервису нужно от хранилища.
type Store interface {
	Threads(ctx context.Context, q Query, orderBy string, limit, offset int) ([]*links.Thread, error)
	Comments(ctx context.Context, q Query, orderBy string, limit, offset int) ([]*links.Comment, error)
	Chambers(ctx context.Context, orderBy string, limit, offset int) ([]*chambers.Chamber, error)
}

type Service struct {
	store   Store
	perPage int
	decay   float64
	now     func() time.Time
	cache   *expirable.LRU[string, any] // nil: без кеша
}

// NewService создаёт сервис лент. cacheSize <= 0 отключает кеш.
func NewService(store Store, perPage int, decaySeconds float64, cacheSize int, cacheTTL time.Duration) *Service {
	s := &Service{
		store:   store,
		perPage: perPage,
		decay:   decaySeconds,
		now:     common.NowUTC,
	}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, any](cacheSize, nil, cacheTTL)
	}
	return s
}

// column описывает колонки ленты в SQL.
type column struct {
	score []string
	date  string
	id    string
}

func fetch[T ranking.Item](s *Service, q Query, fields []string, dateField string, cols column,
	load func(orderBy string, limit, offset int) ([]T, error),
) (Page[T], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	key := q.cacheKey()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if page, ok := cached.(Page[T]); ok {
				return page, nil
			}
		}
	}

	orderBy, err := ranking.OrderBySQL(cols.score, cols.date, cols.id, q.ByScore, s.decay)
	if err != nil {
		return Page[T]{}, err
	}
	// на одну запись больше, чтобы узнать, есть ли следующая страница
	items, err := load(orderBy, s.perPage+1, (q.Page-1)*s.perPage)
	if err != nil {
		return Page[T]{}, err
	}
	hasNext := len(items) > s.perPage
	if hasNext {
		items = items[:s.perPage]
	}

	page := Page[T]{
		Result: ranking.Rank(items, ranking.Options{
			ScoreFields:  fields,
			DateField:    dateField,
			ByScore:      q.ByScore,
			Now:          s.now(),
			DecaySeconds: s.decay,
		}),
		Number:  q.Page,
		HasNext: hasNext,
	}
	if s.cache != nil {
		s.cache.Add(key, page)
	}
	return page, nil
}

// Threads: лента тредов (вся, палаты или автора).
func (s *Service) Threads(ctx context.Context, q Query) (Page[*links.Thread], error) {
	q.Kind = KindThreads
	cols := column{score: []string{"t.rating_sum", "t.comments_count"}, date: "t.publish_date", id: "t.id"}
	return fetch(s, q, threadScoreFields, links.FieldPublishDate, cols,
		func(orderBy string, limit, offset int) ([]*links.Thread, error) {
			return s.store.Threads(ctx, q, orderBy, limit, offset)
		})
}

// Comments: лента комментариев: ByScore=true: «лучшие», false: «последние».
func (s *Service) Comments(ctx context.Context, q Query) (Page[*links.Comment], error) {
	q.Kind = KindComments
	cols := column{score: []string{"c.rating_sum"}, date: "c.submit_date", id: "c.id"}
	return fetch(s, q, commentScoreFields, links.FieldSubmitDate, cols,
		func(orderBy string, limit, offset int) ([]*links.Comment, error) {
			return s.store.Comments(ctx, q, orderBy, limit, offset)
		})
}

// Chambers: список палат.
func (s *Service) Chambers(ctx context.Context, q Query) (Page[*chambers.Chamber], error) {
	q = Query{Kind: KindChambers, ByScore: q.ByScore, Page: q.Page}
	cols := column{score: []string{"c.rating_sum", "c.comments_count"}, date: "c.publish_date", id: "c.id"}
	return fetch(s, q, chamberScoreFields, links.FieldPublishDate, cols,
		func(orderBy string, limit, offset int) ([]*chambers.Chamber, error) {
			return s.store.Chambers(ctx, orderBy, limit, offset)
		})
}

// WarmFrontPages заполняет кеш первыми страницами общих лент. Запускается по cron.
func (s *Service) WarmFrontPages(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	for _, byScore := range []bool{true, false} {
		// устаревшие страницы выбрасываем, иначе fetch вернёт их из кеша
		s.cache.Remove(Query{Kind: KindThreads, ByScore: byScore, Page: 1}.cacheKey())
		s.cache.Remove(Query{Kind: KindChambers, ByScore: byScore, Page: 1}.cacheKey())

		if _, err := s.Threads(ctx, Query{ByScore: byScore, Page: 1}); err != nil {
			return fmt.Errorf("прогрев тредов: %w", err)
		}
		if _, err := s.Chambers(ctx, Query{ByScore: byScore, Page: 1}); err != nil {
			return fmt.Errorf("прогрев палат: %w", err)
		}
	}
	log.WithField("cached", s.cache.Len()).Debug("Кеш лент прогрет")
	return nil
}
