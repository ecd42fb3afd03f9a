// Package listing отдаёт ленты тредов, комментариев и палат,
// отсортированные по дате или по «горячести».
package listing

import (
	"fmt"

	"serotonyl.ru/drum/internal/features/links"
	"serotonyl.ru/drum/internal/features/ranking"
)

// Kind: что показывает лента.
type Kind string

const (
	KindThreads  Kind = "threads"
	KindComments Kind = "comments"
	KindChambers Kind = "chambers"
)

// Поля сигнала и дат для каждой ленты.
var (
	threadScoreFields  = []string{links.FieldRatingSum, links.FieldCommentsCount}
	commentScoreFields = []string{links.FieldRatingSum}
	chamberScoreFields = []string{links.FieldRatingSum, links.FieldCommentsCount}
)

// Query: параметры ленты. Нулевые фильтры не применяются.
type Query struct {
	Kind     Kind
	Chamber  string // треды и комментарии палаты
	AuthorID int64  // треды и комментарии автора
	ThreadID int64  // комментарии треда
	ByScore  bool   // false: по дате
	Page     int    // с 1
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%d|%t|%d", q.Kind, q.Chamber, q.AuthorID, q.ThreadID, q.ByScore, q.Page)
}

// Page: страница ленты.
type Page[T ranking.Item] struct {
	ranking.Result[T]
	Number  int
	HasNext bool
}
