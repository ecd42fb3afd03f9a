// Package links хранит треды (ссылки с обсуждением) и комментарии к ним.
// models.go описывает структуры треда и комментария.
package links

import (
	"strings"
	"time"
)

// Поля сигнала, по которым ранжируются треды и комментарии.
const (
	FieldRatingSum     = "rating_sum"
	FieldCommentsCount = "comments_count"
	FieldPublishDate   = "publish_date"
	FieldSubmitDate    = "submit_date"
)

// Thread: тред в палате: ссылка и/или описание.
type Thread struct {
	ID             int64     `db:"id"`
	Chamber        string    `db:"chamber"`
	AuthorID       int64     `db:"author_id"`
	Title          string    `db:"title"`
	Link           string    `db:"link"`            // как ввёл автор
	NormalizedLink string    `db:"normalized_link"` // для поиска дубликатов, пусто без ссылки
	Description    string    `db:"description"`
	PublishDate    time.Time `db:"publish_date"`
	RatingSum      int       `db:"rating_sum"`
	CommentsCount  int       `db:"comments_count"`
}

// HasPayload: нужна ссылка или описание.
func (t *Thread) HasPayload() bool {
	return strings.TrimSpace(t.Link) != "" || strings.TrimSpace(t.Description) != ""
}

// Text: то, что проверяет автомодерация.
func (t *Thread) Text() string {
	return strings.TrimSpace(strings.Join([]string{t.Title, t.Link, t.Description}, "\n"))
}

func (t *Thread) ScoreField(name string) float64 {
	switch name {
	case FieldRatingSum:
		return float64(t.RatingSum)
	case FieldCommentsCount:
		return float64(t.CommentsCount)
	}
	return 0
}

func (t *Thread) DateField(string) time.Time {
	return t.PublishDate
}

// Comment: комментарий к треду.
type Comment struct {
	ID         int64     `db:"id"`
	ThreadID   int64     `db:"thread_id"`
	Chamber    string    `db:"chamber"`
	AuthorID   int64     `db:"author_id"`
	Body       string    `db:"body"`
	SubmitDate time.Time `db:"submit_date"`
	RatingSum  int       `db:"rating_sum"`
}

func (c *Comment) ScoreField(name string) float64 {
	if name == FieldRatingSum {
		return float64(c.RatingSum)
	}
	return 0
}

func (c *Comment) DateField(string) time.Time {
	return c.SubmitDate
}
