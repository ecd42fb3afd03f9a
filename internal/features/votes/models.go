// Package votes записывает голоса (+1/-1) за треды, комментарии и палаты.
// Повторный голос с тем же значением отменяет голос, с другим: меняет его.
// Каждый переход порождает ровно одно событие для леджера кармы.
package votes

import (
	"time"

	"serotonyl.ru/drum/internal/features/karma"
)

// Rating: текущий голос пользователя за объект.
type Rating struct {
	ID          int64     `db:"id"`
	ContentType string    `db:"content_type"`
	ContentID   int64     `db:"content_id"`
	UserID      int64     `db:"user_id"`
	AuthorID    int64     `db:"author_id"` // автор объекта на момент голоса
	Value       int       `db:"value"`
	CreatedAt   time.Time `db:"created_at"`
}

// Transition: что произошло с голосом в результате Rate.
type Transition struct {
	Kind     karma.EventKind
	Value    int   // значение после перехода; для deleted: значение удалённого голоса
	AuthorID int64 // автор объекта
	Sum      int   // новый rating_sum объекта
}

// Event превращает переход в событие для леджера кармы.
func (t Transition) Event(voterID int64, ref karma.ContentRef) karma.VoteEvent {
	return karma.VoteEvent{
		Kind:     t.Kind,
		VoterID:  voterID,
		AuthorID: t.AuthorID,
		Content:  ref,
		Value:    t.Value,
	}
}

// Decide вычисляет переход по прежнему голосу (0: голоса не было) и новому значению.
func Decide(previous, value int) (kind karma.EventKind, sumDelta int) {
	switch {
	case previous == 0:
		return karma.EventCreated, value
	case previous == value:
		return karma.EventDeleted, -value
	default:
		return karma.EventChanged, 2 * value
	}
}
