// Package karma реализует леджер репутации (кармы).
// models.go описывает события голосов и записи журнала кармы.
package karma

import (
	"fmt"
	"time"
)

// EventKind: переход жизненного цикла голоса.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventChanged EventKind = "changed"
	EventDeleted EventKind = "deleted"
)

// ContentType: тип оцениваемого объекта.
type ContentType string

const (
	ContentThread  ContentType = "thread"
	ContentComment ContentType = "comment"
	ContentChamber ContentType = "chamber"
)

// ContentRef: ссылка на оцениваемый объект.
type ContentRef struct {
	Type ContentType
	ID   int64
}

func (c ContentRef) String() string {
	return fmt.Sprintf("%s/%d", c.Type, c.ID)
}

// VoteEvent: уведомление о переходе голоса.
// Value: значение голоса ПОСЛЕ перехода (для deleted: значение удалённого голоса).
// AuthorID можно не заполнять: тогда автор ищется через AuthorResolver.
type VoteEvent struct {
	Kind     EventKind
	VoterID  int64
	AuthorID int64
	Content  ContentRef
	Value    int
}

// Adjustment: то, что леджер применяет к хранилищу одной атомарной операцией.
type Adjustment struct {
	AuthorID  int64
	VoterID   int64
	Content   ContentRef
	Kind      EventKind
	Delta     int // изменение кармы автора
	UpDelta   int // изменение total_up_given голосующего
	DownDelta int // изменение total_down_given голосующего
}

// LogEntry: запись журнала изменений кармы.
type LogEntry struct {
	ID          int64     `db:"id"`
	FromUserID  int64     `db:"from_user_id"`
	ToUserID    int64     `db:"to_user_id"`
	ContentType string    `db:"content_type"`
	ContentID   int64     `db:"content_id"`
	EventKind   string    `db:"event_kind"`
	Points      int       `db:"points"`
	CreatedAt   time.Time `db:"created_at"`
}
