// Package chambers управляет палатами: именованными сообществами
// со своей экономикой и цепочкой автомодерации.
// models.go описывает палату и слоты автомодерации.
package chambers

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotCount: сколько слотов автомодерации у палаты (a..e).
const SlotCount = 5

// AutomodSlot: одна пара (оценщик, вес) в цепочке автомодерации.
// Пустой EvaluatorID означает, что слот выключен; вес тогда игнорируется.
type AutomodSlot struct {
	EvaluatorID string          `json:"evaluator"`
	Severity    decimal.Decimal `json:"severity"`
}

// Enabled сообщает, включён ли слот.
func (s AutomodSlot) Enabled() bool {
	return s.EvaluatorID != ""
}

// SlotLabel возвращает букву слота: 0 → "a", 4 → "e".
func SlotLabel(i int) string {
	return string(rune('a' + i))
}

// Chamber: палата.
type Chamber struct {
	ID                int64                  `db:"id"`
	Name              string                 `db:"name"` // Уникальное имя, часть URL
	DisplayName       string                 `db:"display_name"`
	Description       string                 `db:"description"`
	OwnerID           int64                  `db:"owner_id"`
	Balance           decimal.Decimal        `db:"balance"` // Собственные средства палаты, пока только для отображения
	MinThreadBalance  decimal.Decimal        `db:"min_thread_balance"`
	MinCommentBalance decimal.Decimal        `db:"min_comment_balance"`
	AutomodCanFine    bool                   `db:"automod_can_fine"`
	MaxFine           decimal.Decimal        `db:"max_fine"`
	Slots             [SlotCount]AutomodSlot `db:"automod_slots"`
	PublishDate       time.Time              `db:"publish_date"`
	RatingSum         int                    `db:"rating_sum"`
	CommentsCount     int                    `db:"comments_count"`
}

// IndexedSlot: включённый слот вместе с его позицией.
type IndexedSlot struct {
	Index int
	AutomodSlot
}

// Label: буква слота.
func (s IndexedSlot) Label() string {
	return SlotLabel(s.Index)
}

// EnabledSlots возвращает включённые слоты в порядке a→e.
func (c *Chamber) EnabledSlots() []IndexedSlot {
	var out []IndexedSlot
	for i, s := range c.Slots {
		if s.Enabled() {
			out = append(out, IndexedSlot{Index: i, AutomodSlot: s})
		}
	}
	return out
}

// EvaluatorIDs возвращает идентификаторы оценщиков включённых слотов.
func (c *Chamber) EvaluatorIDs() []string {
	var ids []string
	for _, s := range c.EnabledSlots() {
		ids = append(ids, s.EvaluatorID)
	}
	return ids
}

// ScoreField отдаёт поля сигнала для ранжирования списка палат.
func (c *Chamber) ScoreField(name string) float64 {
	switch name {
	case "rating_sum":
		return float64(c.RatingSum)
	case "comments_count":
		return float64(c.CommentsCount)
	}
	return 0
}

// DateField отдаёт дату публикации.
func (c *Chamber) DateField(string) time.Time {
	return c.PublishDate
}
