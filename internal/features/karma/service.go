// Package karma: service.go содержит леджер кармы.
//
// Каждое событие голоса (создан, изменён, удалён) меняет карму автора ровно один раз:
//
//	created: +v
//	changed: +2v  (голоса бинарные, изменение всегда разворачивает знак)
//	deleted: -v
//
// Поэтому для изменения не нужно читать прежнее значение голоса.
package karma

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Store применяет корректировку атомарно. false: профиль автора не найден.
type Store interface {
	Apply(ctx context.Context, adj Adjustment) (bool, error)
}

// AuthorResolver находит автора объекта, если событие пришло без AuthorID.
type AuthorResolver interface {
	AuthorOf(ctx context.Context, ref ContentRef) (int64, error)
}

// Ledger: подписчик на события голосов.
type Ledger struct {
	store    Store
	resolver AuthorResolver
}

// NewLedger создаёт леджер кармы. resolver может быть nil.
func NewLedger(store Store, resolver AuthorResolver) *Ledger {
	return &Ledger{store: store, resolver: resolver}
}

// OnVoteEvent применяет событие голоса. Ошибок наружу не возвращает:
// запись самого голоса не должна зависеть от леджера, проблемы только логируются.
func (l *Ledger) OnVoteEvent(ctx context.Context, ev VoteEvent) {
	logger := log.WithFields(log.Fields{
		"component": "karma",
		"kind":      ev.Kind,
		"voter_id":  ev.VoterID,
		"content":   ev.Content.String(),
		"value":     ev.Value,
	})

	adj, ok := Plan(ev)
	if !ok {
		logger.Warn("Некорректное событие голоса, пропускаем")
		eventsDropped.WithLabelValues("invalid").Inc()
		return
	}

	if adj.AuthorID == 0 {
		if l.resolver == nil {
			logger.Warn("Автор не указан и резолвер не настроен, пропускаем")
			eventsDropped.WithLabelValues("unresolved").Inc()
			return
		}
		authorID, err := l.resolver.AuthorOf(ctx, ev.Content)
		if err != nil || authorID == 0 {
			logger.WithError(err).Warn("Не удалось определить автора, событие отброшено")
			eventsDropped.WithLabelValues("unresolved").Inc()
			return
		}
		adj.AuthorID = authorID
	}

	// карму себе не начисляем
	if adj.AuthorID == adj.VoterID {
		logger.Debug("Самоголос, карма не меняется")
		return
	}

	applied, err := l.store.Apply(ctx, adj)
	if err != nil {
		logger.WithError(err).Error("Ошибка применения кармы")
		eventsDropped.WithLabelValues("store").Inc()
		return
	}
	if !applied {
		logger.WithField("author_id", adj.AuthorID).Warn("Профиль автора не найден, событие отброшено")
		eventsDropped.WithLabelValues("no_profile").Inc()
		return
	}

	eventsApplied.WithLabelValues(string(ev.Kind)).Inc()
	logger.WithFields(log.Fields{
		"author_id": adj.AuthorID,
		"delta":     adj.Delta,
	}).Debug("Карма изменена")
}

// Plan переводит событие в корректировку. false: событие некорректно.
func Plan(ev VoteEvent) (Adjustment, bool) {
	if ev.Value != 1 && ev.Value != -1 {
		return Adjustment{}, false
	}
	adj := Adjustment{
		AuthorID: ev.AuthorID,
		VoterID:  ev.VoterID,
		Content:  ev.Content,
		Kind:     ev.Kind,
	}
	up, down := 0, 0
	if ev.Value > 0 {
		up = 1
	} else {
		down = 1
	}

	switch ev.Kind {
	case EventCreated:
		adj.Delta = ev.Value
		adj.UpDelta, adj.DownDelta = up, down
	case EventChanged:
		adj.Delta = 2 * ev.Value
		adj.UpDelta, adj.DownDelta = up-down, down-up
	case EventDeleted:
		adj.Delta = -ev.Value
		adj.UpDelta, adj.DownDelta = -up, -down
	default:
		return Adjustment{}, false
	}
	return adj, true
}
