// Package votes: service.go: запись голоса и уведомление леджера кармы.
package votes

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/karma"
)

// Store применяет голос атомарно и возвращает переход.
type Store interface {
	Rate(ctx context.Context, voterID int64, ref karma.ContentRef, value int) (Transition, error)
}

// KarmaSink получает события голосов. Реализует karma.Ledger.
type KarmaSink interface {
	OnVoteEvent(ctx context.Context, ev karma.VoteEvent)
}

type Service struct {
	store Store
	karma KarmaSink
}

func NewService(store Store, sink KarmaSink) *Service {
	return &Service{store: store, karma: sink}
}

// Rate записывает голос value (+1 или -1) пользователя voterID за объект ref.
// После фиксации голоса леджер кармы получает ровно одно событие.
func (s *Service) Rate(ctx context.Context, voterID int64, ref karma.ContentRef, value int) (Transition, error) {
	if value != 1 && value != -1 {
		return Transition{}, common.ErrInvalidVote
	}

	tr, err := s.store.Rate(ctx, voterID, ref, value)
	if err != nil {
		return Transition{}, err
	}

	log.WithFields(log.Fields{
		"voter_id": voterID,
		"content":  ref.String(),
		"kind":     tr.Kind,
		"value":    tr.Value,
		"sum":      tr.Sum,
	}).Debug("Голос записан")

	if s.karma != nil {
		s.karma.OnVoteEvent(ctx, tr.Event(voterID, ref))
	}
	return tr, nil
}
