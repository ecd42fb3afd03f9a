// Package profiles: service.go содержит бизнес-логику профилей.
package profiles

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Store: то, что сервису нужно от хранилища профилей.
type Store interface {
	Create(ctx context.Context, userID int64, username string, balance decimal.Decimal) error
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	Exists(ctx context.Context, userID int64) (bool, error)
}

// Service управляет профилями.
type Service struct {
	store           Store
	startingBalance decimal.Decimal // ECONOMY_STARTING_BALANCE, по умолчанию 5.00
}

// NewService создаёт сервис профилей.
func NewService(store Store, startingBalance decimal.Decimal) *Service {
	return &Service{store: store, startingBalance: startingBalance}
}

// EnsureProfile гарантирует, что у пользователя есть профиль.
// Новый профиль получает стартовый баланс; существующий не трогается.
func (s *Service) EnsureProfile(ctx context.Context, userID int64, username string) (*Profile, error) {
	exists, err := s.store.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.store.Create(ctx, userID, username, s.startingBalance); err != nil {
			return nil, fmt.Errorf("ошибка регистрации профиля: %w", err)
		}
		log.WithFields(log.Fields{
			"user_id":  userID,
			"username": username,
			"balance":  s.startingBalance.StringFixed(2),
		}).Info("Новый профиль зарегистрирован")
	}
	return s.store.GetByUserID(ctx, userID)
}

// GetByUserID возвращает профиль по ID пользователя.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	return s.store.GetByUserID(ctx, userID)
}

// GetByUsername возвращает профиль по имени (без учёта регистра).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.store.GetByUsername(ctx, username)
}
