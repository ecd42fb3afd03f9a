// Package chambers: service.go содержит бизнес-логику палат:
// сохранение конфигурации с проверкой до записи.
package chambers

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store: то, что сервису нужно от хранилища палат.
type Store interface {
	Create(ctx context.Context, c *Chamber) (int64, error)
	UpdateConfig(ctx context.Context, c *Chamber) error
	GetByName(ctx context.Context, name string) (*Chamber, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]*Chamber, error)
}

// ConfigValidator проверяет цепочку автомодерации палаты (реализует реестр оценщиков).
type ConfigValidator interface {
	ValidateChamber(c *Chamber) error
}

// Service управляет палатами.
type Service struct {
	store     Store
	validator ConfigValidator
}

// NewService создаёт сервис палат.
func NewService(store Store, validator ConfigValidator) *Service {
	return &Service{store: store, validator: validator}
}

// ValidateConfig проверяет палату целиком. Ошибка конфигурации возвращается
// сразу тому, кто сохраняет палату, и никогда не всплывает при публикации.
func (s *Service) ValidateConfig(c *Chamber) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if s.validator != nil {
		if err := s.validator.ValidateChamber(c); err != nil {
			return err
		}
	}
	return nil
}

// Create проверяет и сохраняет новую палату.
func (s *Service) Create(ctx context.Context, c *Chamber) error {
	if err := s.ValidateConfig(c); err != nil {
		return err
	}
	if _, err := s.store.Create(ctx, c); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"chamber":  c.Name,
		"owner_id": c.OwnerID,
		"automod":  c.EvaluatorIDs(),
	}).Info("Палата создана")
	return nil
}

// SaveConfig проверяет и сохраняет конфигурацию существующей палаты.
func (s *Service) SaveConfig(ctx context.Context, c *Chamber) error {
	if err := s.ValidateConfig(c); err != nil {
		return err
	}
	return s.store.UpdateConfig(ctx, c)
}

// Get возвращает палату по имени.
func (s *Service) Get(ctx context.Context, name string) (*Chamber, error) {
	return s.store.GetByName(ctx, name)
}

// Exists проверяет, занято ли имя палаты.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	return s.store.Exists(ctx, name)
}

// CheckAll перепроверяет все сохранённые палаты, например после смены реестра оценщиков.
// Возвращает ошибки по именам палат.
func (s *Service) CheckAll(ctx context.Context) (map[string]error, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения палат: %w", err)
	}
	problems := make(map[string]error)
	for _, c := range all {
		if err := s.ValidateConfig(c); err != nil {
			problems[c.Name] = err
		}
	}
	return problems, nil
}
