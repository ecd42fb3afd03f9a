package automod

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/chambers"
)

// ConfigurationError: палата ссылается на неизвестных оценщиков
// или содержит некорректные веса. Возвращается при сохранении палаты.
type ConfigurationError struct {
	Chamber  string
	Unknown  []string // неизвестные идентификаторы оценщиков
	Problems []string // остальные нарушения
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown evaluators: "+strings.Join(e.Unknown, ", "))
	}
	parts = append(parts, e.Problems...)
	return fmt.Sprintf("chamber %q automod config: %s", e.Chamber, strings.Join(parts, "; "))
}

// Unwrap позволяет проверять errors.Is(err, common.ErrUnknownEvaluator).
func (e *ConfigurationError) Unwrap() error {
	if len(e.Unknown) > 0 {
		return common.ErrUnknownEvaluator
	}
	return nil
}

type registered struct {
	evaluator    Evaluator
	threshold    float64
	hasThreshold bool
}

// Registry: набор доступных оценщиков по идентификатору. Передаётся движку явно.
type Registry struct {
	mu               sync.RWMutex
	evaluators       map[string]*registered
	defaultThreshold float64
}

// NewRegistry создаёт пустой реестр с порогом по умолчанию.
func NewRegistry(defaultThreshold float64) *Registry {
	return &Registry{
		evaluators:       make(map[string]*registered),
		defaultThreshold: defaultThreshold,
	}
}

// Register добавляет оценщика. Повторная регистрация id: ошибка.
func (r *Registry) Register(id string, ev Evaluator) error {
	if id == "" || ev == nil {
		return fmt.Errorf("оценщик без идентификатора или реализации")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evaluators[id]; ok {
		return fmt.Errorf("оценщик %q уже зарегистрирован", id)
	}
	r.evaluators[id] = &registered{evaluator: ev}
	return nil
}

// SetThreshold задаёт собственный порог оценщика.
func (r *Registry) SetThreshold(id string, threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("порог %q: %v вне [0,1]", id, threshold)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.evaluators[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, common.ErrUnknownEvaluator)
	}
	reg.threshold, reg.hasThreshold = threshold, true
	return nil
}

// Lookup возвращает оценщика по идентификатору.
func (r *Registry) Lookup(id string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.evaluators[id]
	if !ok {
		return nil, false
	}
	return reg.evaluator, true
}

// Threshold возвращает порог оценщика или порог по умолчанию.
func (r *Registry) Threshold(id string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.evaluators[id]; ok && reg.hasThreshold {
		return reg.threshold
	}
	return r.defaultThreshold
}

// IDs возвращает зарегистрированные идентификаторы по алфавиту.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.evaluators))
	for id := range r.evaluators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var one = decimal.NewFromInt(1)

// ValidateChamber проверяет включённые слоты палаты: оценщик известен,
// вес в [0,1] и не точнее двух знаков. Выключенные слоты не проверяются.
func (r *Registry) ValidateChamber(c *chambers.Chamber) error {
	cfgErr := &ConfigurationError{Chamber: c.Name}
	for _, slot := range c.EnabledSlots() {
		if _, ok := r.Lookup(slot.EvaluatorID); !ok {
			cfgErr.Unknown = append(cfgErr.Unknown, slot.EvaluatorID)
		}
		sev := slot.Severity
		if sev.IsNegative() || sev.GreaterThan(one) || !common.IsMoney(sev) {
			cfgErr.Problems = append(cfgErr.Problems,
				fmt.Sprintf("slot %s severity %s must be in [0,1] with at most two decimal places", slot.Label(), sev))
		}
	}
	if len(cfgErr.Unknown) > 0 || len(cfgErr.Problems) > 0 {
		return cfgErr
	}
	return nil
}
