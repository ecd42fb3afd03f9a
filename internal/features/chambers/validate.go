package chambers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"serotonyl.ru/drum/internal/common"
)

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// Validate проверяет экономические поля и имя палаты.
// Проверка слотов автомодерации против реестра оценщиков: отдельно, у automod.
func (c *Chamber) Validate() error {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	if !nameRe.MatchString(c.Name) {
		return fmt.Errorf("имя палаты %q: только a-z, 0-9, '-' и '_', от 2 до 64 символов", c.Name)
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		c.DisplayName = c.Name
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("палата %q: нужно описание", c.Name)
	}
	// порядок важен: ошибка называет первое некорректное поле
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"min_thread_balance", c.MinThreadBalance},
		{"min_comment_balance", c.MinCommentBalance},
		{"max_fine", c.MaxFine},
	} {
		if f.value.IsNegative() || !common.IsMoney(f.value) {
			return fmt.Errorf("палата %q: %s=%s: %w", c.Name, f.name, f.value, common.ErrInvalidAmount)
		}
	}
	return nil
}
