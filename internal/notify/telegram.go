// Package notify отправляет модераторам уведомления об отказах автомодерации.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/features/admission"
	"serotonyl.ru/drum/internal/middleware"
)

// sendTimeout: сколько ждём Telegram, публикация не должна висеть на уведомлении.
const sendTimeout = 5 * time.Second

// Sender: часть telego.Bot, которая нужна уведомителю.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Telegram пишет отказы в чат модераторов.
type Telegram struct {
	sender Sender
	chatID int64
}

// NewTelegram создаёт уведомитель с ботом по токену.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	return &Telegram{sender: bot, chatID: chatID}, nil
}

// Notify отправляет сообщение об отказе.
func (t *Telegram) Notify(ctx context.Context, r admission.Rejection) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := t.sender.SendMessage(ctx, tu.Message(tu.ID(t.chatID), Format(r))); err != nil {
		return fmt.Errorf("ошибка отправки в чат %d: %w", t.chatID, err)
	}
	return nil
}

// Format: текст уведомления.
func Format(r admission.Rejection) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🚫 Автомодерация отклонила %s\n", r.Kind)
	if r.Chamber != "" {
		fmt.Fprintf(&sb, "Палата: %s\n", r.Chamber)
	}
	fmt.Fprintf(&sb, "Автор: %d\n\n", r.AuthorID)
	sb.WriteString(r.Detail)
	if r.Text != "" {
		fmt.Fprintf(&sb, "\n\nТекст: %s", middleware.Truncate(r.Text, 200))
	}
	return sb.String()
}

// Log: уведомитель без Telegram: только пишет в лог.
type Log struct{}

func (Log) Notify(_ context.Context, r admission.Rejection) error {
	log.WithFields(log.Fields{
		"kind":      r.Kind,
		"chamber":   r.Chamber,
		"author_id": r.AuthorID,
	}).Warn("Автомодерация отклонила публикацию")
	return nil
}
