// Package admission решает, принять ли новую публикацию: тред, комментарий или палату.
//
// Порядок проверок: лимит частоты → валидация → дубликат ссылки → автомодерация → баланс.
// Дубликат проверяется до автомодерации, чтобы не тратить вызовы оценщиков;
// автомодерация до баланса, чтобы нарушающая публикация не прошла только потому, что дешёвая.
// Отклонённая публикация ничего не пишет.
package admission

import (
	"fmt"

	"serotonyl.ru/drum/internal/features/automod"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/economy"
	"serotonyl.ru/drum/internal/features/links"
)

// State: состояние конечного автомата приёма.
type State string

const (
	StateReceived       State = "received"
	StateRateLimit      State = "rate_limit"
	StateValidate       State = "validate"
	StateDuplicateCheck State = "duplicate_check"
	StateAutomodCheck   State = "automod_check"
	StateBalanceCheck   State = "balance_check"
	StateAccepted       State = "accepted"
	StateRejected       State = "rejected"
)

// Reason: причина отказа.
type Reason string

const (
	ReasonRateLimited         Reason = "rate_limited"
	ReasonInvalid             Reason = "invalid"
	ReasonDuplicate           Reason = "duplicate"
	ReasonChamberExists       Reason = "chamber_exists"
	ReasonAutomod             Reason = "automod"
	ReasonInsufficientBalance Reason = "insufficient_balance"
)

// ThreadDraft: черновик треда.
type ThreadDraft struct {
	AuthorID    int64
	Chamber     string
	Title       string
	Link        string
	Description string
}

// CommentDraft: черновик комментария.
type CommentDraft struct {
	AuthorID int64
	ThreadID int64
	Body     string
}

// Decision: итог приёма. Detail можно показывать пользователю как есть.
type Decision struct {
	Accepted bool
	Reason   Reason
	Detail   string
	Cause    error // исходная ошибка, например *automod.ConfigurationError

	Trail   []State        // пройденные состояния
	Report  automod.Report // заполнен, если дошли до автомодерации
	Balance economy.Check  // заполнен, если дошли до проверки баланса

	Thread  *links.Thread
	Comment *links.Comment
	Chamber *chambers.Chamber
}

// Err возвращает *RejectedError для отклонённого решения, иначе nil.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return &RejectedError{Reason: d.Reason, Detail: d.Detail, Cause: d.Cause}
}

// RejectedError: ожидаемый отказ, не сбой.
type RejectedError struct {
	Reason Reason
	Detail string
	Cause  error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected (%s): %s", e.Reason, e.Detail)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Rejection: то, что уходит модераторам при отказе автомодерации.
type Rejection struct {
	Kind     string
	AuthorID int64
	Chamber  string
	Detail   string
	Text     string
}

// Тексты отказов.
const (
	detailRateLimited   = "Too many submissions, try again later."
	detailNoChamber     = "Chamber required."
	detailNoPayload     = "Either a link or description is required"
	detailLinkRequired  = "Link required."
	detailNoTitle       = "Title required."
	detailNoBody        = "Comment required."
	detailNoThread      = "Thread not found."
	detailDuplicate     = "Link exists"
	detailChamberExists = "Chamber exists"
)
