package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/automod"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/economy"
	"serotonyl.ru/drum/internal/features/links"
	"serotonyl.ru/drum/internal/features/profiles"
	"serotonyl.ru/drum/internal/middleware"
)

// Profiles находит профиль автора.
type Profiles interface {
	GetByUserID(ctx context.Context, userID int64) (*profiles.Profile, error)
}

// Chambers: палаты: чтение и создание.
type Chambers interface {
	Get(ctx context.Context, name string) (*chambers.Chamber, error)
	Exists(ctx context.Context, name string) (bool, error)
	ValidateConfig(c *chambers.Chamber) error
	Create(ctx context.Context, c *chambers.Chamber) error
}

// Content: треды и комментарии.
type Content interface {
	FindDuplicate(ctx context.Context, t *links.Thread) (*links.Thread, error)
	CreateThread(ctx context.Context, t *links.Thread) error
	GetThread(ctx context.Context, id int64) (*links.Thread, error)
	CreateComment(ctx context.Context, c *links.Comment) error
}

// Moderator прогоняет текст через автомодерацию палаты.
type Moderator interface {
	Evaluate(ctx context.Context, ch *chambers.Chamber, text string) automod.Report
}

// Balances проверяет баланс. Только чтение.
type Balances interface {
	CheckSufficient(p *profiles.Profile, ch *chambers.Chamber, kind economy.ActionKind) economy.Check
}

// Limiter ограничивает частоту публикаций автора.
// Check только проверяет, Record учитывает принятую публикацию.
type Limiter interface {
	Check(userID int64) bool
	Record(userID int64)
}

// Notifier сообщает модераторам об отказах автомодерации.
type Notifier interface {
	Notify(ctx context.Context, r Rejection) error
}

// Deps: зависимости контроллера. Limiter и Notifier необязательны.
type Deps struct {
	Profiles  Profiles
	Chambers  Chambers
	Content   Content
	Moderator Moderator
	Balances  Balances
	Limiter   Limiter
	Notifier  Notifier
}

// Controller принимает или отклоняет публикации.
type Controller struct {
	Deps
	linkRequired bool
}

// NewController создаёт контроллер. linkRequired: LINK_REQUIRED.
func NewController(deps Deps, linkRequired bool) *Controller {
	return &Controller{Deps: deps, linkRequired: linkRequired}
}

// run ведёт одну публикацию по состояниям.
type run struct {
	kind     string
	authorID int64
	decision Decision
}

func (r *run) enter(s State) {
	r.decision.Trail = append(r.decision.Trail, s)
}

func (r *run) reject(reason Reason, detail string, cause error) Decision {
	r.enter(StateRejected)
	r.decision.Accepted = false
	r.decision.Reason, r.decision.Detail, r.decision.Cause = reason, detail, cause
	decisionCount.WithLabelValues(r.kind, string(reason)).Inc()
	log.WithFields(log.Fields{
		"component": "admission",
		"kind":      r.kind,
		"author_id": r.authorID,
		"reason":    reason,
	}).Info("Публикация отклонена")
	return r.decision
}

// accept: квота лимита тратится только здесь, отказ ничего не записывает.
func (c *Controller) accept(r *run) Decision {
	if c.Limiter != nil {
		c.Limiter.Record(r.authorID)
	}
	r.enter(StateAccepted)
	r.decision.Accepted = true
	decisionCount.WithLabelValues(r.kind, "accepted").Inc()
	return r.decision
}

func (c *Controller) start(kind string, authorID int64, chamber, text string) *run {
	middleware.LogSubmission(kind, authorID, chamber, text)
	r := &run{kind: kind, authorID: authorID}
	r.enter(StateReceived)
	return r
}

func (c *Controller) allowed(r *run) bool {
	r.enter(StateRateLimit)
	return c.Limiter == nil || c.Limiter.Check(r.authorID)
}

// moderate возвращает false, если публикация не прошла автомодерацию.
func (c *Controller) moderate(ctx context.Context, r *run, ch *chambers.Chamber, text string) bool {
	r.enter(StateAutomodCheck)
	report := c.Moderator.Evaluate(ctx, ch, text)
	r.decision.Report = report
	if !report.Failed() {
		return true
	}
	if c.Notifier != nil {
		err := c.Notifier.Notify(ctx, Rejection{
			Kind:     r.kind,
			AuthorID: r.authorID,
			Chamber:  ch.Name,
			Detail:   report.FailInfo(),
			Text:     text,
		})
		if err != nil {
			notifyErrorCount.Inc()
			log.WithError(err).Warn("Не удалось уведомить модераторов")
		}
	}
	return false
}

// checkBalance возвращает false, если баланса не хватает.
func (c *Controller) checkBalance(ctx context.Context, r *run, ch *chambers.Chamber, kind economy.ActionKind) (bool, error) {
	r.enter(StateBalanceCheck)
	profile, err := c.Profiles.GetByUserID(ctx, r.authorID)
	if err != nil {
		return false, fmt.Errorf("профиль автора %d: %w", r.authorID, err)
	}
	check := c.Balances.CheckSufficient(profile, ch, kind)
	r.decision.Balance = check
	if check.Err != nil {
		return false, check.Err
	}
	return check.OK, nil
}

// loadChamber: (nil, nil): палаты нет.
func (c *Controller) loadChamber(ctx context.Context, name string) (*chambers.Chamber, error) {
	ch, err := c.Chambers.Get(ctx, name)
	if errors.Is(err, common.ErrChamberNotFound) {
		return nil, nil
	}
	return ch, err
}

// SubmitThread принимает тред. error: только сбой инфраструктуры.
func (c *Controller) SubmitThread(ctx context.Context, d ThreadDraft) (Decision, error) {
	r := c.start("thread", d.AuthorID, d.Chamber, d.Title)
	if !c.allowed(r) {
		return r.reject(ReasonRateLimited, detailRateLimited, nil), nil
	}

	r.enter(StateValidate)
	t := &links.Thread{
		Chamber:     strings.ToLower(strings.TrimSpace(d.Chamber)),
		AuthorID:    d.AuthorID,
		Title:       strings.TrimSpace(d.Title),
		Link:        strings.TrimSpace(d.Link),
		Description: strings.TrimSpace(d.Description),
	}
	switch {
	case t.Chamber == "":
		return r.reject(ReasonInvalid, detailNoChamber, nil), nil
	case t.Title == "":
		return r.reject(ReasonInvalid, detailNoTitle, nil), nil
	case c.linkRequired && t.Link == "":
		return r.reject(ReasonInvalid, detailLinkRequired, nil), nil
	case !t.HasPayload():
		return r.reject(ReasonInvalid, detailNoPayload, nil), nil
	}
	ch, err := c.loadChamber(ctx, t.Chamber)
	if err != nil {
		return Decision{}, err
	}
	if ch == nil {
		return r.reject(ReasonInvalid, detailNoChamber, common.ErrChamberNotFound), nil
	}
	r.decision.Chamber = ch

	r.enter(StateDuplicateCheck)
	dup, err := c.Content.FindDuplicate(ctx, t)
	if err != nil {
		return Decision{}, err
	}
	if dup != nil {
		return r.reject(ReasonDuplicate, detailDuplicate, nil), nil
	}

	if !c.moderate(ctx, r, ch, t.Text()) {
		return r.reject(ReasonAutomod, r.decision.Report.FailInfo(), nil), nil
	}

	ok, err := c.checkBalance(ctx, r, ch, economy.ActionCreateThread)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return r.reject(ReasonInsufficientBalance, r.decision.Balance.Detail(), common.ErrInsufficientBalance), nil
	}

	if err := c.Content.CreateThread(ctx, t); err != nil {
		return Decision{}, err
	}
	r.decision.Thread = t
	return c.accept(r), nil
}

// SubmitComment принимает комментарий. Дубликаты для комментариев не проверяются.
func (c *Controller) SubmitComment(ctx context.Context, d CommentDraft) (Decision, error) {
	r := c.start("comment", d.AuthorID, "", d.Body)
	if !c.allowed(r) {
		return r.reject(ReasonRateLimited, detailRateLimited, nil), nil
	}

	r.enter(StateValidate)
	body := strings.TrimSpace(d.Body)
	if body == "" {
		return r.reject(ReasonInvalid, detailNoBody, nil), nil
	}
	thread, err := c.Content.GetThread(ctx, d.ThreadID)
	if errors.Is(err, common.ErrContentNotFound) {
		return r.reject(ReasonInvalid, detailNoThread, err), nil
	}
	if err != nil {
		return Decision{}, err
	}
	ch, err := c.loadChamber(ctx, thread.Chamber)
	if err != nil {
		return Decision{}, err
	}
	if ch == nil {
		return r.reject(ReasonInvalid, detailNoChamber, common.ErrChamberNotFound), nil
	}
	r.decision.Chamber = ch

	if !c.moderate(ctx, r, ch, body) {
		return r.reject(ReasonAutomod, r.decision.Report.FailInfo(), nil), nil
	}

	ok, err := c.checkBalance(ctx, r, ch, economy.ActionCreateComment)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return r.reject(ReasonInsufficientBalance, r.decision.Balance.Detail(), common.ErrInsufficientBalance), nil
	}

	comment := &links.Comment{ThreadID: thread.ID, AuthorID: d.AuthorID, Body: body}
	if err := c.Content.CreateComment(ctx, comment); err != nil {
		return Decision{}, err
	}
	r.decision.Comment = comment
	return c.accept(r), nil
}

// CreateChamber принимает новую палату. Автомодерации нет: родительской палаты не существует.
// Ошибка конфигурации автомодерации: отказ invalid с *automod.ConfigurationError в Cause.
func (c *Controller) CreateChamber(ctx context.Context, ch *chambers.Chamber) (Decision, error) {
	r := c.start("chamber", ch.OwnerID, ch.Name, ch.Description)
	if !c.allowed(r) {
		return r.reject(ReasonRateLimited, detailRateLimited, nil), nil
	}

	r.enter(StateValidate)
	if err := c.Chambers.ValidateConfig(ch); err != nil {
		return r.reject(ReasonInvalid, err.Error(), err), nil
	}
	r.decision.Chamber = ch

	r.enter(StateDuplicateCheck)
	exists, err := c.Chambers.Exists(ctx, ch.Name)
	if err != nil {
		return Decision{}, err
	}
	if exists {
		return r.reject(ReasonChamberExists, detailChamberExists, nil), nil
	}

	ok, err := c.checkBalance(ctx, r, nil, economy.ActionCreateChamber)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return r.reject(ReasonInsufficientBalance, r.decision.Balance.Detail(), common.ErrInsufficientBalance), nil
	}

	if ch.PublishDate.IsZero() {
		ch.PublishDate = common.NowUTC()
	}
	if err := c.Chambers.Create(ctx, ch); err != nil {
		// имя заняли между проверкой и вставкой
		if errors.Is(err, common.ErrChamberExists) {
			return r.reject(ReasonChamberExists, detailChamberExists, err), nil
		}
		return Decision{}, err
	}
	return c.accept(r), nil
}
