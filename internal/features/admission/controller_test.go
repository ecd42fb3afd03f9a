package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/automod"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/economy"
	"serotonyl.ru/drum/internal/features/links"
	"serotonyl.ru/drum/internal/features/profiles"
	"serotonyl.ru/drum/internal/middleware"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type profileMap map[int64]*profiles.Profile

func (m profileMap) GetByUserID(_ context.Context, id int64) (*profiles.Profile, error) {
	p, ok := m[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return p, nil
}

type chamberStore struct {
	byName map[string]*chambers.Chamber
	stale  bool // Exists не видит уже созданные палаты
}

func (s *chamberStore) Create(_ context.Context, c *chambers.Chamber) (int64, error) {
	if _, ok := s.byName[c.Name]; ok {
		return 0, common.ErrChamberExists
	}
	c.ID = int64(len(s.byName) + 1)
	s.byName[c.Name] = c
	return c.ID, nil
}

func (s *chamberStore) UpdateConfig(_ context.Context, c *chambers.Chamber) error {
	s.byName[c.Name] = c
	return nil
}

func (s *chamberStore) GetByName(_ context.Context, name string) (*chambers.Chamber, error) {
	c, ok := s.byName[name]
	if !ok {
		return nil, common.ErrChamberNotFound
	}
	return c, nil
}

func (s *chamberStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := s.byName[name]
	return ok && !s.stale, nil
}

func (s *chamberStore) List(context.Context) ([]*chambers.Chamber, error) {
	var out []*chambers.Chamber
	for _, c := range s.byName {
		out = append(out, c)
	}
	return out, nil
}

type linkStore struct {
	threads  []*links.Thread
	comments []*links.Comment
	fail     bool
}

func (s *linkStore) CreateThread(_ context.Context, t *links.Thread) error {
	if s.fail {
		return errors.New("db down")
	}
	t.ID = int64(len(s.threads) + 1)
	s.threads = append(s.threads, t)
	return nil
}

func (s *linkStore) CreateComment(_ context.Context, c *links.Comment) error {
	c.ID = int64(len(s.comments) + 1)
	s.comments = append(s.comments, c)
	return nil
}

func (s *linkStore) GetThread(_ context.Context, id int64) (*links.Thread, error) {
	for _, t := range s.threads {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, common.ErrContentNotFound
}

func (s *linkStore) FindRecentByLink(_ context.Context, chamber, normalized string, since time.Time) (*links.Thread, error) {
	for _, t := range s.threads {
		if t.Chamber == chamber && t.NormalizedLink == normalized && !t.PublishDate.Before(since) {
			return t, nil
		}
	}
	return nil, nil
}

type denyAll struct{}

func (denyAll) Check(int64) bool { return false }
func (denyAll) Record(int64) {}

type notifier struct {
	sent []Rejection
}

func (n *notifier) Notify(_ context.Context, r Rejection) error {
	n.sent = append(n.sent, r)
	return nil
}

type fixture struct {
	ctrl     *Controller
	profiles profileMap
	chambers *chamberStore
	links    *linkStore
	notifier *notifier
	registry *automod.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		profiles: profileMap{},
		chambers: &chamberStore{byName: map[string]*chambers.Chamber{}},
		links:    &linkStore{},
		notifier: &notifier{},
		registry: automod.NewRegistry(0.5),
	}
	require.NoError(t, f.registry.Register(automod.EvaluatorGTUBE, automod.GTUBEEvaluator))

	f.chambers.byName["x"] = &chambers.Chamber{ID: 1, Name: "x", Description: "d", MinThreadBalance: money("10.00"), MinCommentBalance: money("1.00")}

	f.ctrl = NewController(Deps{
		Profiles:  f.profiles,
		Chambers:  chambers.NewService(f.chambers, f.registry),
		Content:   links.NewService(f.links, 24*time.Hour),
		Moderator: automod.NewEngine(f.registry, time.Second, false),
		Balances:  economy.NewLedger(money("10.00")),
		Notifier:  f.notifier,
	}, false)
	return f
}

func (f *fixture) withBalance(userID int64, balance string) {
	f.profiles[userID] = &profiles.Profile{UserID: userID, Balance: money(balance)}
}

func TestSubmitThread_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "5.00")

	d, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Link: "https://example.com"})
	require.NoError(t, err)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonInsufficientBalance, d.Reason)
	assert.Contains(t, d.Detail, "5.00")
	assert.Contains(t, d.Detail, "10.00")
	assert.Equal(t, "Balance (5.00) too low to create a thread in 'x'. Minimum: 10.00", d.Detail)
	assert.Empty(t, f.links.threads, "rejection writes nothing")

	var rej *RejectedError
	require.ErrorAs(t, d.Err(), &rej)
	assert.Equal(t, ReasonInsufficientBalance, rej.Reason)
	assert.ErrorIs(t, d.Err(), common.ErrInsufficientBalance)
}

func TestSubmitThread_Accepted(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "15.00")

	d, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 1, Chamber: "X", Title: "t", Link: "https://example.com"})
	require.NoError(t, err)
	require.True(t, d.Accepted)
	assert.NoError(t, d.Err())
	require.NotNil(t, d.Thread)
	assert.Equal(t, "x", d.Thread.Chamber)
	assert.Len(t, f.links.threads, 1)
	assert.Equal(t, []State{
		StateReceived, StateRateLimit, StateValidate, StateDuplicateCheck,
		StateAutomodCheck, StateBalanceCheck, StateAccepted,
	}, d.Trail)
}

func TestSubmitThread_BalanceBoundaryInclusive(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "10.00")

	d, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Description: "text"})
	require.NoError(t, err)
	assert.True(t, d.Accepted)
}

func TestSubmitThread_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "50")
	ctx := context.Background()

	first, err := f.ctrl.SubmitThread(ctx, ThreadDraft{AuthorID: 1, Chamber: "x", Title: "a", Link: "https://www.example.com/post/"})
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := f.ctrl.SubmitThread(ctx, ThreadDraft{AuthorID: 1, Chamber: "x", Title: "b", Link: "https://example.com/post#top"})
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicate, second.Reason)
	assert.Equal(t, "Link exists", second.Detail)
	assert.NotContains(t, second.Trail, StateAutomodCheck, "duplicate is checked before automod")
}

func TestSubmitThread_AutomodBeforeBalance(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "0.00")
	f.chambers.byName["x"].Slots[0] = chambers.AutomodSlot{EvaluatorID: automod.EvaluatorGTUBE, Severity: money("1")}

	d, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{
		AuthorID: 1, Chamber: "x", Title: "spam", Description: "buy " + automod.GTUBE,
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonAutomod, d.Reason)
	assert.Contains(t, d.Detail, "Failed automoderation:")
	assert.Contains(t, d.Detail, "gtube")
	assert.NotContains(t, d.Trail, StateBalanceCheck)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "x", f.notifier.sent[0].Chamber)
}

func TestSubmitThread_Invalid(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "50")
	ctx := context.Background()

	tests := []struct {
		name   string
		draft  ThreadDraft
		detail string
	}{
		{"no chamber", ThreadDraft{AuthorID: 1, Title: "t", Link: "http://a.io"}, "Chamber required."},
		{"unknown chamber", ThreadDraft{AuthorID: 1, Chamber: "nope", Title: "t", Link: "http://a.io"}, "Chamber required."},
		{"no title", ThreadDraft{AuthorID: 1, Chamber: "x", Link: "http://a.io"}, "Title required."},
		{"no payload", ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t"}, "Either a link or description is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.ctrl.SubmitThread(ctx, tt.draft)
			require.NoError(t, err)
			assert.Equal(t, ReasonInvalid, d.Reason)
			assert.Equal(t, tt.detail, d.Detail)
		})
	}
}

func TestSubmitThread_LinkRequired(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "50")
	f.ctrl.linkRequired = true

	d, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Description: "only text"})
	require.NoError(t, err)
	assert.Equal(t, "Link required.", d.Detail)
}

func TestSubmitThread_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "50")
	f.ctrl.Limiter = denyAll{}

	d, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, ReasonRateLimited, d.Reason)
}

func TestSubmitThread_RejectionKeepsQuota(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "5.00")
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Close()
	f.ctrl.Limiter = limiter
	ctx := context.Background()
	draft := ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Link: "https://example.com"}

	d, err := f.ctrl.SubmitThread(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, ReasonInsufficientBalance, d.Reason)

	d, err = f.ctrl.SubmitThread(ctx, ThreadDraft{AuthorID: 1, Chamber: "x"})
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalid, d.Reason)

	f.withBalance(1, "15.00")
	d, err = f.ctrl.SubmitThread(ctx, draft)
	require.NoError(t, err)
	require.True(t, d.Accepted, "rejected submissions must not spend the limit")

	d, err = f.ctrl.SubmitThread(ctx, ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t2", Link: "https://example.org"})
	require.NoError(t, err)
	assert.Equal(t, ReasonRateLimited, d.Reason)
}

func TestSubmitThread_InfrastructureError(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "50")
	f.links.fail = true

	_, err := f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Description: "d"})
	assert.Error(t, err)

	_, err = f.ctrl.SubmitThread(context.Background(), ThreadDraft{AuthorID: 404, Chamber: "x", Title: "t", Description: "d"})
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestSubmitComment(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "50")
	f.withBalance(2, "0.50")
	ctx := context.Background()

	thread, err := f.ctrl.SubmitThread(ctx, ThreadDraft{AuthorID: 1, Chamber: "x", Title: "t", Description: "d"})
	require.NoError(t, err)
	require.True(t, thread.Accepted)

	poor, err := f.ctrl.SubmitComment(ctx, CommentDraft{AuthorID: 2, ThreadID: thread.Thread.ID, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ReasonInsufficientBalance, poor.Reason)
	assert.Equal(t, "Balance (0.50) too low to comment in 'x'. Minimum: 1.00", poor.Detail)

	ok, err := f.ctrl.SubmitComment(ctx, CommentDraft{AuthorID: 1, ThreadID: thread.Thread.ID, Body: "hi"})
	require.NoError(t, err)
	require.True(t, ok.Accepted)
	assert.Equal(t, "x", ok.Comment.Chamber)

	missing, err := f.ctrl.SubmitComment(ctx, CommentDraft{AuthorID: 1, ThreadID: 999, Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalid, missing.Reason)
}

func TestCreateChamber(t *testing.T) {
	f := newFixture(t)
	f.withBalance(1, "5.00")
	f.withBalance(2, "10.00")
	ctx := context.Background()

	poor, err := f.ctrl.CreateChamber(ctx, &chambers.Chamber{Name: "golang", Description: "go", OwnerID: 1})
	require.NoError(t, err)
	assert.Equal(t, ReasonInsufficientBalance, poor.Reason)
	assert.Equal(t, "Balance (5.00) too low to create a chamber. Minimum: 10.00", poor.Detail)

	badCfg := &chambers.Chamber{Name: "rust", Description: "r", OwnerID: 2}
	badCfg.Slots[1] = chambers.AutomodSlot{EvaluatorID: "unknown", Severity: money("0.5")}
	invalid, err := f.ctrl.CreateChamber(ctx, badCfg)
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalid, invalid.Reason)
	var cfgErr *automod.ConfigurationError
	assert.ErrorAs(t, invalid.Err(), &cfgErr)

	ok, err := f.ctrl.CreateChamber(ctx, &chambers.Chamber{Name: "golang", Description: "go", OwnerID: 2})
	require.NoError(t, err)
	require.True(t, ok.Accepted)
	assert.NotContains(t, ok.Trail, StateAutomodCheck)
	assert.Contains(t, f.chambers.byName, "golang")

	exists, err := f.ctrl.CreateChamber(ctx, &chambers.Chamber{Name: "GoLang", Description: "dup", OwnerID: 2})
	require.NoError(t, err)
	assert.Equal(t, ReasonChamberExists, exists.Reason)
	assert.Equal(t, "Chamber exists", exists.Detail)
}

func TestCreateChamber_NameTakenConcurrently(t *testing.T) {
	f := newFixture(t)
	f.withBalance(2, "10.00")
	f.chambers.stale = true
	ctx := context.Background()

	first, err := f.ctrl.CreateChamber(ctx, &chambers.Chamber{Name: "golang", Description: "go", OwnerID: 2})
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := f.ctrl.CreateChamber(ctx, &chambers.Chamber{Name: "golang", Description: "go", OwnerID: 2})
	require.NoError(t, err, "a lost insert race is a rejection, not an infrastructure error")
	assert.Equal(t, ReasonChamberExists, second.Reason)
	assert.ErrorIs(t, second.Err(), common.ErrChamberExists)
}
