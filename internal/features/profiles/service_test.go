package profiles

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/drum/internal/common"
)

type memStore struct {
	mu       sync.Mutex
	profiles map[int64]*Profile
	creates  int
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[int64]*Profile)}
}

func (m *memStore) Create(_ context.Context, userID int64, username string, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if p, ok := m.profiles[userID]; ok {
		p.Username = username
		return nil
	}
	m.profiles[userID] = &Profile{ID: userID, UserID: userID, Username: username, Balance: balance, CreatedAt: time.Now()}
	return nil
}

func (m *memStore) GetByUserID(_ context.Context, userID int64) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Username, username) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (m *memStore) Exists(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.profiles[userID]
	return ok, nil
}

func TestEnsureProfileSeedsBalanceOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := newMemStore()
	svc := NewService(store, decimal.RequireFromString("5.00"))

	p, err := svc.EnsureProfile(ctx, 42, "alice")
	require.NoError(err)
	assert.Equal("5.00", p.Balance.StringFixed(2))
	assert.Equal(0, p.Karma)

	// повторный вызов не пересоздаёт профиль
	_, err = svc.EnsureProfile(ctx, 42, "alice")
	require.NoError(err)
	assert.Equal(1, store.creates)

	byName, err := svc.GetByUsername(ctx, "ALICE")
	require.NoError(err)
	assert.Equal(int64(42), byName.UserID)
	assert.Equal("alice (0)", byName.DisplayName())
}

func TestGetMissingProfile(t *testing.T) {
	svc := NewService(newMemStore(), decimal.Zero)
	_, err := svc.GetByUserID(context.Background(), 7)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
