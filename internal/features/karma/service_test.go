package karma

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memProfile struct {
	karma, up, down int
}

type memStore struct {
	mu       sync.Mutex
	profiles map[int64]*memProfile
	applied  []Adjustment
	fail     bool
}

func newMemStore(userIDs ...int64) *memStore {
	s := &memStore{profiles: make(map[int64]*memProfile)}
	for _, id := range userIDs {
		s.profiles[id] = &memProfile{}
	}
	return s
}

func (s *memStore) Apply(_ context.Context, adj Adjustment) (bool, error) {
	if s.fail {
		return false, errors.New("db down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	author, ok := s.profiles[adj.AuthorID]
	if !ok {
		return false, nil
	}
	author.karma += adj.Delta
	if voter, ok := s.profiles[adj.VoterID]; ok {
		voter.up += adj.UpDelta
		voter.down += adj.DownDelta
	}
	s.applied = append(s.applied, adj)
	return true, nil
}

func (s *memStore) karma(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[id].karma
}

type mapResolver map[ContentRef]int64

func (m mapResolver) AuthorOf(_ context.Context, ref ContentRef) (int64, error) {
	id, ok := m[ref]
	if !ok {
		return 0, errors.New("content not found")
	}
	return id, nil
}

const (
	author int64 = 1
	voter  int64 = 2
)

var thread = ContentRef{Type: ContentThread, ID: 10}

func TestVoteRoundTripNetsZero(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := newMemStore(author, voter)
	l := NewLedger(store, nil)

	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voter, AuthorID: author, Content: thread, Value: 1})
	assert.Equal(1, store.karma(author))

	l.OnVoteEvent(ctx, VoteEvent{Kind: EventChanged, VoterID: voter, AuthorID: author, Content: thread, Value: -1})
	assert.Equal(-1, store.karma(author))

	l.OnVoteEvent(ctx, VoteEvent{Kind: EventDeleted, VoterID: voter, AuthorID: author, Content: thread, Value: -1})
	assert.Equal(0, store.karma(author))

	v := store.profiles[voter]
	assert.Equal(0, v.up)
	assert.Equal(0, v.down)
}

func TestSelfVoteIsNoop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := newMemStore(author)
	l := NewLedger(store, mapResolver{thread: author})

	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: author, AuthorID: author, Content: thread, Value: 1})
	// автор определяется резолвером: всё равно самоголос
	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: author, Content: thread, Value: 1})

	assert.Equal(0, store.karma(author))
	assert.Empty(store.applied)
}

func TestResolverAndDrops(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := newMemStore(author, voter)
	l := NewLedger(store, mapResolver{thread: author})

	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voter, Content: thread, Value: -1})
	assert.Equal(-1, store.karma(author))

	// неизвестный объект: отброшено без паники
	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voter, Content: ContentRef{Type: ContentComment, ID: 99}, Value: 1})
	// автор без профиля
	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voter, AuthorID: 777, Content: thread, Value: 1})
	// некорректное значение
	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voter, AuthorID: author, Content: thread, Value: 3})
	assert.Equal(-1, store.karma(author))

	store.fail = true
	l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voter, AuthorID: author, Content: thread, Value: 1})
	assert.Equal(-1, store.karma(author))
}

func TestConcurrentVotesDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()

	store := newMemStore(author)
	for i := int64(100); i < 300; i++ {
		store.profiles[i] = &memProfile{}
	}
	l := NewLedger(store, nil)

	var wg sync.WaitGroup
	for i := int64(100); i < 300; i++ {
		wg.Add(1)
		go func(voterID int64) {
			defer wg.Done()
			l.OnVoteEvent(ctx, VoteEvent{Kind: EventCreated, VoterID: voterID, AuthorID: author, Content: thread, Value: 1})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, store.karma(author))
}

func TestPlan(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		kind            EventKind
		value           int
		delta, up, down int
	}{
		{EventCreated, 1, 1, 1, 0},
		{EventCreated, -1, -1, 0, 1},
		{EventChanged, -1, -2, -1, 1},
		{EventChanged, 1, 2, 1, -1},
		{EventDeleted, 1, -1, -1, 0},
		{EventDeleted, -1, 1, 0, -1},
	}
	for _, c := range cases {
		adj, ok := Plan(VoteEvent{Kind: c.kind, VoterID: voter, AuthorID: author, Value: c.value})
		assert.True(ok)
		assert.Equal(c.delta, adj.Delta, "%s %d", c.kind, c.value)
		assert.Equal(c.up, adj.UpDelta, "%s %d", c.kind, c.value)
		assert.Equal(c.down, adj.DownDelta, "%s %d", c.kind, c.value)
	}

	_, ok := Plan(VoteEvent{Kind: "bogus", Value: 1})
	assert.False(ok)
	_, ok = Plan(VoteEvent{Kind: EventCreated, Value: 0})
	assert.False(ok)
}
