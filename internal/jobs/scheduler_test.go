package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type warmer struct {
	calls int
	err   error
}

func (w *warmer) WarmFrontPages(context.Context) error {
	w.calls++
	return w.err
}

type words struct {
	paths []string
	panic bool
}

func (w *words) LoadFromFileJSON(path string) error {
	if w.panic {
		panic("corrupt list")
	}
	w.paths = append(w.paths, path)
	return nil
}

func TestScheduler_StartRegistersJobs(t *testing.T) {
	s := NewScheduler(&warmer{}, &words{}, "/etc/drum/words.json", Specs{WarmListings: "*/5 * * * *", ReloadWords: "0 * * * *"})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 2)
}

func TestScheduler_SkipsUnconfigured(t *testing.T) {
	s := NewScheduler(&warmer{}, nil, "", Specs{WarmListings: "*/5 * * * *", ReloadWords: "0 * * * *"})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_BadSchedule(t *testing.T) {
	s := NewScheduler(&warmer{}, nil, "", Specs{WarmListings: "every tuesday"})
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_JobsSurviveFailures(t *testing.T) {
	w := &warmer{err: errors.New("db down")}
	wl := &words{panic: true}
	s := NewScheduler(w, wl, "words.json", Specs{})

	assert.NotPanics(t, func() { s.WarmListings(context.Background()) })
	assert.NotPanics(t, s.ReloadWords)
	assert.Equal(t, 1, w.calls)

	wl.panic = false
	s.ReloadWords()
	assert.Equal(t, []string{"words.json"}, wl.paths)
}
