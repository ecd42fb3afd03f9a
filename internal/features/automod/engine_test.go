package automod

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/chambers"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixed(score float64) Evaluator {
	return EvaluatorFunc(func(context.Context, string) (float64, error) { return score, nil })
}

type counting struct {
	calls atomic.Int32
	score float64
}

func (c *counting) Evaluate(context.Context, string) (float64, error) {
	c.calls.Add(1)
	return c.score, nil
}

func newRegistry(t *testing.T, evs map[string]Evaluator) *Registry {
	t.Helper()
	reg := NewRegistry(0.5)
	for id, ev := range evs {
		require.NoError(t, reg.Register(id, ev))
	}
	return reg
}

func chamberWith(slots ...chambers.AutomodSlot) *chambers.Chamber {
	c := &chambers.Chamber{Name: "x", Description: "d", MaxFine: money("100")}
	copy(c.Slots[:], slots)
	return c
}

func TestEvaluate_NoSlotsNoCalls(t *testing.T) {
	ev := &counting{score: 1}
	reg := newRegistry(t, map[string]Evaluator{"c": ev})
	report := NewEngine(reg, time.Second, false).Evaluate(context.Background(), chamberWith(), "anything")

	assert.False(t, report.Failed())
	assert.Empty(t, report.FailInfo())
	assert.Zero(t, ev.calls.Load())
}

func TestEvaluate_DisabledSlotIgnored(t *testing.T) {
	ev := &counting{score: 1}
	reg := newRegistry(t, map[string]Evaluator{"c": ev})
	ch := chamberWith(chambers.AutomodSlot{Severity: money("1")})

	report := NewEngine(reg, time.Second, false).Evaluate(context.Background(), ch, "x")
	assert.False(t, report.Failed())
	assert.Zero(t, ev.calls.Load())
}

func TestEvaluate_ThresholdInclusive(t *testing.T) {
	reg := newRegistry(t, map[string]Evaluator{"at": fixed(0.5), "below": fixed(0.49)})
	ch := chamberWith(
		chambers.AutomodSlot{EvaluatorID: "at", Severity: money("1")},
		chambers.AutomodSlot{EvaluatorID: "below", Severity: money("1")},
	)
	report := NewEngine(reg, time.Second, false).Evaluate(context.Background(), ch, "x")
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a", report.Failures[0].Slot)
	assert.Len(t, report.Results, 2)
}

func TestEvaluate_PerEvaluatorThreshold(t *testing.T) {
	reg := newRegistry(t, map[string]Evaluator{"strict": fixed(0.2)})
	require.NoError(t, reg.SetThreshold("strict", 0.1))
	assert.InDelta(t, 0.1, reg.Threshold("strict"), 1e-9)
	assert.InDelta(t, 0.5, reg.Threshold("other"), 1e-9)

	ch := chamberWith(chambers.AutomodSlot{EvaluatorID: "strict", Severity: money("1")})
	report := NewEngine(reg, time.Second, false).Evaluate(context.Background(), ch, "x")
	assert.True(t, report.Failed())
}

func TestEvaluate_NoFineListsFailures(t *testing.T) {
	reg := newRegistry(t, map[string]Evaluator{"spam": fixed(0.9)})
	ch := chamberWith(chambers.AutomodSlot{}, chambers.AutomodSlot{EvaluatorID: "spam", Severity: money("0.5")})

	report := NewEngine(reg, time.Second, false).Evaluate(context.Background(), ch, "x")
	require.True(t, report.Failed())
	assert.False(t, report.CanFine)
	assert.True(t, report.Fine.IsZero())
	assert.Equal(t, "Failed automoderation:\n- b: spam scored 0.90 (threshold 0.50)", report.FailInfo())
}

func TestEvaluate_FineWeightedAndCapped(t *testing.T) {
	reg := newRegistry(t, map[string]Evaluator{"a": fixed(0.8), "b": fixed(1), "pass": fixed(0.1)})
	ch := chamberWith(
		chambers.AutomodSlot{EvaluatorID: "a", Severity: money("0.50")},
		chambers.AutomodSlot{EvaluatorID: "b", Severity: money("0.25")},
		chambers.AutomodSlot{EvaluatorID: "pass", Severity: money("1.00")},
	)
	ch.AutomodCanFine = true

	engine := NewEngine(reg, time.Second, false)
	report := engine.Evaluate(context.Background(), ch, "x")
	require.True(t, report.Failed())
	// 0.5*0.8 + 0.25*1
	assert.Equal(t, "0.65", common.FormatMoney(report.Fine))
	assert.Contains(t, report.FailInfo(), "Fine: 0.65")

	ch.MaxFine = money("0.30")
	report = engine.Evaluate(context.Background(), ch, "x")
	assert.Equal(t, "0.30", common.FormatMoney(report.Fine))
}

func TestEvaluate_ScoreClamped(t *testing.T) {
	reg := newRegistry(t, map[string]Evaluator{"big": fixed(7), "neg": fixed(-3)})
	ch := chamberWith(
		chambers.AutomodSlot{EvaluatorID: "big", Severity: money("1")},
		chambers.AutomodSlot{EvaluatorID: "neg", Severity: money("1")},
	)
	report := NewEngine(reg, time.Second, false).Evaluate(context.Background(), ch, "x")
	assert.InDelta(t, 1.0, report.Results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, report.Results[1].Score, 1e-9)
}

func unavailableRegistry(t *testing.T) *Registry {
	return newRegistry(t, map[string]Evaluator{
		"err": EvaluatorFunc(func(context.Context, string) (float64, error) {
			return 0, errors.New("backend down")
		}),
		"panic": EvaluatorFunc(func(context.Context, string) (float64, error) {
			panic("evaluator bug")
		}),
		"slow": EvaluatorFunc(func(ctx context.Context, _ string) (float64, error) {
			time.Sleep(time.Second)
			return 1, nil
		}),
	})
}

func TestEvaluate_UnavailableFailOpen(t *testing.T) {
	ch := chamberWith(
		chambers.AutomodSlot{EvaluatorID: "err", Severity: money("1")},
		chambers.AutomodSlot{EvaluatorID: "panic", Severity: money("1")},
		chambers.AutomodSlot{EvaluatorID: "slow", Severity: money("1")},
		chambers.AutomodSlot{EvaluatorID: "gone", Severity: money("1")},
	)
	engine := NewEngine(unavailableRegistry(t), 50*time.Millisecond, false)

	start := time.Now()
	report := engine.Evaluate(context.Background(), ch, "x")
	assert.Less(t, time.Since(start), 900*time.Millisecond, "slow evaluator must not block past its timeout")

	assert.False(t, report.Failed())
	require.Len(t, report.Results, 4)
	for _, res := range report.Results {
		assert.True(t, res.Unavailable, res.EvaluatorID)
		assert.ErrorIs(t, res.Err, common.ErrEvaluatorUnavailable, res.EvaluatorID)
	}
	assert.ErrorIs(t, report.Results[2].Err, context.DeadlineExceeded)
}

func TestEvaluate_UnavailableFailClosed(t *testing.T) {
	ch := chamberWith(chambers.AutomodSlot{EvaluatorID: "panic", Severity: money("0.40")})
	ch.AutomodCanFine = true

	report := NewEngine(unavailableRegistry(t), 50*time.Millisecond, true).Evaluate(context.Background(), ch, "x")
	require.True(t, report.Failed())
	assert.Equal(t, "0.40", common.FormatMoney(report.Fine))
	assert.Contains(t, report.FailInfo(), "- a: panic unavailable")
}

func TestRegistry_ValidateChamber(t *testing.T) {
	reg := newRegistry(t, map[string]Evaluator{"gtube": GTUBEEvaluator})

	ok := chamberWith(
		chambers.AutomodSlot{EvaluatorID: "gtube", Severity: money("0.75")},
		chambers.AutomodSlot{Severity: money("7")}, // выключен, вес не проверяется
	)
	assert.NoError(t, reg.ValidateChamber(ok))

	bad := chamberWith(
		chambers.AutomodSlot{EvaluatorID: "nope", Severity: money("0.5")},
		chambers.AutomodSlot{EvaluatorID: "gtube", Severity: money("1.5")},
		chambers.AutomodSlot{EvaluatorID: "gtube", Severity: money("0.125")},
	)
	err := reg.ValidateChamber(bad)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"nope"}, cfgErr.Unknown)
	assert.Len(t, cfgErr.Problems, 2)
	assert.ErrorIs(t, err, common.ErrUnknownEvaluator)
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	reg := NewRegistry(0.5)
	require.NoError(t, reg.Register("a", GTUBEEvaluator))
	assert.Error(t, reg.Register("a", GTUBEEvaluator))
	assert.Error(t, reg.SetThreshold("missing", 0.3))
	assert.Error(t, reg.SetThreshold("a", 1.3))
	assert.Equal(t, []string{"a"}, reg.IDs())
}
