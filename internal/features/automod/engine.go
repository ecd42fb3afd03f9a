package automod

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/middleware"
)

// SlotResult: итог одного слота.
type SlotResult struct {
	Slot        string // буква слота a..e
	EvaluatorID string
	Severity    decimal.Decimal
	Score       float64
	Threshold   float64
	Failed      bool
	Unavailable bool
	Err         error
}

// Report: результат прогона публикации через цепочку палаты.
type Report struct {
	Results  []SlotResult // все включённые слоты, a→e
	Failures []SlotResult // проваленные слоты, a→e
	CanFine  bool
	Fine     decimal.Decimal // только при CanFine
}

// Failed сообщает, заблокирована ли публикация.
func (r Report) Failed() bool {
	return len(r.Failures) > 0
}

// FailInfo: многострочный текст для автора. Пустой, если провалов нет.
func (r Report) FailInfo() string {
	if !r.Failed() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Failed automoderation:\n")
	for _, f := range r.Failures {
		if f.Unavailable {
			fmt.Fprintf(&sb, "- %s: %s unavailable\n", f.Slot, f.EvaluatorID)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s scored %.2f (threshold %.2f)\n", f.Slot, f.EvaluatorID, f.Score, f.Threshold)
	}
	if r.CanFine {
		fmt.Fprintf(&sb, "Fine: %s\n", common.FormatMoney(r.Fine))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Engine запускает оценщиков включённых слотов параллельно.
type Engine struct {
	registry   *Registry
	timeout    time.Duration
	failClosed bool
}

// NewEngine создаёт движок. failClosed=true считает недоступного оценщика провалом,
// иначе слот пропускается.
func NewEngine(registry *Registry, timeout time.Duration, failClosed bool) *Engine {
	return &Engine{registry: registry, timeout: timeout, failClosed: failClosed}
}

// Evaluate прогоняет текст через цепочку палаты. Без включённых слотов
// ни один оценщик не вызывается.
func (e *Engine) Evaluate(ctx context.Context, ch *chambers.Chamber, text string) Report {
	report := Report{CanFine: ch.AutomodCanFine, Fine: decimal.Zero}
	slots := ch.EnabledSlots()
	if len(slots) == 0 {
		return report
	}

	results := make([]SlotResult, len(slots))
	var g errgroup.Group
	for i, slot := range slots {
		g.Go(func() error {
			results[i] = e.evaluateSlot(ctx, slot, text)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	for _, res := range results {
		if res.Failed {
			report.Failures = append(report.Failures, res)
		}
	}
	if report.CanFine {
		report.Fine = fine(report.Failures, ch.MaxFine)
	}

	if report.Failed() {
		reportFailCount.Inc()
		log.WithFields(log.Fields{
			"component": "automod",
			"chamber":   ch.Name,
			"failures":  len(report.Failures),
			"fine":      common.FormatMoney(report.Fine),
		}).Info("Публикация не прошла автомодерацию")
	}
	return report
}

func (e *Engine) evaluateSlot(ctx context.Context, slot chambers.IndexedSlot, text string) SlotResult {
	res := SlotResult{
		Slot:        slot.Label(),
		EvaluatorID: slot.EvaluatorID,
		Severity:    slot.Severity,
		Threshold:   e.registry.Threshold(slot.EvaluatorID),
	}
	logger := log.WithFields(log.Fields{
		"component": "automod",
		"slot":      res.Slot,
		"evaluator": res.EvaluatorID,
	})

	start := time.Now()
	score, err := e.score(ctx, slot.EvaluatorID, text)
	evaluationDuration.WithLabelValues(slot.EvaluatorID).Observe(time.Since(start).Seconds())

	if err != nil {
		res.Unavailable, res.Err = true, err
		res.Failed = e.failClosed
		if res.Failed {
			res.Score = 1
		}
		evaluationCount.WithLabelValues(slot.EvaluatorID, "unavailable").Inc()
		logger.WithError(err).WithField("fail_closed", e.failClosed).Warn("Оценщик недоступен")
		return res
	}

	res.Score = score
	res.Failed = score >= res.Threshold
	outcome := "pass"
	if res.Failed {
		outcome = "fail"
	}
	evaluationCount.WithLabelValues(slot.EvaluatorID, outcome).Inc()
	logger.WithField("score", score).Debug("Слот оценён")
	return res
}

// score вызывает оценщика с собственным таймаутом и переводит панику,
// ошибку, таймаут и NaN в common.ErrEvaluatorUnavailable.
func (e *Engine) score(ctx context.Context, id, text string) (float64, error) {
	ev, ok := e.registry.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("%s: %w: %w", id, common.ErrEvaluatorUnavailable, common.ErrUnknownEvaluator)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		score float64
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := safeEvaluate(ctx, id, ev, text)
		done <- outcome{score: s, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return 0, fmt.Errorf("%s: %w: %w", id, common.ErrEvaluatorUnavailable, out.err)
		}
		if math.IsNaN(out.score) {
			return 0, fmt.Errorf("%s: %w: NaN score", id, common.ErrEvaluatorUnavailable)
		}
		return clamp(out.score), nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w: %w", id, common.ErrEvaluatorUnavailable, ctx.Err())
	}
}

func safeEvaluate(ctx context.Context, id string, ev Evaluator, text string) (score float64, err error) {
	defer middleware.RecoverToError("automod:"+id, &err)
	return ev.Evaluate(ctx, text)
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}

// fine = Σ severity·score по проваленным слотам, не больше maxFine, 2 знака.
func fine(failures []SlotResult, maxFine decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, f := range failures {
		total = total.Add(f.Severity.Mul(decimal.NewFromFloat(f.Score)))
	}
	if total.GreaterThan(maxFine) {
		total = maxFine
	}
	return total.Round(common.MoneyPlaces)
}
