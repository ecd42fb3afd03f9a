// Package ranking упорядочивает контент для выдачи: по «горячести»
// (сигнал, затухающий со временем) или просто по дате.
//
// Функции пакета чистые: не ходят в БД, не пишут логи и безопасны
// для параллельного вызова из разных запросов.
package ranking

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// DefaultDecaySeconds: за столько секунд возраста «горячесть» падает на единицу,
// то есть на один порядок сигнала (log10).
const DefaultDecaySeconds = 45000

// Item: всё, что умеет отдать числовые поля сигнала и дату.
type Item interface {
	ScoreField(name string) float64
	DateField(name string) time.Time
}

// Options описывает, как ранжировать набор.
type Options struct {
	ScoreFields  []string  // например rating_sum, comments_count
	DateField    string    // например publish_date
	ByScore      bool      // false: просто свежие сверху
	Now          time.Time // момент, от которого считается возраст
	DecaySeconds float64   // <= 0: DefaultDecaySeconds
}

// Scored: элемент вместе с посчитанным значением.
// В режиме по дате Score: unix-время даты.
type Scored[T Item] struct {
	Item  T
	Score float64
}

// Result: упорядоченная выдача. ByScore возвращается как есть,
// чтобы слой отображения знал, какой режим показан.
type Result[T Item] struct {
	Items   []Scored[T]
	ByScore bool
}

// Rank упорядочивает items по убыванию.
// Сортировка стабильная: при равных значениях сохраняется исходный порядок,
// поэтому вызывающий код задаёт вторичный ключ порядком входа (ORDER BY ..., id).
func Rank[T Item](items []T, opts Options) Result[T] {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := make([]Scored[T], len(items))
	for i, it := range items {
		var score float64
		if opts.ByScore {
			score = Hot(Signal(it, opts.ScoreFields), now.Sub(it.DateField(opts.DateField)), opts.DecaySeconds)
		} else {
			score = float64(it.DateField(opts.DateField).Unix())
		}
		out[i] = Scored[T]{Item: it, Score: score}
	}

	if opts.ByScore {
		slices.SortStableFunc(out, func(a, b Scored[T]) int {
			return cmp.Compare(b.Score, a.Score)
		})
	} else {
		// по дате сравниваем сами time.Time, а не секунды, чтобы не терять наносекунды
		slices.SortStableFunc(out, func(a, b Scored[T]) int {
			return b.Item.DateField(opts.DateField).Compare(a.Item.DateField(opts.DateField))
		})
	}

	return Result[T]{Items: out, ByScore: opts.ByScore}
}

// Signal суммирует поля сигнала. NaN считается нулём.
func Signal(it Item, fields []string) float64 {
	var s float64
	for _, f := range fields {
		v := it.ScoreField(f)
		if math.IsNaN(v) {
			continue
		}
		s += v
	}
	return s
}

// Hot считает «горячесть»: sign(s)*log10(1+|s|) - age/decay.
//
// Свойства:
//   - при постоянном сигнале строго убывает с возрастом;
//   - одинаковые сигнал и возраст дают одинаковое значение;
//   - никогда не NaN и не бесконечность (возраст из будущего считается нулевым).
func Hot(signal float64, age time.Duration, decaySeconds float64) float64 {
	if decaySeconds <= 0 || math.IsNaN(decaySeconds) || math.IsInf(decaySeconds, 0) {
		decaySeconds = DefaultDecaySeconds
	}
	if math.IsNaN(signal) {
		signal = 0
	}
	signal = math.Max(-math.MaxFloat64, math.Min(math.MaxFloat64, signal))

	order := math.Log10(1 + math.Abs(signal))
	if signal < 0 {
		order = -order
	}

	seconds := age.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	return order - seconds/decaySeconds
}
