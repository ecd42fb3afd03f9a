// Package automod прогоняет текст публикации через цепочку оценщиков палаты.
//
// Оценщик возвращает балл в [0,1]. Слот проваливается, когда балл не ниже порога
// оценщика. Палата без штрафов просто перечисляет проваленные слоты; палата со
// штрафами считает штраф как сумму severity·score по проваленным слотам,
// ограниченную MaxFine. Любой провал блокирует публикацию.
package automod

import "context"

// Evaluator оценивает текст. Балл вне [0,1] обрезается движком.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (float64, error)
}

// EvaluatorFunc позволяет использовать функцию как Evaluator.
type EvaluatorFunc func(ctx context.Context, text string) (float64, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}
