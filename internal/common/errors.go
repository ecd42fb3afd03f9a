// Package common: errors.go определяет общие ошибки,
// которые используются во всех модулях сервиса.
// Эти ошибки позволяют вызывающему коду различать типы проблем
// и показывать пользователю понятные сообщения.
package common

import "errors"

// Ошибки экономики (баланс, переводы, штрафы)
var (
	// ErrInsufficientBalance: недостаточно средств на счёте
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSelfTransfer: попытка перевести средства самому себе
	ErrSelfTransfer = errors.New("cannot pay yourself")
	// ErrInvalidAmount: некорректная сумма (ноль, отрицательная или больше двух знаков)
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")
	// ErrUserNotFound: профиль пользователя не найден
	ErrUserNotFound = errors.New("profile not found")
)

// Ошибки контента
var (
	// ErrChamberNotFound: палата не найдена
	ErrChamberNotFound = errors.New("chamber not found")
	// ErrChamberExists: имя палаты уже занято
	ErrChamberExists = errors.New("chamber exists")
	// ErrContentNotFound: тред или комментарий не найден
	ErrContentNotFound = errors.New("content not found")
	// ErrInvalidVote: голос должен быть +1 или -1
	ErrInvalidVote = errors.New("vote value must be +1 or -1")
)

// Ошибки автомодерации
var (
	// ErrUnknownEvaluator: идентификатор оценщика отсутствует в реестре
	ErrUnknownEvaluator = errors.New("unknown automod evaluator")
	// ErrEvaluatorUnavailable: оценщик упал или не уложился в таймаут
	ErrEvaluatorUnavailable = errors.New("evaluator unavailable")
)
