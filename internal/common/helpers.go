// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование денежных сумм и работа со временем.
package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces: точность всех денежных сумм (баланс, пороги, штрафы).
const MoneyPlaces = 2

// FormatMoney форматирует сумму ровно с двумя знаками после точки.
//
// Примеры:
//
//	FormatMoney(decimal.RequireFromString("5"))    → "5.00"
//	FormatMoney(decimal.RequireFromString("4.5"))  → "4.50"
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// FormatSignedMoney создаёт строку вида "+1.50" или "-0.25".
// Используется в истории транзакций.
func FormatSignedMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatMoney(d)
	}
	return "+" + FormatMoney(d)
}

// IsMoney проверяет, что сумма не точнее двух знаков после точки.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// NowUTC возвращает текущее время в UTC.
// Все даты публикации хранятся в UTC, чтобы возраст считался одинаково.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат транзакций в drumctl.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04")
}
