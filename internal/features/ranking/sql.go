package ranking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var columnRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// HotSQL возвращает выражение PostgreSQL, совпадающее с Hot, для ORDER BY.
// Так сортировка выполняется в базе, а в память поднимается только страница (LIMIT/OFFSET).
//
// Имена колонок подставляются в текст запроса, поэтому проверяются по белому шаблону.
func HotSQL(scoreColumns []string, dateColumn string, decaySeconds float64) (string, error) {
	if len(scoreColumns) == 0 {
		return "", fmt.Errorf("ranking: нужно хотя бы одно поле сигнала")
	}
	if !columnRe.MatchString(dateColumn) {
		return "", fmt.Errorf("ranking: некорректная колонка даты %q", dateColumn)
	}
	parts := make([]string, 0, len(scoreColumns))
	for _, c := range scoreColumns {
		if !columnRe.MatchString(c) {
			return "", fmt.Errorf("ranking: некорректная колонка сигнала %q", c)
		}
		parts = append(parts, fmt.Sprintf("COALESCE(%s, 0)", c))
	}
	if decaySeconds <= 0 {
		decaySeconds = DefaultDecaySeconds
	}

	// EXTRACT(EPOCH) от timestamp без зоны читает значение как UTC, от timestamptz даёт
	// настоящий момент. Разность эпох не зависит от TimeZone сессии, в отличие от NOW() - date.
	signal := "(" + strings.Join(parts, " + ") + ")::float8"
	decay := strconv.FormatFloat(decaySeconds, 'f', -1, 64)
	return fmt.Sprintf(
		"(SIGN(%[1]s) * LOG(1 + ABS(%[1]s)) - GREATEST(EXTRACT(EPOCH FROM NOW()) - EXTRACT(EPOCH FROM %[2]s), 0)::float8 / %[3]s)",
		signal, dateColumn, decay,
	), nil
}

// OrderBySQL собирает ORDER BY для выдачи; idColumn: вторичный ключ для детерминизма.
func OrderBySQL(scoreColumns []string, dateColumn, idColumn string, byScore bool, decaySeconds float64) (string, error) {
	if !columnRe.MatchString(idColumn) {
		return "", fmt.Errorf("ranking: некорректная колонка id %q", idColumn)
	}
	if !byScore {
		if !columnRe.MatchString(dateColumn) {
			return "", fmt.Errorf("ranking: некорректная колонка даты %q", dateColumn)
		}
		return fmt.Sprintf("ORDER BY %s DESC, %s ASC", dateColumn, idColumn), nil
	}
	hot, err := HotSQL(scoreColumns, dateColumn, decaySeconds)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORDER BY %s DESC, %s ASC", hot, idColumn), nil
}
