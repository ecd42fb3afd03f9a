// Package middleware содержит общие обёртки вокруг операций сервиса:
// логирование, восстановление после паники и rate-limiting.
package middleware

import (
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

// maxLoggedText: сколько символов текста публикации попадает в лог.
const maxLoggedText = 50

// LogSubmission логирует входящую публикацию.
// Записывает: вид, автора, палату, текст (первые 50 символов).
func LogSubmission(kind string, authorID int64, chamber, text string) {
	log.WithFields(log.Fields{
		"kind":      kind,
		"author_id": authorID,
		"chamber":   chamber,
		"text":      Truncate(text, maxLoggedText),
		"time":      time.Now().Format("15:04:05"),
	}).Debug("Входящая публикация")
}

// Truncate обрезает текст до n символов (рун), добавляя "...".
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}
