package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic логирует панику и глушит её. Для фоновых задач.
func RecoverFromPanic(component string) {
	if r := recover(); r != nil {
		logPanic(component, r)
	}
}

// RecoverToError превращает панику в ошибку, записанную в *errp.
// Вызывать через defer в функции с именованным результатом err.
func RecoverToError(component string, errp *error) {
	if r := recover(); r != nil {
		logPanic(component, r)
		*errp = fmt.Errorf("panic in %s: %v", component, r)
	}
}

func logPanic(component string, r any) {
	log.WithFields(log.Fields{
		"component": component,
		"panic":     fmt.Sprintf("%v", r),
		"stack":     string(debug.Stack()),
	}).Error("ПАНИКА — восстановлено")
}
