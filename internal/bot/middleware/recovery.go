package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic перехватывает панику обработчика, чтобы одно
// кривое сообщение не роняло весь цикл обновлений. Ставится через
// defer в начале обработки апдейта.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("Паника в обработчике, апдейт пропущен")
	}
}
