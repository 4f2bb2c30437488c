package goroutine

import (
	"runtime/debug"

	"github.com/doersapp/doers-backend/internal/logger"
)

// SafeGo запускает фоновую горутину с перехватом panic.
// Сервисы отправляют уведомления, письма и пуши после основной
// транзакции; сбой такого побочного эффекта не должен ронять процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.WithField("stack", string(debug.Stack())).
						Errorf("паника в фоновой горутине: %v", r)
				}
			}
		}()
		fn()
	}()
}
