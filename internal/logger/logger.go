package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Log — глобальный логгер приложения.
var Log *logrus.Logger

// Init настраивает глобальный логгер. По умолчанию JSON: в проде логи
// читает коллектор, а не человек. Неизвестный уровень сводится к info.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
}

// SetTextFormatter переключает вывод в текстовый формат для разработки.
func SetTextFormatter() {
	if Log == nil {
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
