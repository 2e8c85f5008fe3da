package store

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Level tells a notifier how to present a message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a message meant for the person using the board.
type Notification struct {
	Level   Level
	Message string
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier reports notifications through logger.
func LogNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NotifierFunc(func(n Notification) {
		if n.Level == LevelError {
			logger.Warn(n.Message, zap.String("level", string(n.Level)))
			return
		}
		logger.Info(n.Message, zap.String("level", string(n.Level)))
	})
}

// WriterNotifier prints successes to out and errors to errOut, one per line.
func WriterNotifier(out, errOut io.Writer) Notifier {
	var mu sync.Mutex
	return NotifierFunc(func(n Notification) {
		mu.Lock()
		defer mu.Unlock()
		if n.Level == LevelError {
			fmt.Fprintf(errOut, "error: %s\n", n.Message)
			return
		}
		fmt.Fprintln(out, n.Message)
	})
}
