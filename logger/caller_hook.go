package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var skippedCallerPrefixes = []string{"sirupsen/logrus", "optionflow/logger."}

// callerHook points the reported caller at the first frame outside logrus
// and this package's wrappers.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(6, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !skipCaller(frame.Function) {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func skipCaller(fn string) bool {
	for _, p := range skippedCallerPrefixes {
		if strings.Contains(fn, p) {
			return true
		}
	}
	return false
}
