package shm

import "github.com/srediag/tpc/internal/debug"

var internalLogger = debug.New("shm", nil)

func internalWarnf(format string, a ...interface{}) {
	internalLogger.Warnf(format, a...)
}
