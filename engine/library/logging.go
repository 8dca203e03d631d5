package library

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/mborders/logmatic"
)

var threshold int32 = 4

var logger = func() *logmatic.Logger {
	l := logmatic.NewLogger()
	l.SetLevel(logmatic.TRACE)
	l.ExitOnFatal = true
	return l
}()

// SetLogLevel drops every message above the given level. Fatal and serious errors are always printed.
func SetLogLevel(level int) {
	if level < 1 {
		level = 1
	}
	atomic.StoreInt32(&threshold, int32(level))
}

// Logs to the terminal. Level options are: 0 fatal error (stack dump), 1 serious error (stack dump), 2 warning, 3 debug, 4 info, 5 trace (stack dump).
func LogCLI(message interface{}, level int) {
	if int32(level) > atomic.LoadInt32(&threshold) {
		return
	}
	message = fmt.Sprint(message)
	switch level {
	case 5:
		debug.PrintStack()
		logger.Trace("%v", message)
	case 4:
		logger.Info("%v", message)
	case 3:
		logger.Debug("%v", message)
	case 2:
		logger.Warn("%v", message)
	case 1:
		debug.PrintStack()
		logger.Error("%v", message)
	case 0:
		debug.PrintStack()
		logger.Error("%v", message)
	}
}
