// Package rescue centralizes panic recovery for goroutines that must
// never take the whole process down with them — chiefly the receive
// engine's loop body, which runs arbitrary registered pixel-decode
// functions.
package rescue

import (
	"runtime"

	"github.com/gvspd/gvspd/logger"
	"github.com/gvspd/gvspd/metrics"
)

var PanicHandlers = []func(any){
	incPanicCounter,
	logPanic,
}

func incPanicCounter(_ any) {
	metrics.PanicTotal.Inc()
}

func logPanic(r any) {
	const size = 64 << 10
	stacktrace := make([]byte, size)
	stacktrace = stacktrace[:runtime.Stack(stacktrace, false)]
	if _, ok := r.(string); ok {
		logger.Errorf("observed a panic: %s\n%s", r, stacktrace)
	} else {
		logger.Errorf("observed a panic: %#v (%v)\n%s", r, r, stacktrace)
	}
}

// HandleCrash recovers from a panic in the calling goroutine and runs
// every registered handler. Call it deferred at the top of a loop body.
func HandleCrash() {
	if r := recover(); r != nil {
		for _, fn := range PanicHandlers {
			fn(r)
		}
	}
}
