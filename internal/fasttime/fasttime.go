// Package fasttime maintains a cached unix timestamp updated once a
// second, for call sites (metrics, log timestamps on hot paths) that
// don't need wall-clock precision and want to avoid a syscall per call.
package fasttime

import (
	"sync/atomic"
	"time"
)

var currentTimestamp = time.Now().Unix()

func init() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for tm := range ticker.C {
			atomic.StoreInt64(&currentTimestamp, tm.Unix())
		}
	}()
}

// UnixTimestamp returns the cached current unix timestamp.
func UnixTimestamp() int64 {
	return atomic.LoadInt64(&currentTimestamp)
}
