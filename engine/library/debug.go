package library

import (
	"github.com/sasha-s/go-deadlock"
)

// ValidateSaneExecutionTime arms go-deadlock's lock timeout around a blocking call. If the returned
// func is not called within deadlock.Opts.DeadlockTimeout the detector reports the stuck goroutine.
func ValidateSaneExecutionTime() func() {
	mu := deadlock.Mutex{}
	mu.Lock()
	go func() {
		mu.Lock()
		mu.Unlock()
	}()
	return func() {
		mu.Unlock()
	}
}
