package actors

import (
	"sync"
)

var terminateChan = make(chan struct{})
var terminateOnce sync.Once
var waitGroup = &sync.WaitGroup{}

func GetTerminateChan() chan struct{} {
	return terminateChan
}

// GetWaitGroup tracks the long running goroutines that must finish before the process exits.
func GetWaitGroup() *sync.WaitGroup {
	return waitGroup
}

// Shutdown closes the terminate channel (once) and waits for everything in the wait group.
func Shutdown() {
	terminateOnce.Do(func() {
		close(terminateChan)
	})
	waitGroup.Wait()
}
