// Package shutdown turns interrupt signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// Context is cancelled by the first interrupt. A second interrupt exits the
// process, for when something ignores cancellation.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	stopped := make(chan struct{})
	Notify(ch)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-stopped:
			return
		}
		select {
		case <-ch:
			os.Exit(130)
		case <-stopped:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(ch)
			close(stopped)
		})
		cancel()
	}
}
