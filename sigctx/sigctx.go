// Package sigctx provides a root context that is canceled by SIGINT or
// SIGTERM.
package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// New returns a context canceled on the first interrupt or termination
// signal. A second signal kills the process via the default handler.
func New() context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx
}
