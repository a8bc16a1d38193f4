package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context canceled on SIGINT, SIGTERM or SIGQUIT.
func NotifyContext() (context.Context, context.CancelFunc) {
	return WithParent(context.Background())
}

func WithParent(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
