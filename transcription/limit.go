package transcription

import (
	"context"

	"github.com/kbukum/shadowkit/errors"
)

// WithConcurrencyLimit lets at most n Transcribe calls run at once; the rest
// wait for a slot until their context ends. n <= 0 disables the limit.
func WithConcurrencyLimit(n int) Middleware {
	return func(inner Adapter) Adapter {
		if n <= 0 {
			return inner
		}
		return &limitAdapter{wrapped{inner}, make(chan struct{}, n)}
	}
}

type limitAdapter struct {
	wrapped
	sem chan struct{}
}

func (l *limitAdapter) Transcribe(ctx context.Context, req Request) (*Result, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Cancelled("wait for transcription slot")
	}
	defer func() { <-l.sem }()
	return l.inner.Transcribe(ctx, req)
}
