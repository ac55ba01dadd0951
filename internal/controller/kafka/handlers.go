package kafka

import (
	"context"

	"github.com/andreyxaxa/auction-sync/internal/contracts"
)

// Handler processes one decoded envelope. Returning an error wrapping errs.ErrInvalidEvent
// dead-letters the message at once; any other error is retried.
type Handler func(ctx context.Context, env contracts.Envelope) error

// Handlers is the dispatch table of a consumer, keyed by event kind.
type Handlers map[contracts.Kind]Handler

// Handle adapts a typed handler: the envelope is decoded and validated before f runs.
func Handle[T contracts.Event](f func(ctx context.Context, e T) error) Handler {
	return func(ctx context.Context, env contracts.Envelope) error {
		e, err := contracts.Decode[T](env)
		if err != nil {
			return err
		}

		return f(ctx, e)
	}
}
