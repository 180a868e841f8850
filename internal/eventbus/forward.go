package eventbus

import (
	"context"
)

// Forward пересылает события из локальной шины во внешнюю (например, JetStream).
// Ошибки пересылки передаются в onError, если он задан.
func Forward(ctx context.Context, from, to EventBus, f Filter, onError func(*Envelope, error)) (Subscription, error) {
	return from.Subscribe(ctx, f, func(ctx context.Context, ev *Envelope) {
		if err := to.Publish(ctx, ev); err != nil && onError != nil {
			onError(ev, err)
		}
	})
}
