package eventbus

import (
	"context"

	"github.com/annel0/voxelworld/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог на уровне DEBUG.
// При logger == nil используется глобальный логгер.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	if logger == nil {
		logger = logging.Default()
	}
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("[EventBus] %s %s src=%s prio=%d %s", ev.ID, ev.EventType, ev.Source, ev.Priority, ev.Payload)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
