package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

// JetStreamBus реализует EventBus поверх NATS JetStream.
// События мира публикуются в subject world.<type>.
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// Subject возвращает subject NATS для типа события
func Subject(eventType string) string {
	return "world." + eventType
}

// NewJetStreamBus подключается к кластеру NATS и гарантирует наличие стрима.
// url: nats://127.0.0.1:4222, stream: "WORLD".
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "WORLD"
	}

	nc, err := nats.Connect(url, nats.Name("voxelworld"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Стрим должен покрывать subjects world.>
	if _, err := js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{"world.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.MemoryStorage, // события производны от мира, на диск не пишутся
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

// Publish сериализует Envelope в JSON и публикует асинхронно,
// чтобы сетевые задержки не тормозили игровой цикл.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(Subject(ev.EventType))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, ev.ID)

	if _, err := jb.js.PublishMsgAsync(msg); err != nil {
		jb.dropped.Add(1)
		return err
	}
	jb.published.Add(1)
	return nil
}

// Subscribe создаёт durable consumer и вызывает handler асинхронно.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := "world.>"
	if len(f.Types) == 1 {
		subj = Subject(f.Types[0])
	}

	durable := nats.Durable(fmt.Sprintf("sub_%d", time.Now().UnixNano()))

	natSub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err == nil && matchFilter(&ev, f) {
			h(ctx, &ev)
			jb.consumed.Add(1)
		}
		_ = msg.Ack()
	}, nats.ManualAck(), durable, nats.AckWait(30*time.Second))
	if err != nil {
		return nil, err
	}

	return &jetSub{natSub}, nil
}

// jetSub обёртка вокруг *nats.Subscription чтобы удовлетворить наш интерфейс.
type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.s.Unsubscribe()
}

// Metrics возвращает текущие метрики.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
		InFlight:  jb.js.PublishAsyncPending(),
	}
}

// Close дожидается подтверждения отправленных событий и закрывает соединение
func (jb *JetStreamBus) Close() error {
	select {
	case <-jb.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
	}
	return jb.nc.Drain()
}
