package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Типы событий мира
const (
	TypeBlockChanged = "block.changed"
	TypeChunkLoaded  = "chunk.loaded"
	TypeChunkEvicted = "chunk.evicted"
	TypeMeshRebuilt  = "mesh.rebuilt"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("шина событий закрыта")

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID        string            `json:"id"`        // UUID
	Timestamp time.Time         `json:"timestamp"` // UTC
	Source    string            `json:"source"`    // имя компонента-источника
	EventType string            `json:"type"`
	Priority  int               `json:"priority"` // 0=Low … 9=Critical (для backpressure)
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope упаковывает payload в JSON и присваивает событию UUID
func NewEnvelope(source, eventType string, priority int, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация события %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Priority:  priority,
		Payload:   data,
	}, nil
}

// Decode распаковывает полезную нагрузку
func (ev *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(ev.Payload, v)
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто: все типы.
	Sources []string // Если пусто: все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

// MemoryBus: шина внутри процесса. Publish не блокирует игровой цикл:
// при заполненном буфере события с приоритетом ниже 5 отбрасываются, остальные
// ждут места до отмены ctx и тоже считаются отброшенными.
type MemoryBus struct {
	mu          sync.RWMutex // подписчики
	subscribers map[int]subscriber
	nextID      int

	closeMu sync.RWMutex // публикация против Close
	closed  bool
	buffer  chan *Envelope
	done    chan struct{}

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером.
func NewMemoryBus(capacity int) *MemoryBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &MemoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *MemoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	default:
	}

	// Буфер заполнен: дропаем низкий приоритет (<5)
	if ev.Priority < 5 {
		mb.dropped.Add(1)
		return nil
	}
	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	case <-ctx.Done():
		mb.dropped.Add(1)
		return ctx.Err()
	}
}

func (mb *MemoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.closeMu.RLock()
	closed := mb.closed
	mb.closeMu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}

	return &memSub{bus: mb, id: id}, nil
}

func (mb *MemoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close прекращает приём событий и дожидается рассылки уже принятых
func (mb *MemoryBus) Close() error {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.closeMu.Unlock()

	<-mb.done
	return nil
}

// dispatchLoop рассылает события подписчикам в порядке публикации.
func (mb *MemoryBus) dispatchLoop() {
	defer close(mb.done)

	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			select {
			case <-sub.ctx.Done():
				continue
			default:
			}
			sub.handler(sub.ctx, ev)
			mb.consumed.Add(1)
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *MemoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
