package invalidation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultQueueSize = 256

// Message names the rendered pages whose cached copies are stale.
type Message struct {
	Paths     []string  `json:"paths"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}

// Invalidator queues invalidation signals and publishes them from a single
// worker so that request paths never wait on the broker. It implements
// application.CacheInvalidator.
type Invalidator struct {
	publisher Publisher
	queue     chan *Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewInvalidator(publisher Publisher, queueSize int) *Invalidator {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Invalidator{
		publisher: publisher,
		queue:     make(chan *Message, queueSize),
		done:      make(chan struct{}),
	}
}

// Invalidate enqueues the paths. A full queue drops the signal with a warning.
func (i *Invalidator) Invalidate(ctx context.Context, paths ...string) {
	paths = dedupe(paths)
	if len(paths) == 0 {
		return
	}
	msg := &Message{Paths: paths, Timestamp: time.Now().UTC()}

	select {
	case i.queue <- msg:
	default:
		log.Warn().Strs("paths", paths).Msg("invalidation queue full, dropping signal")
	}
}

// Run publishes queued messages until ctx is cancelled, then drains what is
// left and closes the publisher.
func (i *Invalidator) Run(ctx context.Context) {
	defer close(i.done)
	for {
		select {
		case msg := <-i.queue:
			i.publish(ctx, msg)
		case <-ctx.Done():
			i.drain()
			if err := i.publisher.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close invalidation publisher")
			}
			return
		}
	}
}

// Wait blocks until Run has returned.
func (i *Invalidator) Wait() {
	<-i.done
}

func (i *Invalidator) drain() {
	for {
		select {
		case msg := <-i.queue:
			i.publish(context.Background(), msg)
		default:
			return
		}
	}
}

func (i *Invalidator) publish(ctx context.Context, msg *Message) {
	if err := i.publisher.Publish(ctx, msg); err != nil {
		log.Error().Err(err).Strs("paths", msg.Paths).Msg("failed to publish cache invalidation")
	}
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
