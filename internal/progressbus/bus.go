// Package progressbus delivers per-job progress snapshots to registered
// subscribers. It is a callback registry rather than a channel per
// subscriber: simpler to reason about when handlers are assumed slow and
// occasionally panicky, since one publish call can isolate every handler
// behind its own recover.
package progressbus

import (
	"sync"

	"github.com/lucidlink/syncd/internal/logging"
	"github.com/lucidlink/syncd/internal/model"
)

// Handler receives a progress snapshot for one job. Handlers must not
// assume they run on any particular goroutine, and must not block
// indefinitely — a slow handler delays delivery to every other
// subscriber of the same publish call.
type Handler func(jobID string, progress model.Progress)

// Bus is the process-wide progress broadcaster.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int

	latestMu sync.RWMutex
	latest   map[string]model.Progress
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
		latest:   make(map[string]model.Progress),
	}
}

// Subscription is an opaque handle to unregister a handler.
type Subscription int

// Subscribe registers handler and returns a token to later Unsubscribe
// it. No replay: the handler receives only snapshots published after
// subscription — callers that need the current state should also call
// Latest.
func (b *Bus) Subscribe(handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return Subscription(id)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, int(sub))
}

// Publish delivers progress to every subscriber, in no particular order,
// and remembers it as the latest snapshot for jobID. Each handler call is
// individually recovered, so a panicking subscriber cannot prevent
// delivery to the rest. Handlers run synchronously on the publisher's
// goroutine with no timeout: a slow handler delays Publish for as long
// as it runs.
func (b *Bus) Publish(jobID string, progress model.Progress) {
	b.latestMu.Lock()
	b.latest[jobID] = progress
	b.latestMu.Unlock()

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(h, jobID, progress)
	}
}

func (b *Bus) invoke(h Handler, jobID string, progress model.Progress) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithComponent("progressbus").Error().Interface("panic", r).Str("job_id", jobID).Msg("progress subscriber panicked")
		}
	}()
	h(jobID, progress)
}

// Latest returns the most recent snapshot published for jobID, for
// subscribers joining mid-run.
func (b *Bus) Latest(jobID string) (model.Progress, bool) {
	b.latestMu.RLock()
	defer b.latestMu.RUnlock()
	p, ok := b.latest[jobID]
	return p, ok
}

// Clear drops the remembered snapshot for jobID. The engine does not call
// it, so a finished run's final snapshot stays available from Latest.
func (b *Bus) Clear(jobID string) {
	b.latestMu.Lock()
	defer b.latestMu.Unlock()
	delete(b.latest, jobID)
}
