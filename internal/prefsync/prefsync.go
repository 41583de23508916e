// Package prefsync is the best-effort outbox for preference changes. Every
// mutation enqueues an intent and kicks a flush; a flush pushes the current
// full preference snapshot, never individual intents.
package prefsync

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/voxread/voxread/internal/config"
	"github.com/voxread/voxread/internal/connectivity"
	"github.com/voxread/voxread/internal/identity"
	"github.com/voxread/voxread/internal/store"
)

const queueKey = "syncqueue"

// Intent records that a preference changed. The kind is informational; a
// flush resends the whole snapshot regardless of what is queued.
type Intent struct {
	Kind string
	At   time.Time
}

// Remote pushes a preference snapshot to the backend.
type Remote interface {
	PutPreferences(ctx context.Context, prefs any) error
}

// Queue accumulates intents and flushes them opportunistically. Flushes are
// single-flight; failures retain the queue silently for a later retry.
type Queue struct {
	remote   Remote
	tokens   identity.TokenSource
	db       *store.Store
	snapshot func() config.Preferences
	logger   *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	intents  []Intent
	flushing bool
}

// New creates a queue. snapshot supplies the current preferences at flush
// time. Previously queued intents are reloaded from db.
func New(remote Remote, tokens identity.TokenSource, db *store.Store, snapshot func() config.Preferences, logger *log.Logger) (*Queue, error) {
	if logger == nil {
		logger = log.Default()
	}
	q := &Queue{
		remote:   remote,
		tokens:   tokens,
		db:       db,
		snapshot: snapshot,
		logger:   logger,
		now:      time.Now,
	}
	if _, err := db.Get(queueKey, &q.intents); err != nil {
		return nil, err
	}
	return q, nil
}

// Enqueue appends an intent and immediately attempts a flush in the
// background. Enqueue itself never blocks on the network.
func (q *Queue) Enqueue(kind string) error {
	q.mu.Lock()
	q.intents = append(q.intents, Intent{Kind: kind, At: q.now()})
	err := q.db.Put(queueKey, q.intents)
	q.mu.Unlock()
	if err != nil {
		return err
	}

	go q.Flush(context.Background())
	return nil
}

// Pending reports how many intents await a successful flush.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.intents)
}

// Flush pushes the current preference snapshot. It is a no-op when a flush
// is already running, the queue is empty, or no identity is signed in. On a
// 2xx response the queue is cleared entirely; on failure it is kept for the
// next Enqueue or connectivity-regained retry.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	if q.flushing || len(q.intents) == 0 || !q.tokens.Authenticated() {
		q.mu.Unlock()
		return
	}
	q.flushing = true
	q.mu.Unlock()

	prefs := q.snapshot()
	err := q.remote.PutPreferences(ctx, prefs)

	q.mu.Lock()
	q.flushing = false
	if err != nil {
		q.mu.Unlock()
		// Silent by design: the queue survives for a later retry.
		q.logger.Debug("preference sync failed, keeping queue", "pending", q.Pending(), "error", err)
		return
	}
	q.intents = nil
	persistErr := q.db.Put(queueKey, q.intents)
	q.mu.Unlock()

	if persistErr != nil {
		q.logger.Warn("could not persist cleared sync queue", "error", persistErr)
	}
	q.logger.Debug("preferences synced")
}

// Bind retries pending intents whenever connectivity comes back. The
// returned function cancels the subscription.
func (q *Queue) Bind(monitor connectivity.Monitor) func() {
	return monitor.Subscribe(func(online bool) {
		if online {
			go q.Flush(context.Background())
		}
	})
}
