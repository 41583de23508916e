package prefsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voxread/voxread/internal/config"
	"github.com/voxread/voxread/internal/connectivity"
	"github.com/voxread/voxread/internal/identity"
	"github.com/voxread/voxread/internal/store"
)

type fakeRemote struct {
	mu    sync.Mutex
	calls int
	last  any
	err   error
	block chan struct{}
}

func (f *fakeRemote) PutPreferences(_ context.Context, prefs any) error {
	f.mu.Lock()
	f.calls++
	f.last = prefs
	err := f.err
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newQueue(t *testing.T, remote Remote, tokens identity.TokenSource) *Queue {
	t.Helper()
	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	snapshot := func() config.Preferences {
		return config.Preferences{Language: "en-US", Rate: 1.0}
	}
	q, err := New(remote, tokens, db, snapshot, nil)
	if err != nil {
		t.Fatal(err)
	}
	return q
}

func TestFlushClearsQueueOnSuccess(t *testing.T) {
	remote := &fakeRemote{}
	q := newQueue(t, remote, identity.NewMemory("tok"))

	q.mu.Lock()
	q.intents = append(q.intents, Intent{Kind: "rate", At: time.Now()})
	q.mu.Unlock()

	q.Flush(context.Background())

	if remote.callCount() != 1 {
		t.Errorf("calls = %d, want 1", remote.callCount())
	}
	if q.Pending() != 0 {
		t.Errorf("pending = %d after successful flush", q.Pending())
	}
	prefs, ok := remote.last.(config.Preferences)
	if !ok || prefs.Language != "en-US" {
		t.Errorf("pushed snapshot = %v", remote.last)
	}
}

func TestFlushRetainsQueueOnFailure(t *testing.T) {
	remote := &fakeRemote{err: errors.New("network down")}
	q := newQueue(t, remote, identity.NewMemory("tok"))

	q.mu.Lock()
	q.intents = append(q.intents, Intent{Kind: "rate", At: time.Now()}, Intent{Kind: "pitch", At: time.Now()})
	q.mu.Unlock()

	q.Flush(context.Background())

	if q.Pending() != 2 {
		t.Errorf("pending = %d, want 2 retained after failure", q.Pending())
	}
}

func TestFlushNoopWhenEmpty(t *testing.T) {
	remote := &fakeRemote{}
	q := newQueue(t, remote, identity.NewMemory("tok"))

	q.Flush(context.Background())
	if remote.callCount() != 0 {
		t.Errorf("flush of empty queue performed network I/O")
	}
}

func TestFlushNoopWhenUnauthenticated(t *testing.T) {
	remote := &fakeRemote{}
	q := newQueue(t, remote, identity.NewMemory(""))

	q.mu.Lock()
	q.intents = append(q.intents, Intent{Kind: "rate", At: time.Now()})
	q.mu.Unlock()

	q.Flush(context.Background())
	if remote.callCount() != 0 {
		t.Error("unauthenticated flush performed network I/O")
	}
	if q.Pending() != 1 {
		t.Error("queue should be retained while signed out")
	}
}

func TestConcurrentFlushSingleFlight(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{})}
	q := newQueue(t, remote, identity.NewMemory("tok"))

	q.mu.Lock()
	q.intents = append(q.intents, Intent{Kind: "rate", At: time.Now()})
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.Flush(context.Background())
		close(done)
	}()

	// wait for the first flush to reach the remote
	deadline := time.Now().Add(2 * time.Second)
	for remote.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// a second flush while the first is in flight must not hit the network
	q.Flush(context.Background())
	if remote.callCount() != 1 {
		t.Errorf("calls = %d, want exactly 1", remote.callCount())
	}

	close(remote.block)
	<-done
}

func TestEnqueueTriggersFlush(t *testing.T) {
	remote := &fakeRemote{}
	q := newQueue(t, remote, identity.NewMemory("tok"))

	if err := q.Enqueue("rate"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if remote.callCount() == 1 && q.Pending() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("enqueue did not flush: calls=%d pending=%d", remote.callCount(), q.Pending())
}

func TestConnectivityRegainedRetries(t *testing.T) {
	remote := &fakeRemote{err: errors.New("offline")}
	q := newQueue(t, remote, identity.NewMemory("tok"))
	monitor := connectivity.NewStatic(false)
	cancel := q.Bind(monitor)
	defer cancel()

	if err := q.Enqueue("rate"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for remote.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if q.Pending() != 1 {
		t.Fatalf("pending = %d, want 1 after failed flush", q.Pending())
	}

	remote.mu.Lock()
	remote.err = nil
	remote.mu.Unlock()

	monitor.SetOnline(true)

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.Pending() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("queue not flushed after connectivity regained")
}

func TestQueuePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	db, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	remote := &fakeRemote{err: errors.New("down")}
	tokens := identity.NewMemory("tok")
	snapshot := func() config.Preferences { return config.Preferences{} }

	q, err := New(remote, tokens, db, snapshot, nil)
	if err != nil {
		t.Fatal(err)
	}
	q.mu.Lock()
	q.intents = append(q.intents, Intent{Kind: "rate", At: time.Now()})
	err = q.db.Put("syncqueue", q.intents)
	q.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db2, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()
	q2, err := New(remote, tokens, db2, snapshot, nil)
	if err != nil {
		t.Fatal(err)
	}
	if q2.Pending() != 1 {
		t.Errorf("pending = %d after reload, want 1", q2.Pending())
	}
}
