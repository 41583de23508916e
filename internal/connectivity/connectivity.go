// Package connectivity reports whether the network is reachable and notifies
// subscribers on transitions.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Monitor supplies current reachability and a subscribe-to-changes
// primitive. Subscribers receive the new state on every transition; the
// returned function cancels the subscription.
type Monitor interface {
	Online() bool
	Subscribe(fn func(online bool)) func()
}

// notifier is the shared subscription bookkeeping for Monitor
// implementations.
type notifier struct {
	handlers map[int]func(bool)
	next     int
}

func (n *notifier) subscribe(fn func(bool)) int {
	if n.handlers == nil {
		n.handlers = make(map[int]func(bool))
	}
	id := n.next
	n.next++
	n.handlers[id] = fn
	return id
}

func (n *notifier) snapshot() []func(bool) {
	fns := make([]func(bool), 0, len(n.handlers))
	for _, fn := range n.handlers {
		fns = append(fns, fn)
	}
	return fns
}

// Static is a monitor with an externally controlled state. It backs tests
// and the --offline flag.
type Static struct {
	mu     sync.Mutex
	online bool
	subs   notifier
}

// NewStatic creates a static monitor in the given state.
func NewStatic(online bool) *Static {
	return &Static{online: online}
}

// Online reports the current state.
func (s *Static) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetOnline updates the state, notifying subscribers on a transition.
func (s *Static) SetOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	fns := s.subs.snapshot()
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers a transition handler.
func (s *Static) Subscribe(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.subs.subscribe(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs.handlers, id)
	}
}

// Probe polls an HTTP endpoint to decide reachability. Any response,
// regardless of status, counts as online; only transport failure counts as
// offline.
type Probe struct {
	url      string
	client   *http.Client
	interval time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	online bool
	subs   notifier
	stop   chan struct{}
	once   sync.Once
}

// NewProbe creates a probe against url, polling at interval. It assumes
// online until the first probe says otherwise, so startup doesn't spuriously
// reject cloud providers.
func NewProbe(url string, interval time.Duration, logger *log.Logger) *Probe {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Probe{
		url:      url,
		client:   &http.Client{Timeout: 5 * time.Second},
		interval: interval,
		logger:   logger,
		online:   true,
		stop:     make(chan struct{}),
	}
}

// Start begins polling until ctx is cancelled or Close is called. The first
// probe runs immediately.
func (p *Probe) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
				p.check(ctx)
			}
		}
	}()
}

// Close stops the polling loop.
func (p *Probe) Close() {
	p.once.Do(func() { close(p.stop) })
}

// Online reports the result of the most recent probe.
func (p *Probe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Subscribe registers a transition handler.
func (p *Probe) Subscribe(fn func(bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.subs.subscribe(fn)
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs.handlers, id)
	}
}

func (p *Probe) check(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.logger.Error("bad probe url", "url", p.url, "error", err)
		return
	}

	resp, err := p.client.Do(req)
	online := err == nil
	if resp != nil {
		resp.Body.Close()
	}

	p.mu.Lock()
	changed := p.online != online
	p.online = online
	fns := p.subs.snapshot()
	p.mu.Unlock()

	if !changed {
		return
	}
	p.logger.Debug("connectivity changed", "online", online)
	for _, fn := range fns {
		fn(online)
	}
}
