// Package identity supplies bearer tokens for the backend and notifies
// interested components when the signed-in state changes.
package identity

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrUnauthenticated is returned when no token is available.
var ErrUnauthenticated = errors.New("not signed in")

// TokenSource is the contract consumed by the API client and the sync
// queue. The provider itself is opaque.
type TokenSource interface {
	// Token returns the current bearer token.
	Token(ctx context.Context) (string, error)
	// Authenticated reports whether a token is currently available.
	Authenticated() bool
	// Subscribe registers a handler for signed-in/out transitions.
	Subscribe(fn func(authenticated bool)) func()
}

// Memory holds a token in memory. SetToken("") signs out.
type Memory struct {
	mu       sync.Mutex
	token    string
	handlers map[int]func(bool)
	next     int
}

// NewMemory creates a source, optionally pre-seeded with a token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

// Token returns the stored token or ErrUnauthenticated.
func (m *Memory) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrUnauthenticated
	}
	return m.token, nil
}

// Authenticated reports whether a token is stored.
func (m *Memory) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// SetToken replaces the token, notifying subscribers when the signed-in
// state flips.
func (m *Memory) SetToken(token string) {
	m.mu.Lock()
	was := m.token != ""
	m.token = token
	is := token != ""
	var fns []func(bool)
	if was != is {
		fns = make([]func(bool), 0, len(m.handlers))
		for _, fn := range m.handlers {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(is)
	}
}

// Subscribe registers a signed-in state handler.
func (m *Memory) Subscribe(fn func(bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[int]func(bool))
	}
	id := m.next
	m.next++
	m.handlers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

// FromFile loads a token from path, typically written by a separate sign-in
// flow. A missing file yields a signed-out source.
func FromFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewMemory(""), nil
	}
	if err != nil {
		return nil, err
	}
	return NewMemory(strings.TrimSpace(string(data))), nil
}
