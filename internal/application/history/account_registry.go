package history

import (
	"strings"
	"sync"

	"wallet-history-indexer/internal/domain/service"
)

type registeredListener struct {
	id       int
	listener service.AccountListener
}

// AccountRegistry is the in-process AccountProvider. Transports such as the
// NATS watcher or the HTTP API feed it through Set.
type AccountRegistry struct {
	mu        sync.Mutex
	current   string
	listeners []registeredListener
	nextID    int
}

// NewAccountRegistry creates a registry seeded with initial
func NewAccountRegistry(initial string) *AccountRegistry {
	return &AccountRegistry{current: strings.TrimSpace(initial)}
}

// Current returns the active account
func (r *AccountRegistry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Subscribe registers listener and returns its removal function
func (r *AccountRegistry) Subscribe(listener service.AccountListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, registeredListener{id: id, listener: listener})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, l := range r.listeners {
			if l.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Set changes the active account and notifies listeners in registration
// order. It reports whether the account actually changed.
func (r *AccountRegistry) Set(account string) bool {
	account = strings.TrimSpace(account)

	r.mu.Lock()
	if strings.EqualFold(r.current, account) {
		r.mu.Unlock()
		return false
	}
	r.current = account
	listeners := make([]service.AccountListener, len(r.listeners))
	for i, l := range r.listeners {
		listeners[i] = l.listener
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(account)
	}
	return true
}
