// Package viewmodel holds the screen state models of the client. Each model
// fetches from the API, falls back to preview data on failure and notifies
// subscribers after every state change.
package viewmodel

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// observable is a mutex guarded state value with change subscribers.
type observable[S any] struct {
	mu    sync.Mutex
	state S
	subs  map[int]func(S)
	next  int
}

// State returns a copy of the current state.
func (o *observable[S]) State() S {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe registers fn to be called with the new state after each change.
// The returned func removes the subscription.
func (o *observable[S]) Subscribe(fn func(S)) (cancel func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subs == nil {
		o.subs = make(map[int]func(S))
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// update applies fn to the state and notifies subscribers outside the lock.
func (o *observable[S]) update(fn func(*S)) {
	o.mu.Lock()
	fn(&o.state)
	snapshot := o.state
	subs := make([]func(S), 0, len(o.subs))
	for _, s := range o.subs {
		subs = append(subs, s)
	}
	o.mu.Unlock()

	for _, s := range subs {
		s(snapshot)
	}
}

func componentLogger(name string) zerolog.Logger {
	return log.With().Str("component", "viewmodel").Str("model", name).Logger()
}
