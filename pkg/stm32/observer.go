// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event identifies the kind of decoded hardware event delivered to observers
type Event uint16

// Observer events carry the opcode of the response that produced them
const (
	EventSignalStrength = Event(OpSignalStrength)
	EventSignalData     = Event(OpSignalData)
)

func (e Event) String() string {
	switch e {
	case EventSignalStrength:
		return "SIGNAL_STRENGTH"
	case EventSignalData:
		return "SIGNAL_DATA"
	default:
		return "UNKNOWN"
	}
}

// Observer receives hardware event notifications
type Observer interface {
	Notify(event Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(event Event)

func (f ObserverFunc) Notify(event Event) { f(event) }

// Registry holds observers and fans out notifications.
// Registering the same observer twice delivers each event to it twice.
type Registry struct {
	mu        sync.RWMutex
	observers []Observer
	log       zerolog.Logger
}

// NewRegistry creates an empty observer registry
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{log: log}
}

// Register appends an observer; observers are kept for the registry's lifetime
func (r *Registry) Register(o Observer) {
	if o == nil {
		return
	}
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// Len returns the number of registered observers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// NotifyAll calls Notify on every observer in registration order, on the
// calling goroutine. A panicking observer is logged and skipped.
func (r *Registry) NotifyAll(event Event) {
	r.mu.RLock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.RUnlock()

	for i, o := range observers {
		r.notify(i, o, event)
	}
}

func (r *Registry) notify(index int, o Observer, event Event) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error().
				Int("observer", index).
				Stringer("event", event).
				Interface("panic", v).
				Msg("observer failed")
		}
	}()
	o.Notify(event)
}
