// Package events provides domain events and an in-process emitter.
//
// Services emit events after their transaction commits. Handlers such as the
// notification handler react to them without the emitting service knowing
// who listens. The primary components are:
// - Event: a typed envelope with a JSON payload
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
