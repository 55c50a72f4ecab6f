// Package actor implements an in-process actor runtime: lightweight,
// single-threaded units of computation that communicate solely by
// asynchronous message passing, dispatched on a fixed pool of workers. A
// given actor processes at most one message at a time regardless of how many
// workers exist, while unrelated actors run in parallel.
package actor

import (
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrActorDead indicates that a send was refused because the recipient has
// already accepted a termination request and no longer takes messages.
var ErrActorDead = fmt.Errorf("actor dead")

// ErrNoSuchActor indicates that the target id has never been allocated by
// this system.
var ErrNoSuchActor = fmt.Errorf("no such actor")

// ErrInvalidRole indicates that a role cannot be used to create an actor,
// for example because it is nil or declares no handlers.
var ErrInvalidRole = fmt.Errorf("invalid role")

// ErrInvalidConfig indicates that the system configuration is unusable, for
// example a non-positive pool size or mailbox capacity.
var ErrInvalidConfig = fmt.Errorf("invalid system config")

// ID is the stable identifier of an actor within a System. Ids are dense
// integers assigned from zero in creation order and are never reused.
type ID int64

// MsgType selects the handler a message is dispatched to. Values zero and
// one are reserved for the runtime; MsgHello and greater index directly into
// the role's handler table.
type MsgType int

const (
	// MsgTerminate asks the recipient to mark itself dead. The runtime
	// handles it without invoking any role handler; every send issued
	// after the recipient processed it is refused with ErrActorDead.
	MsgTerminate MsgType = 0

	// MsgSpawn asks the recipient to create a child actor. The payload
	// must be a *Role; the runtime creates the child and delivers a
	// MsgHello to it carrying the spawning actor's id.
	MsgSpawn MsgType = 1

	// MsgHello is the first message every actor receives. Its payload is
	// fn.Option[ID]: the parent's id for spawned actors, fn.None for the
	// root. MsgHello is the lowest type that reaches the handler table,
	// so a role's handler for it lives at index 2.
	MsgHello MsgType = 2
)

// Message is an immutable value delivered to an actor's mailbox. The payload
// is opaque to the runtime; it is handed to the role handler selected by
// Type exactly as it was sent.
type Message struct {
	// Type selects the handler this message is dispatched to, or one of
	// the reserved control types.
	Type MsgType

	// Data is the opaque payload. For MsgSpawn it must be a *Role, for
	// MsgHello it is fn.Option[ID].
	Data any
}

// Handler processes one message for one actor. Handlers run on a worker
// goroutine with the system lock not held, so they may freely call Send
// (including to the actor itself), query ctx.Self, and mutate the actor's
// private state through ctx. The runtime guarantees that no two handler
// invocations for the same actor ever overlap.
type Handler func(ctx *Context, data any)

// TeardownFunc releases an actor's private state. It is invoked once per
// actor during Join teardown, after every actor is dead and drained.
type TeardownFunc func(state any)

// Role is the immutable descriptor bound to an actor at creation time. It is
// shared read-only between the runtime and all actors created from it.
type Role struct {
	// Handlers is the dispatch table, indexed directly by MsgType. The
	// two reserved slots below MsgHello are never invoked; dispatching a
	// type with no usable entry is a fatal runtime error.
	Handlers []Handler

	// Teardown optionally releases the private state of actors created
	// from this role. When None, state is simply dropped at teardown.
	Teardown fn.Option[TeardownFunc]
}

// validateRole reports whether a role can be bound to a new actor.
func validateRole(role *Role) error {
	if role == nil {
		return fmt.Errorf("%w: nil role", ErrInvalidRole)
	}
	if len(role.Handlers) == 0 {
		return fmt.Errorf("%w: role declares no handlers",
			ErrInvalidRole)
	}

	return nil
}
