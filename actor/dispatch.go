package actor

import (
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Context is the per-dispatch view of the runtime handed to a handler. It
// identifies the actor the handler is running as and gives access to its
// private state and to the system's send path. A Context is only valid for
// the duration of the handler invocation it was created for.
type Context struct {
	system *System
	rec    *actorRecord
}

// Self returns the id of the actor the current handler is running as.
func (c *Context) Self() ID {
	return c.rec.id
}

// System returns the system the current actor belongs to.
func (c *Context) System() *System {
	return c.system
}

// Send sends a message through the owning system. Handlers run with the
// system lock not held, so sending to any actor, including Self, is always
// legal.
func (c *Context) Send(to ID, msg Message) error {
	return c.system.Send(to, msg)
}

// State returns the actor's private state handle. The runtime never
// inspects it.
func (c *Context) State() any {
	return c.rec.state
}

// SetState replaces the actor's private state handle. Only the handler
// currently dispatched for this actor may call it; one-message-at-a-time
// dispatch is what makes the access safe without further locking.
func (c *Context) SetState(state any) {
	c.rec.state = state
}

// runActor is the job registered with the worker pool. Each invocation
// dispatches exactly one message for the given actor: pop it, handle it,
// then either re-submit a ticket when more messages remain or mark the
// actor idle and account for its end of life.
func (s *System) runActor(id ID) {
	s.mu.Lock()
	rec := s.registry.get(id)

	msg, ok := rec.mailbox.pop()
	if !ok {
		s.mu.Unlock()
		fatalf("ticket dispatched for actor %d with empty mailbox",
			id)
	}

	// The scheduled flag stays set for the whole dispatch: this executing
	// job is the actor's one outstanding ticket until the tail below
	// decides its fate. A Send landing mid-handler therefore enqueues
	// without submitting a second ticket, which is what keeps two workers
	// from ever running the same actor at once.

	switch {
	case rec.dead:
		// Messages still queued when the actor accepted termination
		// are popped under the normal ticket protocol but never reach
		// a handler, and a queued spawn no longer creates a child.
		s.mu.Unlock()

		log.Tracef("Discarding msg_type=%d for dead actor %d",
			msg.Type, id)

	case msg.Type == MsgSpawn:
		role, ok := msg.Data.(*Role)
		if !ok || validateRole(role) != nil {
			s.mu.Unlock()
			fatalf("spawn payload for actor %d is not a usable "+
				"role", id)
		}

		// The child record and its id come into existence in the same
		// critical section, so the id cannot be observed unborn.
		childID := s.newActorLocked(role)
		s.mu.Unlock()

		log.Debugf("Actor %d spawned child %d", id, childID)

		// HELLO travels the ordinary send path. No other sender can
		// have learned the child id yet, so it is guaranteed to be
		// the first message the child receives.
		hello := Message{Type: MsgHello, Data: fn.Some(id)}
		if err := s.Send(childID, hello); err != nil {
			fatalf("hello to newborn actor %d refused: %v",
				childID, err)
		}

	case msg.Type == MsgTerminate:
		rec.dead = true
		s.mu.Unlock()

		log.Debugf("Actor %d terminated", id)

	default:
		s.mu.Unlock()
		s.invoke(rec, msg)
	}

	// One message has been handled with the lock dropped. Decide whether
	// the actor stays runnable or goes idle: messages that arrived while
	// the handler ran are picked up here, so nothing is stranded by the
	// no-second-ticket rule above.
	s.mu.Lock()
	switch {
	case !rec.mailbox.isEmpty():
		// The ticket rolls over: scheduled remains set and the next
		// dispatch is submitted directly.
		s.pool.schedule(id)

	default:
		rec.scheduled = false

		if rec.dead {
			s.active--
			if s.active == 0 {
				s.quiescent.Broadcast()
			}
		}
	}
	s.mu.Unlock()
}

// invoke runs the role handler selected by the message type, with the system
// lock not held so handler code may freely call back into Send. A type with
// no usable table entry is a fatal error: there is no well-defined recipient
// for such a message.
func (s *System) invoke(rec *actorRecord, msg Message) {
	if msg.Type < 0 || int(msg.Type) >= len(rec.role.Handlers) ||
		rec.role.Handlers[msg.Type] == nil {

		fatalf("actor %d has no handler for msg_type=%d", rec.id,
			msg.Type)
	}

	log.Tracef("Dispatching msg_type=%d to actor %d", msg.Type, rec.id)

	ctx := &Context{
		system: s,
		rec:    rec,
	}
	rec.role.Handlers[msg.Type](ctx, msg.Data)
}
