package actor

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

const (
	// msgTick is the user message type most tests dispatch on. User
	// types start right after the reserved table index for HELLO.
	msgTick MsgType = 3

	// msgBlock is a user type whose handler parks the dispatching
	// worker until the test releases it.
	msgBlock MsgType = 4
)

// noopHelloRole returns a role that accepts HELLO and msgTick without doing
// anything.
func noopHelloRole() *Role {
	return &Role{
		Handlers: []Handler{
			MsgHello: func(ctx *Context, data any) {},
			msgTick:  func(ctx *Context, data any) {},
		},
	}
}

// joinCtx returns a context that bounds Join in tests so a scheduling bug
// fails the test instead of hanging it.
func joinCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(
		context.Background(), 10*time.Second,
	)
	t.Cleanup(cancel)

	return ctx
}

// TestNewSystemValidation tests that unusable roles and configurations are
// rejected with the matching sentinel error.
func TestNewSystemValidation(t *testing.T) {
	t.Parallel()

	_, _, err := NewSystem(nil)
	require.ErrorIs(t, err, ErrInvalidRole)

	_, _, err = NewSystem(&Role{})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, _, err = NewSystem(noopHelloRole(), WithPoolSize(0))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = NewSystem(noopHelloRole(), WithMailboxCapacity(0))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

// TestSingleActorCounter tests the single-actor scenario: one thousand
// increments dispatched to one actor arrive intact, and the final state is
// observable through the role's teardown hook after Join.
func TestSingleActorCounter(t *testing.T) {
	t.Parallel()

	const numTicks = 1000

	var final any
	role := &Role{
		Handlers: []Handler{
			MsgHello: func(ctx *Context, data any) {},
			msgTick: func(ctx *Context, data any) {
				count := 0
				if state := ctx.State(); state != nil {
					count = state.(int)
				}
				ctx.SetState(count + 1)
			},
		},
		Teardown: fn.Some(TeardownFunc(func(state any) {
			final = state
		})),
	}

	system, rootID, err := NewSystem(role)
	require.NoError(t, err)

	for i := 0; i < numTicks; i++ {
		require.NoError(t, system.Send(
			rootID, Message{Type: msgTick},
		))
	}
	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))

	require.NoError(t, system.Join(joinCtx(t), rootID))
	require.Equal(t, numTicks, final)
}

// TestSendUnknownActor tests that sends to ids this system never allocated
// are rejected with ErrNoSuchActor.
func TestSendUnknownActor(t *testing.T) {
	t.Parallel()

	system, rootID, err := NewSystem(noopHelloRole())
	require.NoError(t, err)

	err = system.Send(42, Message{Type: msgTick})
	require.ErrorIs(t, err, ErrNoSuchActor)

	err = system.Send(-1, Message{Type: msgTick})
	require.ErrorIs(t, err, ErrNoSuchActor)

	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))
	require.NoError(t, system.Join(joinCtx(t), rootID))
}

// TestSendAfterTerminate tests that once an actor has processed TERMINATE,
// every further send to it is refused with ErrActorDead.
func TestSendAfterTerminate(t *testing.T) {
	t.Parallel()

	system, rootID, err := NewSystem(noopHelloRole())
	require.NoError(t, err)

	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))
	require.NoError(t, system.Join(joinCtx(t), rootID))

	err = system.Send(rootID, Message{Type: msgTick})
	require.ErrorIs(t, err, ErrActorDead)
}

// TestJoinUnknownActor tests that Join with an id the system never
// allocated returns ErrNoSuchActor.
func TestJoinUnknownActor(t *testing.T) {
	t.Parallel()

	system, rootID, err := NewSystem(noopHelloRole())
	require.NoError(t, err)

	err = system.Join(joinCtx(t), 99)
	require.ErrorIs(t, err, ErrNoSuchActor)

	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))
	require.NoError(t, system.Join(joinCtx(t), rootID))
}

// TestJoinContextCancelled tests that a cancelled Join returns the context
// error without tearing the system down, and that a later Join still
// completes normally.
func TestJoinContextCancelled(t *testing.T) {
	t.Parallel()

	system, rootID, err := NewSystem(noopHelloRole())
	require.NoError(t, err)

	// The root stays alive, so this Join can only end via the context.
	ctx, cancel := context.WithTimeout(
		context.Background(), 50*time.Millisecond,
	)
	defer cancel()

	err = system.Join(ctx, rootID)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The system is still operational: terminate the root and join for
	// real.
	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))
	require.NoError(t, system.Join(joinCtx(t), rootID))
}

// TestJoinIdempotent tests that joining an already torn down system returns
// immediately without error.
func TestJoinIdempotent(t *testing.T) {
	t.Parallel()

	system, rootID, err := NewSystem(noopHelloRole())
	require.NoError(t, err)

	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))
	require.NoError(t, system.Join(joinCtx(t), rootID))
	require.NoError(t, system.Join(joinCtx(t), rootID))
}

// TestTeardownRunsPerActor tests that the role teardown hook runs once for
// every actor created from the role, not just the root.
func TestTeardownRunsPerActor(t *testing.T) {
	t.Parallel()

	const numChildren = 5

	var torndown int
	var role *Role
	role = &Role{
		Handlers: []Handler{
			MsgHello: func(ctx *Context, data any) {
				parent := data.(fn.Option[ID])

				// The root spawns the children; every child
				// just dies.
				if parent.IsNone() {
					for i := 0; i < numChildren; i++ {
						err := ctx.Send(ctx.Self(),
							Message{
								Type: MsgSpawn,
								Data: role,
							})
						require.NoError(t, err)
					}
				}

				err := ctx.Send(ctx.Self(), Message{
					Type: MsgTerminate,
				})
				require.NoError(t, err)
			},
		},
		Teardown: fn.Some(TeardownFunc(func(state any) {
			torndown++
		})),
	}

	system, rootID, err := NewSystem(role)
	require.NoError(t, err)

	require.NoError(t, system.Join(joinCtx(t), rootID))
	require.Equal(t, numChildren+1, torndown)
	require.Equal(t, numChildren+1, system.ActorCount())
}

// TestMailboxOverflowFatal tests that pushing past a mailbox's fixed
// capacity is a fatal runtime error surfaced on the sender.
func TestMailboxOverflowFatal(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	processed := make(chan struct{}, 8)

	role := &Role{
		Handlers: []Handler{
			MsgHello: func(ctx *Context, data any) {},
			msgTick: func(ctx *Context, data any) {
				processed <- struct{}{}
			},
			msgBlock: func(ctx *Context, data any) {
				entered <- struct{}{}
				<-release
			},
		},
	}

	system, rootID, err := NewSystem(
		role, WithPoolSize(1), WithMailboxCapacity(2),
	)
	require.NoError(t, err)

	// Park the only worker inside the root's handler so nothing drains
	// the mailbox while we fill it.
	require.NoError(t, system.Send(rootID, Message{Type: msgBlock}))
	<-entered

	require.NoError(t, system.Send(rootID, Message{Type: msgTick}))
	require.NoError(t, system.Send(rootID, Message{Type: msgTick}))

	require.Panics(t, func() {
		_ = system.Send(rootID, Message{Type: msgTick})
	})

	// Unpark the worker, let the queued ticks drain, then shut down
	// cleanly.
	close(release)
	<-processed
	<-processed

	require.NoError(t, system.Send(rootID, Message{Type: MsgTerminate}))
	require.NoError(t, system.Join(joinCtx(t), rootID))
}
