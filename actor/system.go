package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// DefaultPoolSize is the default number of worker goroutines
	// dispatching actors.
	DefaultPoolSize = 4

	// DefaultMailboxCapacity is the default bounded capacity of each
	// actor's mailbox. It is sized generously so that overflow indicates
	// a runaway sender rather than a transient burst.
	DefaultMailboxCapacity = 1024
)

// SystemConfig holds the configuration parameters for a System. Both values
// are fixed at creation time.
type SystemConfig struct {
	// PoolSize is the number of worker goroutines in the dispatch pool.
	PoolSize int

	// MailboxCapacity is the fixed capacity of every actor's mailbox.
	MailboxCapacity int
}

// DefaultConfig returns the default configuration for a System.
func DefaultConfig() SystemConfig {
	return SystemConfig{
		PoolSize:        DefaultPoolSize,
		MailboxCapacity: DefaultMailboxCapacity,
	}
}

// validate reports whether the configuration can run a system.
func (cfg *SystemConfig) validate() error {
	if cfg.PoolSize < 1 {
		return fmt.Errorf("%w: pool size %d", ErrInvalidConfig,
			cfg.PoolSize)
	}
	if cfg.MailboxCapacity < 1 {
		return fmt.Errorf("%w: mailbox capacity %d", ErrInvalidConfig,
			cfg.MailboxCapacity)
	}

	return nil
}

// SystemOption is a functional option for NewSystem.
type SystemOption func(*SystemConfig)

// WithPoolSize sets the number of worker goroutines in the dispatch pool.
func WithPoolSize(n int) SystemOption {
	return func(cfg *SystemConfig) {
		cfg.PoolSize = n
	}
}

// WithMailboxCapacity sets the fixed capacity of every actor's mailbox.
func WithMailboxCapacity(n int) SystemOption {
	return func(cfg *SystemConfig) {
		cfg.MailboxCapacity = n
	}
}

// System is one actor runtime instance: a registry of actors, a fixed worker
// pool, and the scheduling discipline coupling them. All public operations
// hang off the System handle, so independent systems can coexist in one
// process.
type System struct {
	// cfg holds the immutable creation-time configuration.
	cfg SystemConfig

	// instance identifies this system in log output.
	instance uuid.UUID

	// mu is the single system-wide lock. It guards the registry, every
	// actor's scheduled and dead flags, every mailbox, and the active
	// counter. The coarse granularity is deliberate: the
	// push-and-maybe-schedule transition in Send and the
	// reschedule-or-go-idle transition at the end of each dispatch each
	// fit in one critical section, which is what makes the
	// one-ticket-per-actor invariant trivially correct.
	mu sync.Mutex

	// quiescent is broadcast when active drops to zero. It shares mu.
	quiescent *sync.Cond

	// registry maps dense ids to actor records.
	registry *registry

	// pool executes dispatch tickets.
	pool *workerPool

	// active counts actors that have not yet both died and drained
	// their mailbox.
	active int

	// torndown is set once a Join call has claimed teardown.
	torndown bool

	// done is closed once teardown has completed, so late joiners do not
	// return before the resources are actually released.
	done chan struct{}
}

// NewSystem creates a new actor system with a root actor bound to the given
// role, then delivers the root's HELLO with an empty parent id. It returns
// the system handle and the root's id.
func NewSystem(root *Role, opts ...SystemOption) (*System, ID, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, 0, err
	}
	if err := validateRole(root); err != nil {
		return nil, 0, err
	}

	s := &System{
		cfg:      cfg,
		instance: uuid.New(),
		registry: newRegistry(),
		done:     make(chan struct{}),
	}
	s.quiescent = sync.NewCond(&s.mu)
	s.pool = newWorkerPool(cfg.PoolSize, s.runActor)

	s.mu.Lock()
	rootID := s.newActorLocked(root)
	s.mu.Unlock()

	log.Infof("Actor system %s created: pool_size=%d, "+
		"mailbox_capacity=%d, root_id=%d", s.instance, cfg.PoolSize,
		cfg.MailboxCapacity, rootID)

	// The root learns its own birth the same way spawned actors do,
	// except nobody is on the parent side.
	hello := Message{Type: MsgHello, Data: fn.None[ID]()}
	if err := s.Send(rootID, hello); err != nil {
		return nil, 0, err
	}

	return s, rootID, nil
}

// newActorLocked appends a new actor record for the given role and returns
// its id. The system lock must be held: id allocation and the active count
// must move together, so a spawned child is fully visible to sends the
// moment its id escapes.
func (s *System) newActorLocked(role *Role) ID {
	rec := &actorRecord{
		role:    role,
		mailbox: newMailbox(s.cfg.MailboxCapacity),
	}
	id := s.registry.add(rec)
	s.active++

	return id
}

// Send enqueues a message for the given actor and, when the actor holds no
// outstanding ticket, schedules one. It never blocks beyond lock
// acquisition. It returns ErrNoSuchActor for an id this system never
// allocated and ErrActorDead when the recipient no longer takes messages.
//
// Checking the scheduled flag inside the same critical section as the push
// is what guarantees exactly one outstanding ticket per non-idle actor.
func (s *System) Send(id ID, msg Message) error {
	s.mu.Lock()

	if id < 0 || int(id) >= s.registry.length() {
		s.mu.Unlock()
		return ErrNoSuchActor
	}

	rec := s.registry.get(id)
	if rec.dead {
		s.mu.Unlock()
		return ErrActorDead
	}

	if !rec.mailbox.push(msg) {
		s.mu.Unlock()
		fatalf("mailbox overflow: actor %d at capacity %d", id,
			s.cfg.MailboxCapacity)
	}

	if !rec.scheduled {
		rec.scheduled = true
		s.pool.schedule(id)
	}

	s.mu.Unlock()

	log.Tracef("Enqueued msg_type=%d for actor %d", msg.Type, id)

	return nil
}

// Join blocks the caller until every actor in the system is dead and
// drained, then tears the system down: the worker pool is stopped, each
// role's teardown hook runs over its actors' private state, and each record's
// state handle is dropped. The records themselves stay in the registry, so
// ActorCount and Send keep answering after Join. Any id the system has
// allocated may be passed; an
// out-of-range id returns ErrNoSuchActor.
//
// When ctx is cancelled before quiescence, Join returns the context error
// without tearing down, and may be called again. After one Join has torn the
// system down, further Join calls return immediately.
func (s *System) Join(ctx context.Context, id ID) error {
	s.mu.Lock()

	if id < 0 || int(id) >= s.registry.length() {
		s.mu.Unlock()
		return ErrNoSuchActor
	}

	// A cancelled caller has to be woken out of the condition variable
	// wait; the loop below rechecks the context after every wakeup.
	stopWatch := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.quiescent.Broadcast()
		s.mu.Unlock()
	})
	defer stopWatch()

	for s.active > 0 {
		if err := ctx.Err(); err != nil {
			s.mu.Unlock()
			return err
		}
		s.quiescent.Wait()
	}

	if s.torndown {
		s.mu.Unlock()

		// Another joiner claimed teardown; wait for it to finish.
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.torndown = true
	s.mu.Unlock()

	// Quiescence means no tickets are outstanding and every future send
	// is refused, so the pool drains immediately and the registry can be
	// walked without the lock.
	s.pool.stop()

	for i := 0; i < s.registry.length(); i++ {
		rec := s.registry.get(ID(i))
		rec.role.Teardown.WhenSome(func(teardown TeardownFunc) {
			teardown(rec.state)
		})
		rec.state = nil
	}

	close(s.done)

	log.Infof("Actor system %s joined: %d actors released", s.instance,
		s.registry.length())

	return nil
}

// ActorCount returns the number of actors ever created in this system,
// including dead ones. Ids below the returned count are valid registry
// indices.
func (s *System) ActorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.length()
}

// String returns a short identifier for this system instance.
func (s *System) String() string {
	return fmt.Sprintf("actor.System(%s)", s.instance)
}

// fatalf reports an unrecoverable violation of the runtime's contract, such
// as mailbox overflow or a message with no usable handler. There is no
// back-pressure or drop policy to fall back on, so the runtime fails loudly.
func fatalf(format string, args ...any) {
	log.Criticalf(format, args...)
	panic(fmt.Sprintf(format, args...))
}
