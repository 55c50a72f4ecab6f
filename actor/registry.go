package actor

// actorRecord is the runtime's view of one actor: its role, its private
// state handle, its mailbox, and the two flags the dispatch protocol turns
// on. The flags and the mailbox are guarded by the system lock.
type actorRecord struct {
	// id is the stable identifier assigned at creation.
	id ID

	// role is the shared, read-only dispatch descriptor.
	role *Role

	// state is the opaque handle owned by handler code. The runtime
	// stores and passes it but never inspects it. It is only touched by
	// the worker currently dispatching this actor, and by teardown once
	// the system is quiescent.
	state any

	// mailbox holds the actor's pending messages.
	mailbox *mailbox

	// scheduled is true iff this actor holds its one outstanding ticket:
	// either queued in the worker pool or being dispatched by a worker. It
	// is cleared only at the end of a dispatch that leaves the mailbox
	// empty.
	scheduled bool

	// dead is true once the actor has accepted a termination request.
	// The transition is one-way; afterwards no new messages enter the
	// mailbox.
	dead bool
}

// registry is the append-only, densely indexed collection of actor records.
// Ids are array indices: they are assigned in creation order, never reused,
// and records live until full system teardown. add is the only mutator; the
// system lock serializes it against every reader.
type registry struct {
	records []*actorRecord
}

// newRegistry creates an empty registry.
func newRegistry() *registry {
	return &registry{}
}

// add appends a new record, assigns it the next dense id, and returns that
// id.
func (r *registry) add(rec *actorRecord) ID {
	id := ID(len(r.records))
	rec.id = id
	r.records = append(r.records, rec)

	return id
}

// get returns the record for the given id. The caller must have bounds
// checked the id against length.
func (r *registry) get(id ID) *actorRecord {
	return r.records[id]
}

// length returns the number of records ever added.
func (r *registry) length() int {
	return len(r.records)
}
