package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRegistryDenseIDs tests that ids are assigned densely from zero in
// creation order.
func TestRegistryDenseIDs(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	require.Equal(t, 0, r.length())

	for i := 0; i < 10; i++ {
		rec := &actorRecord{mailbox: newMailbox(4)}
		id := r.add(rec)

		require.Equal(t, ID(i), id)
		require.Equal(t, id, rec.id)
		require.Equal(t, i+1, r.length())
	}
}

// TestRegistryGet tests that lookup by id returns the same record that was
// added.
func TestRegistryGet(t *testing.T) {
	t.Parallel()

	r := newRegistry()

	first := &actorRecord{mailbox: newMailbox(4)}
	second := &actorRecord{mailbox: newMailbox(4)}

	firstID := r.add(first)
	secondID := r.add(second)

	require.Same(t, first, r.get(firstID))
	require.Same(t, second, r.get(secondID))
}
