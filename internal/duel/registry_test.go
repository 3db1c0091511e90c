package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewSupervisor())
}

// TestRegistryTryCreate covers slot occupancy and the self-duel guard.
func TestRegistryTryCreate(t *testing.T) {
	r := newTestRegistry()

	sess, err := r.TryCreate(100, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, PhasePendingConfirmation, sess.Phase)
	assert.Equal(t, int64(1), sess.StarterID)
	assert.Equal(t, int64(2), sess.TargetID)
	assert.NotZero(t, sess.Generation)

	// Occupied slot rejects any second duel
	_, err = r.TryCreate(100, 3, 4)
	assert.ErrorIs(t, err, ErrDuelActive)
	assert.Equal(t, 1, r.Len())

	// Other chats are unaffected
	_, err = r.TryCreate(200, 1, 2)
	assert.NoError(t, err)

	_, err = r.TryCreate(300, 5, 5)
	assert.ErrorIs(t, err, ErrSelfDuel)
}

// TestRegistryGenerationConditioning verifies that Replace and Remove are
// no-ops for stale generations.
func TestRegistryGenerationConditioning(t *testing.T) {
	r := newTestRegistry()

	sess, err := r.TryCreate(100, 1, 2)
	require.NoError(t, err)

	// Stale generation mutates nothing
	assert.False(t, r.Replace(100, sess.Generation+1, func(s *Session) {
		s.Phase = PhaseArmed
	}))
	got, ok := r.Get(100)
	require.True(t, ok)
	assert.Equal(t, PhasePendingConfirmation, got.Phase)

	// Matching generation mutates
	assert.True(t, r.Replace(100, sess.Generation, func(s *Session) {
		s.Phase = PhaseCountdown
	}))
	got, _ = r.Get(100)
	assert.Equal(t, PhaseCountdown, got.Phase)

	// Stale remove is a no-op, matching remove succeeds exactly once
	assert.False(t, r.Remove(100, sess.Generation+1))
	assert.True(t, r.Remove(100, sess.Generation))
	assert.False(t, r.Remove(100, sess.Generation))
	_, ok = r.Get(100)
	assert.False(t, ok)
}

// TestRegistryGenerationsMonotonic verifies a successor session reusing
// the chat slot gets a strictly larger generation.
func TestRegistryGenerationsMonotonic(t *testing.T) {
	r := newTestRegistry()

	first, err := r.TryCreate(100, 1, 2)
	require.NoError(t, err)
	require.True(t, r.Remove(100, first.Generation))

	second, err := r.TryCreate(100, 3, 4)
	require.NoError(t, err)
	assert.Greater(t, second.Generation, first.Generation)

	// The old generation cannot touch the new session
	assert.False(t, r.Remove(100, first.Generation))
	assert.Equal(t, 1, r.Len())
}

// TestRegistryAttachTimer verifies timer ownership follows the session
// generation.
func TestRegistryAttachTimer(t *testing.T) {
	sup := NewSupervisor()
	r := NewRegistry(sup)

	sess, err := r.TryCreate(100, 1, 2)
	require.NoError(t, err)

	h1 := sup.Schedule(hour(), sess.Generation, func(uint64) {})
	assert.True(t, r.AttachTimer(100, sess.Generation, h1))
	assert.Equal(t, 1, sup.PendingCount())

	// Replacing the timer cancels the prior one
	h2 := sup.Schedule(hour(), sess.Generation, func(uint64) {})
	assert.True(t, r.AttachTimer(100, sess.Generation, h2))
	assert.Equal(t, 1, sup.PendingCount())

	// A stale attach cancels the offered handle instead
	h3 := sup.Schedule(hour(), sess.Generation+1, func(uint64) {})
	assert.False(t, r.AttachTimer(100, sess.Generation+1, h3))
	assert.Equal(t, 1, sup.PendingCount())

	// Removal cancels the attached timer
	assert.True(t, r.Remove(100, sess.Generation))
	assert.Equal(t, 0, sup.PendingCount())
}

// TestRegistryStaleCallersProperty checks that no interleaving of
// conditional mutations with mismatched generations ever corrupts the
// live session.
func TestRegistryStaleCallersProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := newTestRegistry()
		chatID := rapid.Int64Range(1, 1000).Draw(t, "chatID")

		sess, err := r.TryCreate(chatID, 1, 2)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		numOps := rapid.IntRange(1, 30).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			// Offset 0 is the live generation; anything else is stale
			offset := rapid.Int64Range(-2, 2).Draw(t, "offset")
			gen := uint64(int64(sess.Generation) + offset)
			useRemove := rapid.Bool().Draw(t, "useRemove")

			if offset != 0 {
				if useRemove {
					if r.Remove(chatID, gen) {
						t.Fatalf("stale remove succeeded with offset %d", offset)
					}
				} else {
					if r.Replace(chatID, gen, func(s *Session) { s.Phase = PhaseArmed }) {
						t.Fatalf("stale replace succeeded with offset %d", offset)
					}
				}
				got, ok := r.Get(chatID)
				if !ok || got.Phase != PhasePendingConfirmation {
					t.Fatalf("stale caller corrupted session: %+v ok=%v", got, ok)
				}
			}
		}

		// The live generation still works after all stale attempts
		if !r.Remove(chatID, sess.Generation) {
			t.Fatal("live remove failed after stale attempts")
		}
	})
}
