package roulette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedGame returns a game whose draw always yields roll.
func fixedGame(roll int) *Game {
	g := New()
	g.roll = func() int { return roll }
	return g
}

func TestLoadValidation(t *testing.T) {
	g := New()

	assert.ErrorIs(t, g.Load(1, 1, 0), ErrInvalidBullets)
	assert.ErrorIs(t, g.Load(1, 1, 6), ErrInvalidBullets)
	assert.ErrorIs(t, g.Load(1, 1, -3), ErrInvalidBullets)

	for bullets := 1; bullets <= MaxBullets; bullets++ {
		require.NoError(t, g.Load(1, 1, bullets))
		assert.Equal(t, bullets, g.Loaded(1, 1))
	}
}

func TestFireNotLoaded(t *testing.T) {
	g := New()

	_, err := g.Fire(1, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

// TestFireThreshold pins the hit boundary: a shot hits exactly when the
// draw is at most bullets*50.
func TestFireThreshold(t *testing.T) {
	tests := []struct {
		name    string
		bullets int
		roll    int
		hit     bool
	}{
		{"one bullet at boundary", 1, 50, true},
		{"one bullet just above", 1, 51, false},
		{"three bullets at boundary", 3, 150, true},
		{"three bullets just above", 3, 151, false},
		{"full chamber always hits", 5, 300, true},
		{"minimum draw always hits", 1, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := fixedGame(tt.roll)
			require.NoError(t, g.Load(1, 1, tt.bullets))

			hit, err := g.Fire(1, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.hit, hit)
		})
	}
}

// TestFireConsumesLoad verifies one load backs exactly one shot.
func TestFireConsumesLoad(t *testing.T) {
	g := fixedGame(300)
	require.NoError(t, g.Load(1, 1, 5))

	_, err := g.Fire(1, 1)
	require.NoError(t, err)
	assert.Zero(t, g.Loaded(1, 1))

	_, err = g.Fire(1, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

// TestLoadReplacesPrior verifies reloading overwrites instead of stacking.
func TestLoadReplacesPrior(t *testing.T) {
	g := New()
	require.NoError(t, g.Load(1, 1, 5))
	require.NoError(t, g.Load(1, 1, 2))
	assert.Equal(t, 2, g.Loaded(1, 1))
}

// TestIsolationAcrossChatsAndUsers verifies loads never leak between
// (chat, user) pairs.
func TestIsolationAcrossChatsAndUsers(t *testing.T) {
	g := New()
	require.NoError(t, g.Load(1, 1, 3))

	assert.Zero(t, g.Loaded(1, 2))
	assert.Zero(t, g.Loaded(2, 1))

	_, err := g.Fire(2, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, 3, g.Loaded(1, 1))
}

// TestFireProperty checks the hit rule and consumption over random loads
// and draws.
func TestFireProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bullets := rapid.IntRange(1, MaxBullets).Draw(t, "bullets")
		roll := rapid.IntRange(rollMin, rollMax).Draw(t, "roll")
		chatID := rapid.Int64Range(1, 1000).Draw(t, "chatID")
		userID := rapid.Int64Range(1, 1000).Draw(t, "userID")

		g := fixedGame(roll)
		if err := g.Load(chatID, userID, bullets); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		hit, err := g.Fire(chatID, userID)
		if err != nil {
			t.Fatalf("fire failed: %v", err)
		}
		if want := roll <= bullets*hitStep; hit != want {
			t.Fatalf("bullets=%d roll=%d: hit=%v, want %v", bullets, roll, hit, want)
		}
		if g.Loaded(chatID, userID) != 0 {
			t.Fatalf("load not consumed")
		}
	})
}
