// Package roulette implements the russian roulette mini-game: a user
// loads one to five bullets, then fires once against a random draw.
package roulette

import (
	"errors"
	"math/rand"
	"sync"
)

const (
	// MaxBullets is the largest loadable chamber count.
	MaxBullets = 5

	// rollMin/rollMax bound the uniform draw; a shot hits when the draw
	// is at most bullets*hitStep.
	rollMin = 50
	rollMax = 300
	hitStep = 50
)

// Errors for the roulette game.
var (
	ErrInvalidBullets = errors.New("bullet count must be between 1 and 5")
	ErrNotLoaded      = errors.New("no bullets loaded, load first")
)

// key identifies one loaded gun: per chat, per user.
type key struct {
	ChatID int64
	UserID int64
}

// Game tracks loaded chambers. State is a single integer per (chat, user)
// pair, consumed by one fire.
type Game struct {
	mu     sync.Mutex
	loaded map[key]int
	roll   func() int
}

// New creates a Game with the standard random draw.
func New() *Game {
	return &Game{
		loaded: make(map[key]int),
		roll: func() int {
			return rollMin + rand.Intn(rollMax-rollMin+1)
		},
	}
}

// Load loads bullets for the user in the chat, replacing any prior load.
func (g *Game) Load(chatID, userID int64, bullets int) error {
	if bullets < 1 || bullets > MaxBullets {
		return ErrInvalidBullets
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.loaded[key{ChatID: chatID, UserID: userID}] = bullets
	return nil
}

// Fire consumes the user's loaded chambers and reports whether the shot
// hit. Returns ErrNotLoaded when nothing was loaded.
func (g *Game) Fire(chatID, userID int64) (bool, error) {
	g.mu.Lock()
	k := key{ChatID: chatID, UserID: userID}
	bullets, ok := g.loaded[k]
	if ok {
		delete(g.loaded, k)
	}
	roll := g.roll()
	g.mu.Unlock()

	if !ok {
		return false, ErrNotLoaded
	}
	return roll <= bullets*hitStep, nil
}

// Loaded returns the user's current chamber count, zero when unloaded.
func (g *Game) Loaded(chatID, userID int64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded[key{ChatID: chatID, UserID: userID}]
}
