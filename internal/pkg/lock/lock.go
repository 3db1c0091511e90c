// Package lock provides per-chat locking for duel state transitions.
// Each chat's decision+transition step is serialized; the lock is released
// before any blocking platform call so a slow send in one chat never
// stalls unrelated chats.
package lock

import (
	"sync"
)

// chatMutex wraps a mutex with reference counting for pooling.
type chatMutex struct {
	mu       sync.Mutex
	refCount int
}

// ChatLock provides per-chat locking to serialize state transitions
// against a chat's duel session slot.
type ChatLock struct {
	locks sync.Map // map[int64]*chatMutex
	pool  sync.Pool
}

// NewChatLock creates a new ChatLock instance.
func NewChatLock() *ChatLock {
	return &ChatLock{
		pool: sync.Pool{
			New: func() any {
				return &chatMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given chat ID.
func (cl *ChatLock) getLock(chatID int64) *chatMutex {
	if v, ok := cl.locks.Load(chatID); ok {
		return v.(*chatMutex)
	}

	newLock := cl.pool.Get().(*chatMutex)
	newLock.refCount = 0

	// Store or load existing (handles race condition)
	actual, loaded := cl.locks.LoadOrStore(chatID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		cl.pool.Put(newLock)
	}
	return actual.(*chatMutex)
}

// Lock acquires the lock for a chat.
func (cl *ChatLock) Lock(chatID int64) {
	lock := cl.getLock(chatID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a chat.
func (cl *ChatLock) Unlock(chatID int64) {
	if v, ok := cl.locks.Load(chatID); ok {
		lock := v.(*chatMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (cl *ChatLock) TryLock(chatID int64) bool {
	lock := cl.getLock(chatID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the chat's lock.
func (cl *ChatLock) WithLock(chatID int64, fn func() error) error {
	cl.Lock(chatID)
	defer cl.Unlock(chatID)
	return fn()
}

// IsLocked checks if a chat currently has an active lock.
// Note: this is a point-in-time check and may change immediately after.
func (cl *ChatLock) IsLocked(chatID int64) bool {
	if v, ok := cl.locks.Load(chatID); ok {
		lock := v.(*chatMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
