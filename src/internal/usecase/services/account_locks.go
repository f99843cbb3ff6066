package services

import "sync"

// AccountLocks serializes balance mutations per account so that concurrent
// transfers against the same account cannot interleave their
// read-modify-write. Pair locks are always acquired in sorted user-id order,
// otherwise two opposite-direction transfers between the same accounts could
// deadlock.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *AccountLocks) get(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

// Lock acquires the lock for a single account and returns the unlock func.
func (l *AccountLocks) Lock(userID string) func() {
	lock := l.get(userID)
	lock.Lock()
	return lock.Unlock
}

// LockPair acquires the locks for both accounts of a transfer.
func (l *AccountLocks) LockPair(a string, b string) func() {
	if a == b {
		return l.Lock(a)
	}

	first, second := a, b
	if second < first {
		first, second = second, first
	}

	firstLock := l.get(first)
	secondLock := l.get(second)
	firstLock.Lock()
	secondLock.Lock()

	return func() {
		secondLock.Unlock()
		firstLock.Unlock()
	}
}
