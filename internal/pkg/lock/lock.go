// Package lock provides per-game locking so that double-submitted
// requests for the same slug serialize inside one process. The database
// row lock is what ultimately prevents lost updates; this keeps the two
// requests from even racing to the transaction.
package lock

import "sync"

// slugMutex wraps a mutex so instances can be pooled.
type slugMutex struct {
	mu sync.Mutex
}

// SlugLock hands out one mutex per game slug.
type SlugLock struct {
	locks sync.Map // map[string]*slugMutex
	pool  sync.Pool
}

// NewSlugLock creates a new SlugLock instance.
func NewSlugLock() *SlugLock {
	return &SlugLock{
		pool: sync.Pool{
			New: func() any {
				return &slugMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given slug.
func (sl *SlugLock) getLock(slug string) *slugMutex {
	if v, ok := sl.locks.Load(slug); ok {
		return v.(*slugMutex)
	}

	newLock := sl.pool.Get().(*slugMutex)
	actual, loaded := sl.locks.LoadOrStore(slug, newLock)
	if loaded {
		// Another goroutine won the store, return ours to the pool.
		sl.pool.Put(newLock)
	}
	return actual.(*slugMutex)
}

// Lock acquires the lock for a game.
func (sl *SlugLock) Lock(slug string) {
	sl.getLock(slug).mu.Lock()
}

// Unlock releases the lock for a game.
func (sl *SlugLock) Unlock(slug string) {
	if v, ok := sl.locks.Load(slug); ok {
		v.(*slugMutex).mu.Unlock()
	}
}

// WithLock runs fn while holding the game's lock.
func (sl *SlugLock) WithLock(slug string, fn func() error) error {
	sl.Lock(slug)
	defer sl.Unlock(slug)
	return fn()
}
