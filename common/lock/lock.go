// Package lock provides per-key mutual exclusion so that read-modify-write
// sequences against a single aggregate (cart per user, order per order ID,
// payment per payment ID) are serialized within the process.
package lock

import "sync"

// KeyedMutex hands out one mutex per key. Mutexes are never released; the
// key space (active users/orders/payments per instance) is small enough that
// this is not a concern.
type KeyedMutex struct {
	mu sync.Map // key -> *sync.Mutex
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the mutex for key and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	v, _ := k.mu.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
