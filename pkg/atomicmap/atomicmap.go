package atomicmap

import (
	"cmp"
	"slices"
	"sync"
)

// AtomicMap is a map guarded by a mutex, safe to share between the step
// goroutine and any background work node logic starts.
type AtomicMap[K cmp.Ordered, T any] struct {
	internal map[K]T
	mutex    sync.Mutex
}

func NewAtomicMap[K cmp.Ordered, T any]() *AtomicMap[K, T] {
	return &AtomicMap[K, T]{
		internal: map[K]T{},
	}
}

func (am *AtomicMap[K, T]) Delete(key K) {
	defer am.mutex.Unlock()
	am.mutex.Lock()

	delete(am.internal, key)
}

func (am *AtomicMap[K, T]) Get(key K) (T, bool) {
	defer am.mutex.Unlock()
	am.mutex.Lock()

	v, found := am.internal[key]

	return v, found
}

func (am *AtomicMap[K, T]) Set(key K, val T) {
	defer am.mutex.Unlock()
	am.mutex.Lock()

	am.internal[key] = val
}

// SetIfAbsent stores val under key unless the key is already present and
// reports whether it stored it.
func (am *AtomicMap[K, T]) SetIfAbsent(key K, val T) bool {
	defer am.mutex.Unlock()
	am.mutex.Lock()

	if _, found := am.internal[key]; found {
		return false
	}
	am.internal[key] = val

	return true
}

func (am *AtomicMap[K, T]) Len() int {
	defer am.mutex.Unlock()
	am.mutex.Lock()

	return len(am.internal)
}

// Keys returns a sorted snapshot of the keys.
func (am *AtomicMap[K, T]) Keys() []K {
	defer am.mutex.Unlock()
	am.mutex.Lock()

	keys := make([]K, 0, len(am.internal))
	for k := range am.internal {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
