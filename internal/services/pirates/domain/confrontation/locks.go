package confrontation

import (
	"hash/fnv"
	"slices"
	"sync"
)

const lockShards = 64

// keyedLocks serializes transitions per identity using a fixed set of
// mutexes. Keys hashing to the same shard share a mutex.
type keyedLocks struct {
	shards [lockShards]sync.Mutex
}

// lock acquires the shards of keys in ascending order and returns the
// release func.
func (l *keyedLocks) lock(keys ...string) func() {
	indexes := make([]int, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		indexes = append(indexes, shardOf(key))
	}
	slices.Sort(indexes)
	indexes = slices.Compact(indexes)

	for _, idx := range indexes {
		l.shards[idx].Lock()
	}
	return func() {
		for i := len(indexes) - 1; i >= 0; i-- {
			l.shards[indexes[i]].Unlock()
		}
	}
}

func shardOf(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % lockShards)
}
