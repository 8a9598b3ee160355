// pkg/projector/index.go
package projector

// index owns one entity table: a hash index from natural key to surrogate id
// plus the rows created since the last drain. Ids start at 1 and follow first
// sight in record order.
type index[K comparable, R any] struct {
	ids     map[K]int64
	pending []R
}

func newIndex[K comparable, R any]() *index[K, R] {
	return &index[K, R]{ids: make(map[K]int64)}
}

// resolve returns the id for key, building and keeping a new row on first sight
func (ix *index[K, R]) resolve(key K, build func(id int64) R) int64 {
	if id, ok := ix.ids[key]; ok {
		return id
	}
	id := int64(len(ix.ids)) + 1
	ix.ids[key] = id
	ix.pending = append(ix.pending, build(id))
	return id
}

// drain hands over the rows created since the previous drain
func (ix *index[K, R]) drain() []R {
	out := ix.pending
	ix.pending = nil
	return out
}

// size is the number of distinct natural keys seen
func (ix *index[K, R]) size() int64 {
	return int64(len(ix.ids))
}
