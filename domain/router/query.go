package router

// QueryMultiMap is an insertion-ordered string multi-map: it tracks not
// only which values belong to each key (in the order they were added)
// but the order keys were first introduced, so re-emitting a query
// string is deterministic regardless of Go's randomized map iteration.
type QueryMultiMap struct {
	keys []string
	vals map[string][]string
}

// NewQueryMultiMap returns an empty multi-map.
func NewQueryMultiMap() *QueryMultiMap {
	return &QueryMultiMap{vals: map[string][]string{}}
}

// Values returns the ordered values for key, or nil if absent.
func (q *QueryMultiMap) Values(key string) []string {
	if q == nil {
		return nil
	}
	return q.vals[key]
}

// Set replaces key's values with a single value, keeping its original
// position if it already existed.
func (q *QueryMultiMap) Set(key, val string) {
	if _, ok := q.vals[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.vals[key] = []string{val}
}

// Add appends val to key's value list, introducing key at the end of
// the key order if it's new.
func (q *QueryMultiMap) Add(key, val string) {
	if _, ok := q.vals[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.vals[key] = append(q.vals[key], val)
}

// Delete removes key entirely.
func (q *QueryMultiMap) Delete(key string) {
	if _, ok := q.vals[key]; !ok {
		return
	}
	delete(q.vals, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			break
		}
	}
}

// Len reports how many distinct keys are present.
func (q *QueryMultiMap) Len() int {
	if q == nil {
		return 0
	}
	return len(q.keys)
}

// Each calls fn for every key in insertion order with its ordered
// values.
func (q *QueryMultiMap) Each(fn func(key string, vals []string)) {
	if q == nil {
		return
	}
	for _, k := range q.keys {
		fn(k, q.vals[k])
	}
}

// Clone returns a deep copy so a parent context's query state can be
// snapshotted independently of a mutated child.
func (q *QueryMultiMap) Clone() *QueryMultiMap {
	out := NewQueryMultiMap()
	out.keys = append([]string(nil), q.keys...)
	for k, v := range q.vals {
		out.vals[k] = append([]string(nil), v...)
	}
	return out
}
