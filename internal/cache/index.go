package cache

import "container/list"

// token is one insertion index slot. It is current while the store holds
// key at exactly version; any later Set or Delete of key makes it stale.
type token struct {
	key     string
	version uint64
}

// index records every Set in modification order.
// Front = oldest write, Back = newest write.
type index struct {
	l *list.List
}

func newIndex() *index {
	return &index{l: list.New()}
}

func (ix *index) push(key string, version uint64) {
	ix.l.PushBack(token{key: key, version: version})
}

func (ix *index) front() *list.Element {
	return ix.l.Front()
}

func (ix *index) remove(el *list.Element) {
	ix.l.Remove(el)
}

func (ix *index) len() int {
	return ix.l.Len()
}

func (ix *index) reset() {
	ix.l.Init()
}
