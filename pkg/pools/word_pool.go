package pools

import (
	"sync"
)

// WordPool pools zeroed []uint64 slabs of one fixed length
type WordPool struct {
	length int
	pool   sync.Pool
}

// NewWordPool creates a pool of slabs holding length words each
func NewWordPool(length int) *WordPool {
	p := &WordPool{length: length}
	p.pool.New = func() any {
		s := make([]uint64, length)
		return &s
	}
	return p
}

// Len returns the slab length served by the pool
func (p *WordPool) Len() int {
	return p.length
}

// Get returns a zeroed slab of Len() words
func (p *WordPool) Get() []uint64 {
	sp, ok := p.pool.Get().(*[]uint64)
	if !ok || len(*sp) != p.length {
		return make([]uint64, p.length)
	}
	return *sp
}

// Put zeroes a slab and returns it to the pool.
// Slabs of a different length are dropped.
func (p *WordPool) Put(s []uint64) {
	if len(s) != p.length {
		return
	}
	clear(s)
	p.pool.Put(&s)
}
