package sim

import "sync"

// VecPool recycles scratch slices of a fixed length.
type VecPool struct {
	pool sync.Pool
	size int
}

func NewVecPool(size int) *VecPool {
	return &VecPool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				return make([]Vec3, size)
			},
		},
	}
}

func (p *VecPool) Size() int { return p.size }

func (p *VecPool) Get() []Vec3 {
	return p.pool.Get().([]Vec3)
}

func (p *VecPool) Put(s []Vec3) {
	if len(s) == p.size {
		clear(s)
		p.pool.Put(s)
	}
}
