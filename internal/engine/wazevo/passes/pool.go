package passes

// poolPageSize is the number of items per page of a pool.
const poolPageSize = 128

// pool hands out pointers to zeroed items which stay valid until reset,
// and reuses their memory across Function.Reset.
type pool[T any] struct {
	pages []*[poolPageSize]T
	index int
}

func newPool[T any]() pool[T] {
	var ret pool[T]
	ret.reset()
	return ret
}

func (p *pool[T]) allocate() *T {
	if p.index == poolPageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([poolPageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([poolPageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	return ret
}

func (p *pool[T]) reset() {
	for _, page := range p.pages {
		clear(page[:])
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
}
