package passes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	p := newPool[Instruction]()
	var allocated []*Instruction
	for i := 0; i < poolPageSize*2+1; i++ {
		inst := p.allocate()
		require.Equal(t, Instruction{}, *inst)
		inst.imm = int64(i)
		allocated = append(allocated, inst)
	}
	require.Len(t, p.pages, 3)
	for i, inst := range allocated {
		require.Equal(t, int64(i), inst.imm)
		require.Same(t, inst, &p.pages[i/poolPageSize][i%poolPageSize])
	}

	p.reset()
	require.Empty(t, p.pages)
	// Pages are reused and zeroed.
	inst := p.allocate()
	require.Same(t, allocated[0], inst)
	require.Equal(t, Instruction{}, *inst)
}
