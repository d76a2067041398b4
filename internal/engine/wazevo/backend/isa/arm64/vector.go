package arm64

import (
	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/ssa"
)

// neon implements backend.VectorCapabilities for Advanced SIMD.
type neon struct{}

// Ensures that neon implements backend.VectorCapabilities.
var _ backend.VectorCapabilities = neon{}

// IsLegalShuffle implements backend.VectorCapabilities.
//
// Any permutation of two v128 sources is a single tbl with a two-register table,
// once the lane indexes are expanded into byte indexes.
func (neon) IsLegalShuffle(mask []int, typ ssa.Type) bool {
	if typ != ssa.TypeV128 {
		return false
	}
	switch lanes := len(mask); lanes {
	case 2, 4, 8, 16:
		for _, l := range mask {
			if l >= 2*lanes {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsLegalMaskedGather implements backend.VectorCapabilities.
//
// Gathers need SVE, which is not assumed.
func (neon) IsLegalMaskedGather(ssa.Type) bool { return false }

// IsLegalMaskedScatter implements backend.VectorCapabilities.
func (neon) IsLegalMaskedScatter(ssa.Type) bool { return false }
