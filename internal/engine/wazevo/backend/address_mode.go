package backend

import (
	"fmt"
	"strings"
)

// AddressMode describes the address computation `symbol + base + offset + scale*index`
// of a load or store.
type AddressMode struct {
	// BaseSymbol is true if the address is relative to a global symbol.
	BaseSymbol bool
	// Offset is the constant displacement.
	Offset int64
	// HasBaseReg is true if a base register participates.
	HasBaseReg bool
	// Scale is the multiplier of the index register. Zero means no index register.
	Scale int64
}

// HasIndexReg returns true if an index register participates.
func (am AddressMode) HasIndexReg() bool {
	return am.Scale != 0
}

// String implements fmt.Stringer.
func (am AddressMode) String() string {
	var parts []string
	if am.BaseSymbol {
		parts = append(parts, "sym")
	}
	if am.HasBaseReg {
		parts = append(parts, "base")
	}
	switch am.Scale {
	case 0:
	case 1:
		parts = append(parts, "index")
	default:
		parts = append(parts, fmt.Sprintf("index*%d", am.Scale))
	}
	if am.Offset != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d", am.Offset))
	}
	return "[" + strings.Join(parts, " + ") + "]"
}
