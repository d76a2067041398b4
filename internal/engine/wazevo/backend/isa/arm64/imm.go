package arm64

// This file contains the logic to determine whether a constant can be encoded
// as the immediate operand of an instruction instead of being materialized
// into a register first.

const (
	// unscaledOffsetMin and unscaledOffsetMax are the bounds of the signed 9-bit offset
	// taken by ldur/stur.
	unscaledOffsetMin, unscaledOffsetMax = -256, 255
	// scaledOffsetMax is the largest unsigned 12-bit offset taken by ldr/str, before scaling by the access size.
	scaledOffsetMax = 0xfff
)

// asImm12 returns the imm12 encoding of val taken by add, sub, cmp and cmn.
// The 12-bit value can be optionally shifted left by 12, in which case shiftBit is 1.
func asImm12(val uint64) (v uint16, shiftBit byte, ok bool) {
	const mask1, mask2 uint64 = 0xfff, 0xfff_000
	if val&^mask1 == 0 {
		return uint16(val), 0, true
	} else if val&^mask2 == 0 {
		return uint16(val >> 12), 1, true
	} else {
		return 0, 0, false
	}
}

// isSignedImm12 returns true if imm or its negation fits into imm12. A negative imm is
// encoded by flipping the instruction, e.g. `add x0, x1, #-1` becomes `sub x0, x1, #1`
// and `cmp x0, #-1` becomes `cmn x0, #1`.
func isSignedImm12(imm int64) bool {
	u := uint64(imm)
	if imm < 0 {
		u = -u
	}
	_, _, ok := asImm12(u)
	return ok
}

// isUnscaledOffset returns true if offset fits into the signed 9-bit offset of ldur/stur.
func isUnscaledOffset(offset int64) bool {
	return offset >= unscaledOffsetMin && offset <= unscaledOffsetMax
}

// isScaledOffset returns true if offset is encodable as the unsigned 12-bit offset of ldr/str
// whose unit is the access size.
func isScaledOffset(offset int64, size byte) bool {
	s := int64(size)
	return offset >= 0 && offset%s == 0 && offset/s <= scaledOffsetMax
}
