package semantics

import (
	"fmt"
	"strings"
)

// bitName pairs one wire bit with its display name.
type bitName[T ~uint32] struct {
	bit  T
	name string
}

// decodeBits tests every known bit of mask in enumeration order. Bits that are
// set but not enumerated are returned as the residual mask.
func decodeBits[T ~uint32](mask uint32, known []bitName[T]) ([]T, uint32) {
	if mask == 0 {
		return nil, 0
	}
	var out []T
	claimed := uint32(0)
	for _, k := range known {
		if mask&uint32(k.bit) != 0 {
			out = append(out, k.bit)
			claimed |= uint32(k.bit)
		}
	}
	return out, mask &^ claimed
}

func encodeBits[T ~uint32](set []T) uint32 {
	var mask uint32
	for _, b := range set {
		mask |= uint32(b)
	}
	return mask
}

func bitString[T ~uint32](b T, known []bitName[T]) string {
	for _, k := range known {
		if k.bit == b {
			return k.name
		}
	}
	return fmt.Sprintf("0x%x", uint32(b))
}

func joinBits[T ~uint32](set []T, residual uint32, known []bitName[T]) string {
	parts := make([]string, 0, len(set)+1)
	for _, b := range set {
		parts = append(parts, bitString(b, known))
	}
	if residual != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", residual))
	}
	return strings.Join(parts, " ")
}
