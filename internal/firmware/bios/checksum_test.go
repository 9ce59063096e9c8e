package bios

import "testing"

func TestFinalizeChecksum(t *testing.T) {
	for _, tc := range [][]byte{
		{0x00, 0x00, 0x00, 0x00},
		{0x12, 0x00, 0x34, 0x56},
		{0xFF, 0x00, 0xFF, 0xFF},
	} {
		b := make([]byte, len(tc))
		copy(b, tc)
		finalizeChecksum(b, 1)
		if got := byteSum(b); got != 0 {
			t.Fatalf("bytes % x sum to %d after finalize", b, got)
		}
		// Patching again must be stable even with a stale checksum in place.
		prev := b[1]
		finalizeChecksum(b, 1)
		if b[1] != prev {
			t.Fatalf("finalize not idempotent: %#02x then %#02x", prev, b[1])
		}
	}
}
