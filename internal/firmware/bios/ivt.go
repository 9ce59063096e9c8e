package bios

import (
	"encoding/binary"
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

// servicedVectors are the BIOS interrupts backed by a service stub in the ROM
// segment. Each stub lives at offset vector<<8 (INT 10h at F000:1000, INT 11h
// at F000:1100, ...).
var servicedVectors = []uint8{
	0x10, // video services
	0x11, // equipment list
	0x12, // conventional memory size
	0x13, // disk services
	0x14, // serial services
	0x15, // system services
	0x16, // keyboard services
	0x17, // printer services
	0x18, // boot fault
	0x19, // bootstrap loader
	0x1A, // time services
}

func serviceStubOffset(vector uint8) uint16 {
	return uint16(vector) << 8
}

// writeIVT fills all 256 interrupt vectors. Every vector starts out pointing
// at the reset entry in the ROM segment; the serviced vectors are then
// repointed at their stubs.
func writeIVT(vm hv.VirtualMachine) error {
	ivt := make([]byte, 256*4)

	for v := 0; v < 256; v++ {
		binary.LittleEndian.PutUint16(ivt[v*4:], resetOffset)
		binary.LittleEndian.PutUint16(ivt[v*4+2:], biosSegment)
	}

	for _, v := range servicedVectors {
		binary.LittleEndian.PutUint16(ivt[int(v)*4:], serviceStubOffset(v))
		binary.LittleEndian.PutUint16(ivt[int(v)*4+2:], biosSegment)
	}

	if _, err := vm.WriteAt(ivt, int64(IVTBase)); err != nil {
		return fmt.Errorf("bios: write IVT: %w", err)
	}
	return nil
}
