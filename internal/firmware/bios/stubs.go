package bios

import (
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

// The interrupt service stubs are fixed real-mode byte sequences. Keeping
// them as named constants rather than assembling them at build time makes
// the installer declarative and the emitted bytes trivially reproducible.
var (
	// vmcall; iret — trap into the hypervisor, then return to the caller.
	hypercallStub = []byte{0x0F, 0x01, 0xC1, 0xCF}

	// INT 11h: return the BDA equipment word (40:10) in AX.
	//   push ds; xor ax, ax; mov ds, ax; mov ax, [0x0410]; pop ds; iret
	equipmentStub = []byte{0x1E, 0x31, 0xC0, 0x8E, 0xD8, 0xA1, 0x10, 0x04, 0x1F, 0xCF}

	// INT 12h: return the conventional memory size (40:13) in AX.
	//   push ds; xor ax, ax; mov ds, ax; mov ax, [0x0413]; pop ds; iret
	memorySizeStub = []byte{0x1E, 0x31, 0xC0, 0x8E, 0xD8, 0xA1, 0x13, 0x04, 0x1F, 0xCF}

	// POST entry at F000:0000. Interrupts off while the segment registers
	// and stack are set up, stack parked below the boot sector load address,
	// then INT 19h pulls in the boot sector. The hlt loop catches a return
	// from the bootstrap so execution never falls into undefined bytes.
	//   cli
	//   xor ax, ax
	//   mov ds, ax
	//   mov es, ax
	//   mov ss, ax
	//   mov sp, 0x7C00
	//   sti
	//   int 0x19
	//   hlt
	//   jmp hlt
	postStub = []byte{
		0xFA,
		0x31, 0xC0,
		0x8E, 0xD8,
		0x8E, 0xC0,
		0x8E, 0xD0,
		0xBC, byte(bootStackTop & 0xFF), byte(bootStackTop >> 8),
		0xFB,
		0xCD, 0x19,
		0xF4,
		0xEB, 0xFD,
	}

	// jmp far F000:0000 — the first instruction the CPU executes. Always
	// targets the POST entry, regardless of configuration.
	resetStub = []byte{0xEA, 0x00, 0x00, 0x00, 0xF0}

	// Shared iret for anything that lands just past the reset jump.
	iretStub = []byte{0xCF}
)

func serviceStub(vector uint8) []byte {
	switch vector {
	case 0x11:
		return equipmentStub
	case 0x12:
		return memorySizeStub
	default:
		return hypercallStub
	}
}

// installStubs writes the POST entry, the per-vector service stubs, and the
// reset vector into the BIOS ROM segment. Every offset is a compile-time
// constant relative to BIOSROMBase.
func installStubs(vm hv.VirtualMachine) error {
	if _, err := vm.WriteAt(postStub, int64(BIOSROMBase)); err != nil {
		return fmt.Errorf("bios: write POST stub: %w", err)
	}

	for _, v := range servicedVectors {
		addr := BIOSROMBase + uint64(serviceStubOffset(v))
		if _, err := vm.WriteAt(serviceStub(v), int64(addr)); err != nil {
			return fmt.Errorf("bios: write INT %#02x stub: %w", v, err)
		}
	}

	if _, err := vm.WriteAt(resetStub, int64(ResetVector)); err != nil {
		return fmt.Errorf("bios: write reset vector: %w", err)
	}
	if _, err := vm.WriteAt(iretStub, int64(ResetVector+uint64(len(resetStub)))); err != nil {
		return fmt.Errorf("bios: write iret stub: %w", err)
	}
	return nil
}
