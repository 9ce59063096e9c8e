package bios

// Fixed guest physical addresses of the legacy PC memory map. Guest operating
// systems hardcode these, so none of them depend on configuration.
const (
	IVTBase       uint64 = 0x00000000
	BDABase       uint64 = 0x00000400
	E820TableBase uint64 = 0x00090000
	EBDABase      uint64 = 0x0009FC00
	VGATextBase   uint64 = 0x000B8000
	VGABIOSBase   uint64 = 0x000C0000
	BIOSROMBase   uint64 = 0x000F0000
	SMBIOSBase    uint64 = 0x000F0100
	MPTableBase   uint64 = 0x000F0400
	ResetVector   uint64 = 0x000FFFF0
)

const (
	// Real-mode segment selector covering the system BIOS ROM.
	biosSegment uint16 = 0xF000

	// Offset of the reset-entry far jump within the BIOS ROM segment. The
	// default interrupt vectors point here too, so a stray INT restarts POST.
	resetOffset uint16 = 0xFFF0

	// The boot sector is loaded at 0000:7C00; POST parks the stack below it.
	bootStackTop uint16 = 0x7C00
)

const (
	lapicAddress  uint32 = 0xFEE00000
	ioapicAddress uint32 = 0xFEC00000
)
