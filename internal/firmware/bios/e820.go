package bios

import (
	"encoding/binary"
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

// E820Type is the region type reported through the INT 15h/E820h interface.
type E820Type uint32

const (
	E820RAM         E820Type = 1
	E820Reserved    E820Type = 2
	E820ACPIReclaim E820Type = 3
	E820ACPINVS     E820Type = 4
	E820Unusable    E820Type = 5
)

// E820Entry describes one region of the guest physical memory map.
type E820Entry struct {
	Base   uint64
	Length uint64
	Type   E820Type
}

const e820EntrySize = 20

const (
	ebdaEnd        = 0x000A0000
	vgaBIOSEnd     = VGABIOSBase + 0x8000
	biosWindowBase = 0x000E0000
	highMemBase    = 0x00100000

	pciHoleBase = 0xE0000000
	mmioEnd     = 0xFF000000

	fourGiB = 1 << 32

	// The top 64 KiB of extended memory below the PCI hole are handed to
	// ACPI as reclaimable table space.
	acpiReclaimSize = 0x10000
)

// e820Map computes the memory map for memSize bytes of guest RAM. Entries are
// produced in ascending base order and never overlap.
func e820Map(memSize uint64) []E820Entry {
	entries := []E820Entry{
		{Base: 0, Length: EBDABase, Type: E820RAM},
		{Base: EBDABase, Length: ebdaEnd - EBDABase, Type: E820Reserved},
		{Base: ebdaEnd, Length: VGABIOSBase - ebdaEnd, Type: E820Reserved},
		{Base: VGABIOSBase, Length: vgaBIOSEnd - VGABIOSBase, Type: E820Reserved},
		{Base: biosWindowBase, Length: highMemBase - biosWindowBase, Type: E820Reserved},
	}

	if memSize > highMemBase {
		lowEnd := memSize
		if lowEnd > pciHoleBase {
			lowEnd = pciHoleBase
		}
		if lowEnd-highMemBase > acpiReclaimSize {
			entries = append(entries,
				E820Entry{Base: highMemBase, Length: lowEnd - acpiReclaimSize - highMemBase, Type: E820RAM},
				E820Entry{Base: lowEnd - acpiReclaimSize, Length: acpiReclaimSize, Type: E820ACPIReclaim},
			)
		} else {
			entries = append(entries,
				E820Entry{Base: highMemBase, Length: lowEnd - highMemBase, Type: E820RAM},
			)
		}
	}

	entries = append(entries,
		E820Entry{Base: pciHoleBase, Length: ioapicWindowBase - pciHoleBase, Type: E820Reserved},
		E820Entry{Base: ioapicWindowBase, Length: mmioEnd - ioapicWindowBase, Type: E820Reserved},
	)

	if memSize > fourGiB {
		entries = append(entries,
			E820Entry{Base: fourGiB, Length: memSize - fourGiB, Type: E820RAM},
		)
	}

	return entries
}

const ioapicWindowBase = uint64(ioapicAddress)

// writeE820 serializes entries to the scratch table at E820TableBase: a
// 4-byte entry count followed by 20-byte entries, each base and length split
// into 32-bit halves.
func writeE820(vm hv.VirtualMachine, entries []E820Entry) error {
	buf := make([]byte, 4+len(entries)*e820EntrySize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(entries)))

	for i, ent := range entries {
		off := 4 + i*e820EntrySize
		binary.LittleEndian.PutUint32(buf[off:], uint32(ent.Base))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(ent.Base>>32))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(ent.Length))
		binary.LittleEndian.PutUint32(buf[off+12:], uint32(ent.Length>>32))
		binary.LittleEndian.PutUint32(buf[off+16:], uint32(ent.Type))
	}

	if _, err := vm.WriteAt(buf, int64(E820TableBase)); err != nil {
		return fmt.Errorf("bios: write e820 table: %w", err)
	}
	return nil
}
