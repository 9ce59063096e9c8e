package bios

import (
	"encoding/binary"
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

const (
	mpFloatLen       = 16
	mpFloatChecksum  = 10
	mpConfigBase     = MPTableBase + uint64(mpFloatLen)
	mpConfigHdrLen   = 44
	mpConfigChecksum = 7
	mpSpecRev        = 4 // MP specification 1.4

	mpEntryProcessor = 0
	mpEntryBus       = 1
	mpEntryIOAPIC    = 2

	mpProcessorEntryLen = 20
	mpBusEntryLen       = 8
	mpIOAPICEntryLen    = 8

	// Local APIC version register value and per-CPU flags.
	mpLAPICVersion   = 0x14
	mpCPUEnabled     = 1 << 0
	mpCPUBootstrap   = 1 << 1
	mpIOAPICVersion  = 0x11
	mpIOAPICEnabled  = 1 << 0
	mpCPUSignature   = 0x0600
	mpCPUFeatureFPU  = 1 << 0
	mpCPUFeatureAPIC = 1 << 9
)

// writeMPTable emits the MP floating pointer and configuration table: one
// processor entry per CPU, one PCI bus, and one I/O APIC. Checksums on both
// structures are patched last so their byte sums are 0 mod 256.
func writeMPTable(vm hv.VirtualMachine, cfg Config) error {
	float := make([]byte, mpFloatLen)
	copy(float, "_MP_")
	binary.LittleEndian.PutUint32(float[4:], uint32(mpConfigBase))
	float[8] = 1 // length in 16-byte units
	float[9] = mpSpecRev
	finalizeChecksum(float, mpFloatChecksum)

	entryCount := cfg.NumCPUs + 2
	tableLen := mpConfigHdrLen +
		cfg.NumCPUs*mpProcessorEntryLen +
		mpBusEntryLen +
		mpIOAPICEntryLen

	// The first service stub (INT 10h) begins at F000:1000; the table must
	// stay below it.
	if stubBase := BIOSROMBase + uint64(serviceStubOffset(0x10)); mpConfigBase+uint64(tableLen) > stubBase {
		return fmt.Errorf("bios: MP configuration table needs %d bytes, region holds %d",
			tableLen, stubBase-mpConfigBase)
	}

	table := make([]byte, tableLen)
	copy(table, "PCMP")
	binary.LittleEndian.PutUint16(table[4:], uint16(tableLen))
	table[6] = mpSpecRev
	copy(table[8:16], "CEDARVM ")
	copy(table[16:28], "CEDAR BIOS  ")
	binary.LittleEndian.PutUint16(table[34:], uint16(entryCount))
	binary.LittleEndian.PutUint32(table[36:], lapicAddress)

	off := mpConfigHdrLen
	for cpu := 0; cpu < cfg.NumCPUs; cpu++ {
		e := table[off : off+mpProcessorEntryLen]
		e[0] = mpEntryProcessor
		e[1] = byte(cpu) // local APIC id
		e[2] = mpLAPICVersion
		e[3] = mpCPUEnabled
		if cpu == 0 {
			e[3] |= mpCPUBootstrap
		}
		binary.LittleEndian.PutUint32(e[4:], mpCPUSignature)
		binary.LittleEndian.PutUint32(e[8:], mpCPUFeatureFPU|mpCPUFeatureAPIC)
		off += mpProcessorEntryLen
	}

	bus := table[off : off+mpBusEntryLen]
	bus[0] = mpEntryBus
	bus[1] = 0
	copy(bus[2:8], "PCI   ")
	off += mpBusEntryLen

	ioapic := table[off : off+mpIOAPICEntryLen]
	ioapic[0] = mpEntryIOAPIC
	ioapic[1] = byte(cfg.NumCPUs)
	ioapic[2] = mpIOAPICVersion
	ioapic[3] = mpIOAPICEnabled
	binary.LittleEndian.PutUint32(ioapic[4:], ioapicAddress)

	finalizeChecksum(table, mpConfigChecksum)

	if _, err := vm.WriteAt(float, int64(MPTableBase)); err != nil {
		return fmt.Errorf("bios: write MP floating pointer: %w", err)
	}
	if _, err := vm.WriteAt(table, int64(mpConfigBase)); err != nil {
		return fmt.Errorf("bios: write MP configuration table: %w", err)
	}
	return nil
}
