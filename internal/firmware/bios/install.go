// Package bios builds the legacy-BIOS firmware image a virtual machine
// monitor installs into guest memory before the first vCPU instruction runs.
// It writes the interrupt vector table, BIOS data area, E820 memory map, VGA
// text framebuffer, real-mode service stubs, SMBIOS tables, and the MP
// configuration table, byte-for-byte in the layout unmodified guest operating
// systems expect.
package bios

import (
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

const bannerAttr = vgaDefaultAttr

// Banner is painted into the VGA text buffer during setup.
const Banner = "Cedar BIOS " + smbiosVersion

// Install builds the firmware image in vm and returns the addresses later
// boot stages need. It runs once, synchronously, before the guest CPU is
// started; the guest memory region must not be touched concurrently.
//
// Installing the same configuration into two freshly zeroed regions yields
// byte-identical memory.
func Install(vm hv.VirtualMachine, cfg Config) (Manifest, error) {
	if err := cfg.validate(); err != nil {
		return Manifest{}, err
	}
	if cfg.NumCPUs > 254 {
		return Manifest{}, fmt.Errorf("bios: cpu count %d exceeds MP table APIC id space", cfg.NumCPUs)
	}
	if vm.MemoryBase() != 0 {
		return Manifest{}, fmt.Errorf("bios: guest memory must start at 0, starts at %#x", vm.MemoryBase())
	}
	if vm.MemorySize() < 1<<20 {
		return Manifest{}, fmt.Errorf("bios: guest region %#x bytes, firmware needs the full first MiB", vm.MemorySize())
	}

	// Low memory holds the IVT and BDA; start from a known-zero state.
	if _, err := vm.WriteAt(make([]byte, 0x1000), 0); err != nil {
		return Manifest{}, fmt.Errorf("bios: zero low memory: %w", err)
	}

	if err := writeIVT(vm); err != nil {
		return Manifest{}, err
	}
	if err := writeBDA(vm, cfg); err != nil {
		return Manifest{}, err
	}
	if err := clearVGAText(vm); err != nil {
		return Manifest{}, err
	}
	if err := WriteString(vm, 0, 0, Banner, bannerAttr); err != nil {
		return Manifest{}, err
	}
	if err := installStubs(vm); err != nil {
		return Manifest{}, err
	}
	if err := writeE820(vm, e820Map(cfg.MemorySize)); err != nil {
		return Manifest{}, err
	}
	if err := writeSMBIOS(vm, cfg); err != nil {
		return Manifest{}, err
	}
	if err := writeMPTable(vm, cfg); err != nil {
		return Manifest{}, err
	}

	return Manifest{
		E820Addr:    E820TableBase,
		SMBIOSAddr:  SMBIOSBase,
		MPTableAddr: MPTableBase,
		EntryPoint:  BIOSROMBase,
		VGATextAddr: VGATextBase,
		BDAAddr:     BDABase,
	}, nil
}
