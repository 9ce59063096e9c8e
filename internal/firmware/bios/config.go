package bios

import "fmt"

// maxDisks is the number of fixed disks the BDA can describe.
const maxDisks = 4

// Disk describes one fixed disk attached to the machine. The firmware only
// consumes the count; the descriptor exists so callers pass the same machine
// description here and to their block device models.
type Disk struct {
	// Size is the disk capacity in bytes.
	Size uint64
	// ReadOnly marks the disk as write-protected.
	ReadOnly bool
}

// Config describes the machine the firmware image is built for. It is read
// once by Install and never mutated.
type Config struct {
	// MemorySize is the guest RAM size in bytes. Must be at least 1 MiB.
	MemorySize uint64
	// NumCPUs is the number of virtual CPUs. Must be at least 1.
	NumCPUs int
	// Disks lists the attached fixed disks, at most four.
	Disks []Disk
}

func (c *Config) validate() error {
	if c.MemorySize < 1<<20 {
		return fmt.Errorf("bios: memory size %#x below 1 MiB minimum", c.MemorySize)
	}
	if c.NumCPUs < 1 {
		return fmt.Errorf("bios: cpu count %d, need at least 1", c.NumCPUs)
	}
	if len(c.Disks) > maxDisks {
		return fmt.Errorf("bios: %d disks attached, BIOS disk table holds %d", len(c.Disks), maxDisks)
	}
	return nil
}

// Manifest reports the guest physical addresses later boot stages need.
type Manifest struct {
	// E820Addr is the scratch table holding the serialized memory map.
	E820Addr uint64
	// SMBIOSAddr is the SMBIOS 64-bit entry point.
	SMBIOSAddr uint64
	// MPTableAddr is the MP floating pointer structure.
	MPTableAddr uint64
	// EntryPoint is the POST entry the CPU reset vector jumps to.
	EntryPoint uint64

	// VGATextAddr and BDAAddr let console or debugger attachments avoid
	// hardcoding the legacy layout.
	VGATextAddr uint64
	BDAAddr     uint64
}
