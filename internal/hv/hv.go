// Package hv defines the hypervisor-neutral abstractions the firmware
// builders write through. A hypervisor backend (KVM, HVF, ...) supplies the
// real implementation; tests and tooling use a plain RAM-backed region.
package hv

import (
	"errors"
	"io"
)

var ErrOutOfRange = errors.New("guest physical address out of range")

// VirtualMachine is a guest physical address space. Offsets passed to ReadAt
// and WriteAt are guest physical addresses, not host offsets.
type VirtualMachine interface {
	io.ReaderAt
	io.WriterAt

	io.Closer

	MemoryBase() uint64
	MemorySize() uint64
}
