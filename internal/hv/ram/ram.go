// Package ram provides a host-RAM-backed guest physical address space. It is
// what cmd tooling and tests hand to the firmware builders when no hypervisor
// is attached.
package ram

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/cedarvm/cedar/internal/hv"
)

// Region is an anonymous mmap'd guest memory region starting at a fixed guest
// physical base address.
type Region struct {
	mem  []byte
	base uint64
}

// New allocates size bytes of zeroed guest memory based at base.
func New(base, size uint64) (*Region, error) {
	maxInt := uint64(^uint(0) >> 1)
	if size == 0 || size > maxInt {
		return nil, fmt.Errorf("ram: invalid region size %d", size)
	}

	mem, err := unix.Mmap(
		-1,
		0,
		int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANONYMOUS|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("ram: allocate region: %w", err)
	}

	return &Region{mem: mem, base: base}, nil
}

func (r *Region) MemoryBase() uint64 { return r.base }
func (r *Region) MemorySize() uint64 { return uint64(len(r.mem)) }

// ReadAt implements hv.VirtualMachine.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	idx, err := r.translate(off, len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, r.mem[idx:idx+len(p)]), nil
}

// WriteAt implements hv.VirtualMachine.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	idx, err := r.translate(off, len(p))
	if err != nil {
		return 0, err
	}
	return copy(r.mem[idx:idx+len(p)], p), nil
}

func (r *Region) translate(off int64, n int) (int, error) {
	idx := off - int64(r.base)
	if idx < 0 || idx+int64(n) > int64(len(r.mem)) {
		return 0, fmt.Errorf("ram: %w: %#x+%d", hv.ErrOutOfRange, off, n)
	}
	return int(idx), nil
}

func (r *Region) Close() error {
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem = nil
	return unix.Munmap(mem)
}

var (
	_ hv.VirtualMachine = &Region{}
)
