package bios

import (
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

// VGA text mode 3 geometry.
const (
	vgaColumns = 80
	vgaRows    = 25

	// Light gray on black.
	vgaDefaultAttr = 0x07
)

// clearVGAText paints every cell of the text framebuffer with a space in the
// default attribute.
func clearVGAText(vm hv.VirtualMachine) error {
	fb := make([]byte, vgaColumns*vgaRows*2)
	for i := 0; i < len(fb); i += 2 {
		fb[i] = ' '
		fb[i+1] = vgaDefaultAttr
	}
	if _, err := vm.WriteAt(fb, int64(VGATextBase)); err != nil {
		return fmt.Errorf("bios: clear VGA text buffer: %w", err)
	}
	return nil
}

// WriteString writes text into the VGA text framebuffer starting at the given
// cell, two bytes per character. It does not wrap or clip; the caller keeps
// row*80+col+len(text) within the 80x25 grid.
func WriteString(vm hv.VirtualMachine, row, col int, text string, attr byte) error {
	if row < 0 || row >= vgaRows || col < 0 || col >= vgaColumns {
		return fmt.Errorf("bios: VGA cell (%d,%d) outside %dx%d grid", row, col, vgaColumns, vgaRows)
	}

	cell := make([]byte, len(text)*2)
	for i := 0; i < len(text); i++ {
		cell[i*2] = text[i]
		cell[i*2+1] = attr
	}

	addr := VGATextBase + uint64(row*vgaColumns+col)*2
	if _, err := vm.WriteAt(cell, int64(addr)); err != nil {
		return fmt.Errorf("bios: write VGA text: %w", err)
	}
	return nil
}
