// Package vgacon reads the VGA text-mode framebuffer out of guest memory and
// renders it for a host terminal. It is a read-only debugging view; the guest
// owns the framebuffer once it is running.
package vgacon

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/cedarvm/cedar/internal/firmware/bios"
	"github.com/cedarvm/cedar/internal/hv"
)

const (
	Columns = 80
	Rows    = 25
)

// Cell is one character cell of the text framebuffer.
type Cell struct {
	Char byte
	Attr byte
}

// Snapshot is a point-in-time copy of the full text grid.
type Snapshot struct {
	Cells [Rows][Columns]Cell
}

// Capture copies the 80x25 text framebuffer out of guest memory.
func Capture(vm hv.VirtualMachine) (*Snapshot, error) {
	raw := make([]byte, Rows*Columns*2)
	if _, err := vm.ReadAt(raw, int64(bios.VGATextBase)); err != nil {
		return nil, fmt.Errorf("vgacon: read text framebuffer: %w", err)
	}

	snap := &Snapshot{}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			off := (row*Columns + col) * 2
			snap.Cells[row][col] = Cell{Char: raw[off], Attr: raw[off+1]}
		}
	}
	return snap, nil
}

// Line returns one row as plain text with trailing spaces trimmed.
func (s *Snapshot) Line(row int) string {
	var b strings.Builder
	for col := 0; col < Columns; col++ {
		ch := s.Cells[row][col].Char
		if ch < 0x20 || ch > 0x7E {
			ch = ' '
		}
		b.WriteByte(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

// VGA attribute nibbles map onto the 16 ANSI colors, modulo the red/blue bit
// swap between the two encodings.
var sgrForeground = [16]int{30, 34, 32, 36, 31, 35, 33, 37, 90, 94, 92, 96, 91, 95, 93, 97}
var sgrBackground = [8]int{40, 44, 42, 46, 41, 45, 43, 47}

// Render produces an ANSI rendition of the grid, one terminal line per VGA
// row, resetting attributes at each line end.
func (s *Snapshot) Render() string {
	var b strings.Builder
	for row := 0; row < Rows; row++ {
		lastAttr := -1
		for col := 0; col < Columns; col++ {
			cell := s.Cells[row][col]
			if int(cell.Attr) != lastAttr {
				fmt.Fprintf(&b, "\x1b[0;%d;%dm",
					sgrForeground[cell.Attr&0x0F],
					sgrBackground[(cell.Attr>>4)&0x07])
				lastAttr = int(cell.Attr)
			}
			ch := cell.Char
			if ch < 0x20 || ch > 0x7E {
				ch = ' '
			}
			b.WriteByte(ch)
		}
		b.WriteString("\x1b[0m\r\n")
	}
	return b.String()
}

// RenderPlain is Render with every escape sequence stripped, for dumping to
// non-terminal outputs.
func (s *Snapshot) RenderPlain() string {
	return ansi.Strip(s.Render())
}
