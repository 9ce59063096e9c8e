package bios

import (
	"encoding/binary"
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

// BDA field offsets, relative to BDABase. Names follow the conventional
// 40:XX layout real-mode software expects.
const (
	bdaCOM1Port       = 0x00
	bdaCOM2Port       = 0x02
	bdaLPT1Port       = 0x08
	bdaEBDASegment    = 0x0E
	bdaEquipmentWord  = 0x10
	bdaMemorySizeKB   = 0x13
	bdaKeyboardFlags  = 0x17
	bdaVideoMode      = 0x49
	bdaVideoColumns   = 0x4A
	bdaVideoPageSize  = 0x4C
	bdaCursorPosition = 0x50
	bdaCursorShape    = 0x60
	bdaActivePage     = 0x62
	bdaCRTCBasePort   = 0x63
	bdaDiskCount      = 0x75
	bdaVideoRows      = 0x84
	bdaCharHeight     = 0x85
	bdaVGAFlags       = 0x89
)

// Equipment word: FPU present, 80x25 color video, two serial ports.
const bdaEquipment uint16 = (1 << 1) | (2 << 4) | (2 << 9)

// writeBDA populates the BIOS Data Area. All values are constants or derived
// directly from the configuration; INT 11h and INT 12h read them back from
// guest memory without hypervisor involvement.
func writeBDA(vm hv.VirtualMachine, cfg Config) error {
	bda := make([]byte, 0x100)

	binary.LittleEndian.PutUint16(bda[bdaCOM1Port:], 0x03F8)
	binary.LittleEndian.PutUint16(bda[bdaCOM2Port:], 0x02F8)
	binary.LittleEndian.PutUint16(bda[bdaLPT1Port:], 0x0378)
	binary.LittleEndian.PutUint16(bda[bdaEBDASegment:], uint16(EBDABase>>4))
	binary.LittleEndian.PutUint16(bda[bdaEquipmentWord:], bdaEquipment)
	binary.LittleEndian.PutUint16(bda[bdaMemorySizeKB:], 640)
	bda[bdaKeyboardFlags] = 0

	bda[bdaVideoMode] = 0x03
	binary.LittleEndian.PutUint16(bda[bdaVideoColumns:], vgaColumns)
	binary.LittleEndian.PutUint16(bda[bdaVideoPageSize:], vgaColumns*vgaRows*2)
	binary.LittleEndian.PutUint16(bda[bdaCursorPosition:], 0)
	binary.LittleEndian.PutUint16(bda[bdaCursorShape:], 0x0607)
	bda[bdaActivePage] = 0
	binary.LittleEndian.PutUint16(bda[bdaCRTCBasePort:], 0x03D4)

	diskCount := len(cfg.Disks)
	if diskCount > maxDisks {
		diskCount = maxDisks
	}
	bda[bdaDiskCount] = byte(diskCount)

	bda[bdaVideoRows] = vgaRows - 1
	binary.LittleEndian.PutUint16(bda[bdaCharHeight:], 16)
	bda[bdaVGAFlags] = 0x60

	if _, err := vm.WriteAt(bda, int64(BDABase)); err != nil {
		return fmt.Errorf("bios: write BDA: %w", err)
	}
	return nil
}
