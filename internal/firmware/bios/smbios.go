package bios

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cedarvm/cedar/internal/hv"
)

// SMBIOS structure types emitted, in table order.
const (
	smbiosTypeBIOSInfo    = 0
	smbiosTypeSystemInfo  = 1
	smbiosTypeChassis     = 3
	smbiosTypeProcessor   = 4
	smbiosTypeMemoryArray = 16
	smbiosTypeMemoryDev   = 17
	smbiosTypeEndOfTable  = 127
)

const (
	smbiosAnchor          = "_SM3_"
	smbiosEntryPointLen   = 24
	smbiosChecksumOffset  = 5
	smbiosMajorVersion    = 3
	smbiosMinorVersion    = 0
	smbiosEntryPointRev   = 1
	smbiosStructTableBase = SMBIOSBase + 0x20
)

// Identity strings reported to the guest. Fixed so rebuilding the image is
// byte-reproducible.
const (
	smbiosVendor      = "CEDAR"
	smbiosVersion     = "0.1"
	smbiosReleaseDate = "01/01/2000"
	smbiosProduct     = "Cedar Virtual Machine"
	smbiosSerial      = "0"
)

// smbiosWriter accumulates the structure table. Each structure is a 4-byte
// header, formatted fields, and a NUL-terminated string table closed by an
// extra NUL.
type smbiosWriter struct {
	buf    bytes.Buffer
	handle uint16
}

// add appends one structure and returns its handle. String fields in the
// formatted area hold 1-based indexes into strs.
func (w *smbiosWriter) add(typ uint8, formatted []byte, strs ...string) uint16 {
	handle := w.handle
	w.handle++

	w.buf.WriteByte(typ)
	w.buf.WriteByte(byte(4 + len(formatted)))
	binary.Write(&w.buf, binary.LittleEndian, handle)
	w.buf.Write(formatted)

	if len(strs) == 0 {
		w.buf.Write([]byte{0, 0})
		return handle
	}
	for _, s := range strs {
		w.buf.WriteString(s)
		w.buf.WriteByte(0)
	}
	w.buf.WriteByte(0)
	return handle
}

func buildBIOSInfo() []byte {
	f := make([]byte, 16)
	f[0] = 1 // vendor string
	f[1] = 2 // version string
	binary.LittleEndian.PutUint16(f[2:], uint16(BIOSROMBase>>4))
	f[4] = 3 // release date string
	f[5] = 0 // ROM size
	// BIOS characteristics: not supported.
	binary.LittleEndian.PutUint64(f[6:], 1<<3)
	return f
}

func buildSystemInfo() []byte {
	f := make([]byte, 23)
	f[0] = 1 // manufacturer string
	f[1] = 2 // product string
	f[2] = 3 // version string
	f[3] = 4 // serial string
	// UUID bytes 4..19 stay zero so the image is deterministic.
	f[20] = 6 // wake-up type: power switch
	return f
}

func buildChassis() []byte {
	f := make([]byte, 17)
	f[0] = 1 // manufacturer string
	f[1] = 1 // chassis type: other
	f[5] = 3 // boot-up state: safe
	f[6] = 3 // power supply state: safe
	f[7] = 3 // thermal state: safe
	f[8] = 3 // security status: none
	return f
}

func buildProcessor(numCPUs int) []byte {
	cores := numCPUs
	if cores > 0xFF {
		cores = 0xFF
	}

	f := make([]byte, 36)
	f[0] = 1 // socket designation string
	f[1] = 3 // processor type: central processor
	f[2] = 1 // family: other
	f[3] = 2 // manufacturer string
	// Processor ID bytes 4..11 zero.
	f[12] = 3 // version string
	binary.LittleEndian.PutUint16(f[16:], 2000) // max speed MHz
	binary.LittleEndian.PutUint16(f[18:], 2000) // current speed MHz
	f[20] = 0x41                                // populated, enabled
	f[21] = 1                                   // upgrade: other
	binary.LittleEndian.PutUint16(f[22:], 0xFFFF)
	binary.LittleEndian.PutUint16(f[24:], 0xFFFF)
	binary.LittleEndian.PutUint16(f[26:], 0xFFFF)
	f[31] = byte(cores) // core count
	f[32] = byte(cores) // cores enabled
	f[33] = byte(cores) // thread count
	return f
}

func buildMemoryArray(memSize uint64) []byte {
	f := make([]byte, 19)
	f[0] = 3 // location: system board
	f[1] = 3 // use: system memory
	f[2] = 3 // error correction: none
	// The 32-bit capacity field tops out just below 2 TiB; larger arrays set
	// the sentinel and report the byte count in the extended field.
	const capacitySentinel = 0x80000000
	if capKiB := memSize >> 10; capKiB < capacitySentinel {
		binary.LittleEndian.PutUint32(f[3:], uint32(capKiB)) // capacity in KiB
	} else {
		binary.LittleEndian.PutUint32(f[3:], capacitySentinel)
		binary.LittleEndian.PutUint64(f[11:], memSize) // extended capacity in bytes
	}
	binary.LittleEndian.PutUint16(f[7:], 0xFFFE) // no error info
	binary.LittleEndian.PutUint16(f[9:], 1)      // one device
	return f
}

func buildMemoryDevice(memSize uint64, arrayHandle uint16) []byte {
	sizeMiB := memSize >> 20

	f := make([]byte, 30)
	binary.LittleEndian.PutUint16(f[0:], arrayHandle)
	binary.LittleEndian.PutUint16(f[2:], 0xFFFE) // no error info
	binary.LittleEndian.PutUint16(f[4:], 64)     // total width
	binary.LittleEndian.PutUint16(f[6:], 64)     // data width
	if sizeMiB < 0x7FFF {
		binary.LittleEndian.PutUint16(f[8:], uint16(sizeMiB))
	} else {
		binary.LittleEndian.PutUint16(f[8:], 0x7FFF)
		binary.LittleEndian.PutUint32(f[24:], uint32(sizeMiB))
	}
	f[10] = 9 // form factor: DIMM
	f[12] = 1 // device locator string
	f[13] = 2 // bank locator string
	f[14] = 7 // memory type: RAM
	return f
}

// writeSMBIOS emits the 64-bit entry point and the structure table. The
// checksum is patched after the entry point is complete so the byte sum over
// its declared length is 0 mod 256.
func writeSMBIOS(vm hv.VirtualMachine, cfg Config) error {
	w := &smbiosWriter{}

	w.add(smbiosTypeBIOSInfo, buildBIOSInfo(), smbiosVendor, smbiosVersion, smbiosReleaseDate)
	w.add(smbiosTypeSystemInfo, buildSystemInfo(), smbiosVendor, smbiosProduct, smbiosVersion, smbiosSerial)
	w.add(smbiosTypeChassis, buildChassis(), smbiosVendor)
	w.add(smbiosTypeProcessor, buildProcessor(cfg.NumCPUs), "CPU 0", smbiosVendor, smbiosVersion)
	arrayHandle := w.add(smbiosTypeMemoryArray, buildMemoryArray(cfg.MemorySize))
	w.add(smbiosTypeMemoryDev, buildMemoryDevice(cfg.MemorySize, arrayHandle), "DIMM 0", "BANK 0")
	w.add(smbiosTypeEndOfTable, nil)

	table := w.buf.Bytes()
	if max := MPTableBase - smbiosStructTableBase; uint64(len(table)) > max {
		return fmt.Errorf("bios: SMBIOS table needs %d bytes, region holds %d", len(table), max)
	}

	entry := make([]byte, smbiosEntryPointLen)
	copy(entry, smbiosAnchor)
	entry[6] = smbiosEntryPointLen
	entry[7] = smbiosMajorVersion
	entry[8] = smbiosMinorVersion
	entry[9] = 0 // docrev
	entry[10] = smbiosEntryPointRev
	binary.LittleEndian.PutUint32(entry[12:], uint32(len(table)))
	binary.LittleEndian.PutUint64(entry[16:], smbiosStructTableBase)
	finalizeChecksum(entry, smbiosChecksumOffset)

	if _, err := vm.WriteAt(entry, int64(SMBIOSBase)); err != nil {
		return fmt.Errorf("bios: write SMBIOS entry point: %w", err)
	}
	if _, err := vm.WriteAt(table, int64(smbiosStructTableBase)); err != nil {
		return fmt.Errorf("bios: write SMBIOS structure table: %w", err)
	}
	return nil
}
