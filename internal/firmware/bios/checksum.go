package bios

// finalizeChecksum patches b[checksumOffset] so the byte sum over all of b
// becomes 0 mod 256. The checksum byte must still hold its zero placeholder;
// callers write the structure completely first and patch last.
func finalizeChecksum(b []byte, checksumOffset int) {
	b[checksumOffset] = 0
	var sum uint8
	for _, v := range b {
		sum += v
	}
	b[checksumOffset] = byte(0 - sum)
}
