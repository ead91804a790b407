package codec

// CRC16 computes the CRC16/XMODEM checksum (polynomial 0x1021, zero initial
// value) used by TON user-friendly addresses.
func CRC16(data []byte) uint16 {
	const polynomial = 0x1021

	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ polynomial
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}
