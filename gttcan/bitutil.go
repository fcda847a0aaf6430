package gttcan

// The functions in this file are pure, side-effect free CAN-frame bit
// arithmetic (spec §4.F). They operate on a byte buffer representing
// only the payload region of a frame, not the full CAN bit-stream.
// Schedule-design tooling (cmd/gttcan-schedgen) uses FrameBits to
// estimate per-slot frame lengths before a schedule is deployed; the
// reception and transmission handlers do not call them.

// crc15Poly and crc15Init implement the CAN CRC-15 polynomial
// x^15+x^14+x^10+x^8+x^7+x^4+x^3+1, encoded as 0x4599, seeded with the
// same constant.
const (
	crc15Poly = 0x4599
	crc15Init = 0x4599
)

// StuffingBits counts the bit-stuffing overhead CAN's physical layer
// would insert for buf: one stuffed bit after every five consecutive
// identical bits, scanned LSB-first within each byte. It only accounts
// for stuffing within the payload region; a caller estimating a whole
// frame's header-region stuffing must approximate that separately
// (spec §4.F).
func StuffingBits(buf []byte) uint32 {
	var stuffing uint32

	var consecutive uint32

	var lastBit uint8

	for _, b := range buf {
		remaining := b

		for j := 0; j < 8; j++ {
			bit := remaining & 1
			remaining >>= 1

			if bit == lastBit {
				consecutive++
				if consecutive == 5 {
					stuffing++
					consecutive = 0
				}
			} else {
				consecutive = 1
				lastBit = bit
			}
		}
	}

	return stuffing
}

// CRC15 computes the 15-bit CAN CRC of buf: polynomial 0x4599, register
// seeded with 0x4599, one byte shifted in at a time MSB-style (each
// byte XORed into bit 7 of the 16-bit working register before 8 shift
// steps). The result is masked to 15 bits.
func CRC15(buf []byte) uint16 {
	crc := uint16(crc15Init)

	for _, b := range buf {
		crc ^= uint16(b) << 7

		for j := 0; j < 8; j++ {
			if crc&0x4000 != 0 {
				crc = (crc << 1) ^ crc15Poly
			} else {
				crc <<= 1
			}
		}
	}

	return crc & 0x7FFF
}

// AppendCRC computes CRC15(frame) and appends it to frame as two bytes
// (low 7 bits of the CRC, then the high 8 bits), returning the new
// slice. The caller's backing array is reused if it has room for two
// more bytes.
func AppendCRC(frame []byte) []byte {
	crc := CRC15(frame)

	frame = append(frame, byte(crc&0x7F), byte(crc>>7))

	return frame
}

// frameOverheadBits returns the CAN ISO 11898-1 framing overhead for a
// frame with the given identifier width, excluding stuffing: start of
// frame, identifier, RTR, IDE, r0, DLC, CRC, CRC delimiter, ACK slot,
// ACK delimiter, and end of frame.
func frameOverheadBits(isExtended bool) uint32 {
	identifierBits := uint32(11)
	if isExtended {
		identifierBits = 29
	}

	const (
		sof          = 1
		rtr          = 1
		ide          = 1
		r0           = 1
		dlc          = 4
		crc          = 15
		crcDelimiter = 1
		ackSlot      = 1
		ackDelimiter = 1
		eof          = 7
	)

	return sof + identifierBits + rtr + ide + r0 + dlc + crc + crcDelimiter + ackSlot + ackDelimiter + eof
}

// FrameBits estimates the total number of bits a CAN frame carrying buf
// as its payload occupies on the bus, including physical-layer bit
// stuffing: this is the per-slot quantity cmd/gttcan-schedgen reports
// for a candidate schedule (spec §1, §4.F).
func FrameBits(buf []byte, isExtended bool) uint32 {
	return frameOverheadBits(isExtended) + 8*uint32(len(buf)) + StuffingBits(buf)
}
