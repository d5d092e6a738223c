package wry

// GetUint24 returns a uint32 from the first three bytes of the given
// byte slice, read little-endian.
func GetUint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// GetUint32 returns a uint32 from the first four bytes of the given
// byte slice, read little-endian.
func GetUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// GetUint64 returns a uint64 from the first eight bytes of the given
// byte slice, read little-endian.
func GetUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

// PutUint24 writes the lower three bytes of the uint32 to the first
// three bytes of the given byte slice, little-endian.
func PutUint24(dst []byte, src uint32) {
	dst[0] = byte(src)
	dst[1] = byte(src >> 8)
	dst[2] = byte(src >> 16)
}

// PutUint32 writes the uint32 to the first four bytes of the given
// byte slice, little-endian.
func PutUint32(dst []byte, src uint32) {
	dst[0] = byte(src)
	dst[1] = byte(src >> 8)
	dst[2] = byte(src >> 16)
	dst[3] = byte(src >> 24)
}

// PutUint64 writes the uint64 to the first eight bytes of the given
// byte slice, little-endian.
func PutUint64(dst []byte, src uint64) {
	dst[0] = byte(src)
	dst[1] = byte(src >> 8)
	dst[2] = byte(src >> 16)
	dst[3] = byte(src >> 24)
	dst[4] = byte(src >> 32)
	dst[5] = byte(src >> 40)
	dst[6] = byte(src >> 48)
	dst[7] = byte(src >> 56)
}
