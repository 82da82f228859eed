// Package crc computes the CRC-16/ARC checksum DC-09 uses to guard frame
// bodies.
package crc

import "github.com/snksoft/crc"

// params defines CRC-16/ARC: width 16, poly 0x8005, init 0x0000, reflected
// input/output, xorout 0x0000.
var params = &crc.Parameters{
	Width:      16,
	Polynomial: 0x8005,
	Init:       0x0000,
	ReflectIn:  true,
	ReflectOut: true,
	FinalXor:   0x0000,
}

var hash = crc.NewHash(params)

// Checksum returns the CRC-16/ARC of body's UTF-8 bytes.
func Checksum(body string) uint16 {
	return uint16(hash.CalculateCRC([]byte(body)))
}

// ChecksumBytes returns the CRC-16/ARC of body.
func ChecksumBytes(body []byte) uint16 {
	return uint16(hash.CalculateCRC(body))
}
