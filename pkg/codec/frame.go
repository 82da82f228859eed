package codec

import (
	"fmt"

	"github.com/fioletoven/dc09harness/pkg/crc"
)

const (
	lf = "\x0A"
	cr = "\x0D"

	// frameOverhead is the byte count of LF + 4-hex crc + 4-hex len + CR
	// that is not part of body (spec.md §4.3).
	frameOverhead = 1 + 4 + 4 + 1
)

// EncodeFrame wraps body in the DC-09 frame envelope: LF, the 4-hex-digit
// CRC-16/ARC of body, the 4-hex-digit length of body, body itself, and a
// trailing CR.
func EncodeFrame(body string) string {
	sum := crc.Checksum(body)
	return fmt.Sprintf("%s%04X%04X%s%s", lf, sum, len(body), body, cr)
}

// DecodeFrame validates frame's envelope and returns its body.
//
// It checks, in order: the LF/CR bracketing, the declared length against
// the actual body length, and the declared CRC against the computed one.
func DecodeFrame(frame string) (string, error) {
	if len(frame) < frameOverhead || frame[0] != lf[0] || frame[len(frame)-1] != cr[0] {
		return "", ErrParseHeader
	}

	crcField := frame[1:5]
	lenField := frame[5:9]
	body := frame[9 : len(frame)-1]

	var declaredLen int
	if _, err := fmt.Sscanf(lenField, "%04X", &declaredLen); err != nil {
		return "", ErrParseHeader
	}
	if declaredLen != len(body) {
		return "", ErrInvalidLength
	}

	var declaredCrc uint16
	if _, err := fmt.Sscanf(crcField, "%04X", &declaredCrc); err != nil {
		return "", ErrParseHeader
	}
	if crc.Checksum(body) != declaredCrc {
		return "", ErrInvalidCrc
	}

	return body, nil
}
