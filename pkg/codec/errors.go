package codec

import "errors"

// Codec layer errors.
var (
	// Frame errors
	ErrParseHeader  = errors.New("codec: could not decode frame header")
	ErrInvalidLength = errors.New("codec: declared length does not match body length")
	ErrInvalidCrc   = errors.New("codec: CRC does not match declared value")

	// Payload errors
	ErrParsePayload = errors.New("codec: payload could not be parsed")
	ErrDecrypt      = errors.New("codec: decryption failed or no key supplied")

	// Validation errors
	ErrInvalidSequenceNumber = errors.New("codec: response sequence number does not match request")
	ErrInvalidAccountNumber  = errors.New("codec: response account does not match request")
)
