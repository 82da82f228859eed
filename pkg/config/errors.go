package config

import "errors"

// Config layer errors.
var (
	// ErrInvalidKeyLength is returned when a configured dialler key is not
	// 16, 24, or 32 bytes (AES-128/192/256).
	ErrInvalidKeyLength = errors.New("config: key length must be 16, 24, or 32 bytes")
)
