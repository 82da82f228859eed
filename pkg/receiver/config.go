// Package receiver implements the DC-09 central-station server: a TCP
// listener and a UDP socket that share the same parse-validate-respond
// logic, per-account key selection, and ACK/NAK response synthesis
// (spec.md §4.6).
package receiver

import "github.com/fioletoven/dc09harness/pkg/config"

// Config is the shared, read-only configuration both the TCP and UDP
// servers consult for every inbound frame.
type Config struct {
	// Keys is the index->key table; index 0 holds the default key.
	Keys config.KeyMap
	// Accounts maps a configured dialler's account name to its Keys index.
	Accounts config.AccountIndex
	// SendNAK makes every response a NAK instead of an ACK. A request that
	// fails to parse gets no response either way. Used to exercise a
	// dialler's NAK-handling path (spec.md §6, the receiver's `--nak` flag).
	SendNAK bool
}

// KeyFor resolves the decryption/encryption key for account, falling back
// to the configured default key.
func (c Config) KeyFor(account string) ([]byte, bool) {
	return config.KeyFor(account, c.Keys, c.Accounts)
}
