package receiver

import (
	"errors"
	"time"

	"github.com/fioletoven/dc09harness/pkg/codec"
)

// ErrNoKeyForEncryptedRequest is returned when a request's token marked its
// payload encrypted but no key could be resolved for its account, so the
// matching response cannot be encrypted either.
var ErrNoKeyForEncryptedRequest = errors.New("receiver: no key available to encrypt response")

// timestampLayout matches the DC-09 wire timestamp: hour:minute:second,
// month-day-year (spec.md §6, ack_message.rs's get_timestamp).
const timestampLayout = "15:04:05,01-02-2006"

// BuildResponse synthesizes the ACK/NAK frame for a parsed request,
// matching its account and sequence, preserving its receiver and line
// prefix fields, and encrypting under key iff the request was encrypted
// (spec.md §4.6 "Response synthesis").
func BuildResponse(request codec.Message, key []byte, cfg Config) (string, error) {
	token := "ACK"
	if cfg.SendNAK {
		token = "NAK"
	}

	resp := codec.Message{
		Token:     token,
		Sequence:  request.Sequence,
		Account:   request.Account,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	}.WithReceiver(request.Receiver).WithLinePrefix(request.LinePrefix)

	if !request.IsEncrypted() {
		return codec.Serialize(resp), nil
	}
	if len(key) == 0 {
		return "", ErrNoKeyForEncryptedRequest
	}
	return codec.SerializeEncrypted(resp, key)
}
