// Package codec implements the DC-09 wire format: frame encode/decode,
// CRC verification, a backtracking parser for the body grammar, a
// serializer for both clear and encrypted bodies, and the post-parse
// account/sequence validation the dialler uses to match a response to its
// request.
package codec

import "strings"

// Message is the parsed or to-be-serialized DC-09 record. Receiver and
// LinePrefix, when set, carry their wire letter prefix ("RF3", "L77"); an
// empty string means the field is absent.
type Message struct {
	Token      string
	Sequence   int
	Receiver   string
	LinePrefix string
	Account    string
	Data       string
	Extended   []string
	Timestamp  string
}

// IsEncrypted reports whether the message's token marks its payload
// encrypted.
func (m Message) IsEncrypted() bool {
	return strings.HasPrefix(m.Token, "*")
}

// PlainToken returns Token with any leading "*" stripped.
func (m Message) PlainToken() string {
	return strings.TrimPrefix(m.Token, "*")
}

// WithReceiver returns a copy of m with Receiver set to r, provided r
// begins with "R". A value that does not begin with "R" is silently
// discarded, leaving the field unset — this mirrors the setter's defined
// behavior (spec.md §4.3).
func (m Message) WithReceiver(r string) Message {
	if strings.HasPrefix(r, "R") {
		m.Receiver = r
	}
	return m
}

// WithLinePrefix returns a copy of m with LinePrefix set to l, provided l
// begins with "L". A value that does not begin with "L" is silently
// discarded.
func (m Message) WithLinePrefix(l string) Message {
	if strings.HasPrefix(l, "L") {
		m.LinePrefix = l
	}
	return m
}

// EqualIgnoringTimestamp reports whether m and other are equal in every
// field except Timestamp — the comparison the encryption round-trip
// property (spec.md §8) uses.
func (m Message) EqualIgnoringTimestamp(other Message) bool {
	a, b := m, other
	a.Timestamp, b.Timestamp = "", ""
	return equalMessage(a, b)
}

func equalMessage(a, b Message) bool {
	if a.Token != b.Token || a.Sequence != b.Sequence || a.Receiver != b.Receiver ||
		a.LinePrefix != b.LinePrefix || a.Account != b.Account || a.Data != b.Data ||
		a.Timestamp != b.Timestamp {
		return false
	}
	if len(a.Extended) != len(b.Extended) {
		return false
	}
	for i := range a.Extended {
		if a.Extended[i] != b.Extended[i] {
			return false
		}
	}
	return true
}

// Validate compares m's account and sequence against expected values,
// returning the error a dialler should report when an incoming response
// does not match its outstanding request.
func Validate(m Message, expectedAccount string, expectedSequence int) error {
	if m.Sequence != expectedSequence {
		return ErrInvalidSequenceNumber
	}
	if m.Account != expectedAccount {
		return ErrInvalidAccountNumber
	}
	return nil
}
