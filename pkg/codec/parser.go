package codec

import (
	"strconv"
	"strings"

	"github.com/fioletoven/dc09harness/pkg/crypto"
)

// Parse decodes a DC-09 frame (the full `LF...CR` envelope) into a Message.
//
// key is required when the frame's token is encrypted (leading `*`); it is
// ignored otherwise. Account/sequence validation against an outstanding
// request is a separate step — see Validate.
func Parse(frame string, key []byte) (Message, error) {
	body, err := DecodeFrame(frame)
	if err != nil {
		return Message{}, err
	}
	return ParseBody(body, key)
}

// ParseAccount extracts just the account field from a frame, without
// requiring a decryption key — the account sits in the address field,
// which is never encrypted, so a receiver can read it to select a key
// before attempting the full parse (spec.md §4.6 "Key selection per
// inbound frame").
func ParseAccount(frame string) (string, error) {
	body, err := DecodeFrame(frame)
	if err != nil {
		return "", err
	}

	_, afterToken, err := parseToken(body)
	if err != nil {
		return "", ErrParseHeader
	}
	_, afterSeq, err := parseSequence(afterToken)
	if err != nil {
		return "", ErrParseHeader
	}
	bracket := strings.IndexByte(afterSeq, '[')
	if bracket < 0 {
		return "", ErrParseHeader
	}
	_, _, account, ok := parseAddress(afterSeq[:bracket])
	if !ok {
		return "", ErrParseHeader
	}
	return account, nil
}

// ParseBody parses a DC-09 frame body (without its LF/crc/len/CR envelope).
func ParseBody(body string, key []byte) (Message, error) {
	token, afterToken, err := parseToken(body)
	if err != nil {
		return Message{}, ErrParseHeader
	}

	seq, afterSeq, err := parseSequence(afterToken)
	if err != nil {
		return Message{}, ErrParseHeader
	}

	bracket := strings.IndexByte(afterSeq, '[')
	if bracket < 0 {
		return Message{}, ErrParseHeader
	}
	addr, payloadStr := afterSeq[:bracket], afterSeq[bracket:]

	receiver, linePrefix, account, ok := parseAddress(addr)
	if !ok {
		return Message{}, ErrParseHeader
	}

	m := Message{
		Token:      token,
		Sequence:   seq,
		Receiver:   receiver,
		LinePrefix: linePrefix,
		Account:    account,
	}

	if strings.HasPrefix(token, "*") {
		if len(key) == 0 {
			return Message{}, ErrDecrypt
		}
		decrypted, err := decryptPayload(payloadStr, key)
		if err != nil {
			return Message{}, ErrDecrypt
		}
		payloadStr = decrypted
	}

	data, extended, timestamp, err := parsePayload(payloadStr)
	if err != nil {
		return Message{}, ErrParsePayload
	}
	m.Data = data
	m.Extended = extended
	m.Timestamp = timestamp

	return m, nil
}

// parseToken reads the quoted token at the start of body, returning the
// token (without quotes) and the remainder of body after the closing quote.
func parseToken(body string) (token string, rest string, err error) {
	if len(body) == 0 || body[0] != '"' {
		return "", "", ErrParseHeader
	}
	end := strings.IndexByte(body[1:], '"')
	if end < 0 {
		return "", "", ErrParseHeader
	}
	end++ // account for the offset from body[1:]
	return body[1:end], body[end+1:], nil
}

// parseSequence reads the 4 decimal digit sequence field.
func parseSequence(s string) (int, string, error) {
	if len(s) < 4 {
		return 0, "", ErrParseHeader
	}
	digits := s[:4]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, "", ErrParseHeader
		}
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", ErrParseHeader
	}
	return seq, s[4:], nil
}

// parseAddress disambiguates the optional receiver (`R<hex>`), optional
// line prefix (`L<hex>`), optional `#`, and mandatory account out of addr,
// the substring between the sequence field and the payload's opening `[`.
//
// A literal greedy port of the source grammar's hex-digit run (1 to 6
// digits, as many as possible) over-consumes: in a body like
// `...0000R0L0A0[...`, greedily matching the line prefix's hex digits
// would swallow "0A0" (all three are valid hex), leaving nothing for the
// mandatory account. This searches receiver and line-prefix field lengths
// shortest-first, backtracking until the remaining characters form a
// valid (non-empty, alphanumeric) account — reproducing the expected
// "R0"/"L0"/"A0" split rather than a single maximal match.
func parseAddress(addr string) (receiver, linePrefix, account string, ok bool) {
	for _, r := range receiverCandidates(addr) {
		rest := addr[len(r):]
		for _, l := range fieldCandidates(rest, 'L') {
			rest2 := rest[len(l):]
			if acc, ok := accountCandidate(rest2); ok {
				return r, l, acc, true
			}
		}
	}
	return "", "", "", false
}

// receiverCandidates returns the possible receiver-field prefixes of addr
// (including the empty "field absent" case), shortest first, with the
// "present" branch tried before "absent" when the letter matches.
func receiverCandidates(addr string) []string {
	return fieldCandidates(addr, 'R')
}

// fieldCandidates enumerates the possible `<letter><hex digits>` prefixes
// of s, hex run length 1..6, shortest first, followed by the empty
// ("field absent") candidate.
func fieldCandidates(s string, letter byte) []string {
	var out []string
	if len(s) > 0 && s[0] == letter {
		maxLen := 0
		for maxLen < 6 && maxLen+1 < len(s) && isHexDigit(s[1+maxLen]) {
			maxLen++
		}
		for n := 1; n <= maxLen; n++ {
			out = append(out, s[:1+n])
		}
	}
	out = append(out, "")
	return out
}

// accountCandidate consumes an optional `#` and the mandatory account,
// requiring the remainder to be non-empty and entirely alphanumeric.
func accountCandidate(s string) (string, bool) {
	s = strings.TrimPrefix(s, "#")
	if s == "" || !isAlnum(s) {
		return "", false
	}
	return s, true
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

// parsePayload parses `[data]{[extended]}[_timestamp]`. An empty data
// segment collapses to "".
func parsePayload(s string) (data string, extended []string, timestamp string, err error) {
	if len(s) == 0 || s[0] != '[' {
		return "", nil, "", ErrParsePayload
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", nil, "", ErrParsePayload
	}
	data = s[1:end]
	rest := s[end+1:]

	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, "", ErrParsePayload
		}
		extended = append(extended, rest[1:end])
		rest = rest[end+1:]
	}

	if len(rest) > 0 {
		if rest[0] != '_' {
			return "", nil, "", ErrParsePayload
		}
		timestamp = rest[1:]
	}

	return data, extended, timestamp, nil
}

// decryptPayload strips the clear-text bracket, decrypts the ciphertext
// hex under key, splits off the random leading padding, and reconstructs
// a standard `[data]...` payload string from the remainder.
func decryptPayload(payloadStr string, key []byte) (string, error) {
	if len(payloadStr) == 0 || payloadStr[0] != '[' {
		return "", ErrParsePayload
	}
	hexCiphertext := strings.TrimSuffix(payloadStr[1:], "]")

	plaintext, err := crypto.Decrypt(hexCiphertext, key)
	if err != nil {
		return "", err
	}

	idx := strings.IndexByte(plaintext, '|')
	if idx < 0 {
		return "", ErrParsePayload
	}
	return "[" + plaintext[idx+1:], nil
}
