package codec

import (
	"fmt"
	"strings"

	"github.com/fioletoven/dc09harness/pkg/crypto"
)

// Serialize renders m as a clear-text DC-09 frame.
func Serialize(m Message) string {
	return EncodeFrame(header(m) + clearPayload(m))
}

// SerializeEncrypted renders m as an AES-CBC-encrypted DC-09 frame under
// key. The token gains a leading `*` if it does not already have one. Per
// the observed wire format (spec.md §4.3/§9), the outgoing encrypted body
// omits the payload's closing `]`; parsers must accept that and read
// ciphertext hex to the end of the body rather than "fixing" it.
func SerializeEncrypted(m Message, key []byte) (string, error) {
	m.Token = "*" + m.PlainToken()

	payload := clearPayload(m)
	// Drop the payload's leading '[' and replace it with '|', the
	// delimiter decrypt uses to separate random padding from the real
	// payload. The source wording drops this delimiter entirely when data
	// is empty, but that leaves decrypt with no way to find the boundary;
	// we always emit it so round-tripping works for an
	// empty data segment too.
	tail := payload[1:]
	ciphertext, err := crypto.Encrypt("|"+tail, key)
	if err != nil {
		return "", err
	}

	body := header(m) + "[" + ciphertext
	return EncodeFrame(body), nil
}

// header renders the quoted token, sequence, receiver, line prefix
// (defaulting to "L0" when absent), and `#account` common to both the
// clear and encrypted serializer paths.
func header(m Message) string {
	linePrefix := m.LinePrefix
	if linePrefix == "" {
		linePrefix = "L0"
	}
	return fmt.Sprintf(`"%s"%04d%s%s#%s`, m.Token, m.Sequence, m.Receiver, linePrefix, m.Account)
}

// clearPayload renders `[data]{[extended]}[_timestamp]`.
func clearPayload(m Message) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(m.Data)
	b.WriteByte(']')
	for _, ext := range m.Extended {
		b.WriteByte('[')
		b.WriteString(ext)
		b.WriteByte(']')
	}
	if m.Timestamp != "" {
		b.WriteByte('_')
		b.WriteString(m.Timestamp)
	}
	return b.String()
}
