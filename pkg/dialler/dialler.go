// Package dialler implements the DC-09 alarm-panel client: a sequence
// queue drained in order, each signal serialized (optionally encrypted),
// sent over TCP or UDP, and matched against the ACK/NAK it gets back
// (spec.md §4.5).
package dialler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pion/logging"

	"github.com/fioletoven/dc09harness/pkg/codec"
	"github.com/fioletoven/dc09harness/pkg/config"
)

// timestampLayout matches the DC-09 wire timestamp format.
const timestampLayout = "15:04:05,01-02-2006"

// maxResponseSize bounds a single read of a dialler's response.
const maxResponseSize = 1536

// Dialler plays back a queue of signals against one receiver, maintaining
// its own sequence number and optional encryption key across the whole
// run (spec.md §4.5 "State").
type Dialler struct {
	Address    string
	Port       int
	Receiver   string // full wire form, e.g. "RF3"; empty if unset
	LinePrefix string // full wire form, e.g. "L77"; empty if unset
	Account    string
	Sequence   int
	Key        []byte
	UDP        bool
	Timeout    time.Duration // 0 means wait indefinitely for a response

	queue []config.SignalConfig
	log   logging.LeveledLogger
}

// New creates a Dialler targeting address:port under account, using UDP
// when udp is true and TCP otherwise.
func New(address string, port int, account string, udp bool) *Dialler {
	return &Dialler{
		Address: address,
		Port:    port,
		Account: account,
		UDP:     udp,
	}
}

// WithReceiver sets the receiver field, provided r begins with "R"; see
// codec.Message.WithReceiver.
func (d *Dialler) WithReceiver(r string) *Dialler {
	d.Receiver = codec.Message{}.WithReceiver(r).Receiver
	return d
}

// WithLinePrefix sets the line prefix field, provided l begins with "L".
func (d *Dialler) WithLinePrefix(l string) *Dialler {
	d.LinePrefix = codec.Message{}.WithLinePrefix(l).LinePrefix
	return d
}

// WithStartSequence sets seq as the first sequence number SendMessage will
// emit. Since SendMessage increments before sending, the stored value is
// seq-1 (saturating at 0), mirroring the original dialler's
// saturating_sub(1) around its configured starting sequence.
func (d *Dialler) WithStartSequence(seq int) *Dialler {
	if seq <= 0 {
		d.Sequence = 0
	} else {
		d.Sequence = seq - 1
	}
	return d
}

// WithKey attaches the encryption key used for every subsequent message.
// A nil or empty key means messages are sent in the clear.
func (d *Dialler) WithKey(key []byte) *Dialler {
	d.Key = key
	return d
}

// WithTimeout sets the per-message response wait. Zero means wait
// indefinitely.
func (d *Dialler) WithTimeout(timeout time.Duration) *Dialler {
	d.Timeout = timeout
	return d
}

// WithLogger attaches a logger factory for this dialler's account.
func (d *Dialler) WithLogger(factory logging.LoggerFactory) *Dialler {
	if factory != nil {
		d.log = factory.NewLogger(fmt.Sprintf("dialler-%s", d.Account))
	}
	return d
}

// Enqueue appends signals to the dialler's send queue.
func (d *Dialler) Enqueue(signals ...config.SignalConfig) {
	d.queue = append(d.queue, signals...)
}

// EnqueueDefault appends the single-signal queue entry synthesized from
// command-line arguments (spec.md §4.5: the "(0,0)" default entry).
func (d *Dialler) EnqueueDefault(token, message string) {
	d.Enqueue(config.SignalConfig{Token: token, Message: message})
}

// RunSequence drains the queue in order, sending max(repeat, 1) copies of
// each signal. It stops and returns ErrQueueAborted on the first transport
// failure; protocol-level issues (bad ACK, timeout, CRC mismatch) are
// logged and do not stop the queue (spec.md §4.5 "Failure policy").
func (d *Dialler) RunSequence(ctx context.Context) error {
	if d.log != nil {
		d.log.Infof("%s: start sending signals", d.Account)
	}

	for len(d.queue) > 0 {
		signal := d.queue[0]
		d.queue = d.queue[1:]

		for i := 0; i < signal.EffectiveRepeat(); i++ {
			if err := d.sendSignal(ctx, signal); err != nil {
				if d.log != nil {
					d.log.Errorf("%s: %v", d.Account, err)
				}
				return ErrQueueAborted
			}
		}
	}

	return nil
}

func (d *Dialler) sendSignal(ctx context.Context, signal config.SignalConfig) error {
	if signal.DelayMs > 50 {
		select {
		case <-time.After(time.Duration(signal.DelayMs) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	body := ""
	if signal.Message != "" {
		body = fmt.Sprintf("#%s|%s", d.Account, signal.Message)
	}

	return d.SendMessage(ctx, signal.Token, body)
}

// SendMessage increments the sequence number (wrapping 9999 back to 1),
// serializes a message with the dialler's receiver/line-prefix/account,
// sends it over the configured transport, and validates whatever response
// arrives. Only transport failures (dial/write/shutdown) and encryption
// failures are returned as an error; protocol failures and response
// timeouts are logged and swallowed (spec.md §4.5 "send_message").
func (d *Dialler) SendMessage(ctx context.Context, token, body string) error {
	d.Sequence++
	if d.Sequence > 9999 {
		d.Sequence = 1
	}

	msg := codec.Message{
		Token:    token,
		Sequence: d.Sequence,
		Account:  d.Account,
		Data:     body,
	}.WithReceiver(d.Receiver).WithLinePrefix(d.LinePrefix)

	var frame string
	if len(d.Key) > 0 {
		msg.Timestamp = time.Now().UTC().Format(timestampLayout)
		var err error
		frame, err = codec.SerializeEncrypted(msg, d.Key)
		if err != nil {
			return fmt.Errorf("dialler: encrypt: %w", err)
		}
	} else {
		frame = codec.Serialize(msg)
	}

	if d.log != nil {
		d.log.Infof("%s: connecting to %s:%d", d.Account, d.Address, d.Port)
	}

	var response []byte
	var err error
	if d.UDP {
		response, err = d.sendUDP(ctx, frame)
	} else {
		response, err = d.sendTCP(ctx, frame)
	}
	if err != nil {
		return err
	}

	if d.log != nil {
		d.log.Infof("%s >> %s", d.Account, frame)
	}

	if response != nil {
		d.processResponse(response)
	}
	return nil
}

func (d *Dialler) sendTCP(ctx context.Context, frame string) ([]byte, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(d.Address, portString(d.Port)))
	if err != nil {
		return nil, fmt.Errorf("dialler: connect: %w", err)
	}

	if _, err := conn.Write([]byte(frame)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dialler: write: %w", err)
	}

	response := d.readResponse(conn)

	if err := conn.Close(); err != nil {
		return response, fmt.Errorf("dialler: shutdown: %w", err)
	}
	return response, nil
}

func (d *Dialler) sendUDP(ctx context.Context, frame string) ([]byte, error) {
	conn, err := net.ListenPacket("udp", "0.0.0.0:0")
	if err != nil {
		return nil, fmt.Errorf("dialler: bind: %w", err)
	}
	defer conn.Close()

	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(d.Address, portString(d.Port)))
	if err != nil {
		return nil, fmt.Errorf("dialler: resolve: %w", err)
	}

	if _, err := conn.WriteTo([]byte(frame), remote); err != nil {
		return nil, fmt.Errorf("dialler: send: %w", err)
	}

	return d.readResponsePacket(conn), nil
}

// readResponse reads a single response from a stream connection, honoring
// the dialler's configured timeout. A timeout or read error is logged,
// not returned — it does not fail the queue.
func (d *Dialler) readResponse(conn net.Conn) []byte {
	if d.Timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(d.Timeout))
	}

	buf := make([]byte, maxResponseSize)
	n, err := conn.Read(buf)
	if err != nil {
		if d.isTimeout(err) {
			if d.log != nil {
				d.log.Warnf("%s: response timed out after %v", d.Account, d.Timeout)
			}
			return nil
		}
		if d.log != nil {
			d.log.Errorf("%s: connection closed by receiver", d.Account)
		}
		return nil
	}
	return buf[:n]
}

func (d *Dialler) readResponsePacket(conn net.PacketConn) []byte {
	if d.Timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(d.Timeout))
	}

	buf := make([]byte, maxResponseSize)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		if d.isTimeout(err) {
			if d.log != nil {
				d.log.Warnf("%s: response timed out after %v", d.Account, d.Timeout)
			}
			return nil
		}
		if d.log != nil {
			d.log.Errorf("%s: failed to read response: %v", d.Account, err)
		}
		return nil
	}
	return buf[:n]
}

func (d *Dialler) isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (d *Dialler) processResponse(raw []byte) {
	if !utf8.Valid(raw) {
		if d.log != nil {
			d.log.Errorf("%s: received invalid UTF-8 sequence", d.Account)
		}
		return
	}

	frame := string(raw)
	msg, err := codec.Parse(frame, d.Key)
	if err != nil {
		if d.log != nil {
			d.log.Errorf("%s << (%v) %s", d.Account, err, frame)
		}
		return
	}

	if err := codec.Validate(msg, d.Account, d.Sequence); err != nil {
		if d.log != nil {
			d.log.Errorf("%s << (%v) %s", d.Account, err, frame)
		}
		return
	}

	if d.log != nil {
		d.log.Infof("%s << %s", d.Account, frame)
	}
}

func portString(port int) string {
	return strconv.Itoa(port)
}
