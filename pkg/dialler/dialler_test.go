package dialler

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/fioletoven/dc09harness/pkg/codec"
	"github.com/fioletoven/dc09harness/pkg/config"
)

// echoACKServer runs a minimal TCP receiver that parses each frame (in the
// clear) and writes back an ACK echoing its account/sequence.
func echoACKServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 1536)
				n, err := c.Read(buf)
				if err != nil {
					return
				}
				msg, err := codec.Parse(string(buf[:n]), nil)
				if err != nil {
					return
				}
				ack := codec.Message{Token: "ACK", Sequence: msg.Sequence, Account: msg.Account}
				c.Write([]byte(codec.Serialize(ack)))
			}(conn)
		}
	}()

	return listener.Addr().String(), func() { listener.Close() }
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return host, port
}

func TestSendMessageValidatesMatchingACK(t *testing.T) {
	addr, stop := echoACKServer(t)
	defer stop()
	host, port := splitHostPort(t, addr)

	d := New(host, port, "1234", false).WithTimeout(2 * time.Second)
	if err := d.SendMessage(context.Background(), "SIA-DCS", "#1234|NRR"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if d.Sequence != 1 {
		t.Fatalf("Sequence = %d, want 1", d.Sequence)
	}
}

func TestSequenceWrapsAfter9999(t *testing.T) {
	addr, stop := echoACKServer(t)
	defer stop()
	host, port := splitHostPort(t, addr)

	d := New(host, port, "1234", false).WithStartSequence(9999).WithTimeout(2 * time.Second)
	if err := d.SendMessage(context.Background(), "SIA-DCS", ""); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if d.Sequence != 9999 {
		t.Fatalf("Sequence = %d, want 9999 (first emitted sequence must equal the configured start)", d.Sequence)
	}

	if err := d.SendMessage(context.Background(), "SIA-DCS", ""); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if d.Sequence != 1 {
		t.Fatalf("Sequence = %d, want 1 (wrapped after 9999)", d.Sequence)
	}
}

func TestRunSequenceDrainsQueueWithRepeat(t *testing.T) {
	addr, stop := echoACKServer(t)
	defer stop()
	host, port := splitHostPort(t, addr)

	d := New(host, port, "1234", false).WithTimeout(2 * time.Second)
	d.Enqueue(config.SignalConfig{Token: "SIA-DCS", Message: "NRR", Repeat: 3})

	if err := d.RunSequence(context.Background()); err != nil {
		t.Fatalf("RunSequence: %v", err)
	}
	if d.Sequence != 3 {
		t.Fatalf("Sequence = %d, want 3 (one per repeat)", d.Sequence)
	}
}

func TestSendMessageTransportErrorReturnsErr(t *testing.T) {
	// Nothing listening on this port.
	d := New("127.0.0.1", 1, "1234", false).WithTimeout(200 * time.Millisecond)
	if err := d.SendMessage(context.Background(), "SIA-DCS", ""); err == nil {
		t.Fatal("expected a connect error")
	}
}

func TestSendMessageResponseTimeoutDoesNotError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1536)
		conn.Read(buf) // read and never respond
	}()

	host, port := splitHostPort(t, listener.Addr().String())
	d := New(host, port, "1234", false).WithTimeout(100 * time.Millisecond)

	if err := d.SendMessage(context.Background(), "SIA-DCS", ""); err != nil {
		t.Fatalf("SendMessage should not fail the queue on a response timeout: %v", err)
	}
}
