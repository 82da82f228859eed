package receiver

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fioletoven/dc09harness/pkg/config"
)

func TestTCPServerRespondsWithACK(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	cfg := Config{Keys: config.NewKeyMap("", nil), Accounts: config.NewAccountIndex(nil)}
	srv := NewTCPServer(listener, cfg, nil, nil)
	go srv.Run()
	defer srv.Close()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("\x0A96ED0016\"SIA-DCS\"0001L0#1234[]\x0D")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := string(buf[:n])
	if !strings.Contains(got, `"ACK"0001`) || !strings.Contains(got, "#1234") {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestTCPServerClosesOnMalformedFrame(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	cfg := Config{Keys: config.NewKeyMap("", nil), Accounts: config.NewAccountIndex(nil)}
	srv := NewTCPServer(listener, cfg, nil, nil)
	go srv.Run()
	defer srv.Close()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("not a dc-09 frame")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected the connection to be closed after a malformed frame")
	}
}
