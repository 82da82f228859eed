package receiver

import (
	"strings"
	"testing"

	"github.com/fioletoven/dc09harness/pkg/codec"
	"github.com/fioletoven/dc09harness/pkg/config"
)

func TestBuildResponseClearACK(t *testing.T) {
	req, err := codec.Parse("\x0A96ED0016\"SIA-DCS\"0001L0#1234[]\x0D", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg := Config{Keys: config.NewKeyMap("", nil), Accounts: config.NewAccountIndex(nil)}
	frame, err := BuildResponse(req, nil, cfg)
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}

	resp, err := codec.Parse(frame, nil)
	if err != nil {
		t.Fatalf("round-trip Parse: %v", err)
	}
	if resp.Token != "ACK" || resp.Account != "1234" || resp.Sequence != 1 {
		t.Fatalf("got %+v", resp)
	}
}

func TestBuildResponseNAKOverride(t *testing.T) {
	req, err := codec.Parse("\x0A96ED0016\"SIA-DCS\"0001L0#1234[]\x0D", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg := Config{Keys: config.NewKeyMap("", nil), Accounts: config.NewAccountIndex(nil), SendNAK: true}
	frame, err := BuildResponse(req, nil, cfg)
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	if !strings.Contains(frame, `"NAK"`) {
		t.Fatalf("expected NAK token in %q", frame)
	}

	resp, err := codec.Parse(frame, nil)
	if err != nil {
		t.Fatalf("round-trip Parse: %v", err)
	}
	if resp.Account != req.Account || resp.Sequence != req.Sequence {
		t.Fatalf("NAK should echo request account/sequence, got %+v", resp)
	}
}

func TestBuildResponseEncryptedRoundTrip(t *testing.T) {
	key := []byte("aaaaaaaaaaaaaaaa")
	reqMsg := codec.Message{Token: "SIA-DCS", Sequence: 1, Account: "1234", Data: "NRR"}
	reqFrame, err := codec.SerializeEncrypted(reqMsg, key)
	if err != nil {
		t.Fatalf("SerializeEncrypted: %v", err)
	}

	req, err := codec.Parse(reqFrame, key)
	if err != nil {
		t.Fatalf("Parse request: %v", err)
	}

	cfg := Config{Keys: config.NewKeyMap(string(key), nil), Accounts: config.NewAccountIndex(nil)}
	frame, err := BuildResponse(req, key, cfg)
	if err != nil {
		t.Fatalf("BuildResponse: %v", err)
	}
	if !strings.HasPrefix(frame[9:], `"*ACK"`) {
		t.Fatalf("expected encrypted ACK token, got %q", frame)
	}

	resp, err := codec.Parse(frame, key)
	if err != nil {
		t.Fatalf("round-trip Parse: %v", err)
	}
	if resp.Account != "1234" || resp.Sequence != 1 {
		t.Fatalf("got %+v", resp)
	}
}

func TestBuildResponseEncryptedWithoutKeyFails(t *testing.T) {
	key := []byte("aaaaaaaaaaaaaaaa")
	reqMsg := codec.Message{Token: "SIA-DCS", Sequence: 1, Account: "1234"}
	reqFrame, err := codec.SerializeEncrypted(reqMsg, key)
	if err != nil {
		t.Fatalf("SerializeEncrypted: %v", err)
	}
	req, err := codec.Parse(reqFrame, key)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg := Config{Keys: config.NewKeyMap("", nil), Accounts: config.NewAccountIndex(nil)}
	if _, err := BuildResponse(req, nil, cfg); err != ErrNoKeyForEncryptedRequest {
		t.Fatalf("got %v, want ErrNoKeyForEncryptedRequest", err)
	}
}
