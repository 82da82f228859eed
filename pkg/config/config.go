// Package config loads the JSON scenario/dialler configuration that drives
// both cmd/dialler and cmd/receiver, and builds the read-only lookup
// structures (KeyMap, AccountIndex) the receiver uses to select a
// decryption key per inbound account.
package config

import (
	"encoding/json"
	"fmt"
	"io"
)

// SignalConfig is a single token+body pair a dialler plays back.
type SignalConfig struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
	DelayMs int    `json:"delay,omitempty"`
	Repeat  int    `json:"repeat,omitempty"`
}

// EffectiveRepeat returns Repeat, treating both 0 and negative values as 1
// (spec.md §3: "repeat defaults to 1; when 0 it is treated as 1").
func (s SignalConfig) EffectiveRepeat() int {
	if s.Repeat <= 0 {
		return 1
	}
	return s.Repeat
}

// ScenarioConfig is an ordered list of signals played back under one id.
type ScenarioConfig struct {
	ID       string         `json:"id"`
	Sequence []SignalConfig `json:"sequence"`
}

// DiallerConfig describes one configured dialler instance (or, when
// Count > 1, a family of instances sharing everything but their account).
type DiallerConfig struct {
	Name      string   `json:"name"`
	Key       string   `json:"key,omitempty"`
	Receiver  string   `json:"receiver,omitempty"`
	Prefix    string   `json:"prefix,omitempty"`
	Scenarios []string `json:"scenarios,omitempty"`
	Sequence  int      `json:"sequence,omitempty"`
	UDP       bool     `json:"udp,omitempty"`
	Count     int      `json:"count,omitempty"`
}

// Scenarios is the top-level configuration document.
type Scenarios struct {
	Diallers  []DiallerConfig  `json:"diallers"`
	Scenarios []ScenarioConfig `json:"scenarios"`
}

// Load decodes a Scenarios document from r and validates it.
func Load(r io.Reader) (*Scenarios, error) {
	var s Scenarios
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every configured dialler key has a length DC-09's AES
// ciphers accept (16, 24, or 32 bytes).
func (s *Scenarios) Validate() error {
	for _, d := range s.Diallers {
		if d.Key == "" {
			continue
		}
		switch len(d.Key) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("%w: dialler %q has key of length %d", ErrInvalidKeyLength, d.Name, len(d.Key))
		}
	}
	return nil
}

// ScenarioIDsFor returns the scenario ids configured for the named
// dialler/account, or nil if the account is not configured or has none.
func (s *Scenarios) ScenarioIDsFor(account string) []string {
	for _, d := range s.Diallers {
		if d.Name == account {
			return d.Scenarios
		}
	}
	return nil
}

// SequenceFor returns the signal sequence for the named scenario id, or
// nil if no scenario with that id is configured.
func (s *Scenarios) SequenceFor(scenarioID string) []SignalConfig {
	for _, sc := range s.Scenarios {
		if sc.ID == scenarioID {
			return sc.Sequence
		}
	}
	return nil
}
