package config

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `{
  "diallers": [
    {"name": "1234", "key": "aaaaaaaaaaaaaaaa", "scenarios": ["burglary"], "sequence": 1},
    {"name": "5678", "scenarios": ["fire"]}
  ],
  "scenarios": [
    {"id": "burglary", "sequence": [{"token": "SIA-DCS", "message": "NBA1", "delay": 100}]},
    {"id": "fire", "sequence": [{"token": "SIA-DCS", "message": "FA1", "repeat": 2}]}
  ]
}`

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Diallers) != 2 || len(s.Scenarios) != 2 {
		t.Fatalf("got %d diallers, %d scenarios", len(s.Diallers), len(s.Scenarios))
	}
}

func TestLoadRejectsBadKeyLength(t *testing.T) {
	doc := `{"diallers": [{"name": "1234", "key": "tooshort"}], "scenarios": []}`
	if _, err := Load(strings.NewReader(doc)); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("got %v, want ErrInvalidKeyLength", err)
	}
}

func TestScenarioIDsForAndSequenceFor(t *testing.T) {
	s, err := Load(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}

	if ids := s.ScenarioIDsFor("1234"); len(ids) != 1 || ids[0] != "burglary" {
		t.Fatalf("ScenarioIDsFor(1234) = %v", ids)
	}
	if ids := s.ScenarioIDsFor("nope"); ids != nil {
		t.Fatalf("ScenarioIDsFor(unknown) = %v, want nil", ids)
	}

	seq := s.SequenceFor("fire")
	if len(seq) != 1 || seq[0].Token != "SIA-DCS" || seq[0].EffectiveRepeat() != 2 {
		t.Fatalf("SequenceFor(fire) = %+v", seq)
	}
}

func TestEffectiveRepeatDefaultsToOne(t *testing.T) {
	for _, s := range []SignalConfig{{Repeat: 0}, {Repeat: -1}} {
		if s.EffectiveRepeat() != 1 {
			t.Errorf("EffectiveRepeat(%+v) = %d, want 1", s, s.EffectiveRepeat())
		}
	}
	if (SignalConfig{Repeat: 3}).EffectiveRepeat() != 3 {
		t.Errorf("EffectiveRepeat(3) != 3")
	}
}

func TestKeyMapAndAccountIndex(t *testing.T) {
	diallers := []DiallerConfig{
		{Name: "1234", Key: "aaaaaaaaaaaaaaaa"},
		{Name: "5678"},
	}
	km := NewKeyMap("defaultdefaultde", diallers)
	idx := NewAccountIndex(diallers)

	key, ok := KeyFor("1234", km, idx)
	if !ok || string(key) != "aaaaaaaaaaaaaaaa" {
		t.Fatalf("KeyFor(1234) = %q, %v", key, ok)
	}

	key, ok = KeyFor("5678", km, idx)
	if !ok || string(key) != "defaultdefaultde" {
		t.Fatalf("KeyFor(5678) should fall back to the default key, got %q, %v", key, ok)
	}

	key, ok = KeyFor("unconfigured", km, idx)
	if !ok || string(key) != "defaultdefaultde" {
		t.Fatalf("KeyFor(unconfigured) should fall back to the default key, got %q, %v", key, ok)
	}
}
