package config

import (
	"reflect"
	"testing"
)

func TestPayloadPath(t *testing.T) {
	cfg := Config{TxPayloadPath: "value.TxResult.tx"}
	want := []string{"value", "TxResult", "tx"}
	if got := cfg.PayloadPath(); !reflect.DeepEqual(got, want) {
		t.Fatalf("path mismatch: %v != %v", got, want)
	}

	cfg = Config{TxPayloadPath: " value . tx "}
	want = []string{"value", "tx"}
	if got := cfg.PayloadPath(); !reflect.DeepEqual(got, want) {
		t.Fatalf("path mismatch: %v != %v", got, want)
	}

	cfg = Config{}
	if got := cfg.PayloadPath(); len(got) != 0 {
		t.Fatalf("empty path should yield no segments: %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.SubscribeQuery != "tm.event='Tx'" {
		t.Fatalf("subscribe query default mismatch: %q", cfg.SubscribeQuery)
	}
	if cfg.TxHashEvent != "tx.hash" {
		t.Fatalf("tx hash event default mismatch: %q", cfg.TxHashEvent)
	}
	if cfg.RefreshInterval.Seconds() != 20 {
		t.Fatalf("refresh interval default mismatch: %v", cfg.RefreshInterval)
	}
	if cfg.WSURL != "" || cfg.GraphQLURL != "" {
		t.Fatalf("endpoints must have no embedded defaults")
	}
}
