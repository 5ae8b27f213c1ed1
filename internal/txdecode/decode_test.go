package txdecode

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
)

func encodeTx(t *testing.T, doc map[string]any) string {
	t.Helper()
	body, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(body)))
}

func TestDecode(t *testing.T) {
	raw := encodeTx(t, map[string]any{
		"payload": map[string]any{
			"sender":   "addr1",
			"contract": "currency",
			"function": "transfer",
			"kwargs":   map[string]any{"to": "addr2", "amount": "10.5"},
		},
		"metadata": map[string]any{"signature": "sig"},
	})

	tx, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Sender != "addr1" || tx.Contract != "currency" || tx.Function != "transfer" {
		t.Fatalf("payload mismatch: %+v", tx)
	}
	if tx.Kwargs["amount"] != "10.5" {
		t.Fatalf("kwargs mismatch: %+v", tx.Kwargs)
	}
}

func TestDecodeMissingKwargs(t *testing.T) {
	raw := encodeTx(t, map[string]any{
		"payload": map[string]any{"sender": "addr1", "contract": "c", "function": "f"},
	})

	tx, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Kwargs == nil {
		t.Fatalf("kwargs should never be nil")
	}
}

func TestDecodeMalformed(t *testing.T) {
	notHex := base64.StdEncoding.EncodeToString([]byte("zzzz"))
	notJSON := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString([]byte("not json"))))
	noPayload := encodeTx(t, map[string]any{"metadata": map[string]any{}})

	cases := map[string]string{
		"bad base64":      "!!! not base64 !!!",
		"bad hex":         notHex,
		"bad json":        notJSON,
		"missing payload": noPayload,
		"empty":           "",
	}

	for name, raw := range cases {
		if _, err := Decode(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: want ErrMalformed, got %v", name, err)
		}
	}
}
