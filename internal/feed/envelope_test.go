package feed

import "testing"

var testConfig = Config{
	HashEvent: "tx.hash",
	TxPath:    []string{"value", "TxResult", "tx"},
}

func TestExtractEnvelope(t *testing.T) {
	raw := []byte(`{
		"jsonrpc": "2.0",
		"id": 1,
		"result": {
			"data": {
				"type": "tendermint/event/Tx",
				"value": {"TxResult": {"height": "12", "tx": "QkFTRTY0"}}
			},
			"events": {"tx.hash": ["ABC123"], "tm.event": ["Tx"]}
		}
	}`)

	env := ExtractEnvelope(raw, testConfig)
	if env.TxHash != "ABC123" {
		t.Fatalf("tx hash = %q, want ABC123", env.TxHash)
	}
	if env.TxRaw != "QkFTRTY0" {
		t.Fatalf("tx raw = %q, want QkFTRTY0", env.TxRaw)
	}
}

func TestExtractEnvelopeSubscribeAck(t *testing.T) {
	// The subscription acknowledgement has an empty result.
	env := ExtractEnvelope([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`), testConfig)
	if env.TxHash != "" || env.TxRaw != "" {
		t.Fatalf("ack should yield an empty envelope: %+v", env)
	}
}

func TestExtractEnvelopeMissingPieces(t *testing.T) {
	// Hash present, tx wrapped under an unexpected shape.
	raw := []byte(`{"result":{"data":{"value":{"TxResult":{"tx":42}}},"events":{"tx.hash":["H1"]}}}`)
	env := ExtractEnvelope(raw, testConfig)
	if env.TxHash != "H1" || env.TxRaw != "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	// Garbage message yields an empty envelope, never an error.
	env = ExtractEnvelope([]byte("not json"), testConfig)
	if env.TxHash != "" || env.TxRaw != "" {
		t.Fatalf("garbage should yield an empty envelope: %+v", env)
	}
}
