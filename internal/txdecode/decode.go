// Package txdecode turns the feed's wire-encoded transactions into
// structured records.
//
// Transactions arrive base64-encoded; the decoded bytes are a hex string of
// the JSON document. Every malformed stage collapses to ErrMalformed so the
// caller sees a single "unclassifiable" outcome.
package txdecode

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"

	"xianScore/internal/model"
)

// ErrMalformed reports a transaction that failed any decode stage.
var ErrMalformed = errors.New("malformed transaction")

type document struct {
	Payload *payload `json:"payload"`
}

type payload struct {
	Sender   string         `json:"sender"`
	Contract string         `json:"contract"`
	Function string         `json:"function"`
	Kwargs   map[string]any `json:"kwargs"`
}

// Decode unwraps base64 over hex text over JSON and returns the document's
// payload object.
func Decode(raw string) (model.Transaction, error) {
	hexText, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return model.Transaction{}, ErrMalformed
	}

	body, err := hex.DecodeString(string(hexText))
	if err != nil {
		return model.Transaction{}, ErrMalformed
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.Transaction{}, ErrMalformed
	}
	if doc.Payload == nil {
		return model.Transaction{}, ErrMalformed
	}

	kwargs := doc.Payload.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	return model.Transaction{
		Sender:   doc.Payload.Sender,
		Contract: doc.Payload.Contract,
		Function: doc.Payload.Function,
		Kwargs:   kwargs,
	}, nil
}
