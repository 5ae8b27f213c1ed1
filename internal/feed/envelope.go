package feed

import "encoding/json"

// Envelope carries the fields salvaged from one feed message. Either field
// may be empty: the subscription acknowledgement has no tx at all, and some
// nodes wrap events differently.
type Envelope struct {
	TxHash string
	TxRaw  string // base64 wire-encoded transaction
}

// ExtractEnvelope pulls the tx hash and wire bytes out of a raw feed message
// using the configured field paths. Missing pieces yield empty strings,
// never an error; the caller decides what is salvageable.
func ExtractEnvelope(raw []byte, cfg Config) Envelope {
	var msg struct {
		Result struct {
			Events map[string][]string `json:"events"`
			Data   json.RawMessage     `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Envelope{}
	}

	var env Envelope
	if hashes := msg.Result.Events[cfg.HashEvent]; len(hashes) > 0 {
		env.TxHash = hashes[0]
	}
	env.TxRaw = stringAtPath(msg.Result.Data, cfg.TxPath)
	return env
}

func stringAtPath(raw json.RawMessage, path []string) string {
	if len(raw) == 0 || len(path) == 0 {
		return ""
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return ""
	}
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return ""
		}
		if node, ok = obj[key]; !ok {
			return ""
		}
	}
	s, _ := node.(string)
	return s
}
