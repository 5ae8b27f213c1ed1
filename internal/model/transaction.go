package model

// Transaction is the decoded payload of a Xian transaction as delivered by
// the node's event feed.
type Transaction struct {
	Sender   string         `json:"sender"`
	Contract string         `json:"contract"`
	Function string         `json:"function"`
	Kwargs   map[string]any `json:"kwargs"`
}
