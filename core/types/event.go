package types

// Event is the wire-friendly representation of a ledger state change. The
// attribute map carries hex-encoded addresses and decimal amounts so that
// off-chain indexers can consume it without knowing the internal layout.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
