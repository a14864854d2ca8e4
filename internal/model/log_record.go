package model

// LogRecord is a pool event in EVM log form, as written to the event journal.
// Sequence is the operation line that produced it.
type LogRecord struct {
	ChainID    uint64   `json:"chain_id"`
	Sequence   uint64   `json:"sequence"`
	TxHash     string   `json:"tx_hash"`
	LogIndex   uint64   `json:"log_index"`
	Address    string   `json:"address"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	IngestedAt string   `json:"ingested_at"`
}
