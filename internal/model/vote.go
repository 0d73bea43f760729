package model

// VoteRecord is the canonical per-participant ballot: Total always equals the
// sum of Topics counts, and zero-count entries are never stored.
type VoteRecord struct {
	Total  int            `json:"total"`
	Topics map[string]int `json:"topics"`
}

// VoteLedger maps participant id to their canonical record. Participants with
// zero votes have no entry.
type VoteLedger map[string]*VoteRecord
