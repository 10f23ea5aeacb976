package models

import (
	"sort"
	"time"
)

// Snapshot is the ordered, de-duplicated, truncated list of Tokens produced
// by one Scheduler tick. It is created atomically and replaced wholesale —
// callers must never mutate the Tokens slice of a Snapshot they did not
// just construct.
type Snapshot struct {
	Tokens    []Token   `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSnapshot sorts tokens by Volume24h descending and truncates to maxTokens.
func NewSnapshot(tokens []Token, createdAt time.Time, maxTokens int) Snapshot {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	if maxTokens > 0 && len(out) > maxTokens {
		out = out[:maxTokens]
	}
	return Snapshot{Tokens: out, CreatedAt: createdAt}
}

// ByAddress builds an address -> Token index of the snapshot. Addresses
// are assumed already lowercased, as guaranteed by the normalizer.
func (s Snapshot) ByAddress() map[string]Token {
	idx := make(map[string]Token, len(s.Tokens))
	for _, t := range s.Tokens {
		idx[t.Address] = t
	}
	return idx
}
