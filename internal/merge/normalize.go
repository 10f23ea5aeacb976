// Package merge implements normalization and field-precedence fusion of
// per-source Token lists into one canonical Snapshot. The adapters
// already validate and tag their own records (§4.3); this package's
// Normalize step is a defensive second pass matching §4.4 step 1 so the
// merger never depends on adapters having been careful.
package merge

import (
	"strings"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
)

// Normalize lowercases every address and drops empty-address entries.
func Normalize(tokens []models.Token) []models.Token {
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		addr := strings.ToLower(t.Address)
		if addr == "" {
			continue
		}
		t.Address = addr
		out = append(out, t)
	}
	return out
}
