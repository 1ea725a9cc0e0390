package bank

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Account holds a customer's identity, credentials and movement history.
// Amounts are signed: deposits are positive, withdrawals negative. The
// balance is never stored; it is always derived from Movements.
type Account struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Username     string    `json:"username"`
	InterestRate float64   `json:"interest_rate"` // percent
	PIN          int       `json:"-"`
	Movements    []float64 `json:"movements"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeriveUsername builds the account handle from the owner's display name:
// the lowercase first letter of each space-separated word, concatenated in
// order ("Jonas Schmedtmann" -> "js"). Deterministic and stateless.
func DeriveUsername(owner string) string {
	var b strings.Builder
	for _, word := range strings.Fields(strings.ToLower(owner)) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
	}
	return b.String()
}

// clone returns a detached copy whose movement slice does not alias the
// stored one.
func (a *Account) clone() Account {
	out := *a
	out.Movements = make([]float64, len(a.Movements))
	copy(out.Movements, a.Movements)
	return out
}
