package bank

import (
	"sync"
	"time"

	"brightbank.org/internal/ids"
)

// Ledger is the registry of active accounts, keyed by derived username.
// All access goes through the ledger's lock; TransactionService holds it
// across a full operation so one logical operation is in flight at a time.
type Ledger struct {
	mu    sync.RWMutex
	accts map[string]*Account
}

// NewLedger creates an empty registry.
func NewLedger() *Ledger {
	return &Ledger{accts: make(map[string]*Account)}
}

// Register derives usernames and adds the accounts to the registry.
// Re-registering an account is idempotent: the derivation always yields
// the same handle. Two distinct owners whose initials collide are
// rejected with ErrDuplicateUsername rather than silently shadowing one
// another in lookups. Partial registration is possible on error: accounts
// earlier in the sequence stay registered.
func (l *Ledger) Register(accounts ...*Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, acc := range accounts {
		username := DeriveUsername(acc.Owner)
		if existing, ok := l.accts[username]; ok && existing != acc {
			return ErrDuplicateUsername
		}
		acc.Username = username
		if acc.ID == "" {
			acc.ID = ids.New()
		}
		if acc.CreatedAt.IsZero() {
			acc.CreatedAt = time.Now().UTC()
		}
		l.accts[username] = acc
	}
	return nil
}

// FindByUsername returns a detached copy of the matching account, or
// ErrNotFound.
func (l *Ledger) FindByUsername(username string) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accts[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc.clone(), nil
}

// Remove deletes the matching account from the registry.
func (l *Ledger) Remove(username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accts[username]; !ok {
		return ErrNotFound
	}
	delete(l.accts, username)
	return nil
}

// Usernames lists the active handles in no particular order.
func (l *Ledger) Usernames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.accts))
	for u := range l.accts {
		out = append(out, u)
	}
	return out
}

// get returns the live account without copying. Callers must hold l.mu.
func (l *Ledger) get(username string) (*Account, bool) {
	acc, ok := l.accts[username]
	return acc, ok
}
