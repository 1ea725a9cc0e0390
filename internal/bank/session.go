package bank

import "sync"

// SessionManager tracks the single authenticated account. It is owned by
// the composition root and handed to collaborators explicitly; there is
// no package-level session state.
type SessionManager struct {
	mu      sync.Mutex
	ledger  *Ledger
	current string // username, empty when logged out
}

// NewSessionManager binds a session manager to a ledger.
func NewSessionManager(ledger *Ledger) *SessionManager {
	return &SessionManager{ledger: ledger}
}

// Login authenticates a username/PIN pair. On success the session is set
// to the account and a detached copy is returned. On failure ErrAuth is
// returned and any existing session is left exactly as it was; a failed
// attempt never logs anyone out.
func (m *SessionManager) Login(username string, pin int) (Account, error) {
	acc, err := m.ledger.FindByUsername(username)
	if err != nil {
		return Account{}, ErrAuth
	}
	if acc.PIN != pin {
		return Account{}, ErrAuth
	}
	m.mu.Lock()
	m.current = acc.Username
	m.mu.Unlock()
	return acc, nil
}

// Logout clears the session.
func (m *SessionManager) Logout() {
	m.mu.Lock()
	m.current = ""
	m.mu.Unlock()
}

// Current returns a copy of the authenticated account, or false when no
// session is active. A session whose account has since been removed from
// the ledger reports as inactive.
func (m *SessionManager) Current() (Account, bool) {
	username := m.CurrentUsername()
	if username == "" {
		return Account{}, false
	}
	acc, err := m.ledger.FindByUsername(username)
	if err != nil {
		return Account{}, false
	}
	return acc, true
}

// CurrentUsername returns the authenticated handle, empty when logged out.
func (m *SessionManager) CurrentUsername() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
