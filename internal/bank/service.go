package bank

// Reason labels why an operation was rejected. Business-rule rejections
// are values, not errors: a rejected operation performs zero mutation and
// the caller decides whether that is worth reporting.
type Reason string

const (
	ReasonInvalidAmount     Reason = "invalid_amount"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonUnknownReceiver   Reason = "unknown_receiver"
	ReasonSelfTransfer      Reason = "self_transfer"
	ReasonLoanNotCovered    Reason = "loan_not_covered"
	ReasonBadCredentials    Reason = "bad_credentials"
)

// Outcome reports whether an operation mutated the ledger and, if not,
// why it was rejected.
type Outcome struct {
	Applied bool   `json:"applied"`
	Reason  Reason `json:"reason,omitempty"`
}

func applied() Outcome          { return Outcome{Applied: true} }
func rejected(r Reason) Outcome { return Outcome{Reason: r} }

// TransactionService executes transfer, loan and closure operations for
// the authenticated account. Every operation requires an active session;
// calling one without a session is a programmer error in the surrounding
// surface and panics. The operation runs under the ledger lock from first
// read to last write, so the debit and credit of a transfer are never
// separately observable.
type TransactionService struct {
	ledger   *Ledger
	sessions *SessionManager
}

// NewTransactionService wires the service to its ledger and sessions.
func NewTransactionService(ledger *Ledger, sessions *SessionManager) *TransactionService {
	return &TransactionService{ledger: ledger, sessions: sessions}
}

func (s *TransactionService) authenticated() string {
	username := s.sessions.CurrentUsername()
	if username == "" {
		panic("bank: transaction without an authenticated session")
	}
	return username
}

// Transfer moves amount from the authenticated account to the named
// receiver. Rejected, with no movement recorded on either side, unless
// the amount is positive, the derived balance covers it, the receiver
// exists and the receiver is not the sender.
func (s *TransactionService) Transfer(toUsername string, amount float64) Outcome {
	from := s.authenticated()

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	sender, ok := s.ledger.get(from)
	if !ok {
		panic("bank: authenticated account missing from ledger")
	}
	if amount <= 0 {
		return rejected(ReasonInvalidAmount)
	}
	if Balance(sender) < amount {
		return rejected(ReasonInsufficientFunds)
	}
	receiver, ok := s.ledger.get(toUsername)
	if !ok {
		return rejected(ReasonUnknownReceiver)
	}
	if receiver.Username == sender.Username {
		return rejected(ReasonSelfTransfer)
	}

	sender.Movements = append(sender.Movements, -amount)
	receiver.Movements = append(receiver.Movements, amount)
	return applied()
}

// RequestLoan credits amount to the authenticated account when the bank's
// underwriting rule holds: some single prior movement must be at least a
// tenth of the requested amount. A cumulative total does not qualify.
func (s *TransactionService) RequestLoan(amount float64) Outcome {
	from := s.authenticated()

	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()

	acc, ok := s.ledger.get(from)
	if !ok {
		panic("bank: authenticated account missing from ledger")
	}
	if amount <= 0 {
		return rejected(ReasonInvalidAmount)
	}
	covered := false
	for _, mov := range acc.Movements {
		if mov >= amount*0.10 {
			covered = true
			break
		}
	}
	if !covered {
		return rejected(ReasonLoanNotCovered)
	}

	acc.Movements = append(acc.Movements, amount)
	return applied()
}

// CloseAccount removes the authenticated account from the ledger after the
// caller re-confirms its credentials, then ends the session. No tombstone
// remains; a later lookup of the handle reports not found.
func (s *TransactionService) CloseAccount(confirmedUsername string, confirmedPIN int) Outcome {
	from := s.authenticated()

	s.ledger.mu.Lock()
	acc, ok := s.ledger.get(from)
	if !ok {
		s.ledger.mu.Unlock()
		panic("bank: authenticated account missing from ledger")
	}
	if confirmedUsername != acc.Username || confirmedPIN != acc.PIN {
		s.ledger.mu.Unlock()
		return rejected(ReasonBadCredentials)
	}
	delete(s.ledger.accts, acc.Username)
	s.ledger.mu.Unlock()

	s.sessions.Logout()
	return applied()
}
