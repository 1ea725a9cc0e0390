package bank

import "errors"

var (
	// ErrNotFound is returned when a username has no matching account.
	ErrNotFound = errors.New("bank: account not found")
	// ErrAuth is returned on login failure, for both an unknown username
	// and a PIN mismatch. Callers must not be able to tell the two apart.
	ErrAuth = errors.New("bank: invalid credentials")
	// ErrDuplicateUsername is returned when registration would produce a
	// handle that already belongs to another account.
	ErrDuplicateUsername = errors.New("bank: duplicate username")
)
