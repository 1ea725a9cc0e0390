package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"brightbank.org/internal/bank"
	"brightbank.org/internal/obs"
	"brightbank.org/internal/token"
)

type loginRequest struct {
	Username string `json:"username"`
	PIN      int    `json:"pin"`
}

type loginResponse struct {
	Token   string      `json:"token"`
	Account accountView `json:"account"`
}

type transferRequest struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type loanRequest struct {
	Amount float64 `json:"amount"`
}

type closeRequest struct {
	Username string `json:"username"`
	PIN      int    `json:"pin"`
}

type outcomeResponse struct {
	Applied bool         `json:"applied"`
	Reason  bank.Reason  `json:"reason,omitempty"`
	Account *accountView `json:"account,omitempty"`
}

// accountView is what the UI renders after every mutation: the movement
// view plus the derived statistics, all recomputed from the history.
type accountView struct {
	Owner        string    `json:"owner"`
	Username     string    `json:"username"`
	InterestRate float64   `json:"interest_rate"`
	Movements    []float64 `json:"movements"`
	Balance      float64   `json:"balance"`
	TotalIn      float64   `json:"total_in"`
	TotalOut     float64   `json:"total_out"` // absolute value of withdrawals
	Interest     float64   `json:"interest"`
}

func viewOf(acc bank.Account, sorted bool) accountView {
	return accountView{
		Owner:        acc.Owner,
		Username:     acc.Username,
		InterestRate: acc.InterestRate,
		Movements:    bank.MovementsView(&acc, sorted),
		Balance:      bank.Balance(&acc),
		TotalIn:      bank.TotalDeposits(&acc),
		TotalOut:     math.Abs(bank.TotalWithdrawals(&acc)),
		Interest:     bank.QualifyingInterest(&acc, acc.InterestRate),
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, r, http.StatusBadRequest, "username is required")
		return
	}

	acc, err := a.sessions.Login(username, req.PIN)
	if err != nil {
		obs.CountOperation("login", "rejected")
		a.audit(r.Context(), "bank.login.reject", map[string]any{"username": username})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	signed, err := token.Generate(acc.Username, a.tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session token unavailable")
		return
	}

	obs.CountOperation("login", "applied")
	ctx := token.ContextWithSession(r.Context(), acc.Username)
	a.audit(ctx, "bank.login.success", map[string]any{"username": acc.Username})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:   signed,
		Account: viewOf(acc, false),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.sessions.Logout()
	a.audit(r.Context(), "bank.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	acc, ok := a.sessions.Current()
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}
	sorted := r.URL.Query().Get("sort") == "asc"
	writeJSON(w, http.StatusOK, viewOf(acc, sorted))
}

func (a *API) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		writeError(w, r, http.StatusBadRequest, "to is required")
		return
	}
	if _, ok := a.sessions.Current(); !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	out := a.service.Transfer(to, req.Amount)
	a.writeOutcome(w, r, "transfer", out, map[string]any{
		"to":     to,
		"amount": req.Amount,
	})
}

func (a *API) handleLoan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := a.sessions.Current(); !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	out := a.service.RequestLoan(req.Amount)
	a.writeOutcome(w, r, "loan", out, map[string]any{
		"amount": req.Amount,
	})
}

func (a *API) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req closeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := a.sessions.Current(); !ok {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}

	out := a.service.CloseAccount(strings.TrimSpace(req.Username), req.PIN)
	if !out.Applied {
		obs.CountOperation("close", "rejected")
		a.audit(r.Context(), "bank.close.reject", map[string]any{"reason": string(out.Reason)})
		writeJSON(w, http.StatusUnprocessableEntity, outcomeResponse{Applied: false, Reason: out.Reason})
		return
	}

	obs.CountOperation("close", "applied")
	a.audit(r.Context(), "bank.close.execute", nil)
	w.WriteHeader(http.StatusNoContent)
}

// writeOutcome renders an operation result: 201 with the refreshed account
// view when applied, 422 with the rejection reason otherwise. Business
// rejections are not errors; the absent mutation is the whole story.
func (a *API) writeOutcome(w http.ResponseWriter, r *http.Request, op string, out bank.Outcome, fields map[string]any) {
	if !out.Applied {
		obs.CountOperation(op, "rejected")
		if fields == nil {
			fields = map[string]any{}
		}
		fields["reason"] = string(out.Reason)
		a.audit(r.Context(), "bank."+op+".reject", fields)
		writeJSON(w, http.StatusUnprocessableEntity, outcomeResponse{Applied: false, Reason: out.Reason})
		return
	}

	obs.CountOperation(op, "applied")
	a.audit(r.Context(), "bank."+op+".execute", fields)

	var view *accountView
	if acc, ok := a.sessions.Current(); ok {
		v := viewOf(acc, false)
		view = &v
	}
	writeJSON(w, http.StatusCreated, outcomeResponse{Applied: true, Account: view})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
