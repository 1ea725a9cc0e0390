package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"brightbank.org/internal/audit"
	"brightbank.org/internal/bank"
	"brightbank.org/internal/obs"
)

// ReadyProbe reports readiness; with a DB configured it pings it.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP presentation surface over the bank core. It is the
// collaborator that parses raw form input into numbers and renders the
// derived account statistics; the core itself only sees typed values.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	ledger   *bank.Ledger
	sessions *bank.SessionManager
	service  *bank.TransactionService

	rateBurst  int
	ratePerSec int
	maxBody    int64
	tokenTTL   time.Duration
}

// New assembles the API and its routes.
func New(rp ReadyProbe, version string, ledger *bank.Ledger, sessions *bank.SessionManager, service *bank.TransactionService) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		ledger:     ledger,
		sessions:   sessions,
		service:    service,
		rateBurst:  20,
		ratePerSec: 10,
		maxBody:    1 << 20,
		tokenTTL:   30 * time.Minute,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	a.mux.HandleFunc("/v1/login", a.handleLogin)
	a.mux.HandleFunc("/v1/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/account", a.handleAccount)
	a.mux.HandleFunc("/v1/account/close", a.handleClose)
	a.mux.HandleFunc("/v1/transfers", a.handleTransfer)
	a.mux.HandleFunc("/v1/loans", a.handleLoan)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimit overrides the default per-IP rate limit.
func (a *API) SetRateLimit(burst, perSecond int) {
	a.rateBurst = burst
	a.ratePerSec = perSecond
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = a.withSession(h)
	h = MaxBodyBytes(h, a.maxBody)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return h
}

// --- health & info ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "brightbank-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "brightbank-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	if err := audit.LogEvent(ctx, event, fields); err != nil {
		obs.Event("audit log failed", map[string]any{"error": err.Error(), "event": event})
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}
