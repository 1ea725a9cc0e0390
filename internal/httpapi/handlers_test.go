package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"brightbank.org/internal/bank"
	"brightbank.org/internal/token"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("BANK_AUTH_SECRET", "test-secret")
	token.ResetSecretForTests()

	ledger := bank.NewLedger()
	if err := ledger.Register(bank.SeedAccounts()...); err != nil {
		t.Fatal(err)
	}
	sessions := bank.NewSessionManager(ledger)
	service := bank.NewTransactionService(ledger, sessions)

	api := New(ReadyProbe{}, "test", ledger, sessions, service)
	api.SetRateLimit(1000, 1000)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func (c *apiClient) login(username string, pin int) (string, accountView) {
	c.t.Helper()
	resp := c.post("/v1/login", loginRequest{Username: username, PIN: pin}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status = %d", resp.StatusCode)
	}
	body := decodeBody[loginResponse](c.t, resp)
	if body.Token == "" {
		c.t.Fatal("login returned no token")
	}
	return body.Token, body.Account
}

func bearerHeader(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestHealthz(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoginSuccess(t *testing.T) {
	c := newTestAPI(t)
	_, acc := c.login("js", 1111)
	if acc.Owner != "Jonas Schmedtmann" {
		t.Fatalf("unexpected owner: %q", acc.Owner)
	}
	if acc.Balance != 3840 {
		t.Fatalf("balance = %v, want 3840", acc.Balance)
	}
	if acc.TotalIn != 5020 || acc.TotalOut != 1180 {
		t.Fatalf("summary = in %v / out %v", acc.TotalIn, acc.TotalOut)
	}
}

func TestLoginWrongPIN(t *testing.T) {
	c := newTestAPI(t)
	resp := c.post("/v1/login", loginRequest{Username: "js", PIN: 9999}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAccountRequiresToken(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/v1/account", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp = c.get("/v1/account", nil, bearerHeader("garbage"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for bad token", resp.StatusCode)
	}
}

func TestAccountSortedView(t *testing.T) {
	c := newTestAPI(t)
	tok, _ := c.login("js", 1111)

	resp := c.get("/v1/account", url.Values{"sort": {"asc"}}, bearerHeader(tok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	sorted := decodeBody[accountView](t, resp)
	for i := 1; i < len(sorted.Movements); i++ {
		if sorted.Movements[i-1] > sorted.Movements[i] {
			t.Fatalf("movements not sorted: %v", sorted.Movements)
		}
	}

	// The stored order must be untouched by the sorted read.
	resp = c.get("/v1/account", nil, bearerHeader(tok))
	natural := decodeBody[accountView](t, resp)
	want := []float64{200, 450, -400, 3000, -650, -130, 70, 1300}
	for i := range want {
		if natural.Movements[i] != want[i] {
			t.Fatalf("insertion order lost: %v", natural.Movements)
		}
	}
}

func TestTransferApplied(t *testing.T) {
	c := newTestAPI(t)
	tok, _ := c.login("js", 1111)

	resp := c.post("/v1/transfers", transferRequest{To: "jd", Amount: 500}, bearerHeader(tok))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody[outcomeResponse](t, resp)
	if !body.Applied || body.Account == nil {
		t.Fatalf("unexpected outcome: %+v", body)
	}
	if body.Account.Balance != 3840-500 {
		t.Fatalf("balance after transfer = %v", body.Account.Balance)
	}
}

func TestTransferRejected(t *testing.T) {
	c := newTestAPI(t)
	tok, _ := c.login("js", 1111)

	resp := c.post("/v1/transfers", transferRequest{To: "jd", Amount: 99999}, bearerHeader(tok))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	body := decodeBody[outcomeResponse](t, resp)
	if body.Applied || body.Reason != bank.ReasonInsufficientFunds {
		t.Fatalf("unexpected outcome: %+v", body)
	}
}

func TestLoan(t *testing.T) {
	c := newTestAPI(t)
	tok, _ := c.login("js", 1111)

	resp := c.post("/v1/loans", loanRequest{Amount: 10000}, bearerHeader(tok))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody[outcomeResponse](t, resp)
	if !body.Applied || body.Account.Balance != 3840+10000 {
		t.Fatalf("unexpected outcome: %+v", body)
	}

	resp = c.post("/v1/loans", loanRequest{Amount: 9999999}, bearerHeader(tok))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestCloseAccountFlow(t *testing.T) {
	c := newTestAPI(t)
	tok, _ := c.login("js", 1111)

	resp := c.post("/v1/account/close", closeRequest{Username: "js", PIN: 1111}, bearerHeader(tok))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close status = %d, want 204", resp.StatusCode)
	}

	// The session ended with the account; the old token no longer works.
	resp = c.get("/v1/account", nil, bearerHeader(tok))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 after closure", resp.StatusCode)
	}

	// And the handle is gone: logging in again fails outright.
	resp = c.post("/v1/login", loginRequest{Username: "js", PIN: 1111}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401 for a closed account", resp.StatusCode)
	}
}

func TestCloseAccountBadCredentials(t *testing.T) {
	c := newTestAPI(t)
	tok, _ := c.login("js", 1111)

	resp := c.post("/v1/account/close", closeRequest{Username: "js", PIN: 4321}, bearerHeader(tok))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	// Account and session survive a rejected closure.
	resp = c.get("/v1/account", nil, bearerHeader(tok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d after rejected closure", resp.StatusCode)
	}
}

func TestStaleTokenAfterRelogin(t *testing.T) {
	c := newTestAPI(t)
	oldTok, _ := c.login("js", 1111)
	newTok, _ := c.login("jd", 2222)

	resp := c.get("/v1/account", nil, bearerHeader(oldTok))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("stale token accepted: %d", resp.StatusCode)
	}
	resp = c.get("/v1/account", nil, bearerHeader(newTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("current token rejected: %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/v1/login", nil, nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	c := newTestAPI(t)
	resp := c.post("/v1/login", map[string]any{"username": "js", "pin": 1111, "bogus": true}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
