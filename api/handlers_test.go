/*
handlers_test.go - End-to-end tests for the API surface

Exercises the real router, auth middleware, SQLite store, provisioning
workflow, and closing engine together; only the PDF generator is
stubbed to keep the tests fast.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddock/billing-engine/api"
	"github.com/paddock/billing-engine/billing"
	"github.com/paddock/billing-engine/closing"
	"github.com/paddock/billing-engine/docstore"
	"github.com/paddock/billing-engine/identity"
	"github.com/paddock/billing-engine/provision"
	"github.com/paddock/billing-engine/report"
	"github.com/paddock/billing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	server     *httptest.Server
	store      *sqlite.Store
	identities *identity.Local
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	docs, err := docstore.NewFilesystem(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	identities := identity.NewLocal(st, "test-secret-at-least-16", time.Hour)

	gen := report.GeneratorFunc(func(billing.PilotLedger, billing.Totals, billing.MonthRef) ([]byte, error) {
		return []byte("%PDF-stub"), nil
	})
	engine := closing.NewEngine(st, gen, docs)
	workflow := provision.NewWorkflow(st, identities)

	handler := api.NewHandler(st, identities, engine, workflow, docs)
	server := httptest.NewServer(api.NewRouter(handler, ""))
	t.Cleanup(server.Close)

	// Bootstrap an admin and sign in
	adminID, err := identities.Create(ctx, "admin@paddock.test", "admin-secret")
	require.NoError(t, err)
	require.NoError(t, identities.Confirm(ctx, adminID))
	require.NoError(t, identities.LinkAdminProfile(ctx, adminID))

	session, err := identities.SignIn(ctx, "admin@paddock.test", "admin-secret")
	require.NoError(t, err)

	return &testServer{
		server:     server,
		store:      st,
		identities: identities,
		adminToken: session.Token,
	}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (ts *testServer) createPilot(t *testing.T, name, email string, closingDay int) api.CreatePilotResponse {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/pilots", ts.adminToken, api.CreatePilotRequest{
		Name:       name,
		BaseFee:    "500",
		ClosingDay: closingDay,
		Email:      email,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[api.CreatePilotResponse](t, resp)
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestAPI_LoginAndSession(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "admin@paddock.test",
		Password: "admin-secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	session := decodeBody[api.SessionDTO](t, resp)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "admin", session.Role)

	// The token resolves on /session, which never echoes it back.
	resp = ts.request(t, http.MethodGet, "/api/auth/session", session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	current := decodeBody[api.SessionDTO](t, resp)
	assert.Empty(t, current.Token)
	assert.Equal(t, "admin@paddock.test", current.Email)
}

func TestAPI_LoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "admin@paddock.test",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_LogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/auth/logout", ts.adminToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/pilots", ts.adminToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_UnauthenticatedRejected(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/pilots", "/api/history", "/api/auth/session"} {
		resp := ts.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

// =============================================================================
// PILOT TESTS
// =============================================================================

func TestAPI_ProvisionAndDashboard(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createPilot(t, "Ayrton Senna", "ayrton@paddock.test", 15)
	assert.NotEmpty(t, created.PilotID)
	assert.NotEmpty(t, created.TempPassword, "generated credential must be echoed once")
	assert.Contains(t, created.Message, "Temporary password")

	// Expense and reimbursement entries
	resp := ts.request(t, http.MethodPost, "/api/pilots/"+created.PilotID+"/expenses", ts.adminToken,
		api.AddEntryRequest{Description: "Tire set", Amount: "120.50"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.request(t, http.MethodPost, "/api/pilots/"+created.PilotID+"/reimbursements", ts.adminToken,
		api.AddEntryRequest{Description: "Fuel refund", Amount: "30"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Dashboard shows decimal-exact totals as strings
	resp = ts.request(t, http.MethodGet, "/api/pilots", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dashboard := decodeBody[[]api.PilotLedgerDTO](t, resp)
	require.Len(t, dashboard, 1)
	assert.Equal(t, "590.5", dashboard[0].Totals.Total)
	assert.Len(t, dashboard[0].Expenses, 1)
	assert.Len(t, dashboard[0].Reimbursements, 1)
}

func TestAPI_PilotSeesOnlyItself(t *testing.T) {
	ts := newTestServer(t)

	mine := ts.createPilot(t, "Ayrton", "ayrton@paddock.test", 15)
	other := ts.createPilot(t, "Max", "max@paddock.test", 20)

	// Sign in as the pilot with the generated temporary credential
	resp := ts.request(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{
		Email:    "ayrton@paddock.test",
		Password: mine.TempPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody[api.SessionDTO](t, resp).Token

	resp = ts.request(t, http.MethodGet, "/api/pilots", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dashboard := decodeBody[[]api.PilotLedgerDTO](t, resp)
	require.Len(t, dashboard, 1)
	assert.Equal(t, mine.PilotID, dashboard[0].Pilot.ID)

	// The other pilot's detail is a 404, not a 403, to avoid probing
	resp = ts.request(t, http.MethodGet, "/api/pilots/"+other.PilotID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Mutations are admin-only
	resp = ts.request(t, http.MethodPost, "/api/pilots/"+mine.PilotID+"/expenses", token,
		api.AddEntryRequest{Amount: "10"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_UpdatePilot(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createPilot(t, "Ayrton", "ayrton@paddock.test", 15)

	resp := ts.request(t, http.MethodPut, "/api/pilots/"+created.PilotID, ts.adminToken,
		api.UpdatePilotRequest{Name: "Ayrton Senna", BaseFee: "600.25", ClosingDay: 20})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/pilots/"+created.PilotID, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pl := decodeBody[api.PilotLedgerDTO](t, resp)
	assert.Equal(t, "Ayrton Senna", pl.Pilot.Name)
	assert.Equal(t, 20, pl.Pilot.ClosingDay)
	assert.Equal(t, "600.25", pl.Pilot.BaseFee)
}

func TestAPI_CreatePilotWithoutLogin(t *testing.T) {
	// GIVEN: A create request with no email
	// WHEN: An admin posts it
	// THEN: The pilot exists with no identity and no credential, and
	//       shows up on the dashboard

	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/pilots", ts.adminToken, api.CreatePilotRequest{
		Name: "Legacy Racer", BaseFee: "250", ClosingDay: 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.CreatePilotResponse](t, resp)

	assert.NotEmpty(t, created.PilotID)
	assert.Empty(t, created.IdentityID)
	assert.Empty(t, created.TempPassword)

	resp = ts.request(t, http.MethodGet, "/api/pilots/"+created.PilotID, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pilot := decodeBody[api.PilotLedgerDTO](t, resp)
	assert.Equal(t, "Legacy Racer", pilot.Pilot.Name)
}

func TestAPI_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body api.CreatePilotRequest
	}{
		{"missing name", api.CreatePilotRequest{BaseFee: "500", ClosingDay: 15, Email: "a@b.c"}},
		{"bad closing day", api.CreatePilotRequest{Name: "X", BaseFee: "500", ClosingDay: 0, Email: "a@b.c"}},
		{"password without email", api.CreatePilotRequest{Name: "X", BaseFee: "500", ClosingDay: 15, Password: "secret"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.request(t, http.MethodPost, "/api/pilots", ts.adminToken, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAPI_DuplicateEmailConflict(t *testing.T) {
	ts := newTestServer(t)

	ts.createPilot(t, "Ayrton", "same@paddock.test", 15)

	resp := ts.request(t, http.MethodPost, "/api/pilots", ts.adminToken, api.CreatePilotRequest{
		Name: "Max", BaseFee: "400", ClosingDay: 20, Email: "same@paddock.test",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_DeletePilot(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createPilot(t, "Ayrton", "ayrton@paddock.test", 15)

	resp := ts.request(t, http.MethodDelete, "/api/pilots/"+created.PilotID, ts.adminToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/pilots/"+created.PilotID, ts.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The freed email can be provisioned again
	resp = ts.request(t, http.MethodPost, "/api/pilots", ts.adminToken, api.CreatePilotRequest{
		Name: "Ayrton II", BaseFee: "500", ClosingDay: 15, Email: "ayrton@paddock.test",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// =============================================================================
// CLOSING TESTS
// =============================================================================

func TestAPI_ManualClosingSweep(t *testing.T) {
	ts := newTestServer(t)

	today := time.Now().UTC().Day()
	notDue := today%28 + 1
	if notDue == today {
		notDue = today%27 + 2
	}

	due := ts.createPilot(t, "Ayrton", "ayrton@paddock.test", today)
	ts.createPilot(t, "Max", "max@paddock.test", notDue)

	resp := ts.request(t, http.MethodPost, "/api/admin/closings/run", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[api.ScanResultDTO](t, resp)
	assert.Equal(t, []string{due.PilotID}, result.Closed)
	assert.Equal(t, 0, result.Failed)

	// History now lists the closing with a resolvable document URL
	resp = ts.request(t, http.MethodGet, "/api/history", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history := decodeBody[[]api.ClosingDTO](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, due.PilotID, history[0].PilotID)
	assert.Contains(t, history[0].DocumentURL, "http://localhost:8080/files/")

	// A second sweep skips, never double-closes
	resp = ts.request(t, http.MethodPost, "/api/admin/closings/run", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decodeBody[api.ScanResultDTO](t, resp)
	assert.Empty(t, again.Closed)
	assert.Equal(t, 1, again.Skipped)
}

func TestAPI_SweepRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/admin/closings/run", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
