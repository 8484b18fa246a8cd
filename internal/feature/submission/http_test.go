package submission

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"event-portal/internal/core/auth"
	"event-portal/internal/core/config"
	"event-portal/internal/transport/http/router"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

type testServer struct {
	api, admin *gin.Engine
	token      string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	jwter := &auth.JWTer{Secret: []byte("test"), Issuer: "test", TTL: time.Minute}
	reg := (&router.Registry{}).Register(NewModule(svc, jwter))
	opts := router.Options{Log: zap.NewNop(), Limits: config.Limits{MaxBodyBytes: 1 << 16, TimeoutSec: 5}}
	tok, err := jwter.Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)
	return testServer{
		api:   router.NewAPIEngine(opts, reg),
		admin: router.NewAdminEngine(opts, reg),
		token: tok,
	}
}

func call(t *testing.T, h http.Handler, method, target string, body any, token string) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestHTTPCreateAndLookup(t *testing.T) {
	s := newTestServer(t)

	code, env := call(t, s.api, http.MethodPost, "/api/v1/event?action=create", registrationJSON("Jane@Example.com"), "")
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)
	var created struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "registration", created.Type)

	code, env = call(t, s.api, http.MethodGet, "/api/v1/event?action=find_by_email&email=jane@example.com", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), created.ID)

	code, env = call(t, s.api, http.MethodGet, "/api/v1/event?action=find_by_id&id=nope", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "null", string(env.Data))

	code, _ = call(t, s.api, http.MethodPost, "/api/v1/event?action=create", []byte(`{"type":"registration"}`), "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, s.api, http.MethodGet, "/api/v1/event?action=create", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Endpoint action not found or invalid request method.", *env.Error)
}

func TestHTTPPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	_, env := call(t, s.api, http.MethodPost, "/api/v1/event?action=create", showcaseJSON("sam@example.com"), "")
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, _ := call(t, s.admin, http.MethodPost, "/admin/v1/event?action=mark_pending", map[string]any{"ids": []string{created.ID}}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = call(t, s.admin, http.MethodPost, "/admin/v1/event?action=mark_pending",
		map[string]any{"ids": []string{created.ID, "ghost"}}, s.token)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"updatedCount":1,"requestedIds":["`+created.ID+`","ghost"]}`, string(env.Data))

	code, _ = call(t, s.api, http.MethodPost, "/api/v1/event?action=update_status", map[string]any{
		"id":      created.ID,
		"updates": map[string]any{"status": "awaiting_confirmation", "paymentMethod": "bank_transfer", "receiptNumber": "RC-1234"},
	}, "")
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, s.api, http.MethodGet, "/api/v1/event?action=payment_details&id="+created.ID, nil, "")
	require.Equal(t, http.StatusOK, code)
	var view PaymentView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "awaiting_confirmation", string(view.NextStep))
	assert.Equal(t, "First Bank", view.Bank.BankName)

	code, env = call(t, s.admin, http.MethodPost, "/admin/v1/event?action=confirm_payment", map[string]any{"id": created.ID}, s.token)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"paid"`)
	assert.Contains(t, string(env.Data), `"paymentMethod":"bank_transfer"`)

	code, _ = call(t, s.api, http.MethodPost, "/api/v1/event?action=update_status", map[string]any{
		"id": created.ID, "updates": map[string]any{"status": "payment_pending"},
	}, "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestHTTPAdminListing(t *testing.T) {
	s := newTestServer(t)
	call(t, s.api, http.MethodPost, "/api/v1/event?action=create", registrationJSON("a@example.com"), "")
	call(t, s.api, http.MethodPost, "/api/v1/event?action=create", showcaseJSON("b@example.com"), "")

	code, env := call(t, s.admin, http.MethodGet, "/admin/v1/event?action=get_all&type=showcases", nil, s.token)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "showcase", list[0]["type"])

	code, env = call(t, s.admin, http.MethodGet, "/admin/v1/event?action=get_all", nil, s.token)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	code, _ = call(t, s.admin, http.MethodGet, "/admin/v1/event?action=get_all&type=talks", nil, s.token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, s.admin, http.MethodPost, "/admin/v1/event?action=update_submission", map[string]any{
		"id": "ghost", "type": "registration", "updates": map[string]any{"job_title": "CTO"},
	}, s.token)
	assert.Equal(t, http.StatusNotFound, code)
}
