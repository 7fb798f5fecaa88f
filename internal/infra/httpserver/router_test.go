package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	appai "github.com/bryanwahyu/aeo-tracker/internal/application/ai"
	appchecks "github.com/bryanwahyu/aeo-tracker/internal/application/checks"
	appprojects "github.com/bryanwahyu/aeo-tracker/internal/application/projects"
	appstats "github.com/bryanwahyu/aeo-tracker/internal/application/stats"
	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	domai "github.com/bryanwahyu/aeo-tracker/internal/domain/ai"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/identity"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/db/memory"
	"github.com/bryanwahyu/aeo-tracker/internal/middleware"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type stubVerifier map[string]*identity.User

func (s stubVerifier) ValidateToken(_ context.Context, token string) (*identity.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, &domain.UnauthorizedError{Message: "Unauthorized"}
}

type stubProvider struct {
	email      string
	redirectTo string
	loggedOut  string
	err        error
}

func (p *stubProvider) SendLoginLink(_ context.Context, email, redirectTo string) error {
	if p.err != nil {
		return p.err
	}
	p.email, p.redirectTo = email, redirectTo
	return nil
}

func (p *stubProvider) Logout(_ context.Context, token string) error {
	if p.err != nil {
		return p.err
	}
	p.loggedOut = token
	return nil
}

type testServer struct {
	handler  http.Handler
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	clock := application.FixedClock(now)

	engines := appai.NewService("", time.Second)
	engines.Register("ChatGPT", domai.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "Acme Widgets and Widget Pro lead the market. See https://acme.com", nil
	}))
	engines.Register("Gemini", domai.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("upstream 502")
	}))

	provider := &stubProvider{}
	h := NewRouter(Deps{
		Projects: &appprojects.Service{Repo: store.Projects(), Clock: clock},
		Checks: &appchecks.Service{
			Projects: store.Projects(),
			Checks:   store.Checks(),
			Failures: store.Failures(),
			Engines:  engines,
			Clock:    clock,
		},
		Stats: &appstats.Service{
			ProjectRepo: store.Projects(),
			CheckRepo:   store.Checks(),
			FailureRepo: store.Failures(),
			Clock:       clock,
		},
		Verifier: stubVerifier{
			"tok-alice": {ID: "alice", Email: "alice@acme.com", Role: "authenticated"},
			"tok-bob":   {ID: "bob", Email: "bob@acme.com", Role: "authenticated"},
		},
		Identity: provider,
		Limiter:  middleware.NewMemoryLimiter(6000, 1000),
		Health: map[string]middleware.HealthChecker{
			"database": middleware.CheckFunc(store.Ping),
		},
		Logger: zap.NewNop(),
	})
	return &testServer{handler: h, provider: provider}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createProject(t *testing.T, token string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/projects", token, map[string]any{
		"name":        "Acme",
		"brand":       "Acme Widgets",
		"domain":      "acme.com",
		"keywords":    []string{"best widgets", "widget store", "best widgets"},
		"competitors": []string{"Widget Pro"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decodeBody[map[string]any](t, rec)
	assert.Equal(t, []any{"best widgets", "widget store"}, p["keywords"])
	return p["id"].(string)
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/health", "/health/live", "/health/ready", "/metrics"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}

	rec := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path, token string
	}{
		{http.MethodGet, "/projects", ""},
		{http.MethodGet, "/api/projects", ""},
		{http.MethodPost, "/api/checks/run", ""},
		{http.MethodGet, "/api/checks/history?projectId=x", "expired"},
		{http.MethodGet, "/api/dashboard/stats?projectId=x", "expired"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}
}

func TestProjects(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t, "tok-alice")

	rec := s.do(t, http.MethodGet, "/api/projects", "tok-alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/projects", "tok-bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/projects/"+id, "tok-bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Project not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/projects/not-a-uuid", "tok-alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/projects/"+id, "tok-alice", map[string]any{
		"keywords": []string{"eco widgets"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decodeBody[map[string]any](t, rec)
	assert.Equal(t, []any{"eco widgets"}, p["keywords"])
	assert.Equal(t, "Acme Widgets", p["brand"])

	t.Run("validation details", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/projects", "tok-alice", map[string]any{"name": "Acme"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "validation failed", body["error"])
		details, ok := body["details"].(map[string]any)
		require.True(t, ok, rec.Body.String())
		assert.Contains(t, details, "brand")
		assert.Contains(t, details, "keywords")
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer tok-alice")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())
	})
}

func TestRunChecksAndStats(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t, "tok-alice")

	rec := s.do(t, http.MethodPost, "/api/checks/run", "tok-alice", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"projectId required"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/checks/run", "tok-bob", map[string]string{"projectId": id})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/checks/run", "tok-alice", map[string]string{"projectId": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run struct {
		Success       bool             `json:"success"`
		ChecksCreated int              `json:"checksCreated"`
		Results       []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.Success)
	assert.Equal(t, 2, run.ChecksCreated)
	require.Len(t, run.Results, 2)
	for _, c := range run.Results {
		assert.Equal(t, "ChatGPT", c["engine"])
		assert.Equal(t, true, c["presence"])
		assert.Equal(t, []any{"Widget Pro"}, c["competitorsMentioned"])
	}

	rec = s.do(t, http.MethodGet, "/api/checks/history?projectId="+id+"&days=7", "tok-alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/checks/history", "tok-alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"projectId required"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/checks/failures?projectId="+id+"&limit=1", "tok-alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	failures := decodeBody[[]map[string]any](t, rec)
	require.Len(t, failures, 1)
	assert.Equal(t, "Gemini", failures[0]["engine"])
	assert.Equal(t, "generate", failures[0]["phase"])

	rec = s.do(t, http.MethodGet, "/api/dashboard/stats?projectId="+id, "tok-alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decodeBody[map[string]any](t, rec)
	assert.EqualValues(t, 100, stats["visibilityScore"])
	assert.EqualValues(t, 2, stats["totalChecks"])
	assert.EqualValues(t, 2, stats["presenceCount"])
	assert.Len(t, stats["engineStats"], 1)
	assert.Len(t, stats["trend"], 1)
	assert.Len(t, stats["keywordPerformance"], 2)
	assert.NotNil(t, stats["recommendations"])
	assert.Equal(t, id, stats["project"].(map[string]any)["id"])
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":      " owner@acme.com ",
		"redirectTo": "https://app.acme.com/auth/callback",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Check your email for the magic link!","success":true}`, rec.Body.String())
	assert.Equal(t, "owner@acme.com", s.provider.email)
	assert.Equal(t, "https://app.acme.com/auth/callback", s.provider.redirectTo)

	rec = s.do(t, http.MethodGet, "/api/auth/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":null}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/session", "tok-alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":"alice","email":"alice@acme.com","role":"authenticated"}}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/auth/logout", "tok-alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "tok-alice", s.provider.loggedOut)

	s.provider.err = errors.New("email rate limit exceeded")
	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@acme.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"email rate limit exceeded"}`, rec.Body.String())
}

func TestWrap_ErrorMapping(t *testing.T) {
	r := &Router{logger: zap.NewNop()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"not found", domain.NewNotFound("Project not found"), http.StatusNotFound, `{"error":"Project not found"}`},
		{"unauthorized", &domain.UnauthorizedError{Message: "Unauthorized"}, http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"quota", fmt.Errorf("ChatGPT: %w", domai.ErrQuotaExceeded), http.StatusTooManyRequests, `{"error":"ai quota exceeded"}`},
		{"unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := r.wrap(func(http.ResponseWriter, *http.Request) error { return tt.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
