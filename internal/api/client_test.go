package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/internlink/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *Client {
	return NewClient(http.DefaultClient, Config{BaseURL: baseURL}, testLogger(), nil)
}

func TestClient_SetsCommonHeaders(t *testing.T) {
	var gotRequestID, gotUserAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.ListInternships(context.Background(), InternshipFilter{}); err != nil {
		t.Fatalf("ListInternships returned error: %v", err)
	}

	if gotRequestID == "" {
		t.Error("X-Request-ID header was not set")
	}
	if gotUserAgent != "InternLink-CLI/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, "InternLink-CLI/1.0")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want %q", gotAccept, "application/json")
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.Identity{ID: 1, Username: "alice"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.SetTokenFunc(func() string { return "token-123" })

	if _, err := client.FetchMe(context.Background()); err != nil {
		t.Fatalf("FetchMe returned error: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer token-123")
	}
}

func TestClient_EmptyToken_NoAuthorizationHeader(t *testing.T) {
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.SetTokenFunc(func() string { return "" })

	if _, err := client.ListInternships(context.Background(), InternshipFilter{}); err != nil {
		t.Fatalf("ListInternships returned error: %v", err)
	}
	if hasAuth {
		t.Error("Authorization header was set for an empty token")
	}
}

func TestClient_Unauthorized_FiresAuthFailureHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Given token not valid for any token type"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hookCalls := 0
	client.SetAuthFailureFunc(func() { hookCalls++ })

	_, err := client.FetchMe(context.Background())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthenticated {
		t.Fatalf("FetchMe error = %v, want UNAUTHENTICATED", err)
	}
	if hookCalls != 1 {
		t.Errorf("auth failure hook called %d times, want 1", hookCalls)
	}
}

func TestClient_Forbidden_FiresAuthFailureHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "You do not have permission to perform this action."}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hookCalls := 0
	client.SetAuthFailureFunc(func() { hookCalls++ })

	_, err := client.CreateInternship(context.Background(), InternshipDraft{Title: "x"})
	_ = err

	if hookCalls != 1 {
		t.Errorf("auth failure hook called %d times, want 1", hookCalls)
	}
}

func TestClient_Authenticate_RejectedMapsToInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "No active account found with the given credentials"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hookCalls := 0
	client.SetAuthFailureFunc(func() { hookCalls++ })

	_, err := client.Authenticate(context.Background(), "alice", "wrong")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Authenticate error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
	}
	// バックエンドのdetailをそのまま表示する
	if apiErr.Message != "No active account found with the given credentials" {
		t.Errorf("error message = %q, want the backend detail verbatim", apiErr.Message)
	}
	// クレデンシャル交換の失敗はセッション降格の対象ではない
	if hookCalls != 0 {
		t.Errorf("auth failure hook called %d times during credential exchange, want 0", hookCalls)
	}
}

func TestClient_Authenticate_MissingAccessToken_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Authenticate(context.Background(), "alice", "secret"); err == nil {
		t.Fatal("Authenticate succeeded with an empty access token, want error")
	}
}

func TestClient_BadRequest_MapsFieldErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["A user with that username already exists."], "email": ["Enter a valid email address."]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Register(context.Background(), RegisterRequest{Username: "alice", Role: model.RoleStudent})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("Register error = %v, want VALIDATION_ERROR", err)
	}
	if got := apiErr.FieldErrors["username"]; len(got) != 1 || got[0] != "A user with that username already exists." {
		t.Errorf("username field errors = %v", got)
	}
	if got := apiErr.FieldErrors["email"]; len(got) != 1 {
		t.Errorf("email field errors = %v", got)
	}
}

func TestClient_BadRequest_StringDetailBecomesFieldError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "You have already applied to this internship."}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Apply(context.Background(), 7)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("Apply error = %v, want VALIDATION_ERROR", err)
	}
	if got := apiErr.FieldErrors["detail"]; len(got) != 1 {
		t.Errorf("detail field errors = %v", got)
	}
}

func TestClient_NotFound_MapsToNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetInternship(context.Background(), 999)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Fatalf("GetInternship error = %v, want NOT_FOUND", err)
	}
}

func TestClient_ConnectionFailure_MapsToNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 即座に閉じて接続エラーを起こす

	client := newTestClient(server.URL)
	_, err := client.ListInternships(context.Background(), InternshipFilter{})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNetwork {
		t.Fatalf("ListInternships error = %v, want NETWORK_ERROR", err)
	}
}

func TestClient_ServerLogout_DoesNotFireAuthFailureHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token already revoked"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	hookCalls := 0
	client.SetAuthFailureFunc(func() { hookCalls++ })

	// ログアウト中の401は「既にログアウト済み」と同義であり降格不要
	_ = client.ServerLogout(context.Background())
	if hookCalls != 0 {
		t.Errorf("auth failure hook called %d times during logout, want 0", hookCalls)
	}
}

func TestInternshipFilter_Query(t *testing.T) {
	min, max := int64(1000), int64(5000)
	filter := InternshipFilter{
		Search:     "backend",
		Location:   "tokyo",
		Type:       "remote",
		StipendMin: &min,
		StipendMax: &max,
		Ordering:   "-posted_on",
	}

	got := filter.query()
	want := map[string]string{
		"search":              "backend",
		"location__icontains": "tokyo",
		"internship_type":     "remote",
		"stipend__gte":        "1000",
		"stipend__lte":        "5000",
		"ordering":            "-posted_on",
	}
	for key, value := range want {
		if !containsParam(got, key, value) {
			t.Errorf("query %q missing %s=%s", got, key, value)
		}
	}
}

func containsParam(query, key, value string) bool {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return false
	}
	return values.Get(key) == value
}
