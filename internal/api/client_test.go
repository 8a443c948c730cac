package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func envelopeBody(key string, value any) map[string]any {
	return map[string]any{
		"status": "success",
		"data":   map[string]any{key: value},
	}
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("base = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("api.example.com:4000")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "api.example.com:4000" {
		t.Fatalf("url = %q, want http scheme and host preserved", u.String())
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_AttachesBearerTokenAtCallTime(t *testing.T) {
	t.Parallel()

	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelopeBody("posts", []Post{}))
	}))
	t.Cleanup(server.Close)

	tokens := &rotatingTokens{}
	c, err := NewClient(server.URL, tokens)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	if _, err := c.Posts(ctx); err != nil {
		t.Fatalf("Posts returned error: %v", err)
	}
	tokens.current = "tok-2"
	if _, err := c.Posts(ctx); err != nil {
		t.Fatalf("Posts returned error: %v", err)
	}

	if len(gotAuth) != 2 {
		t.Fatalf("requests = %d, want 2", len(gotAuth))
	}
	if gotAuth[0] != "" {
		t.Fatalf("first Authorization = %q, want empty before login", gotAuth[0])
	}
	if gotAuth[1] != "Bearer tok-2" {
		t.Fatalf("second Authorization = %q, want fresh token", gotAuth[1])
	}
}

type rotatingTokens struct {
	current string
}

func (r *rotatingTokens) Token() string { return r.current }

func TestClient_LoginSkipsAuthAndDecodesEnvelope(t *testing.T) {
	t.Parallel()

	var gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": AuthResponse{
				Token: "issued-token",
				User:  User{ID: 7, Email: "student@example.com"},
			},
		})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, staticTokens("stale"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	resp, err := c.Login(context.Background(), LoginRequest{Email: "student@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want none on login", gotAuth)
	}
	if !strings.Contains(gotBody, `"student@example.com"`) {
		t.Fatalf("request body = %q, want JSON credentials", gotBody)
	}
	if resp.Token != "issued-token" || resp.User.ID != 7 {
		t.Fatalf("Login payload = %#v, want issued token and user 7", resp)
	}
}

func TestClient_EncodesQueryParameters(t *testing.T) {
	t.Parallel()

	var gotUsersQuery, gotCohortsQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users":
			gotUsersQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(envelopeBody("users", []User{{ID: 1}}))
		case "/cohorts":
			gotCohortsQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(envelopeBody("cohort", Cohort{ID: 3}))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, staticTokens("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	users, err := c.SearchUsers(context.Background(), "Nathan")
	if err != nil {
		t.Fatalf("SearchUsers returned error: %v", err)
	}
	if len(users) != 1 || gotUsersQuery.Get("name") != "Nathan" {
		t.Fatalf("SearchUsers query = %v, want name=Nathan", gotUsersQuery)
	}

	cohort, err := c.CohortForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("CohortForUser returned error: %v", err)
	}
	if cohort.ID != 3 || gotCohortsQuery.Get("user") != "42" {
		t.Fatalf("CohortForUser query = %v, want user=42", gotCohortsQuery)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/posts":
			_, _ = w.Write([]byte("{not-json"))
		case "/users":
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "fail",
				"data":   "Invalid or missing token",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, staticTokens("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Posts(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Posts error = %v, want decode response error", err)
	}

	_, err = c.Users(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("Users error = %v, want unauthorized api error", err)
	}
	if !strings.Contains(err.Error(), "Invalid or missing token") {
		t.Fatalf("Users error = %v, want server message preserved", err)
	}
}

func TestClient_RejectsUnexpectedEnvelopeStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "partial", "data": map[string]any{}})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Posts(context.Background())
	if err == nil || !strings.Contains(err.Error(), "envelope status") {
		t.Fatalf("Posts error = %v, want envelope status error", err)
	}
}

func TestClient_UpdateUserRawReturnsResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/9" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(envelopeBody("user", User{ID: 9, FirstName: "X Updated"}))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, staticTokens("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	first := "X Updated"
	resp, err := c.UpdateUserRaw(context.Background(), 9, UpdateUserRequest{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateUserRaw returned error: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 visible to caller", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "X Updated") {
		t.Fatalf("body = %q, want unparsed envelope", body)
	}
}

func TestClient_DeleteSendsNoBodyAndAcceptsEmptyResponse(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, staticTokens("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if err := c.DeleteComment(context.Background(), 14); err != nil {
		t.Fatalf("DeleteComment returned error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/comments/14" {
		t.Fatalf("request = %s %s, want DELETE /comments/14", gotMethod, gotPath)
	}
}
