package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TokenSource supplies the bearer token for authenticated requests. It is
// consulted on every call rather than once at construction so that a login or
// logout between calls takes effect immediately.
type TokenSource interface {
	Token() string
}

// Feed is the part of the client the dashboard store depends on.
// Implemented by *Client; fakes in tests implement it too.
type Feed interface {
	Posts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	UpdatePost(ctx context.Context, id int, req UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, id int) error
	Comments(ctx context.Context, postID int) ([]Comment, error)
	CreateComment(ctx context.Context, postID int, req CreateCommentRequest) (*Comment, error)
	UpdateComment(ctx context.Context, id int, req UpdateCommentRequest) (*Comment, error)
	DeleteComment(ctx context.Context, id int) error
	Cohorts(ctx context.Context) ([]Cohort, error)
	CohortForUser(ctx context.Context, userID int) (*Cohort, error)
}

var _ Feed = (*Client)(nil)

// Client talks to the Cohort Manager HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	log       zerolog.Logger
	userAgent string
}

const (
	defaultBaseURL   = "http://localhost:4000"
	defaultUserAgent = "cohort/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the given base URL. tokens may be nil for a
// client that only performs unauthenticated calls.
func NewClient(baseURL string, tokens TokenSource) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		tokens:    tokens,
		log:       zerolog.Nop(),
		userAgent: defaultUserAgent,
	}, nil
}

// SetLogger installs a logger for per-request diagnostics. Each call logs its
// method and target URL at debug level.
func (c *Client) SetLogger(log zerolog.Logger) {
	c.log = log
}

// Login exchanges credentials for a bearer token. Unauthenticated.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var payload AuthResponse
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/login"}, req, &payload, false); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateUser registers a new account. Unauthenticated.
func (c *Client) CreateUser(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var payload AuthResponse
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/users"}, req, &payload, false); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Users lists every user.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var payload struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/users"}, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// UserByID fetches a single user.
func (c *Client) UserByID(ctx context.Context, id int) (*User, error) {
	var payload struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(id), nil, &payload, true); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// SearchUsers lists users whose first or last name contains name.
func (c *Client) SearchUsers(ctx context.Context, name string) ([]User, error) {
	values := url.Values{}
	values.Set("name", name)
	rel := &url.URL{Path: "/users", RawQuery: values.Encode()}
	var payload struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// UpdateUser patches a user's profile and returns the updated record.
func (c *Client) UpdateUser(ctx context.Context, id int, req UpdateUserRequest) (*User, error) {
	var payload struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, userPath(id), req, &payload, true); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// UpdateUserRaw patches a user's profile and hands back the unparsed response
// for callers that need HTTP-level metadata. The caller owns the body.
func (c *Client) UpdateUserRaw(ctx context.Context, id int, req UpdateUserRequest) (*http.Response, error) {
	return c.doRaw(ctx, http.MethodPatch, userPath(id), req, true)
}

// Posts lists all posts in the server's order (oldest first).
func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	var payload struct {
		Posts []Post `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/posts"}, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload.Posts, nil
}

// CreatePost publishes a new post and returns the server's record of it.
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	var payload struct {
		Post Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/posts"}, req, &payload, true); err != nil {
		return nil, err
	}
	return &payload.Post, nil
}

// UpdatePost patches a post's content.
func (c *Client) UpdatePost(ctx context.Context, id int, req UpdatePostRequest) (*Post, error) {
	var payload struct {
		Post Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodPatch, postPath(id), req, &payload, true); err != nil {
		return nil, err
	}
	return &payload.Post, nil
}

// DeletePost removes a post and everything nested under it.
func (c *Client) DeletePost(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil, true)
}

// Comments lists the comments on one post, oldest first.
func (c *Client) Comments(ctx context.Context, postID int) ([]Comment, error) {
	rel := &url.URL{Path: "/posts/" + strconv.Itoa(postID) + "/comments"}
	var payload struct {
		Comments []Comment `json:"comments"`
	}
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload.Comments, nil
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID int, req CreateCommentRequest) (*Comment, error) {
	rel := &url.URL{Path: "/posts/" + strconv.Itoa(postID) + "/comments"}
	var payload struct {
		Comment Comment `json:"comment"`
	}
	if err := c.do(ctx, http.MethodPost, rel, req, &payload, true); err != nil {
		return nil, err
	}
	return &payload.Comment, nil
}

// UpdateComment patches a comment's content.
func (c *Client) UpdateComment(ctx context.Context, id int, req UpdateCommentRequest) (*Comment, error) {
	var payload struct {
		Comment Comment `json:"comment"`
	}
	if err := c.do(ctx, http.MethodPatch, commentPath(id), req, &payload, true); err != nil {
		return nil, err
	}
	return &payload.Comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, commentPath(id), nil, nil, true)
}

// Cohorts lists every cohort with its courses. Staff view.
func (c *Client) Cohorts(ctx context.Context) ([]Cohort, error) {
	var payload struct {
		Cohorts []Cohort `json:"cohorts"`
	}
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/cohorts"}, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload.Cohorts, nil
}

// CohortForUser fetches the single cohort a user belongs to. Student view.
func (c *Client) CohortForUser(ctx context.Context, userID int) (*Cohort, error) {
	values := url.Values{}
	values.Set("user", strconv.Itoa(userID))
	rel := &url.URL{Path: "/cohorts", RawQuery: values.Encode()}
	var payload struct {
		Cohort Cohort `json:"cohort"`
	}
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return &payload.Cohort, nil
}

// envelope is the single response shape the API speaks. Every 2xx body wraps
// its payload in data; error bodies put a message there instead.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body, dest any, authed bool) error {
	resp, err := c.doRaw(ctx, method, rel, body, authed)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if dest == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Status != "success" {
		return fmt.Errorf("unexpected envelope status %q", env.Status)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method string, rel *url.URL, body any, authed bool) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.log.Debug().Str("method", method).Str("url", reqURL.String()).Msg("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apiErr
	}
	var message string
	if err := json.Unmarshal(env.Data, &message); err == nil {
		apiErr.Message = message
		return apiErr
	}
	// Some error payloads nest the message one level down.
	var nested struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(env.Data, &nested); err == nil && nested.Error != "" {
		apiErr.Message = nested.Error
	}
	return apiErr
}

func userPath(id int) *url.URL {
	return &url.URL{Path: "/users/" + strconv.Itoa(id)}
}

func postPath(id int) *url.URL {
	return &url.URL{Path: "/posts/" + strconv.Itoa(id)}
}

func commentPath(id int) *url.URL {
	return &url.URL{Path: "/comments/" + strconv.Itoa(id)}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
