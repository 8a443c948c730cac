// Package harness runs an in-memory Cohort Manager API server. It backs the
// end-to-end tests and the dev-server command, speaking the same REST surface
// and response envelope as the production API with all state held in memory.
package harness

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cohortlab/cohort/internal/api"
)

const (
	tokenIssuer   = "cohort-api"
	tokenAudience = "cohort-client"
	tokenLifetime = 7 * 24 * time.Hour
)

type userRecord struct {
	user         api.User
	passwordHash []byte
}

type cohortRecord struct {
	id    int
	title string
}

// Server is an in-memory Cohort Manager API instance.
type Server struct {
	app    *fiber.App
	secret []byte

	mu       sync.Mutex
	nextID   int
	users    map[int]*userRecord
	posts    map[int]*api.Post
	comments map[int][]api.Comment // keyed by post id, oldest first
	postIDs  []int                 // insertion order
	cohorts  []cohortRecord

	listener net.Listener
}

// New builds a server with empty tables and a random signing secret.
func New() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		nextID:   1,
		users:    make(map[int]*userRecord),
		posts:    make(map[int]*api.Post),
		comments: make(map[int][]api.Comment),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fail(c, fiber.StatusInternalServerError, err.Error())
		},
	})

	app.Post("/login", s.login)
	app.Post("/users", s.register)

	protected := app.Group("", s.authRequired())
	protected.Get("/users", s.listUsers)
	protected.Get("/users/:id", s.getUser)
	protected.Patch("/users/:id", s.updateUser)
	protected.Get("/posts", s.listPosts)
	protected.Post("/posts", s.createPost)
	protected.Patch("/posts/:id", s.updatePost)
	protected.Delete("/posts/:id", s.deletePost)
	protected.Get("/posts/:id/comments", s.listComments)
	protected.Post("/posts/:id/comments", s.createComment)
	protected.Patch("/comments/:id", s.updateComment)
	protected.Delete("/comments/:id", s.deleteComment)
	protected.Get("/cohorts", s.cohortsHandler)

	s.app = app
	return s
}

// Start begins serving on a random loopback port and returns the base URL.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	go func() {
		_ = s.app.Listener(ln)
	}()
	return "http://" + ln.Addr().String(), nil
}

// ListenAndServe serves on addr until the process exits. Used by the
// dev-server command.
func (s *Server) ListenAndServe(addr string) error {
	return s.app.Listen(addr)
}

// Close shuts the server down.
func (s *Server) Close() error {
	return s.app.Shutdown()
}

// SeedCohort registers a cohort and returns its id.
func (s *Server) SeedCohort(title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.cohorts = append(s.cohorts, cohortRecord{id: id, title: title})
	return id
}

// SeedUser inserts a user with the given password and returns the stored
// record with its assigned id.
func (s *Server) SeedUser(u api.User, password string) (api.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return api.User{}, fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = &userRecord{user: u, passwordHash: hash}
	return u, nil
}

// IssueToken signs a bearer token for an existing user. Tests use it to build
// sessions without going through login.
func (s *Server) IssueToken(userID int) (string, error) {
	return s.generateToken(userID)
}

func (s *Server) generateToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(tokenLifetime).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// authRequired parses and validates the bearer token, storing the user id in
// the request context.
func (s *Server) authRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		if tokenString == "" {
			return fail(c, fiber.StatusUnauthorized, "Authorization required")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return s.secret, nil
		}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
		if err != nil || !token.Valid {
			return fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "Invalid token claims")
		}
		sub, ok := claims["sub"].(string)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "Invalid subject claim")
		}
		userID, err := strconv.Atoi(sub)
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, "Invalid user ID in token")
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// respond writes the success envelope with data under the given key.
func respond(c *fiber.Ctx, status int, key string, value any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{key: value},
	})
}

// fail writes the error envelope with a bare message as data.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"data":   message,
	})
}
