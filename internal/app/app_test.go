package app_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cohortlab/cohort/internal/api"
	"github.com/cohortlab/cohort/internal/app"
	"github.com/cohortlab/cohort/internal/harness"
	"github.com/cohortlab/cohort/internal/session"
)

// writeConfig points the app at a server and an isolated session file.
func writeConfig(t *testing.T, baseURL string) (app.Options, string) {
	t.Helper()
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.toml")
	configPath := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("api_url = %q\nsession_path = %q\n", baseURL, sessionPath)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return app.Options{ConfigPath: configPath, LogLevel: "disabled"}, sessionPath
}

func TestRun_WithoutSessionIsLoginRequired(t *testing.T) {
	opts, _ := writeConfig(t, "http://localhost:4000")

	err := app.Run(context.Background(), opts)
	if !errors.Is(err, app.ErrLoginRequired) {
		t.Fatalf("Run error = %v, want ErrLoginRequired", err)
	}
}

func TestRun_ExpiredTokenIsLoginRequired(t *testing.T) {
	opts, sessionPath := writeConfig(t, "http://localhost:4000")

	claims := jwt.RegisteredClaims{
		Subject:   "10",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	store := session.Open(sessionPath)
	if err := store.Save(session.Session{Token: token, User: api.User{ID: 10}}); err != nil {
		t.Fatal(err)
	}

	err = app.Run(context.Background(), opts)
	if !errors.Is(err, app.ErrLoginRequired) {
		t.Fatalf("Run error = %v, want ErrLoginRequired", err)
	}
}

func TestLoginProfileLogoutLifecycle(t *testing.T) {
	server := harness.New()
	baseURL, err := server.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()

	cohortID := server.SeedCohort("Cohort 4")
	seeded, err := server.SeedUser(api.User{
		Email: "sam@example.com", FirstName: "Sam", Role: api.RoleStudent, CohortID: cohortID,
	}, "swordfish")
	if err != nil {
		t.Fatal(err)
	}

	opts, sessionPath := writeConfig(t, baseURL)
	ctx := context.Background()

	user, err := app.Login(ctx, opts, "sam@example.com", "swordfish")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != seeded.ID {
		t.Fatalf("logged in as user %d, want %d", user.ID, seeded.ID)
	}
	if _, err := os.Stat(sessionPath); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	// Zero id resolves to the logged-in user, who may edit themselves.
	own, perms, err := app.Profile(ctx, opts, 0)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if own.ID != seeded.ID || !perms.CanEdit || !perms.ShowPassword {
		t.Fatalf("own profile = %+v perms = %+v", own, perms)
	}

	results, err := app.Search(ctx, opts, "sam")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != seeded.ID {
		t.Fatalf("search results = %+v", results)
	}

	if err := app.Logout(opts); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := app.Profile(ctx, opts, 0); !errors.Is(err, app.ErrLoginRequired) {
		t.Fatalf("Profile after logout = %v, want ErrLoginRequired", err)
	}
	// Logging out twice is fine.
	if err := app.Logout(opts); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestRegisterJoinsFirstCohort(t *testing.T) {
	server := harness.New()
	baseURL, err := server.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	cohortID := server.SeedCohort("Cohort 4")

	opts, _ := writeConfig(t, baseURL)

	user, err := app.Register(context.Background(), opts, "new@example.com", "swordfish")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != api.RoleStudent {
		t.Fatalf("new user role = %d, want student", user.Role)
	}
	if user.CohortID != cohortID {
		t.Fatalf("new user cohort = %d, want %d", user.CohortID, cohortID)
	}
}
