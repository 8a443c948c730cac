package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohortlab/cohort/internal/api"
	"github.com/cohortlab/cohort/internal/config"
	"github.com/cohortlab/cohort/internal/feed"
	"github.com/cohortlab/cohort/internal/profile"
	"github.com/cohortlab/cohort/internal/session"
	"github.com/cohortlab/cohort/internal/ui"
)

// ErrLoginRequired reports that no usable session exists. Callers
// should direct the user to the login command.
var ErrLoginRequired = errors.New("not logged in (run: cohort login)")

// Options configure the cohort application.
type Options struct {
	ConfigPath string
	ThemeName  string
	LogLevel   string // overrides the configured level when set
}

// env is the wired set of collaborators every command starts from.
type env struct {
	cfg      config.Config
	sessions *session.Store
	client   *api.Client
	log      zerolog.Logger
}

func bootstrap(opts Options) (env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return env{}, fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg, opts)
	if err != nil {
		return env{}, err
	}

	sessions := session.Open(cfg.SessionPath)

	client, err := api.NewClient(cfg.BaseURL, sessions)
	if err != nil {
		return env{}, fmt.Errorf("init api client: %w", err)
	}
	client.SetLogger(log)

	return env{cfg: cfg, sessions: sessions, client: client, log: log}, nil
}

func newLogger(cfg config.Config, opts Options) (zerolog.Logger, error) {
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger(), nil
}

// requireSession returns the current session or ErrLoginRequired when
// there is none or the token has expired.
func (e env) requireSession() (session.Session, error) {
	current, ok := e.sessions.Current()
	if !ok {
		return session.Session{}, ErrLoginRequired
	}
	if e.sessions.Expired(time.Now()) {
		return session.Session{}, fmt.Errorf("session expired: %w", ErrLoginRequired)
	}
	return current, nil
}

// Run boots the dashboard TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	e, err := bootstrap(opts)
	if err != nil {
		return err
	}

	current, err := e.requireSession()
	if err != nil {
		return err
	}

	store := feed.NewStore(e.client, current.User, e.log)

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    e.client,
		Store:     store,
		Config:    &e.cfg,
		ThemeName: opts.ThemeName,
	})
}

// Login authenticates against the server and persists the session.
func Login(ctx context.Context, opts Options, email, password string) (*api.User, error) {
	e, err := bootstrap(opts)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Save(session.Session{Token: resp.Token, User: resp.User}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.User, nil
}

// Register creates an account and persists the resulting session.
func Register(ctx context.Context, opts Options, email, password string) (*api.User, error) {
	e, err := bootstrap(opts)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.CreateUser(ctx, api.RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Save(session.Session{Token: resp.Token, User: resp.User}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp.User, nil
}

// Logout discards the stored session. Logging out twice is fine.
func Logout(opts Options) error {
	e, err := bootstrap(opts)
	if err != nil {
		return err
	}
	return e.sessions.Clear()
}

// Profile fetches a user and the viewer's permissions over them. A
// zero id means the logged-in user's own profile.
func Profile(ctx context.Context, opts Options, id int) (*api.User, profile.Permissions, error) {
	e, err := bootstrap(opts)
	if err != nil {
		return nil, profile.Permissions{}, err
	}

	current, err := e.requireSession()
	if err != nil {
		return nil, profile.Permissions{}, err
	}

	if id == 0 {
		id = current.User.ID
	}
	user, err := e.client.UserByID(ctx, id)
	if err != nil {
		return nil, profile.Permissions{}, err
	}
	return user, profile.PermissionsFor(current.User, *user), nil
}

// Search finds users by name.
func Search(ctx context.Context, opts Options, name string) ([]api.User, error) {
	e, err := bootstrap(opts)
	if err != nil {
		return nil, err
	}

	if _, err := e.requireSession(); err != nil {
		return nil, err
	}
	return e.client.SearchUsers(ctx, name)
}
