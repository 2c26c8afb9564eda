// Package auth owns the ambient authenticated identity and the credential
// lifecycle. Resource stores never touch the credential file or navigation
// directly; every session-affecting action goes through Session.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tiendactl/tiendactl/internal/api"
	"github.com/tiendactl/tiendactl/internal/model"
)

// Navigator performs programmatic redirects. The console supplies its
// route loop; tests supply a fake.
type Navigator interface {
	To(route string)
}

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session holds the logged-in user, restores a persisted token at startup
// and performs the auth-error recovery shared by all resource stores.
type Session struct {
	client     *api.Client
	nav        Navigator
	logger     *slog.Logger
	credFile   string
	loginRoute string

	mu      sync.RWMutex
	user    *model.User
	loading bool
}

// NewSession creates a session persisting its token at credFile and
// redirecting to loginRoute on teardown.
func NewSession(client *api.Client, nav Navigator, credFile, loginRoute string, logger *slog.Logger) *Session {
	return &Session{
		client:     client,
		nav:        nav,
		credFile:   credFile,
		loginRoute: loginRoute,
		logger:     logger.With("component", "auth"),
	}
}

// User returns the ambient authenticated identity, nil when logged out.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether a persisted credential is still being verified.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// IsAdmin reports whether the current user holds the admin role.
func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.Rol == model.RoleAdmin
}

type loginResult struct {
	Token   string     `json:"token"`
	Usuario model.User `json:"usuario"`
}

// Login exchanges credentials for a token, persists the token and attaches
// it to the client.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	body, err := s.client.Post(ctx, "/login", creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	result, ok := api.DataRecord[loginResult](body)
	if !ok || result.Token == "" {
		return fmt.Errorf("login failed: malformed response")
	}

	if err := s.persistToken(result.Token); err != nil {
		s.logger.Warn("Could not persist credential", "error", err)
	}
	s.client.SetToken(result.Token)

	s.mu.Lock()
	user := result.Usuario
	s.user = &user
	s.mu.Unlock()
	s.logger.Info("Logged in", "user", user.Nombre, "rol", user.Rol)
	return nil
}

// Restore loads a previously persisted token and re-fetches the identity
// behind it. Best effort: any failure leaves the session logged out.
func (s *Session) Restore(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	raw, err := os.ReadFile(s.credFile)
	if err != nil {
		return
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return
	}
	s.client.SetToken(token)

	body, err := s.client.Get(ctx, "/perfil")
	if err != nil {
		s.logger.Warn("Stored credential rejected", "error", err)
		s.teardown()
		return
	}
	user, ok := api.DataRecord[model.User](body)
	if !ok {
		s.teardown()
		return
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.logger.Info("Session restored", "user", user.Nombre, "rol", user.Rol)
}

// Logout discards the session and returns to the login route.
func (s *Session) Logout() {
	s.teardown()
	s.nav.To(s.loginRoute)
}

// Expire is the auth-error recovery path: an authorization-denied response
// anywhere hard-resets the client session and forces navigation to login.
func (s *Session) Expire() {
	s.logger.Warn("Authorization denied, resetting session")
	s.teardown()
	s.nav.To(s.loginRoute)
}

func (s *Session) teardown() {
	if err := os.Remove(s.credFile); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Could not remove credential file", "error", err)
	}
	s.client.ClearToken()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

func (s *Session) persistToken(token string) error {
	if dir := filepath.Dir(s.credFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create credential dir: %w", err)
		}
	}
	if err := os.WriteFile(s.credFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}
