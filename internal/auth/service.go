package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// API is the slice of the HTTP client the auth service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

var validate = validator.New()

type Service struct {
	api     API
	store   *FileStore
	session *Session
}

func NewService(api API, store *FileStore, session *Session) *Service {
	return &Service{api: api, store: store, session: session}
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// Login authenticates and persists the returned tokens and user.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := s.api.Post(ctx, "auth/login/", body, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return s.establish(resp)
}

type RegisterParams struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}

	var resp tokenResponse
	if err := s.api.Post(ctx, "auth/register/", params, &resp); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return s.establish(resp)
}

func (s *Service) establish(resp tokenResponse) (*User, error) {
	user := resp.User

	creds := Credentials{Access: resp.Access, Refresh: resp.Refresh, User: &user}
	if err := s.store.Save(creds); err != nil {
		return nil, fmt.Errorf("saving credentials: %w", err)
	}

	s.session.SetUser(&user)

	return &user, nil
}

// Logout clears credentials and the session.
func (s *Service) Logout() error {
	s.session.Clear()

	return s.store.Clear()
}

// CurrentUser fetches a fresh copy of the authenticated user and updates the
// session and the cached snapshot. On failure the stored credentials are
// cleared, matching the server's view that the session is no good.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := s.api.Get(ctx, "users/me/", &user); err != nil {
		s.session.Clear()
		_ = s.store.Clear()

		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	if err := s.store.StoreUser(&user); err != nil {
		return nil, fmt.Errorf("caching current user: %w", err)
	}

	s.session.SetUser(&user)

	return &user, nil
}

// Resume restores a session from the cached user snapshot without a network
// round trip. Returns false when no credentials are stored.
func (s *Service) Resume() bool {
	if s.store.Access() == "" {
		return false
	}

	if u := s.store.User(); u != nil {
		s.session.SetUser(u)
	}

	return true
}

func (s *Service) ChangePassword(ctx context.Context, current, updated string) error {
	body := map[string]string{"current_password": current, "new_password": updated}

	if err := s.api.Post(ctx, "users/change_password/", body, nil); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}

	return nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := s.api.Post(ctx, "auth/reset-password/", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("requesting password reset: %w", err)
	}

	return nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}

	if err := s.api.Post(ctx, "auth/reset-password-confirm/", body, nil); err != nil {
		return fmt.Errorf("confirming password reset: %w", err)
	}

	return nil
}

// AccessExpiry reads the expiry claim from the stored access token. The
// signature is not checked here; the server remains the verifier.
func (s *Service) AccessExpiry() (time.Time, bool) {
	access := s.store.Access()
	if access == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
