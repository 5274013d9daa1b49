package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jmwangi/saccoterm/internal/auth"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

type tokenIssuer struct {
	secret []byte
}

func (t tokenIssuer) issue(userID int64, kind tokenKind, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"type": string(kind),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t tokenIssuer) verify(token string, kind tokenKind) (int64, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}

	if !parsed.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}

	if kindClaim, _ := claims["type"].(string); kindClaim != string(kind) {
		return 0, fmt.Errorf("wrong token type %q", kindClaim)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(sub, 10, 64)
}

type ctxKey int

const userKey ctxKey = iota

func userFrom(r *http.Request) *auth.User {
	u, _ := r.Context().Value(userKey).(*auth.User)
	return u
}

// authenticate rejects requests without a valid bearer access token and puts
// the resolved user on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		userID, err := s.tokens.verify(strings.TrimPrefix(header, "Bearer "), kindAccess)
		if err != nil {
			respondDetail(w, http.StatusUnauthorized, "Given token not valid for any token type.")
			return
		}

		s.store.mu.Lock()
		acct := s.store.accounts[userID]
		s.store.mu.Unlock()

		if acct == nil {
			respondDetail(w, http.StatusUnauthorized, "User not found.")
			return
		}

		user := acct.user
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, &user)))
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	acct := s.store.findAccount(req.Email)
	s.store.mu.Unlock()

	if acct == nil || acct.password != req.Password {
		respondDetail(w, http.StatusUnauthorized, "No active account found with the given credentials.")
		return
	}

	s.respondWithTokens(w, acct.user)
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondDetail(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	s.store.mu.Lock()

	if s.store.findAccount(req.Email) != nil {
		s.store.mu.Unlock()
		respondDetail(w, http.StatusBadRequest, "A user with that email already exists.")

		return
	}

	user := auth.User{
		ID:          s.store.id(),
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	}
	s.store.accounts[user.ID] = &account{user: user, password: req.Password}

	s.store.mu.Unlock()

	s.respondWithTokens(w, user)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	userID, err := s.tokens.verify(req.Refresh, kindRefresh)
	if err != nil {
		respondDetail(w, http.StatusUnauthorized, "Token is invalid or expired.")
		return
	}

	access, err := s.tokens.issue(userID, kindAccess, accessTTL)
	if err != nil {
		respondDetail(w, http.StatusInternalServerError, "Could not issue token.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, userFrom(r))
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	acct := s.store.accounts[user.ID]
	if acct == nil || acct.password != req.CurrentPassword {
		respondDetail(w, http.StatusBadRequest, "Current password is incorrect.")
		return
	}

	if len(req.NewPassword) < 8 {
		respondDetail(w, http.StatusBadRequest, "Password must be at least 8 characters.")
		return
	}

	acct.password = req.NewPassword

	respondJSON(w, http.StatusOK, map[string]string{"detail": "Password changed."})
}

// requestPasswordReset always answers 200 so the endpoint never confirms
// whether an email exists.
func (s *Server) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"detail": "Password reset email sent."})
}

func (s *Server) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Token == "" || len(req.Password) < 8 {
		respondDetail(w, http.StatusBadRequest, "Invalid token or password.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"detail": "Password has been reset."})
}

func (s *Server) respondWithTokens(w http.ResponseWriter, user auth.User) {
	access, err := s.tokens.issue(user.ID, kindAccess, accessTTL)
	if err != nil {
		respondDetail(w, http.StatusInternalServerError, "Could not issue token.")
		return
	}

	refresh, err := s.tokens.issue(user.ID, kindRefresh, refreshTTL)
	if err != nil {
		respondDetail(w, http.StatusInternalServerError, "Could not issue token.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"access":  access,
		"refresh": refresh,
		"user":    user,
	})
}
