// Package member covers sacco memberships: the roster, role changes and
// join requests.
package member

import (
	"context"
	"fmt"
	"time"

	"github.com/jmwangi/saccoterm/internal/auth"
)

// API is the slice of the HTTP client the member service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// JoinRequest is a user's pending application to join a sacco.
type JoinRequest struct {
	ID          int64     `json:"id"`
	SaccoID     int64     `json:"sacco"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	RequestDate time.Time `json:"request_date"`
}

func (s *Service) List(ctx context.Context, saccoID int64) ([]auth.Membership, error) {
	var memberships []auth.Membership
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/memberships/", saccoID), &memberships); err != nil {
		return nil, fmt.Errorf("fetching members: %w", err)
	}

	return memberships, nil
}

func (s *Service) Get(ctx context.Context, saccoID, membershipID int64) (auth.Membership, error) {
	var m auth.Membership
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/memberships/%d/", saccoID, membershipID), &m); err != nil {
		return auth.Membership{}, fmt.Errorf("fetching member details: %w", err)
	}

	return m, nil
}

// ForUser finds the user's membership in a sacco, if any.
func (s *Service) ForUser(ctx context.Context, saccoID, userID int64) (*auth.Membership, error) {
	var memberships []auth.Membership
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/memberships/?user=%d", saccoID, userID), &memberships); err != nil {
		return nil, fmt.Errorf("fetching membership: %w", err)
	}

	if len(memberships) == 0 {
		return nil, nil
	}

	return &memberships[0], nil
}

func (s *Service) ChangeRole(ctx context.Context, saccoID, membershipID, roleID int64) (auth.Membership, error) {
	body := map[string]int64{"role_id": roleID}

	var m auth.Membership
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/memberships/%d/change_role/", saccoID, membershipID), body, &m); err != nil {
		return auth.Membership{}, fmt.Errorf("changing role: %w", err)
	}

	return m, nil
}

func (s *Service) Roles(ctx context.Context, saccoID int64) ([]auth.Role, error) {
	var roles []auth.Role
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/roles/", saccoID), &roles); err != nil {
		return nil, fmt.Errorf("fetching roles: %w", err)
	}

	return roles, nil
}

func (s *Service) JoinRequests(ctx context.Context, saccoID int64) ([]JoinRequest, error) {
	var requests []JoinRequest
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/join-requests/", saccoID), &requests); err != nil {
		return nil, fmt.Errorf("fetching join requests: %w", err)
	}

	return requests, nil
}

func (s *Service) ApproveJoinRequest(ctx context.Context, saccoID, requestID int64, message string) error {
	body := map[string]string{"response_message": message}

	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/join-requests/%d/approve/", saccoID, requestID), body, nil); err != nil {
		return fmt.Errorf("approving join request: %w", err)
	}

	return nil
}

func (s *Service) RejectJoinRequest(ctx context.Context, saccoID, requestID int64, message string) error {
	body := map[string]string{"response_message": message}

	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/join-requests/%d/reject/", saccoID, requestID), body, nil); err != nil {
		return fmt.Errorf("rejecting join request: %w", err)
	}

	return nil
}
