package auth

import "sync"

// Session holds the current user for the lifetime of the program. The auth
// service is its only writer; views read it, including from tea.Cmd
// goroutines, hence the lock.
type Session struct {
	mu    sync.RWMutex
	user  *User
	roles RoleIndex
}

func NewSession() *Session {
	return &Session{roles: RoleIndex{}}
}

// SetUser replaces the current user and rebuilds the role index so role
// checks reflect the new membership list immediately.
func (s *Session) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = u
	if u == nil {
		s.roles = RoleIndex{}
		return
	}

	s.roles = NewRoleIndex(u.Memberships)
}

func (s *Session) Clear() {
	s.SetUser(nil)
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user
}

func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return 0
	}

	return s.user.ID
}

func (s *Session) LoggedIn() bool {
	return s.User() != nil
}

func (s *Session) HasRole(saccoID int64, role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.roles.Has(saccoID, role)
}

func (s *Session) IsAdmin(saccoID int64) bool     { return s.HasRole(saccoID, RoleAdmin) }
func (s *Session) IsTreasurer(saccoID int64) bool { return s.HasRole(saccoID, RoleTreasurer) }
func (s *Session) IsSecretary(saccoID int64) bool { return s.HasRole(saccoID, RoleSecretary) }

// IsManager reports whether the user may perform privileged Sacco actions
// (approve, disburse, write off).
func (s *Session) IsManager(saccoID int64) bool {
	return s.IsAdmin(saccoID) || s.IsTreasurer(saccoID)
}
