package auth

import "strings"

// Role names as the API spells them.
const (
	RoleAdmin     = "ADMIN"
	RoleTreasurer = "TREASURER"
	RoleSecretary = "SECRETARY"
)

// User is the authenticated account, including every Sacco membership the
// role predicates are derived from.
type User struct {
	ID          int64        `json:"id"`
	Email       string       `json:"email"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	PhoneNumber string       `json:"phone_number,omitempty"`
	Memberships []Membership `json:"memberships"`
}

func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}

	return name
}

// Membership associates a user with one Sacco under a named role.
type Membership struct {
	ID    int64    `json:"id"`
	Sacco SaccoRef `json:"sacco"`
	Role  Role     `json:"role"`
}

type SaccoRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RoleIndex maps a Sacco id to the set of role names held there. It is
// rebuilt whenever the membership list changes, so lookups never scan and
// never serve stale roles.
type RoleIndex map[int64]map[string]struct{}

func NewRoleIndex(memberships []Membership) RoleIndex {
	idx := make(RoleIndex, len(memberships))

	for _, m := range memberships {
		roles, ok := idx[m.Sacco.ID]
		if !ok {
			roles = make(map[string]struct{}, 1)
			idx[m.Sacco.ID] = roles
		}

		roles[m.Role.Name] = struct{}{}
	}

	return idx
}

func (idx RoleIndex) Has(saccoID int64, role string) bool {
	roles, ok := idx[saccoID]
	if !ok {
		return false
	}

	_, ok = roles[role]

	return ok
}
