package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmwangi/saccoterm/internal/auth"
)

func membershipsFixture() []auth.Membership {
	return []auth.Membership{
		{ID: 1, Sacco: auth.SaccoRef{ID: 10, Name: "Umoja Growers"}, Role: auth.Role{ID: 1, Name: auth.RoleAdmin}},
		{ID: 2, Sacco: auth.SaccoRef{ID: 10, Name: "Umoja Growers"}, Role: auth.Role{ID: 2, Name: auth.RoleTreasurer}},
		{ID: 3, Sacco: auth.SaccoRef{ID: 20, Name: "Harambee Traders"}, Role: auth.Role{ID: 3, Name: "MEMBER"}},
	}
}

func TestNewRoleIndex(t *testing.T) {
	idx := auth.NewRoleIndex(membershipsFixture())

	assert.True(t, idx.Has(10, auth.RoleAdmin))
	assert.True(t, idx.Has(10, auth.RoleTreasurer))
	assert.False(t, idx.Has(10, auth.RoleSecretary))

	// Roles never leak across saccos.
	assert.False(t, idx.Has(20, auth.RoleAdmin))
	assert.True(t, idx.Has(20, "MEMBER"))

	assert.False(t, idx.Has(99, auth.RoleAdmin))
}

func TestNewRoleIndexEmpty(t *testing.T) {
	idx := auth.NewRoleIndex(nil)

	assert.False(t, idx.Has(10, auth.RoleAdmin))
}

func TestSessionRoles(t *testing.T) {
	s := auth.NewSession()

	assert.False(t, s.LoggedIn())
	assert.False(t, s.IsManager(10))
	assert.Zero(t, s.UserID())

	s.SetUser(&auth.User{ID: 7, Email: "treasurer@example.com", Memberships: membershipsFixture()})

	assert.True(t, s.LoggedIn())
	assert.Equal(t, int64(7), s.UserID())
	assert.True(t, s.IsAdmin(10))
	assert.True(t, s.IsTreasurer(10))
	assert.True(t, s.IsManager(10))
	assert.False(t, s.IsManager(20))
	assert.False(t, s.IsSecretary(10))
}

func TestSessionRebuildsIndexOnSetUser(t *testing.T) {
	s := auth.NewSession()
	s.SetUser(&auth.User{ID: 7, Memberships: membershipsFixture()})

	// Losing the treasurer membership must drop the manager predicate.
	s.SetUser(&auth.User{ID: 7, Memberships: []auth.Membership{
		{ID: 3, Sacco: auth.SaccoRef{ID: 10}, Role: auth.Role{ID: 3, Name: "MEMBER"}},
	}})

	assert.False(t, s.IsManager(10))
	assert.True(t, s.HasRole(10, "MEMBER"))
}

func TestSessionClear(t *testing.T) {
	s := auth.NewSession()
	s.SetUser(&auth.User{ID: 7, Memberships: membershipsFixture()})
	s.Clear()

	assert.False(t, s.LoggedIn())
	assert.False(t, s.IsManager(10))
}

func TestFullName(t *testing.T) {
	u := &auth.User{FirstName: "Jane", LastName: "Wambui", Email: "jane@example.com"}
	assert.Equal(t, "Jane Wambui", u.FullName())

	bare := &auth.User{Email: "jane@example.com"}
	assert.Equal(t, "jane@example.com", bare.FullName())
}
