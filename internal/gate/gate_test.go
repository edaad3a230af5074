// Copyright (C) 2019 Nicola Murino
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTokenStore struct {
	access string
	admin  string
}

func (s *memoryTokenStore) AccessToken() string { return s.access }
func (s *memoryTokenStore) AdminToken() string  { return s.admin }
func (s *memoryTokenStore) ClearAccessToken()   { s.access = "" }
func (s *memoryTokenStore) ClearAdminToken()    { s.admin = "" }

func newTestLookup(role string, profileComplete bool) IdentityLookup {
	return func(_ context.Context, token string) (*UserRecord, error) {
		if token != "valid-token" {
			return nil, errors.New("unauthorized")
		}
		return &UserRecord{
			ID:              "1",
			Email:           "user@example.com",
			Role:            role,
			ProfileComplete: profileComplete,
		}, nil
	}
}

func failingLookup(_ context.Context, _ string) (*UserRecord, error) {
	return nil, errors.New("token expired")
}

func TestInitializeNoTokens(t *testing.T) {
	store := &memoryTokenStore{admin: "stale-admin-token"}
	g := New(store, newTestLookup(RoleStudent, true))
	require.False(t, g.Session().Ready())

	g.Initialize(context.Background())

	session := g.Session()
	assert.True(t, session.Ready())
	assert.False(t, session.IsAuthenticated)
	assert.False(t, session.IsAdminAuthenticated)
	assert.False(t, session.ProfileComplete)
	assert.Nil(t, session.CurrentUser)
	assert.Empty(t, store.admin, "a dangling admin token must be discarded")

	decision := Resolve(session.State(), DashboardPath)
	assert.Equal(t, RedirectTo(LoginPath), decision)
}

func TestInitializeStudentIncompleteProfile(t *testing.T) {
	store := &memoryTokenStore{access: "valid-token"}
	g := New(store, newTestLookup("student", false))

	g.Initialize(context.Background())

	session := g.Session()
	assert.True(t, session.IsAuthenticated)
	assert.False(t, session.IsAdminAuthenticated)
	assert.False(t, session.ProfileComplete)
	require.NotNil(t, session.CurrentUser)
	assert.True(t, session.CurrentUser.HasRole(RoleStudent))

	assert.Equal(t, RedirectTo(CompleteProfilePath), Resolve(session.State(), DashboardPath))
	assert.Equal(t, Render(), Resolve(session.State(), CompleteProfilePath))
}

func TestInitializeStudentCompleteProfile(t *testing.T) {
	store := &memoryTokenStore{access: "valid-token"}
	g := New(store, newTestLookup("Student", true))

	g.Initialize(context.Background())

	session := g.Session()
	assert.True(t, session.IsAuthenticated)
	assert.True(t, session.ProfileComplete)

	assert.Equal(t, RedirectTo(DashboardPath), Resolve(session.State(), LoginPath))
}

func TestInitializeAdmin(t *testing.T) {
	store := &memoryTokenStore{
		access: "valid-token",
		admin:  "valid-admin-token",
	}
	// the stored completion flag is false, the ADMIN role must override it
	g := New(store, newTestLookup("admin", false))

	g.Initialize(context.Background())

	session := g.Session()
	assert.True(t, session.IsAuthenticated)
	assert.True(t, session.IsAdminAuthenticated)
	assert.True(t, session.ProfileComplete)
	require.NotNil(t, session.CurrentUser)
	assert.True(t, session.CurrentUser.IsAdmin())
	assert.Equal(t, "valid-admin-token", store.admin)

	assert.Equal(t, Render(), Resolve(session.State(), "/admin/jobs"))
	assert.Equal(t, RedirectTo(AdminPath), Resolve(session.State(), AdminLoginPath))
}

func TestInitializeStaleAdminToken(t *testing.T) {
	store := &memoryTokenStore{
		access: "valid-token",
		admin:  "stale-admin-token",
	}
	g := New(store, newTestLookup(RoleStudent, true))

	g.Initialize(context.Background())

	session := g.Session()
	assert.True(t, session.IsAuthenticated)
	assert.False(t, session.IsAdminAuthenticated)
	assert.Empty(t, store.admin, "an admin token stored for a non-admin user must be discarded")

	assert.Equal(t, RedirectTo(AdminLoginPath), Resolve(session.State(), AdminPath))
}

func TestInitializeLookupFailure(t *testing.T) {
	store := &memoryTokenStore{
		access: "expired-token",
		admin:  "admin-token",
	}
	g := New(store, failingLookup)

	g.Initialize(context.Background())

	session := g.Session()
	assert.True(t, session.Ready(), "the gate must terminate in a definite state on failure")
	assert.False(t, session.IsAuthenticated)
	assert.False(t, session.IsAdminAuthenticated)
	assert.False(t, session.ProfileComplete)
	assert.Nil(t, session.CurrentUser)
	assert.Empty(t, store.access)
	assert.Empty(t, store.admin)

	assert.Equal(t, RedirectTo(LoginPath), Resolve(session.State(), ProfilePath))
}

func TestLoginRereadsStore(t *testing.T) {
	store := &memoryTokenStore{}
	g := New(store, newTestLookup(RoleStudent, true))
	g.Initialize(context.Background())
	assert.False(t, g.Session().IsAuthenticated)

	// an external login flow stored a fresh token
	store.access = "valid-token"
	g.Login(context.Background())
	assert.True(t, g.Session().IsAuthenticated)
	assert.True(t, g.Session().ProfileComplete)
}

func TestLogout(t *testing.T) {
	store := &memoryTokenStore{
		access: "valid-token",
		admin:  "valid-admin-token",
	}
	g := New(store, newTestLookup(RoleAdmin, true))
	g.Initialize(context.Background())
	require.True(t, g.Session().IsAdminAuthenticated)

	g.Logout()

	session := g.Session()
	assert.False(t, session.IsAuthenticated)
	assert.False(t, session.IsAdminAuthenticated)
	assert.Nil(t, session.CurrentUser)
	assert.Empty(t, store.access)
	// the admin slot is only cleared by AdminLogout or by the next rebuild
	assert.Equal(t, "valid-admin-token", store.admin)

	g.Initialize(context.Background())
	assert.Empty(t, store.admin)
}

func TestAdminLoginTrustsCaller(t *testing.T) {
	store := &memoryTokenStore{access: "valid-token"}
	g := New(store, newTestLookup(RoleStudent, true))
	g.Initialize(context.Background())
	require.False(t, g.Session().IsAdminAuthenticated)

	// the caller is trusted to have verified the role server-side,
	// the flag is set without a new lookup
	store.admin = "admin-token"
	g.AdminLogin()
	assert.True(t, g.Session().IsAdminAuthenticated)

	// the next rebuild re-validates and heals the mismatch
	g.Initialize(context.Background())
	assert.False(t, g.Session().IsAdminAuthenticated)
	assert.Empty(t, store.admin)
}

func TestAdminLogout(t *testing.T) {
	store := &memoryTokenStore{
		access: "valid-token",
		admin:  "valid-admin-token",
	}
	g := New(store, newTestLookup(RoleAdmin, false))
	g.Initialize(context.Background())
	require.True(t, g.Session().IsAdminAuthenticated)

	g.AdminLogout()

	session := g.Session()
	assert.False(t, session.IsAdminAuthenticated)
	assert.True(t, session.IsAuthenticated, "closing the admin session must not touch the primary one")
	assert.Empty(t, store.admin)
	assert.Equal(t, "valid-token", store.access)
}

func TestAdminFlagImpliesAuthentication(t *testing.T) {
	lookups := map[string]IdentityLookup{
		"admin":   newTestLookup(RoleAdmin, true),
		"student": newTestLookup(RoleStudent, false),
		"failing": failingLookup,
	}
	stores := []memoryTokenStore{
		{},
		{access: "valid-token"},
		{access: "valid-token", admin: "admin-token"},
		{access: "expired-token", admin: "admin-token"},
		{admin: "admin-token"},
	}
	for name, lookup := range lookups {
		for _, initial := range stores {
			store := initial
			g := New(&store, lookup)
			g.Initialize(context.Background())
			session := g.Session()
			if session.IsAdminAuthenticated {
				assert.True(t, session.IsAuthenticated,
					"lookup %q, store %+v: the admin flag cannot outlive authentication", name, initial)
			}
			g.Logout()
			session = g.Session()
			if session.IsAdminAuthenticated {
				assert.True(t, session.IsAuthenticated,
					"lookup %q, store %+v: invariant violated after logout", name, initial)
			}
		}
	}
}

func TestAdminRoleForcesProfileComplete(t *testing.T) {
	for _, stored := range []bool{true, false} {
		store := &memoryTokenStore{access: "valid-token"}
		g := New(store, newTestLookup("ADMIN", stored))
		g.Initialize(context.Background())
		assert.True(t, g.Session().ProfileComplete,
			"profile completion must be forced for admins, stored flag %v", stored)
	}
}
