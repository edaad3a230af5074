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

// Package gate maintains the per-request authentication session and resolves
// routing decisions from it. It owns the lifecycle of the two persisted
// credential slots and never talks HTTP itself: the token store and the
// identity lookup are injected by the caller.
package gate

import (
	"context"
	"strings"
)

// Roles returned by the platform identity lookup. Comparisons are
// case-insensitive.
const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

// UserRecord is the identity returned by the platform "who am I" endpoint
type UserRecord struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	ProfileComplete bool   `json:"profile_complete"`
}

// HasRole reports whether the user has the given role.
// Role values are compared case-insensitively
func (u *UserRecord) HasRole(role string) bool {
	return strings.EqualFold(u.Role, role)
}

// IsAdmin reports whether the user has the ADMIN role
func (u *UserRecord) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// TokenStore provides the two persisted credential slots.
// Implementations must treat an empty string as an absent slot
type TokenStore interface {
	AccessToken() string
	AdminToken() string
	ClearAccessToken()
	ClearAdminToken()
}

// IdentityLookup validates a bearer token against the platform API and
// returns the matching user. Any error means the token is not usable,
// the gate does not distinguish network failures from rejections
type IdentityLookup func(ctx context.Context, token string) (*UserRecord, error)

// Session is the authentication state derived from the persisted slots
type Session struct {
	CurrentUser          *UserRecord
	IsAuthenticated      bool
	IsAdminAuthenticated bool
	ProfileComplete      bool
	ready                bool
}

// Ready reports whether the session has been fully derived.
// Routing decisions must not be rendered before this returns true
func (s Session) Ready() bool {
	return s.ready
}

// State returns the boolean triple the routing resolution works on
func (s Session) State() State {
	return State{
		IsAuthenticated:      s.IsAuthenticated,
		IsAdminAuthenticated: s.IsAdminAuthenticated,
		ProfileComplete:      s.ProfileComplete,
	}
}

// Gate owns a Session and the transitions that mutate it
type Gate struct {
	store   TokenStore
	lookup  IdentityLookup
	session Session
}

// New returns a gate bound to the given token store and identity lookup
func New(store TokenStore, lookup IdentityLookup) *Gate {
	return &Gate{
		store:  store,
		lookup: lookup,
	}
}

// Session returns a copy of the current session state
func (g *Gate) Session() Session {
	return g.session
}

// Initialize rebuilds the session from the persisted slots. With no access
// token the admin slot is cleared too and the session stays unauthenticated.
// With an access token the identity lookup decides: on success the flags are
// derived from the returned user and a stale admin token, one stored for a
// user whose role is not ADMIN, is discarded; on failure both slots are
// cleared. Lookup failures are absorbed here, the gate always terminates in
// a definite, ready state
func (g *Gate) Initialize(ctx context.Context) {
	g.session = Session{}
	token := g.store.AccessToken()
	if token == "" {
		g.store.ClearAdminToken()
		g.session.ready = true
		return
	}
	user, err := g.lookup(ctx, token)
	if err != nil {
		g.store.ClearAccessToken()
		g.store.ClearAdminToken()
		g.session.ready = true
		return
	}
	g.session.CurrentUser = user
	g.session.IsAuthenticated = true
	g.session.ProfileComplete = user.IsAdmin() || user.ProfileComplete
	if g.store.AdminToken() != "" {
		if user.IsAdmin() {
			g.session.IsAdminAuthenticated = true
		} else {
			g.store.ClearAdminToken()
		}
	}
	g.session.ready = true
}

// Login re-derives the session after an external login flow has stored a
// fresh access token
func (g *Gate) Login(ctx context.Context) {
	g.Initialize(ctx)
}

// Logout clears the access token slot and the candidate session state.
// The admin token slot is left untouched, the admin session is closed via
// AdminLogout. The in-memory admin flag is dropped anyway since it cannot
// outlive the authenticated state
func (g *Gate) Logout() {
	g.store.ClearAccessToken()
	g.session.CurrentUser = nil
	g.session.IsAuthenticated = false
	g.session.IsAdminAuthenticated = false
	g.session.ProfileComplete = false
}

// AdminLogin marks the session admin-authenticated after an external
// admin login flow has stored the admin token. The caller has already
// verified the role against the platform, the gate does not re-validate
// here: the next Initialize does
func (g *Gate) AdminLogin() {
	g.session.IsAdminAuthenticated = true
}

// AdminLogout clears the admin token slot and the admin session state.
// The candidate session is not affected
func (g *Gate) AdminLogout() {
	g.store.ClearAdminToken()
	g.session.IsAdminAuthenticated = false
}
