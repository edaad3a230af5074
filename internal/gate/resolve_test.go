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
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	anonymous     = State{}
	incomplete    = State{IsAuthenticated: true}
	candidate     = State{IsAuthenticated: true, ProfileComplete: true}
	adminReviewer = State{IsAuthenticated: true, IsAdminAuthenticated: true, ProfileComplete: true}
	adminPending  = State{IsAuthenticated: true, IsAdminAuthenticated: true}
	candidateOnly = State{IsAuthenticated: true, ProfileComplete: true, IsAdminAuthenticated: false}
)

func TestResolveDecisionTable(t *testing.T) {
	testCases := []struct {
		name     string
		state    State
		path     string
		expected Decision
	}{
		{"anonymous login page", anonymous, LoginPath, Render()},
		{"anonymous signup page", anonymous, SignupPath, Render()},
		{"anonymous password reset", anonymous, ForgotPasswordPath, Render()},
		{"anonymous dashboard", anonymous, DashboardPath, RedirectTo(LoginPath)},
		{"anonymous jobs", anonymous, JobsPath, RedirectTo(LoginPath)},
		{"anonymous wizard", anonymous, CompleteProfilePath, RedirectTo(LoginPath)},
		{"anonymous admin console", anonymous, AdminPath, RedirectTo(AdminLoginPath)},
		{"anonymous admin login", anonymous, AdminLoginPath, Render()},
		{"incomplete wizard", incomplete, CompleteProfilePath, Render()},
		{"incomplete dashboard", incomplete, DashboardPath, RedirectTo(CompleteProfilePath)},
		{"incomplete tests", incomplete, TestsPath, RedirectTo(CompleteProfilePath)},
		{"incomplete login page", incomplete, LoginPath, RedirectTo(CompleteProfilePath)},
		{"incomplete signup page", incomplete, SignupPath, RedirectTo(CompleteProfilePath)},
		{"candidate dashboard", candidate, DashboardPath, Render()},
		{"candidate job detail", candidate, JobsPath + "/42", Render()},
		{"candidate courses", candidate, CoursesPath, Render()},
		{"candidate notifications", candidate, NotificationsPath, Render()},
		{"candidate login page", candidate, LoginPath, RedirectTo(DashboardPath)},
		{"candidate signup page", candidate, SignupPath, RedirectTo(DashboardPath)},
		{"candidate wizard", candidate, CompleteProfilePath, RedirectTo(DashboardPath)},
		{"candidate admin console", candidate, AdminPath, RedirectTo(AdminLoginPath)},
		{"candidate admin section", candidateOnly, AdminPath + "/candidates", RedirectTo(AdminLoginPath)},
		{"admin console root", adminReviewer, AdminPath, Render()},
		{"admin console section", adminReviewer, AdminPath + "/jobs/7/edit", Render()},
		{"admin login page", adminReviewer, AdminLoginPath, RedirectTo(AdminPath)},
		{"admin candidate pages", adminReviewer, DashboardPath, Render()},
		{"admin without wizard", adminPending, DashboardPath, RedirectTo(CompleteProfilePath)},
		{"admin without wizard console", adminPending, AdminPath, Render()},
		{"unknown path anonymous", anonymous, "/no-such-page", RedirectTo(LoginPath)},
		{"unknown path candidate", candidate, "/no-such-page", RedirectTo(LoginPath)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Resolve(tc.state, tc.path))
		})
	}
}

func TestResolvePathNormalization(t *testing.T) {
	assert.Equal(t, Render(), Resolve(candidate, "/jobs/"))
	assert.Equal(t, Render(), Resolve(candidate, "jobs"))
	assert.Equal(t, Render(), Resolve(candidate, "/courses/../profile"))
	assert.Equal(t, RedirectTo(DashboardPath), Resolve(candidate, "//"))
	assert.Equal(t, RedirectTo(AdminLoginPath), Resolve(candidate, "/admin/../admin/jobs"))
	// "/jobsearch" must not match the jobs subtree
	assert.Equal(t, RedirectTo(LoginPath), Resolve(candidate, "/jobsearch"))
}

func TestDecisionAccessors(t *testing.T) {
	render := Render()
	assert.True(t, render.IsRender())
	assert.Empty(t, render.RedirectTarget())
	assert.Equal(t, "render", render.String())

	redirect := RedirectTo(DashboardPath)
	assert.False(t, redirect.IsRender())
	assert.Equal(t, DashboardPath, redirect.RedirectTarget())
	assert.Equal(t, "redirect to \"/dashboard\"", redirect.String())
}
