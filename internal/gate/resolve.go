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
	"fmt"
	"path"
	"strings"
)

// Well known portal paths
const (
	LoginPath           = "/"
	SignupPath          = "/signup"
	VerifyEmailPath     = "/verify-email"
	ForgotPasswordPath  = "/forgot-password"
	ResetPasswordPath   = "/reset-password"
	CompleteProfilePath = "/complete-profile"
	DashboardPath       = "/dashboard"
	JobsPath            = "/jobs"
	CoursesPath         = "/courses"
	AssessmentsPath     = "/assessments"
	ProfilePath         = "/profile"
	NotificationsPath   = "/notifications"
	TestsPath           = "/tests"
	AdminPath           = "/admin"
	AdminLoginPath      = "/admin/login"
)

var (
	// pages reachable only while logged out
	unauthOnlyPaths = []string{
		SignupPath,
		VerifyEmailPath,
		ForgotPasswordPath,
		ResetPasswordPath,
	}
	// pages requiring a complete, authenticated candidate session
	protectedPaths = []string{
		DashboardPath,
		JobsPath,
		CoursesPath,
		AssessmentsPath,
		ProfilePath,
		NotificationsPath,
		TestsPath,
	}
)

// State is the boolean triple a routing resolution works on
type State struct {
	IsAuthenticated      bool
	IsAdminAuthenticated bool
	ProfileComplete      bool
}

// Decision is the outcome of a routing resolution: render the requested
// page or redirect to the returned target
type Decision struct {
	render   bool
	redirect string
}

// Render returns the decision to render the requested page
func Render() Decision {
	return Decision{render: true}
}

// RedirectTo returns the decision to redirect to the given target
func RedirectTo(target string) Decision {
	return Decision{redirect: target}
}

// IsRender reports whether the requested page has to be rendered
func (d Decision) IsRender() bool {
	return d.render
}

// RedirectTarget returns the redirect target, it is empty for render
// decisions
func (d Decision) RedirectTarget() string {
	return d.redirect
}

func (d Decision) String() string {
	if d.render {
		return "render"
	}
	return fmt.Sprintf("redirect to %q", d.redirect)
}

// matchPath reports whether p is base itself or one of its sub-paths
func matchPath(p, base string) bool {
	return p == base || strings.HasPrefix(p, base+"/")
}

func isUnauthOnly(p string) bool {
	if p == LoginPath {
		return true
	}
	for _, base := range unauthOnlyPaths {
		if matchPath(p, base) {
			return true
		}
	}
	return false
}

func isProtected(p string) bool {
	for _, base := range protectedPaths {
		if matchPath(p, base) {
			return true
		}
	}
	return false
}

// Resolve maps the session state and the requested path to a routing
// decision. The candidate and admin axes are independent: admin pages are
// gated on the admin flag alone and candidate pages never consult it.
// For candidate pages the authentication check runs first and the profile
// completion check second. Unknown paths redirect to the login page
func Resolve(state State, requestPath string) Decision {
	p := path.Clean("/" + requestPath)

	if p == AdminLoginPath {
		if state.IsAdminAuthenticated {
			return RedirectTo(AdminPath)
		}
		return Render()
	}
	if matchPath(p, AdminPath) {
		if state.IsAdminAuthenticated {
			return Render()
		}
		return RedirectTo(AdminLoginPath)
	}
	if isUnauthOnly(p) {
		if state.IsAuthenticated {
			if state.ProfileComplete {
				return RedirectTo(DashboardPath)
			}
			return RedirectTo(CompleteProfilePath)
		}
		return Render()
	}
	if matchPath(p, CompleteProfilePath) {
		if !state.IsAuthenticated {
			return RedirectTo(LoginPath)
		}
		if state.ProfileComplete {
			return RedirectTo(DashboardPath)
		}
		return Render()
	}
	if isProtected(p) {
		if !state.IsAuthenticated {
			return RedirectTo(LoginPath)
		}
		if !state.ProfileComplete {
			return RedirectTo(CompleteProfilePath)
		}
		return Render()
	}
	return RedirectTo(LoginPath)
}
