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

package httpd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/platform"
)

// httptest.NewRequest always reports this client address
const testClientIP = "192.0.2.1"

// platformStub answers the subset of the platform API the portal talks to
type platformStub struct {
	candidateToken  string
	adminToken      string
	failLogin       bool
	profileComplete bool
	unreadCount     int64
	logoutCalls     atomic.Int32
}

func newPlatformStub() *platformStub {
	return &platformStub{
		candidateToken:  "candidate-bearer",
		adminToken:      "admin-bearer",
		profileComplete: true,
		unreadCount:     2,
	}
}

func (p *platformStub) bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (p *platformStub) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func (p *platformStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
			if p.failLogin {
				p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
				return
			}
			p.writeJSON(w, http.StatusOK, platform.LoginResponse{Token: p.candidateToken})
		case r.Method == http.MethodPost && r.URL.Path == "/auth/admin/login":
			if p.failLogin {
				p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
				return
			}
			p.writeJSON(w, http.StatusOK, platform.LoginResponse{Token: p.adminToken})
		case r.Method == http.MethodGet && r.URL.Path == "/auth/me":
			switch p.bearer(r) {
			case p.candidateToken:
				p.writeJSON(w, http.StatusOK, map[string]any{
					"id":               "u1",
					"email":            "candidate@example.com",
					"name":             "Test Candidate",
					"role":             "CANDIDATE",
					"profile_complete": p.profileComplete,
				})
			case p.adminToken:
				p.writeJSON(w, http.StatusOK, map[string]any{
					"id":               "a1",
					"email":            "admin@example.com",
					"name":             "Test Admin",
					"role":             "ADMIN",
					"profile_complete": true,
				})
			default:
				p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
		case r.Method == http.MethodPost && r.URL.Path == "/auth/logout":
			p.logoutCalls.Add(1)
			p.writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		default:
			p.handleData(w, r)
		}
	}
}

func (p *platformStub) handleData(w http.ResponseWriter, r *http.Request) {
	bearer := p.bearer(r)
	if bearer != p.candidateToken && bearer != p.adminToken {
		p.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	switch r.URL.Path {
	case "/dashboard/summary":
		p.writeJSON(w, http.StatusOK, platform.DashboardSummary{
			OpenJobs:            12,
			Applications:        3,
			TestsTaken:          1,
			UnreadNotifications: p.unreadCount,
		})
	case "/notifications":
		p.writeJSON(w, http.StatusOK, platform.NotificationsPage{
			Notifications: []platform.Notification{
				{
					ID:        "n1",
					Title:     "Interview scheduled",
					Body:      "Your interview is confirmed",
					CreatedAt: time.Now().UnixMilli(),
				},
			},
			Total: 1,
		})
	case "/notifications/unread-count":
		p.writeJSON(w, http.StatusOK, map[string]int64{"count": p.unreadCount})
	case "/notifications/n1/read":
		p.writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	case "/jobs":
		p.writeJSON(w, http.StatusOK, platform.JobsPage{
			Jobs: []platform.Job{
				{
					ID:      "j1",
					Title:   "Backend Engineer",
					Company: "Acme Corp",
					Skills:  []string{"Go", "SQL"},
				},
			},
			Total: 1,
		})
	case "/jobs/j1":
		p.writeJSON(w, http.StatusOK, platform.Job{
			ID:      "j1",
			Title:   "Backend Engineer",
			Company: "Acme Corp",
		})
	case "/admin/summary":
		p.writeJSON(w, http.StatusOK, platform.AdminSummary{
			Candidates:   120,
			Jobs:         8,
			Tests:        5,
			Applications: 640,
		})
	default:
		p.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func newTestServer(t *testing.T, stub *platformStub) *httpdServer {
	t.Helper()
	api := httptest.NewServer(stub.handler())
	t.Cleanup(api.Close)

	b := Binding{
		Address:            "127.0.0.1",
		Port:               10080,
		EnableWebCandidate: true,
		EnableWebAdmin:     true,
	}
	b.checkBranding()
	server := newHttpdServer(b, filepath.Join("..", "..", "static"), "", CorsConfig{}, platform.NewClient(api.URL))
	server.initializeRouter()
	return server
}

func loginForm(email, password string) url.Values {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	form.Set(csrfFormToken, createCSRFToken(testClientIP))
	return form
}

func postForm(server *httpdServer, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, r)
	return rr
}

func getPage(server *httpdServer, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, r)
	return rr
}

func getResponseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	var result *http.Cookie
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			result = cookie
		}
	}
	return result
}

func TestHealthzAndRobots(t *testing.T) {
	server := newTestServer(t, newPlatformStub())

	rr := getPage(server, healthzPath)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = getPage(server, robotsTxtPath)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Disallow")
}

func TestNotFoundHandling(t *testing.T) {
	server := newTestServer(t, newPlatformStub())

	rr := getPage(server, "/missing-page")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webLoginPath, rr.Header().Get("Location"))

	rr = getPage(server, "/missing/json")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), http.StatusText(http.StatusNotFound))
}

func TestLoginPageRender(t *testing.T) {
	server := newTestServer(t, newPlatformStub())

	rr := getPage(server, webLoginPath)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), pageLoginTitle)
	assert.Contains(t, rr.Body.String(), csrfFormToken)
	// link to the admin console sign in
	assert.Contains(t, rr.Body.String(), webAdminLoginPath)
}

func TestCandidateLoginIncompleteProfile(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "incomplete-bearer"
	stub.profileComplete = false
	server := newTestServer(t, stub)

	rr := postForm(server, webLoginPath, loginForm("candidate@example.com", "secret"))
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webCompleteProfilePath, rr.Header().Get("Location"))

	accessCookie := getResponseCookie(rr, accessTokenCookieKey)
	require.NotNil(t, accessCookie)
	assert.Equal(t, "incomplete-bearer", accessCookie.Value)
	assert.True(t, accessCookie.HttpOnly)
}

func TestCandidateLoginCompleteProfile(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "complete-bearer"
	server := newTestServer(t, stub)

	rr := postForm(server, webLoginPath, loginForm("candidate@example.com", "secret"))
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webDashboardPath, rr.Header().Get("Location"))
}

func TestCandidateLoginFailures(t *testing.T) {
	stub := newPlatformStub()
	server := newTestServer(t, stub)

	// empty credentials
	form := loginForm("", "")
	rr := postForm(server, webLoginPath, form)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), errInvalidCredentials.Error())

	// missing form token
	form = url.Values{}
	form.Set("email", "candidate@example.com")
	form.Set("password", "secret")
	rr = postForm(server, webLoginPath, form)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "unable to verify form token")

	// the platform refuses the credentials
	stub.failLogin = true
	rr = postForm(server, webLoginPath, loginForm("candidate@example.com", "wrong"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), errInvalidCredentials.Error())
	// the email is echoed back so the user can retry
	assert.Contains(t, rr.Body.String(), "candidate@example.com")
}

func TestRouteGuard(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "guard-bearer"
	server := newTestServer(t, stub)
	authCookie := &http.Cookie{Name: accessTokenCookieKey, Value: "guard-bearer"}

	// anonymous users are sent to the login page
	rr := getPage(server, webDashboardPath)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webLoginPath, rr.Header().Get("Location"))

	// authenticated users skip the login page
	rr = getPage(server, webLoginPath, authCookie)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webDashboardPath, rr.Header().Get("Location"))

	// an incomplete profile locks the portal pages
	stub.profileComplete = false
	rr = getPage(server, webJobsPath, authCookie)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webCompleteProfilePath, rr.Header().Get("Location"))

	// a candidate session cannot reach the admin console
	stub.profileComplete = true
	rr = getPage(server, webAdminPath, authCookie)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webAdminLoginPath, rr.Header().Get("Location"))

	// an invalid token leaves the session anonymous and clears the cookie
	rr = getPage(server, webDashboardPath, &http.Cookie{Name: accessTokenCookieKey, Value: "unknown-bearer"})
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webLoginPath, rr.Header().Get("Location"))
	removed := getResponseCookie(rr, accessTokenCookieKey)
	require.NotNil(t, removed)
	assert.Empty(t, removed.Value)
}

func TestCandidateLogout(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "logout-bearer"
	server := newTestServer(t, stub)
	authCookie := &http.Cookie{Name: accessTokenCookieKey, Value: "logout-bearer"}

	rr := getPage(server, webDashboardPath, authCookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = getPage(server, webLogoutPath, authCookie)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webLoginPath, rr.Header().Get("Location"))
	assert.Equal(t, int32(1), stub.logoutCalls.Load())
	flashCookie := getResponseCookie(rr, flashCookieName)
	require.NotNil(t, flashCookie)
	assert.NotEmpty(t, flashCookie.Value)

	// the revoked token must not resurrect the session even if the
	// browser replays the old cookie
	rr = getPage(server, webDashboardPath, authCookie)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webLoginPath, rr.Header().Get("Location"))
}

func TestAdminLoginFlow(t *testing.T) {
	stub := newPlatformStub()
	stub.adminToken = "root-bearer"
	server := newTestServer(t, stub)

	rr := getPage(server, webAdminLoginPath)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), pageAdminLoginTitle)

	rr = postForm(server, webAdminLoginPath, loginForm("admin@example.com", "secret"))
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webAdminPath, rr.Header().Get("Location"))

	// the admin bearer fills both credential slots
	accessCookie := getResponseCookie(rr, accessTokenCookieKey)
	adminCookie := getResponseCookie(rr, adminTokenCookieKey)
	require.NotNil(t, accessCookie)
	require.NotNil(t, adminCookie)
	assert.Equal(t, "root-bearer", accessCookie.Value)
	assert.Equal(t, "root-bearer", adminCookie.Value)

	rr = getPage(server, webAdminPath,
		&http.Cookie{Name: accessTokenCookieKey, Value: "root-bearer"},
		&http.Cookie{Name: adminTokenCookieKey, Value: "root-bearer"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), pageAdminDashboardTitle)
}

func TestAdminLogoutKeepsCandidateSession(t *testing.T) {
	stub := newPlatformStub()
	stub.adminToken = "dual-bearer"
	server := newTestServer(t, stub)
	accessCookie := &http.Cookie{Name: accessTokenCookieKey, Value: "dual-bearer"}
	adminCookie := &http.Cookie{Name: adminTokenCookieKey, Value: "dual-bearer"}

	rr := getPage(server, webAdminLogoutPath, accessCookie, adminCookie)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webAdminLoginPath, rr.Header().Get("Location"))

	// only the admin slot is dropped
	removed := getResponseCookie(rr, adminTokenCookieKey)
	require.NotNil(t, removed)
	assert.Empty(t, removed.Value)
	assert.Nil(t, getResponseCookie(rr, accessTokenCookieKey))

	// the access token was not revoked, the portal pages still work
	rr = getPage(server, webDashboardPath, accessCookie)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestJSONEndpointsAuth(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "json-bearer"
	server := newTestServer(t, stub)
	authCookie := &http.Cookie{Name: accessTokenCookieKey, Value: "json-bearer"}

	// the JSON endpoints answer with a status code, not a redirect
	rr := getPage(server, webNotificationsPath+"/unread"+jsonAPISuffix)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = getPage(server, webNotificationsPath+"/unread"+jsonAPISuffix, authCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var unread map[string]int64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &unread))
	assert.Equal(t, stub.unreadCount, unread["unread"])

	// the state-changing ones also want the CSRF header
	r := httptest.NewRequest(http.MethodPost, webNotificationsPath+"/n1/read"+jsonAPISuffix, nil)
	r.AddCookie(authCookie)
	rr = httptest.NewRecorder()
	server.router.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	r = httptest.NewRequest(http.MethodPost, webNotificationsPath+"/n1/read"+jsonAPISuffix, nil)
	r.AddCookie(authCookie)
	r.Header.Set(csrfHeaderToken, createCSRFToken(testClientIP))
	rr = httptest.NewRecorder()
	server.router.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSaveProfileDraft(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "draft-bearer"
	stub.profileComplete = false
	server := newTestServer(t, stub)

	body := `{"step":2,"profile":{"phone":"555-0102","college":"Tech Institute"}}`
	r := httptest.NewRequest(http.MethodPost, webCompleteProfilePath+"/draft"+jsonAPISuffix, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(csrfHeaderToken, createCSRFToken(testClientIP))
	r.AddCookie(&http.Cookie{Name: accessTokenCookieKey, Value: "draft-bearer"})
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, r)
	require.Equal(t, http.StatusOK, rr.Code)

	draft, err := draftMgr.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Step)
	assert.Equal(t, "Tech Institute", draft.Profile.College)
	require.NoError(t, draftMgr.Remove("u1"))
}

func TestLoginRateLimit(t *testing.T) {
	config := RateLimitConfig{
		Average:          1,
		Period:           1000,
		Burst:            1,
		EntriesSoftLimit: 50,
		EntriesHardLimit: 100,
	}
	loginLimiter = config.getLimiter()
	defer func() {
		loginLimiter = nil
	}()

	stub := newPlatformStub()
	server := newTestServer(t, stub)

	rr := postForm(server, webLoginPath, loginForm("candidate@example.com", "secret"))
	require.Equal(t, http.StatusFound, rr.Code)

	rr = postForm(server, webLoginPath, loginForm("candidate@example.com", "secret"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.NotEmpty(t, rr.Header().Get("X-Retry-In"))
	assert.Contains(t, rr.Body.String(), http.StatusText(http.StatusTooManyRequests))
}

func TestStaticFiles(t *testing.T) {
	server := newTestServer(t, newPlatformStub())

	rr := getPage(server, webStaticFilesPath+"/css/app.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "login-card")

	// no directory listing
	rr = getPage(server, webStaticFilesPath+"/")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = getPage(server, webStaticFilesPath)
	assert.Equal(t, http.StatusMovedPermanently, rr.Code)
}

func TestDashboardRender(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "dash-bearer"
	server := newTestServer(t, stub)

	rr := getPage(server, webDashboardPath, &http.Cookie{Name: accessTokenCookieKey, Value: "dash-bearer"})
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Open jobs")
	assert.Contains(t, body, "Test Candidate")
	assert.Contains(t, body, "Interview scheduled")
}

func TestJobsPageRender(t *testing.T) {
	stub := newPlatformStub()
	stub.candidateToken = "jobs-bearer"
	server := newTestServer(t, stub)
	authCookie := &http.Cookie{Name: accessTokenCookieKey, Value: "jobs-bearer"}

	rr := getPage(server, webJobsPath, authCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Backend Engineer")
	assert.Contains(t, rr.Body.String(), "Acme Corp")

	rr = getPage(server, webJobsPath+"/j1", authCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Backend Engineer")

	// unknown job
	rr = getPage(server, webJobsPath+"/missing", authCookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWebAdminBinding(t *testing.T) {
	stub := newPlatformStub()
	api := httptest.NewServer(stub.handler())
	t.Cleanup(api.Close)

	b := Binding{
		Address:            "127.0.0.1",
		Port:               10080,
		EnableWebCandidate: true,
	}
	b.checkBranding()
	server := newHttpdServer(b, filepath.Join("..", "..", "static"), "", CorsConfig{}, platform.NewClient(api.URL))
	server.initializeRouter()

	// the admin console is not registered on this binding
	rr := getPage(server, webAdminLoginPath)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, webLoginPath, rr.Header().Get("Location"))

	// and the candidate login page does not link to it
	rr = getPage(server, webLoginPath)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), webAdminLoginPath)
}
