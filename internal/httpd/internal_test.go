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
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/sessionstore"
	"github.com/campushire/campushire/internal/util"
)

func TestMain(m *testing.M) {
	logger.DisableLogger()
	csrfTokenAuth = jwtauth.New(jwa.HS256.String(), getSigningKey(""), nil)
	invalidatedTokens = newTokenManager(0)
	draftMgr = newDraftManager(0)
	err := sessionstore.Initialize(sessionstore.Config{Driver: sessionstore.MemoryDriverName}, ".")
	if err != nil {
		logger.ErrorToConsole("unable to initialize session store: %v", err)
		os.Exit(1)
	}
	loadTemplates(filepath.Join("..", "..", "templates"))
	os.Exit(m.Run())
}

func TestShouldBind(t *testing.T) {
	c := Conf{
		Bindings: []Binding{
			{
				Port:               10080,
				EnableWebCandidate: true,
			},
		},
	}
	require.True(t, c.ShouldBind())

	c.Bindings[0].EnableWebCandidate = false
	require.False(t, c.ShouldBind())

	c.Bindings[0].EnableWebAdmin = true
	require.True(t, c.ShouldBind())

	c.Bindings[0].Port = 0
	require.False(t, c.ShouldBind())

	if runtime.GOOS != "windows" {
		c.Bindings[0].Address = "/absolute/path"
		require.True(t, c.ShouldBind())
	}
}

func TestBindingGetAddress(t *testing.T) {
	b := Binding{
		Address: "127.0.0.1",
		Port:    10080,
	}
	assert.Equal(t, "127.0.0.1:10080", b.GetAddress())
	b.Address = ""
	assert.Equal(t, ":10080", b.GetAddress())
}

func TestBrandingDefaults(t *testing.T) {
	b := Binding{}
	b.checkBranding()
	assert.Equal(t, "CampusHire", b.Branding.WebCandidate.Name)
	assert.Equal(t, "CampusHire", b.Branding.WebCandidate.ShortName)
	assert.Equal(t, "CampusHire", b.Branding.WebAdmin.Name)
	assert.Equal(t, "/img/logo.png", b.Branding.WebAdmin.LogoPath)
	assert.Equal(t, "/favicon.png", b.Branding.WebCandidate.FaviconPath)
	assert.Equal(t, []string{"/css/app.css"}, b.Branding.WebCandidate.DefaultCSS)
	assert.Len(t, b.Branding.WebAdmin.ExtraCSS, 0)

	b = Binding{
		Branding: Branding{
			WebCandidate: UIBranding{
				Name:       "Acme Careers",
				ShortName:  "Acme",
				DefaultCSS: []string{"css/theme.css"},
				ExtraCSS:   []string{"css/extra.css", "../css/escape.css"},
			},
		},
	}
	b.checkBranding()
	assert.Equal(t, "Acme Careers", b.Branding.WebCandidate.Name)
	assert.Equal(t, "Acme", b.Branding.WebCandidate.ShortName)
	assert.Equal(t, []string{"/css/theme.css"}, b.Branding.WebCandidate.DefaultCSS)
	assert.Equal(t, []string{"/css/extra.css", "/css/escape.css"}, b.Branding.WebCandidate.ExtraCSS)
	assert.Equal(t, "CampusHire", b.Branding.WebAdmin.Name)
}

func TestRateLimitConfigValidation(t *testing.T) {
	config := RateLimitConfig{}
	assert.False(t, config.isEnabled())
	require.NoError(t, config.validate())

	config.Average = 10
	require.Error(t, config.validate())
	config.Burst = 1
	config.Period = 10
	require.Error(t, config.validate())
	config.Period = 1000
	require.Error(t, config.validate())
	config.EntriesSoftLimit = 50
	require.Error(t, config.validate())
	config.EntriesHardLimit = 50
	require.Error(t, config.validate())
	config.EntriesHardLimit = 100
	require.NoError(t, config.validate())
	assert.True(t, config.isEnabled())
}

func TestRateLimiter(t *testing.T) {
	config := RateLimitConfig{
		Average:          1,
		Period:           1000,
		Burst:            1,
		EntriesSoftLimit: 50,
		EntriesHardLimit: 100,
	}
	require.NoError(t, config.validate())
	limiter := config.getLimiter()

	_, err := limiter.Wait("192.168.1.2")
	require.NoError(t, err)
	_, err = limiter.Wait("192.168.1.2")
	require.Error(t, err)
	// a different source has its own bucket
	_, err = limiter.Wait("172.16.24.7")
	require.NoError(t, err)
}

func TestRateLimiterCleanup(t *testing.T) {
	config := RateLimitConfig{
		Average:          100,
		Period:           1000,
		Burst:            1,
		EntriesSoftLimit: 1,
		EntriesHardLimit: 2,
	}
	limiter := config.getLimiter()
	_, err := limiter.Wait("192.168.1.3")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = limiter.Wait("192.168.1.4")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = limiter.Wait("192.168.1.5")
	require.NoError(t, err)
	assert.Len(t, limiter.buckets.buckets, 2)
	_, ok := limiter.buckets.buckets["192.168.1.5"]
	assert.True(t, ok)
}

func TestCSRFToken(t *testing.T) {
	tokenString := createCSRFToken("127.0.0.1")
	require.NotEmpty(t, tokenString)

	r := httptest.NewRequest(http.MethodPost, webLoginPath, nil)
	r.Form = url.Values{}
	r.Form.Set(csrfFormToken, tokenString)
	require.NoError(t, verifyCSRFToken(r, "127.0.0.1"))

	// the token is bound to the IP it was created for
	err := verifyCSRFToken(r, "10.9.9.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form token is not valid")

	r.Form.Set(csrfFormToken, "not a token")
	err = verifyCSRFToken(r, "127.0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to verify form token")

	// the JSON endpoints send the token in a header
	r = httptest.NewRequest(http.MethodPost, "/notifications/read-all/json", nil)
	r.Form = url.Values{}
	r.Header.Set(csrfHeaderToken, tokenString)
	require.NoError(t, verifyCSRFToken(r, "127.0.0.1"))

	token, err := jwtauth.VerifyToken(csrfTokenAuth, tokenString)
	require.NoError(t, err)
	require.NoError(t, validateIPForToken(token, "127.0.0.1"))
	require.Error(t, validateIPForToken(token, "172.16.1.1"))
}

func TestCreateCSRFTokenError(t *testing.T) {
	oldAuth := csrfTokenAuth
	// signing HS claims with an RSA algorithm cannot work
	csrfTokenAuth = jwtauth.New(jwa.PS256.String(), util.GenerateRandomBytes(32), nil)
	assert.Empty(t, createCSRFToken("127.0.0.1"))
	csrfTokenAuth = oldAuth
}

func TestCookieTokenStore(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, webDashboardPath, nil)
	store := newCookieTokenStore(rr, r)
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.AdminToken())

	r.AddCookie(&http.Cookie{Name: accessTokenCookieKey, Value: "bearer-1"})
	assert.Equal(t, "bearer-1", store.AccessToken())
	assert.Empty(t, store.AdminToken())

	// writes must be observable within the same request, before the
	// browser sends the updated cookie back
	store.SetAccessToken("bearer-2")
	assert.Equal(t, "bearer-2", store.AccessToken())
	store.SetAdminToken("bearer-2")
	assert.Equal(t, "bearer-2", store.AdminToken())

	var accessCookie *http.Cookie
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == accessTokenCookieKey {
			accessCookie = cookie
		}
	}
	require.NotNil(t, accessCookie)
	assert.Equal(t, "bearer-2", accessCookie.Value)
	assert.True(t, accessCookie.HttpOnly)
	assert.False(t, accessCookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, accessCookie.SameSite)

	store.ClearAccessToken()
	assert.Empty(t, store.AccessToken())
	store.ClearAdminToken()
	assert.Empty(t, store.AdminToken())
}

func TestCookieTokenStoreRevocation(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, webDashboardPath, nil)
	r.AddCookie(&http.Cookie{Name: accessTokenCookieKey, Value: "revoked-bearer"})
	store := newCookieTokenStore(httptest.NewRecorder(), r)
	assert.Equal(t, "revoked-bearer", store.AccessToken())

	invalidatedTokens.Add("revoked-bearer", time.Now().Add(tokenDuration).UTC())
	// a revoked token is reported as absent
	assert.Empty(t, store.AccessToken())
}

func TestSecureCookieOverProxy(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, webDashboardPath, nil)
	ctx := context.WithValue(r.Context(), forwardedProtoKey, "https")
	store := newCookieTokenStore(rr, r.WithContext(ctx))
	store.SetAccessToken("bearer-3")
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestTokenManager(t *testing.T) {
	mgr := newTokenManager(0)
	_, ok := mgr.(*memoryTokenManager)
	require.True(t, ok)

	mgr.Add("bearer-mem", time.Now().Add(tokenDuration).UTC())
	assert.True(t, mgr.Get("bearer-mem"))
	assert.False(t, mgr.Get("missing"))
	mgr.Cleanup()
	assert.True(t, mgr.Get("bearer-mem"))

	mgr.Add("bearer-mem", time.Now().Add(-1*time.Hour).UTC())
	mgr.Cleanup()
	assert.False(t, mgr.Get("bearer-mem"))
}

func TestDbTokenManager(t *testing.T) {
	mgr := newTokenManager(1)
	_, ok := mgr.(*dbTokenManager)
	require.True(t, ok)

	mgr.Add("bearer-db", time.Now().Add(tokenDuration).UTC())
	assert.True(t, mgr.Get("bearer-db"))
	assert.False(t, mgr.Get("missing"))
	mgr.Cleanup()
	assert.True(t, mgr.Get("bearer-db"))

	mgr.Add("bearer-expired", time.Now().Add(-1*time.Hour).UTC())
	mgr.Cleanup()
	assert.False(t, mgr.Get("bearer-expired"))
	assert.True(t, mgr.Get("bearer-db"))
}

func TestDraftManager(t *testing.T) {
	mgr := newDraftManager(0)
	_, ok := mgr.(*memoryDraftManager)
	require.True(t, ok)

	draft := profileDraft{
		UserID: "user1",
		Step:   2,
		Profile: platform.ProfileData{
			Phone:   "555-0101",
			College: "State Engineering College",
		},
		Timestamp: util.GetTimeAsMsSinceEpoch(time.Now()),
	}
	require.NoError(t, mgr.Add(draft))
	stored, err := mgr.Get("user1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Step)
	assert.Equal(t, "State Engineering College", stored.Profile.College)

	_, err = mgr.Get("missing")
	require.Error(t, err)
	_, ok = err.(*util.RecordNotFoundError)
	assert.True(t, ok)

	mgr.Cleanup()
	_, err = mgr.Get("user1")
	require.NoError(t, err)

	draft.Timestamp = util.GetTimeAsMsSinceEpoch(time.Now().Add(-25 * time.Hour))
	require.NoError(t, mgr.Add(draft))
	mgr.Cleanup()
	_, err = mgr.Get("user1")
	require.Error(t, err)

	require.NoError(t, mgr.Remove("missing"))
}

func TestDbDraftManager(t *testing.T) {
	mgr := newDraftManager(1)
	_, ok := mgr.(*dbDraftManager)
	require.True(t, ok)

	draft := profileDraft{
		UserID: "user2",
		Step:   3,
		Profile: platform.ProfileData{
			Degree:         "B.Tech",
			GraduationYear: 2026,
		},
		Timestamp: util.GetTimeAsMsSinceEpoch(time.Now()),
	}
	require.NoError(t, mgr.Add(draft))
	stored, err := mgr.Get("user2")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Step)
	assert.Equal(t, "B.Tech", stored.Profile.Degree)
	assert.Equal(t, 2026, stored.Profile.GraduationYear)

	require.NoError(t, mgr.Remove("user2"))
	_, err = mgr.Get("user2")
	require.Error(t, err)

	draft.Timestamp = util.GetTimeAsMsSinceEpoch(time.Now().Add(-25 * time.Hour))
	require.NoError(t, mgr.Add(draft))
	mgr.Cleanup()
	_, err = mgr.Get("user2")
	require.Error(t, err)
}

func TestFlashMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, webLoginPath, nil)
	setFlashMessage(rr, r, newFlashMessage("test message", true))
	var flashCookie *http.Cookie
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == flashCookieName {
			flashCookie = cookie
		}
	}
	require.NotNil(t, flashCookie)

	r = httptest.NewRequest(http.MethodGet, webLoginPath, nil)
	r.AddCookie(flashCookie)
	rr = httptest.NewRecorder()
	msg := getFlashMessage(rr, r)
	assert.Equal(t, "test message", msg.Message)
	assert.True(t, msg.IsError)
	// reading the message clears the cookie
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)

	r = httptest.NewRequest(http.MethodGet, webLoginPath, nil)
	msg = getFlashMessage(httptest.NewRecorder(), r)
	assert.Empty(t, msg.Message)

	r = httptest.NewRequest(http.MethodGet, webLoginPath, nil)
	r.AddCookie(&http.Cookie{Name: flashCookieName, Value: "not base64"})
	msg = getFlashMessage(httptest.NewRecorder(), r)
	assert.Empty(t, msg.Message)
	assert.False(t, msg.IsError)
}

func TestGetRespStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, getRespStatus(util.NewValidationError("invalid")))
	assert.Equal(t, http.StatusForbidden, getRespStatus(util.NewMethodDisabledError("disabled")))
	assert.Equal(t, http.StatusNotFound, getRespStatus(util.NewRecordNotFoundError("not found")))
	assert.Equal(t, http.StatusUnauthorized, getRespStatus(platform.ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, getRespStatus(fmt.Errorf("wrapped: %w", platform.ErrUnauthorized)))
	assert.Equal(t, http.StatusForbidden, getRespStatus(platform.ErrForbidden))
	assert.Equal(t, http.StatusInternalServerError, getRespStatus(errors.New("generic error")))
}

func TestSendAPIResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/notifications/unread/json", nil)
	sendAPIResponse(rr, r, errors.New("request failed"), "error details", http.StatusInternalServerError)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "request failed")
	assert.Contains(t, rr.Body.String(), "error details")

	rr = httptest.NewRecorder()
	sendAPIResponse(rr, r, util.NewRecordNotFoundError("no such job"), "", http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), http.StatusText(http.StatusNotFound))
	assert.NotContains(t, rr.Body.String(), "no such job")
}

func TestIsTLS(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, webLoginPath, nil)
	assert.False(t, isTLS(r))
	r.TLS = &tls.ConnectionState{}
	assert.True(t, isTLS(r))

	r = httptest.NewRequest(http.MethodGet, webLoginPath, nil)
	ctx := context.WithValue(r.Context(), forwardedProtoKey, "https")
	assert.True(t, isTLS(r.WithContext(ctx)))
	ctx = context.WithValue(r.Context(), forwardedProtoKey, "http")
	assert.False(t, isTLS(r.WithContext(ctx)))
}

func TestRequestPathHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/notifications/unread/json", nil)
	assert.True(t, isJSONRequest(r))
	assert.False(t, isWebRequest(r))
	assert.False(t, isAdminRequest(r))

	r = httptest.NewRequest(http.MethodGet, webDashboardPath, nil)
	assert.False(t, isJSONRequest(r))
	assert.True(t, isWebRequest(r))

	r = httptest.NewRequest(http.MethodGet, webAdminPath, nil)
	assert.True(t, isAdminRequest(r))
	r = httptest.NewRequest(http.MethodGet, webAdminCandidatesPath, nil)
	assert.True(t, isAdminRequest(r))
	r = httptest.NewRequest(http.MethodGet, "/administrator", nil)
	assert.False(t, isAdminRequest(r))

	// the route context path wins over the URL path
	r = httptest.NewRequest(http.MethodGet, "/other", nil)
	rctx := chi.NewRouteContext()
	rctx.RoutePath = webAdminPath
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	assert.Equal(t, webAdminPath, getURLPath(r))
	assert.True(t, isAdminRequest(r))
}

func TestMustStripSlash(t *testing.T) {
	s := httpdServer{}
	r := httptest.NewRequest(http.MethodGet, webJobsPath+"/", nil)
	assert.True(t, s.mustStripSlash(r))
	r = httptest.NewRequest(http.MethodGet, webJobsPath+"//", nil)
	assert.False(t, s.mustStripSlash(r))
	r = httptest.NewRequest(http.MethodGet, webStaticFilesPath+"/css/app.css", nil)
	assert.False(t, s.mustStripSlash(r))
}

func TestContextKeyString(t *testing.T) {
	assert.Equal(t, "context value session gate", gateKey.String())
	assert.Equal(t, "context value token store", tokenStoreKey.String())
	assert.Equal(t, "context value forwarded proto", forwardedProtoKey.String())
}

func TestSessionHelpersWithoutMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, webDashboardPath, nil)
	assert.Nil(t, gateFromRequest(r))
	assert.Nil(t, tokenStoreFromRequest(r))
	session := sessionFromRequest(r)
	assert.False(t, session.Ready())
	assert.False(t, session.IsAuthenticated)
}

func TestGetSigningKey(t *testing.T) {
	k1 := getSigningKey("secret passphrase")
	k2 := getSigningKey("secret passphrase")
	require.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, getSigningKey("other passphrase"))

	r1 := getSigningKey("")
	r2 := getSigningKey("")
	require.Len(t, r1, 32)
	assert.NotEqual(t, r1, r2)
}

func TestGetConfigPath(t *testing.T) {
	assert.Empty(t, getConfigPath("", "/etc/campushire"))
	assert.Empty(t, getConfigPath("..", "/etc/campushire"))
	assert.Equal(t, filepath.Join("/etc/campushire", "portal.crt"), getConfigPath("portal.crt", "/etc/campushire"))
	assert.Equal(t, filepath.Join("/etc", "portal.crt"), getConfigPath(filepath.Join("/etc", "portal.crt"), "/etc/campushire"))
}

func TestGetSliceFromDelimitedValues(t *testing.T) {
	assert.Equal(t, []string{"Go", "SQL"}, getSliceFromDelimitedValues("Go, SQL", ","))
	assert.Equal(t, []string{"Go"}, getSliceFromDelimitedValues("Go,,  ", ","))
	assert.Equal(t, []string{"a", "b"}, getSliceFromDelimitedValues("a\nb\n\n", "\n"))
	assert.Len(t, getSliceFromDelimitedValues("", ","), 0)
}

func TestGetListOptions(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, webJobsPath+"?search=backend&page=3", nil)
	options := getListOptions(r)
	require.NotNil(t, options)
	assert.Equal(t, "backend", options.Search)
	assert.Equal(t, 3, options.Page)
	assert.Empty(t, options.Status)

	r = httptest.NewRequest(http.MethodGet, webAdminCandidatesPath+"?status=HIRED&page=invalid", nil)
	options = getListOptions(r)
	assert.Equal(t, "HIRED", options.Status)
	assert.Equal(t, 0, options.Page)

	r = httptest.NewRequest(http.MethodGet, webAdminResultsPath+"?test_id=t1&page=-1", nil)
	options = getListOptions(r)
	assert.Equal(t, "t1", options.TestID)
	assert.Equal(t, 0, options.Page)
}

func TestConfSigningPassphrase(t *testing.T) {
	c := Conf{
		SigningPassphrase: "plain",
	}
	passphrase, err := c.getSigningPassphrase("")
	require.NoError(t, err)
	assert.Equal(t, "plain", passphrase)

	dir := t.TempDir()
	passphraseFile := filepath.Join(dir, "passphrase")
	require.NoError(t, os.WriteFile(passphraseFile, []byte("from file\n"), 0600))
	c.SigningPassphraseFile = passphraseFile
	passphrase, err = c.getSigningPassphrase("")
	require.NoError(t, err)
	assert.Equal(t, "from file", passphrase)

	c.SigningPassphraseFile = "passphrase"
	passphrase, err = c.getSigningPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from file", passphrase)

	c.SigningPassphraseFile = filepath.Join(t.TempDir(), "missing")
	_, err = c.getSigningPassphrase("")
	require.Error(t, err)
}

func TestConfRequiredDirs(t *testing.T) {
	c := Conf{}
	err := c.checkRequiredDirs("", "templates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required directory is invalid")
	err = c.checkRequiredDirs("static", "")
	require.Error(t, err)
	require.NoError(t, c.checkRequiredDirs("static", "templates"))
}

func TestInitializeErrors(t *testing.T) {
	c := Conf{
		TemplatesPath:   "..",
		StaticFilesPath: "static",
	}
	err := c.Initialize(t.TempDir(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required directory is invalid")

	c = Conf{
		TemplatesPath:   "templates",
		StaticFilesPath: "static",
	}
	err = c.Initialize(filepath.Join("..", ".."), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform API URL")
}

func TestCleanupTicker(t *testing.T) {
	startCleanupTicker(time.Hour)
	require.NotNil(t, cleanupTicker)
	stopCleanupTicker()
	require.Nil(t, cleanupTicker)
	// stopping again must not panic
	stopCleanupTicker()
}
