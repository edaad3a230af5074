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
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/xid"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/util"
)

type tokenAudience string

const (
	tokenAudienceCSRF tokenAudience = "CSRF"
)

const (
	accessTokenCookieKey = "access_token"
	adminTokenCookieKey  = "admin_token"
)

var (
	// tokenDuration bounds the browser-side lifetime of the upstream bearer
	// tokens. The platform enforces its own expiration, this only caps how
	// long the cookie and a revocation entry for it are kept around
	tokenDuration = 12 * time.Hour
	// csrf token duration is greater than normal token duration to reduce issues
	// with the login form
	csrfTokenDuration = 4 * time.Hour
)

// cookieTokenStore exposes the two browser credential slots.
// Tokens revoked by a previous logout are reported as absent, so a replayed
// cookie cannot resurrect a session before the upstream expiration.
// Writes are kept in-memory too: a login or logout must be observable by
// the session derivation before the browser sends the updated cookies back
type cookieTokenStore struct {
	w           http.ResponseWriter
	r           *http.Request
	accessToken *string
	adminToken  *string
}

func newCookieTokenStore(w http.ResponseWriter, r *http.Request) *cookieTokenStore {
	return &cookieTokenStore{
		w: w,
		r: r,
	}
}

func (s *cookieTokenStore) cookieValue(name string) string {
	cookie, err := s.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if invalidatedTokens.Get(cookie.Value) {
		return ""
	}
	return cookie.Value
}

// AccessToken returns the primary credential slot
func (s *cookieTokenStore) AccessToken() string {
	if s.accessToken != nil {
		return *s.accessToken
	}
	return s.cookieValue(accessTokenCookieKey)
}

// AdminToken returns the admin credential slot
func (s *cookieTokenStore) AdminToken() string {
	if s.adminToken != nil {
		return *s.adminToken
	}
	return s.cookieValue(adminTokenCookieKey)
}

// SetAccessToken stores the primary credential
func (s *cookieTokenStore) SetAccessToken(token string) {
	setCookie(s.w, s.r, accessTokenCookieKey, token, tokenDuration)
	s.accessToken = &token
}

// SetAdminToken stores the admin credential
func (s *cookieTokenStore) SetAdminToken(token string) {
	setCookie(s.w, s.r, adminTokenCookieKey, token, tokenDuration)
	s.adminToken = &token
}

// ClearAccessToken removes the primary credential slot
func (s *cookieTokenStore) ClearAccessToken() {
	removeCookie(s.w, s.r, accessTokenCookieKey)
	var empty string
	s.accessToken = &empty
}

// ClearAdminToken removes the admin credential slot
func (s *cookieTokenStore) ClearAdminToken() {
	removeCookie(s.w, s.r, adminTokenCookieKey)
	var empty string
	s.adminToken = &empty
}

func setCookie(w http.ResponseWriter, r *http.Request, name, value string, duration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		MaxAge:   int(duration / time.Second),
		HttpOnly: true,
		Secure:   isTLS(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func removeCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isTLS(r),
		SameSite: http.SameSiteStrictMode,
	})
	w.Header().Add("Cache-Control", `no-cache="Set-Cookie"`)
}

func isTLS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto, ok := r.Context().Value(forwardedProtoKey).(string); ok {
		return proto == "https"
	}
	return false
}

func createCSRFToken(ip string) string {
	claims := make(map[string]any)
	now := time.Now().UTC()

	claims[jwt.JwtIDKey] = xid.New().String()
	claims[jwt.NotBeforeKey] = now.Add(-30 * time.Second)
	claims[jwt.ExpirationKey] = now.Add(csrfTokenDuration)
	claims[jwt.AudienceKey] = []string{string(tokenAudienceCSRF), ip}

	_, tokenString, err := csrfTokenAuth.Encode(claims)
	if err != nil {
		logger.Debug(logSender, "", "unable to create CSRF token: %v", err)
		return ""
	}
	return tokenString
}

// verifyCSRFToken validates the token carried in the form field, or in the
// request header for the JSON endpoints. The token is bound to the client IP
func verifyCSRFToken(r *http.Request, ip string) error {
	tokenString := r.Form.Get(csrfFormToken)
	if tokenString == "" {
		tokenString = r.Header.Get(csrfHeaderToken)
	}
	token, err := jwtauth.VerifyToken(csrfTokenAuth, tokenString)
	if err != nil || token == nil {
		logger.Debug(logSender, "", "error validating CSRF token %q: %v", tokenString, err)
		return fmt.Errorf("unable to verify form token: %v", err)
	}

	if !slices.Contains(token.Audience(), string(tokenAudienceCSRF)) {
		logger.Debug(logSender, "", "error validating CSRF token audience")
		return errors.New("the form token is not valid")
	}

	if err := validateIPForToken(token, ip); err != nil {
		logger.Debug(logSender, "", "error validating CSRF token IP audience")
		return errors.New("the form token is not valid")
	}
	return nil
}

func validateIPForToken(token jwt.Token, ip string) error {
	if !slices.Contains(token.Audience(), ip) {
		return util.NewValidationError("token is not valid")
	}
	return nil
}
