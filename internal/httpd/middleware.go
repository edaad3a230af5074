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
	"net/http"

	"github.com/campushire/campushire/internal/gate"
	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/metric"
	"github.com/campushire/campushire/internal/util"
)

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "context value " + k.name
}

var (
	gateKey           = &contextKey{"session gate"}
	tokenStoreKey     = &contextKey{"token store"}
	forwardedProtoKey = &contextKey{"forwarded proto"}
)

func gateFromRequest(r *http.Request) *gate.Gate {
	if g, ok := r.Context().Value(gateKey).(*gate.Gate); ok {
		return g
	}
	return nil
}

func tokenStoreFromRequest(r *http.Request) *cookieTokenStore {
	if store, ok := r.Context().Value(tokenStoreKey).(*cookieTokenStore); ok {
		return store
	}
	return nil
}

func sessionFromRequest(r *http.Request) gate.Session {
	if g := gateFromRequest(r); g != nil {
		return g.Session()
	}
	return gate.Session{}
}

// loadSession rebuilds the authentication session from the request cookies.
// The derived session, and the gate owning it, are stashed in the request
// context, routing decisions must not be taken before this ran
func (s *httpdServer) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := newCookieTokenStore(w, r)
		g := gate.New(store, s.identityLookup)
		g.Initialize(r.Context())

		ctx := context.WithValue(r.Context(), gateKey, g)
		ctx = context.WithValue(ctx, tokenStoreKey, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// routeGuard evaluates the routing decision for the requested page against
// the session derived by loadSession. A render decision falls through to
// the page handler, anything else is answered with a redirect
func (s *httpdServer) routeGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromRequest(r)
		if !session.Ready() {
			logger.Error(logSender, "", "route guard invoked with no derived session, path %q", getURLPath(r))
			s.renderMessagePage(w, r, page500Title, http.StatusInternalServerError, nil, "")
			return
		}
		decision := gate.Resolve(session.State(), getURLPath(r))
		metric.RouteResolved(!decision.IsRender())
		if !decision.IsRender() {
			http.Redirect(w, r, decision.RedirectTarget(), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuthJSON guards the JSON endpoints used by the candidate layout.
// They answer 401 instead of redirecting so the client side can react
func (s *httpdServer) requireAuthJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromRequest(r)
		if !session.IsAuthenticated {
			sendAPIResponse(w, r, nil, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// verifyCSRFHeader guards state-changing JSON endpoints
func verifyCSRFHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := util.GetIPFromRemoteAddress(r.RemoteAddr)
		if err := verifyCSRFToken(r, ip); err != nil {
			sendAPIResponse(w, r, err, "", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
