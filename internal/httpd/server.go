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
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/cors"
	"github.com/unrolled/secure"

	"github.com/campushire/campushire/internal/gate"
	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/metric"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/util"
	"github.com/campushire/campushire/internal/version"
)

var (
	compressor      = middleware.NewCompressor(5)
	xForwardedProto = http.CanonicalHeaderKey("X-Forwarded-Proto")

	errInvalidCredentials = errors.New("invalid credentials")
)

type httpdServer struct {
	binding            Binding
	staticFilesPath    string
	enableWebCandidate bool
	enableWebAdmin     bool
	isShared           int
	router             *chi.Mux
	signingPassphrase  string
	cors               CorsConfig
	platform           *platform.Client
}

func newHttpdServer(b Binding, staticFilesPath, signingPassphrase string, cors CorsConfig,
	client *platform.Client,
) *httpdServer {
	return &httpdServer{
		binding:            b,
		staticFilesPath:    staticFilesPath,
		enableWebCandidate: b.EnableWebCandidate,
		enableWebAdmin:     b.EnableWebAdmin,
		signingPassphrase:  signingPassphrase,
		cors:               cors,
		platform:           client,
	}
}

func (s *httpdServer) setShared(value int) {
	s.isShared = value
}

// identityLookup resolves a bearer token to the user it belongs to by
// asking the platform API
func (s *httpdServer) identityLookup(ctx context.Context, token string) (*gate.UserRecord, error) {
	return s.platform.Me(ctx, token)
}

func (s *httpdServer) listenAndServe() error {
	s.initializeRouter()
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
		ErrorLog:          log.New(&logger.StdLoggerWrapper{Sender: logSender}, "", 0),
	}
	if s.binding.EnableHTTPS {
		certificateFile := getConfigPath(s.binding.CertificateFile, "")
		certificateKeyFile := getConfigPath(s.binding.CertificateKeyFile, "")
		certificate, err := tls.LoadX509KeyPair(certificateFile, certificateKeyFile)
		if err != nil {
			return fmt.Errorf("unable to load X509 key pair, cert file %q key file %q: %w",
				certificateFile, certificateKeyFile, err)
		}
		config := &tls.Config{
			Certificates: []tls.Certificate{certificate},
			MinVersion:   util.GetTLSVersion(s.binding.MinTLSVersion),
			NextProtos:   []string{"h2", "http/1.1"},
			CipherSuites: util.GetTLSCiphersFromNames(s.binding.TLSCipherSuites),
		}
		httpServer.TLSConfig = config
		logger.Debug(logSender, "", "configured TLS cipher suites for binding %q: %v",
			s.binding.GetAddress(), httpServer.TLSConfig.CipherSuites)
		return util.HTTPListenAndServe(httpServer, s.binding.Address, s.binding.Port, true, logSender)
	}
	return util.HTTPListenAndServe(httpServer, s.binding.Address, s.binding.Port, false, logSender)
}

func (s *httpdServer) renderCandidateLoginPage(w http.ResponseWriter, r *http.Request, err error, username string) {
	data := loginPage{
		basePage:     s.getBasePage(w, r, pageLoginTitle, webLoginPath),
		Username:     username,
		SignupURL:    webSignupPath,
		ForgotPwdURL: webForgotPwdPath,
	}
	if s.enableWebAdmin {
		data.AltLoginURL = webAdminLoginPath
		data.AltLoginName = s.binding.Branding.WebAdmin.ShortName
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateLogin, data)
}

func (s *httpdServer) renderAdminLoginPage(w http.ResponseWriter, r *http.Request, err error, username string) {
	data := loginPage{
		basePage: s.getAdminBasePage(w, r, pageAdminLoginTitle, webAdminLoginPath),
		Username: username,
	}
	if s.enableWebCandidate {
		data.AltLoginURL = webLoginPath
		data.AltLoginName = s.binding.Branding.WebCandidate.ShortName
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderAdminTemplate(w, templateLogin, data)
}

func (s *httpdServer) handleWebCandidateLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.renderCandidateLoginPage(w, r, nil, "")
}

func (s *httpdServer) handleWebCandidateLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderCandidateLoginPage(w, r, err, "")
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := strings.TrimSpace(r.Form.Get("password"))
	if email == "" || password == "" {
		s.renderCandidateLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderCandidateLoginPage(w, r, err, email)
		return
	}
	metric.AddLoginAttempt(metric.LoginKindCandidate)
	resp, err := s.platform.Login(r.Context(), platform.Credentials{
		Email:    email,
		Password: password,
	})
	metric.AddLoginResult(metric.LoginKindCandidate, err)
	if err != nil {
		logger.Debug(logSender, "", "candidate login for %q refused by the platform: %v", email, err)
		s.renderCandidateLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	s.loginCandidate(w, r, resp, email)
}

// loginCandidate stores the token returned by the platform and re-derives
// the session from it. The derivation repeats the identity lookup: a token
// the platform refuses to resolve leaves the session unauthenticated even
// though the login call just succeeded
func (s *httpdServer) loginCandidate(w http.ResponseWriter, r *http.Request, resp *platform.LoginResponse, email string) {
	store := tokenStoreFromRequest(r)
	g := gateFromRequest(r)
	if store == nil || g == nil {
		logger.Error(logSender, "", "candidate login for %q cannot complete, no session on this route", email)
		s.renderCandidateLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	store.SetAccessToken(resp.Token)
	g.Login(r.Context())
	session := g.Session()
	if !session.IsAuthenticated {
		logger.Warn(logSender, "", "candidate login for %q succeeded but the session could not be derived", email)
		s.renderCandidateLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	logger.Debug(logSender, "", "candidate %q logged in, profile complete %t", email, session.ProfileComplete)
	if !session.ProfileComplete {
		http.Redirect(w, r, webCompleteProfilePath, http.StatusFound)
		return
	}
	http.Redirect(w, r, webDashboardPath, http.StatusFound)
}

func (s *httpdServer) handleWebCandidateLogout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.invalidateSession(w, r)
	setFlashMessage(w, r, newFlashMessage("You have been signed out", false))
	http.Redirect(w, r, webLoginPath, http.StatusFound)
}

// invalidateSession revokes the current access token and clears the
// session. The platform logout is best-effort, the local revocation is
// what guarantees a replayed cookie stays dead
func (s *httpdServer) invalidateSession(w http.ResponseWriter, r *http.Request) {
	store := tokenStoreFromRequest(r)
	g := gateFromRequest(r)
	if store == nil || g == nil {
		return
	}
	if token := store.AccessToken(); token != "" {
		if err := s.platform.Logout(r.Context(), token); err != nil {
			logger.Debug(logSender, "", "platform logout failed: %v", err)
		}
		invalidatedTokens.Add(token, time.Now().Add(tokenDuration).UTC())
	}
	if token := store.AdminToken(); token != "" {
		invalidatedTokens.Add(token, time.Now().Add(tokenDuration).UTC())
	}
	g.AdminLogout()
	g.Logout()
}

func (s *httpdServer) handleWebAdminLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.renderAdminLoginPage(w, r, nil, "")
}

func (s *httpdServer) handleWebAdminLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderAdminLoginPage(w, r, err, "")
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := strings.TrimSpace(r.Form.Get("password"))
	if email == "" || password == "" {
		s.renderAdminLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminLoginPage(w, r, err, email)
		return
	}
	metric.AddLoginAttempt(metric.LoginKindAdmin)
	resp, err := s.platform.AdminLogin(r.Context(), platform.Credentials{
		Email:    email,
		Password: password,
	})
	metric.AddLoginResult(metric.LoginKindAdmin, err)
	if err != nil {
		logger.Debug(logSender, "", "admin login for %q refused by the platform: %v", email, err)
		s.renderAdminLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	s.loginAdmin(w, r, resp, email)
}

// loginAdmin stores the token returned by the admin login in both
// credential slots. The admin slot alone is worthless, an admin session
// always implies an authenticated one
func (s *httpdServer) loginAdmin(w http.ResponseWriter, r *http.Request, resp *platform.LoginResponse, email string) {
	store := tokenStoreFromRequest(r)
	g := gateFromRequest(r)
	if store == nil || g == nil {
		logger.Error(logSender, "", "admin login for %q cannot complete, no session on this route", email)
		s.renderAdminLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	store.SetAccessToken(resp.Token)
	store.SetAdminToken(resp.Token)
	g.Login(r.Context())
	if !g.Session().IsAuthenticated {
		logger.Warn(logSender, "", "admin login for %q succeeded but the session could not be derived", email)
		s.renderAdminLoginPage(w, r, errInvalidCredentials, email)
		return
	}
	g.AdminLogin()
	logger.Debug(logSender, "", "admin %q logged in", email)
	http.Redirect(w, r, webAdminPath, http.StatusFound)
}

// handleWebAdminLogout closes the admin session only. The candidate
// session, if any, stays authenticated, the access token slot is not
// touched
func (s *httpdServer) handleWebAdminLogout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	if g := gateFromRequest(r); g != nil {
		g.AdminLogout()
	}
	http.Redirect(w, r, webAdminLoginPath, http.StatusFound)
}

func (s *httpdServer) checkLoginRate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if loginLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
		if delay, err := loginLimiter.Wait(ipAddr); err != nil {
			delay += 499999999 * time.Nanosecond
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", delay.Seconds()))
			w.Header().Set("X-Retry-In", delay.String())
			logger.Debug(logSender, "", "login rate limited for ip %q: %v", ipAddr, err)
			s.sendTooManyRequestResponse(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *httpdServer) sendTooManyRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	if (s.enableWebCandidate || s.enableWebAdmin) && isWebRequest(r) {
		if isAdminRequest(r) && s.enableWebAdmin {
			s.renderAdminMessagePage(w, r, http.StatusText(http.StatusTooManyRequests),
				http.StatusTooManyRequests, err, "")
			return
		}
		s.renderMessagePage(w, r, http.StatusText(http.StatusTooManyRequests),
			http.StatusTooManyRequests, err, "")
		return
	}
	sendAPIResponse(w, r, err, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}

func (s *httpdServer) sendForbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	if (s.enableWebCandidate || s.enableWebAdmin) && isWebRequest(r) {
		if isAdminRequest(r) && s.enableWebAdmin {
			s.renderAdminMessagePage(w, r, http.StatusText(http.StatusForbidden),
				http.StatusForbidden, err, "")
			return
		}
		s.renderMessagePage(w, r, http.StatusText(http.StatusForbidden),
			http.StatusForbidden, err, "")
		return
	}
	sendAPIResponse(w, r, err, "", http.StatusForbidden)
}

func (s *httpdServer) badHostHandler(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	for _, header := range s.binding.Security.HostsProxyHeaders {
		if h := r.Header.Get(header); h != "" {
			host = h
			break
		}
	}
	s.sendForbiddenResponse(w, r, util.NewGenericError(fmt.Sprintf("The host %q is not allowed", host)))
}

// notFoundHandler answers unknown JSON paths with a 404 and sends anything
// else back to the login page. The login page itself must not loop
func (s *httpdServer) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if isJSONRequest(r) {
		sendAPIResponse(w, r, nil, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if (s.enableWebCandidate || s.enableWebAdmin) && getURLPath(r) != webLoginPath {
		http.Redirect(w, r, webLoginPath, http.StatusFound)
		return
	}
	sendAPIResponse(w, r, nil, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// The StripSlashes causes infinite redirects at the root path if used with http.FileServer.
// We also don't strip paths with more than one trailing slash
func (s *httpdServer) mustStripSlash(r *http.Request) bool {
	urlPath := getURLPath(r)
	return !strings.HasSuffix(urlPath, "//") && !strings.HasPrefix(urlPath, webStaticFilesPath)
}

func (s *httpdServer) parseHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", version.GetServerVersion("/", false))
		ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
		var ip net.IP
		isUnixSocket := filepath.IsAbs(s.binding.Address)
		if !isUnixSocket {
			ip = net.ParseIP(ipAddr)
		}
		areHeadersAllowed := false
		if isUnixSocket || ip != nil {
			for _, allow := range s.binding.allowHeadersFrom {
				if allow(ip) {
					parsedIP := util.GetRealIP(r, s.binding.ClientIPProxyHeader, s.binding.ClientIPHeaderDepth)
					if parsedIP != "" {
						ipAddr = parsedIP
						r.RemoteAddr = ipAddr
					}
					if forwardedProto := r.Header.Get(xForwardedProto); forwardedProto != "" {
						ctx := context.WithValue(r.Context(), forwardedProtoKey, forwardedProto)
						r = r.WithContext(ctx)
					}
					areHeadersAllowed = true
					break
				}
			}
		}
		if !areHeadersAllowed {
			for idx := range s.binding.Security.proxyHeaders {
				r.Header.Del(s.binding.Security.proxyHeaders[idx])
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *httpdServer) initializeRouter() {
	s.router = chi.NewRouter()

	s.router.Use(middleware.RequestID)
	s.router.Use(s.parseHeaders)
	s.router.Use(logger.NewStructuredLogger(logger.GetLogger()))
	s.router.Use(middleware.Recoverer)
	if s.binding.Security.Enabled {
		secureMiddleware := secure.New(secure.Options{
			AllowedHosts:            s.binding.Security.AllowedHosts,
			AllowedHostsAreRegex:    s.binding.Security.AllowedHostsAreRegex,
			HostsProxyHeaders:       s.binding.Security.HostsProxyHeaders,
			SSLProxyHeaders:         s.binding.Security.getHTTPSProxyHeaders(),
			STSSeconds:              s.binding.Security.STSSeconds,
			STSIncludeSubdomains:    s.binding.Security.STSIncludeSubdomains,
			STSPreload:              s.binding.Security.STSPreload,
			ContentTypeNosniff:      s.binding.Security.ContentTypeNosniff,
			ContentSecurityPolicy:   s.binding.Security.ContentSecurityPolicy,
			PermissionsPolicy:       s.binding.Security.PermissionsPolicy,
			CrossOriginOpenerPolicy: s.binding.Security.CrossOriginOpenerPolicy,
		})
		secureMiddleware.SetBadHostHandler(http.HandlerFunc(s.badHostHandler))
		s.router.Use(secureMiddleware.Handler)
		if s.binding.Security.HTTPSRedirect {
			s.router.Use(s.binding.Security.redirectHandler)
		}
	}
	if s.cors.Enabled {
		c := cors.New(cors.Options{
			AllowedOrigins:       util.RemoveDuplicates(s.cors.AllowedOrigins, true),
			AllowedMethods:       util.RemoveDuplicates(s.cors.AllowedMethods, true),
			AllowedHeaders:       util.RemoveDuplicates(s.cors.AllowedHeaders, true),
			ExposedHeaders:       util.RemoveDuplicates(s.cors.ExposedHeaders, true),
			MaxAge:               s.cors.MaxAge,
			AllowCredentials:     s.cors.AllowCredentials,
			OptionsPassthrough:   s.cors.OptionsPassthrough,
			OptionsSuccessStatus: s.cors.OptionsSuccessStatus,
			AllowPrivateNetwork:  s.cors.AllowPrivateNetwork,
		})
		s.router.Use(c.Handler)
	}
	s.router.Use(middleware.GetHead)
	s.router.Use(middleware.Maybe(middleware.StripSlashes, s.mustStripSlash))

	s.router.NotFound(s.notFoundHandler)

	s.router.Get(healthzPath, func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})

	s.router.Get(robotsTxtPath, func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "User-agent: *\nDisallow: /")
	})

	if s.binding.EnableMetrics {
		metric.AddMetricsEndpoint(metricsPath, s.router)
	}

	if s.enableWebCandidate || s.enableWebAdmin {
		s.router.Group(func(router chi.Router) {
			router.Use(compressor.Handler)
			serveStaticDir(router, webStaticFilesPath, s.staticFilesPath, true)
		})
	}

	s.setupWebCandidateRoutes()
	s.setupWebAdminRoutes()
}

func (s *httpdServer) setupWebCandidateRoutes() {
	if !s.enableWebCandidate {
		return
	}
	s.router.Group(func(router chi.Router) {
		router.Use(s.loadSession)

		// the routing resolution does not know the logout path, it has to
		// stay outside the guarded group
		router.Get(webLogoutPath, s.handleWebCandidateLogout)

		// JSON endpoints used by the page scripts, they answer with a
		// status code instead of a routing redirect
		router.Group(func(jsonRouter chi.Router) {
			jsonRouter.Use(s.requireAuthJSON)

			jsonRouter.Get(webNotificationsPath+"/unread"+jsonAPISuffix, s.getUnreadNotificationsCount)
			jsonRouter.With(verifyCSRFHeader).Post(webNotificationsPath+"/{noteID}/read"+jsonAPISuffix,
				s.markNotificationRead)
			jsonRouter.With(verifyCSRFHeader).Post(webCompleteProfilePath+"/draft"+jsonAPISuffix,
				s.saveProfileDraft)
		})

		router.Group(func(guarded chi.Router) {
			guarded.Use(s.routeGuard)

			guarded.Get(webLoginPath, s.handleWebCandidateLogin)
			guarded.With(s.checkLoginRate).Post(webLoginPath, s.handleWebCandidateLoginPost)
			guarded.Get(webSignupPath, s.handleWebCandidateSignup)
			guarded.With(s.checkLoginRate).Post(webSignupPath, s.handleWebCandidateSignupPost)
			guarded.Get(webVerifyEmailPath, s.handleWebCandidateVerifyEmail)
			guarded.Post(webVerifyEmailPath, s.handleWebCandidateVerifyEmailPost)
			guarded.Get(webForgotPwdPath, s.handleWebCandidateForgotPwd)
			guarded.With(s.checkLoginRate).Post(webForgotPwdPath, s.handleWebCandidateForgotPwdPost)
			guarded.Get(webResetPwdPath, s.handleWebCandidateResetPwd)
			guarded.Post(webResetPwdPath, s.handleWebCandidateResetPwdPost)

			guarded.Get(webCompleteProfilePath, s.handleWebCandidateCompleteProfile)
			guarded.Post(webCompleteProfilePath, s.handleWebCandidateCompleteProfilePost)
			guarded.Post(webCompleteProfilePath+"/resume", s.handleWebCandidateResumeUpload)

			guarded.Get(webDashboardPath, s.handleWebCandidateDashboard)
			guarded.Get(webJobsPath, s.handleWebCandidateJobs)
			guarded.Get(webJobsPath+"/{jobID}", s.handleWebCandidateJob)
			guarded.Post(webJobsPath+"/{jobID}/apply", s.handleWebCandidateJobApply)
			guarded.Get(webCoursesPath, s.handleWebCandidateCourses)
			guarded.Get(webAssessmentsPath, s.handleWebCandidateAssessments)
			guarded.Get(webNotificationsPath, s.handleWebCandidateNotifications)
			guarded.Post(webNotificationsPath+"/read-all", s.handleWebCandidateNotificationsReadAll)
			guarded.Get(webTestsPath+"/{testID}", s.handleWebCandidateTest)
			guarded.Post(webTestsPath+"/{testID}/submit", s.handleWebCandidateTestSubmit)
			guarded.Get(webTestsPath+"/{testID}/result", s.handleWebCandidateTestResult)
			guarded.Get(webProfilePath, s.handleWebCandidateProfile)
			guarded.Post(webProfilePath, s.handleWebCandidateProfilePost)
		})
	})
}

func (s *httpdServer) setupWebAdminRoutes() {
	if !s.enableWebAdmin {
		return
	}
	s.router.Group(func(router chi.Router) {
		router.Use(s.loadSession)

		router.Group(func(guarded chi.Router) {
			guarded.Use(s.routeGuard)

			guarded.Get(webAdminLoginPath, s.handleWebAdminLogin)
			guarded.With(s.checkLoginRate).Post(webAdminLoginPath, s.handleWebAdminLoginPost)
			guarded.Get(webAdminLogoutPath, s.handleWebAdminLogout)

			guarded.Get(webAdminPath, s.handleWebAdminDashboard)
			guarded.Get(webAdminCandidatesPath, s.handleWebAdminCandidates)
			guarded.Get(webAdminCandidatesPath+"/{candidateID}", s.handleWebAdminCandidate)
			guarded.Post(webAdminCandidatesPath+"/{candidateID}/status", s.handleWebAdminCandidateStatus)
			guarded.Get(webAdminJobsPath, s.handleWebAdminJobs)
			guarded.Get(webAdminJobsPath+"/add", s.handleWebAdminJobAdd)
			guarded.Post(webAdminJobsPath+"/add", s.handleWebAdminJobAddPost)
			guarded.Get(webAdminJobsPath+"/{jobID}", s.handleWebAdminJob)
			guarded.Post(webAdminJobsPath+"/{jobID}", s.handleWebAdminJobPost)
			guarded.Post(webAdminJobsPath+"/{jobID}/delete", s.handleWebAdminJobDelete)
			guarded.Get(webAdminTestsPath, s.handleWebAdminTests)
			guarded.Get(webAdminTestsPath+"/add", s.handleWebAdminTestAdd)
			guarded.Post(webAdminTestsPath+"/add", s.handleWebAdminTestAddPost)
			guarded.Get(webAdminTestsPath+"/{testID}", s.handleWebAdminTest)
			guarded.Post(webAdminTestsPath+"/{testID}", s.handleWebAdminTestPost)
			guarded.Post(webAdminTestsPath+"/{testID}/delete", s.handleWebAdminTestDelete)
			guarded.Get(webAdminResultsPath, s.handleWebAdminResults)
			guarded.Get(webAdminResultsPath+"/export", s.handleWebAdminResultsExport)
		})
	})
}
