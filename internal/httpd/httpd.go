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

// Package httpd implements the web portal. It serves the candidate pages
// and the admin console, rebuilds the authentication session from the
// browser cookies on every request and routes each page request through
// the session gate before rendering.
package httpd

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"

	"github.com/campushire/campushire/internal/gate"
	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/util"
	"github.com/campushire/campushire/internal/version"
)

const (
	logSender     = "httpd"
	jsonAPISuffix = "/json"

	webLoginPath           = gate.LoginPath
	webSignupPath          = gate.SignupPath
	webVerifyEmailPath     = gate.VerifyEmailPath
	webForgotPwdPath       = gate.ForgotPasswordPath
	webResetPwdPath        = gate.ResetPasswordPath
	webCompleteProfilePath = gate.CompleteProfilePath
	webDashboardPath       = gate.DashboardPath
	webJobsPath            = gate.JobsPath
	webCoursesPath         = gate.CoursesPath
	webAssessmentsPath     = gate.AssessmentsPath
	webProfilePath         = gate.ProfilePath
	webNotificationsPath   = gate.NotificationsPath
	webTestsPath           = gate.TestsPath
	webAdminPath           = gate.AdminPath
	webAdminLoginPath      = gate.AdminLoginPath

	webAdminCandidatesPath = webAdminPath + "/candidates"
	webAdminJobsPath       = webAdminPath + "/jobs"
	webAdminTestsPath      = webAdminPath + "/tests"
	webAdminResultsPath    = webAdminPath + "/results"

	webLogoutPath      = "/logout"
	webAdminLogoutPath = "/admin/logout"
	webStaticFilesPath = "/static"
	healthzPath        = "/healthz"
	robotsTxtPath      = "/robots.txt"
	metricsPath        = "/metrics"

	maxRequestSize   = 1048576      // 1MB
	maxLoginBodySize = 262144       // 256 KB
	maxMultipartMem  = 10 * 1048576 // 10 MB

	csrfFormToken   = "_form_token"
	csrfHeaderToken = "X-CSRF-TOKEN"
)

var (
	csrfTokenAuth     *jwtauth.JWTAuth
	invalidatedTokens tokenManager
	draftMgr          profileDraftManager
	loginLimiter      *rateLimiter
	platformClient    *platform.Client
	cleanupTicker     *time.Ticker
	cleanupDone       chan bool
)

// HTTPSProxyHeader defines the header to use for HTTPS detection
type HTTPSProxyHeader struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

// SecurityConf defines the security options available
type SecurityConf struct {
	// Set to true to enable the security configurations
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// AllowedHosts is a list of fully qualified domain names that are allowed.
	// Default is empty list, which allows any and all host names.
	AllowedHosts []string `json:"allowed_hosts" mapstructure:"allowed_hosts"`
	// AllowedHostsAreRegex determines if the provided allowed hosts contains valid regular expressions
	AllowedHostsAreRegex bool `json:"allowed_hosts_are_regex" mapstructure:"allowed_hosts_are_regex"`
	// HostsProxyHeaders is a set of header keys that may hold a proxied hostname value for the request.
	HostsProxyHeaders []string `json:"hosts_proxy_headers" mapstructure:"hosts_proxy_headers"`
	// Set to true to redirect HTTP requests to HTTPS
	HTTPSRedirect bool `json:"https_redirect" mapstructure:"https_redirect"`
	// HTTPSHost defines the host name that is used to redirect HTTP requests to HTTPS.
	// Default is "", which indicates to use the same host.
	HTTPSHost string `json:"https_host" mapstructure:"https_host"`
	// HTTPSProxyHeaders is a list of header keys with associated values that would indicate a valid https request.
	HTTPSProxyHeaders []HTTPSProxyHeader `json:"https_proxy_headers" mapstructure:"https_proxy_headers"`
	// STSSeconds is the max-age of the Strict-Transport-Security header.
	// Default is 0, which would NOT include the header.
	STSSeconds int64 `json:"sts_seconds" mapstructure:"sts_seconds"`
	// If STSIncludeSubdomains is set to true, the "includeSubdomains" will be appended to the
	// Strict-Transport-Security header. Default is false.
	STSIncludeSubdomains bool `json:"sts_include_subdomains" mapstructure:"sts_include_subdomains"`
	// If STSPreload is set to true, the `preload` flag will be appended to the
	// Strict-Transport-Security header. Default is false.
	STSPreload bool `json:"sts_preload" mapstructure:"sts_preload"`
	// If ContentTypeNosniff is true, adds the X-Content-Type-Options header with the value "nosniff". Default is false.
	ContentTypeNosniff bool `json:"content_type_nosniff" mapstructure:"content_type_nosniff"`
	// ContentSecurityPolicy allows to set the Content-Security-Policy header value. Default is "".
	ContentSecurityPolicy string `json:"content_security_policy" mapstructure:"content_security_policy"`
	// PermissionsPolicy allows to set the Permissions-Policy header value. Default is "".
	PermissionsPolicy string `json:"permissions_policy" mapstructure:"permissions_policy"`
	// CrossOriginOpenerPolicy allows to set the `Cross-Origin-Opener-Policy` header value. Default is "".
	CrossOriginOpenerPolicy string `json:"cross_origin_opener_policy" mapstructure:"cross_origin_opener_policy"`
	proxyHeaders            []string
}

func (s *SecurityConf) updateProxyHeaders() {
	if !s.Enabled {
		s.proxyHeaders = nil
		return
	}
	s.proxyHeaders = s.HostsProxyHeaders
	for _, httpsProxyHeader := range s.HTTPSProxyHeaders {
		s.proxyHeaders = append(s.proxyHeaders, httpsProxyHeader.Key)
	}
}

func (s *SecurityConf) getHTTPSProxyHeaders() map[string]string {
	headers := make(map[string]string)
	for _, httpsProxyHeader := range s.HTTPSProxyHeaders {
		headers[httpsProxyHeader.Key] = httpsProxyHeader.Value
	}
	return headers
}

func (s *SecurityConf) redirectHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isTLS(r) {
			url := r.URL
			url.Scheme = "https"
			if s.HTTPSHost != "" {
				url.Host = s.HTTPSHost
			} else {
				host := r.Host
				for _, header := range s.HostsProxyHeaders {
					if h := r.Header.Get(header); h != "" {
						host = h
						break
					}
				}
				url.Host = host
			}
			http.Redirect(w, r, url.String(), http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UIBranding defines the supported customizations for a portal area
type UIBranding struct {
	// Name defines the text to show next to the logo
	Name string `json:"name" mapstructure:"name"`
	// ShortName defines the name for the top left of the layout
	ShortName string `json:"short_name" mapstructure:"short_name"`
	// Path to your logo relative to "static_files_path"
	LogoPath string `json:"logo_path" mapstructure:"logo_path"`
	// Path to your favicon relative to "static_files_path"
	FaviconPath string `json:"favicon_path" mapstructure:"favicon_path"`
	// DefaultCSS replaces the default CSS files
	DefaultCSS []string `json:"default_css" mapstructure:"default_css"`
	// Additional CSS files
	ExtraCSS []string `json:"extra_css" mapstructure:"extra_css"`
}

func (b *UIBranding) check() {
	if b.Name == "" {
		b.Name = "CampusHire"
	}
	if b.ShortName == "" {
		b.ShortName = "CampusHire"
	}
	if b.LogoPath == "" {
		b.LogoPath = "/img/logo.png"
	}
	if b.FaviconPath == "" {
		b.FaviconPath = "/favicon.png"
	}
	if len(b.DefaultCSS) > 0 {
		for idx := range b.DefaultCSS {
			b.DefaultCSS[idx] = util.CleanPath(b.DefaultCSS[idx])
		}
	} else {
		b.DefaultCSS = []string{"/css/app.css"}
	}
	for idx := range b.ExtraCSS {
		b.ExtraCSS[idx] = util.CleanPath(b.ExtraCSS[idx])
	}
}

// Branding defines the branding-related customizations for the two portal areas
type Branding struct {
	WebCandidate UIBranding `json:"web_candidate" mapstructure:"web_candidate"`
	WebAdmin     UIBranding `json:"web_admin" mapstructure:"web_admin"`
}

// CorsConfig defines the CORS configuration
type CorsConfig struct {
	AllowedOrigins       []string `json:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods       []string `json:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders       []string `json:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders       []string `json:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials     bool     `json:"allow_credentials" mapstructure:"allow_credentials"`
	Enabled              bool     `json:"enabled" mapstructure:"enabled"`
	MaxAge               int      `json:"max_age" mapstructure:"max_age"`
	OptionsPassthrough   bool     `json:"options_passthrough" mapstructure:"options_passthrough"`
	OptionsSuccessStatus int      `json:"options_success_status" mapstructure:"options_success_status"`
	AllowPrivateNetwork  bool     `json:"allow_private_network" mapstructure:"allow_private_network"`
}

// RateLimitConfig defines the configuration for the login rate limiter.
// The limiter is keyed on the client source IP and only guards the login
// and admin login form submissions
type RateLimitConfig struct {
	// Average defines the maximum login rate allowed. 0 means disabled
	Average int64 `json:"average" mapstructure:"average"`
	// Period defines the period as milliseconds. Default: 1000 (1 second).
	// The rate is actually defined by dividing average by period.
	// So for a rate below 1 req/s, one needs to define a period larger than a second.
	Period int64 `json:"period" mapstructure:"period"`
	// Burst is the maximum number of requests allowed to go through in the
	// same arbitrarily small period of time. Default: 1
	Burst int `json:"burst" mapstructure:"burst"`
	// The number of per-ip rate limiters kept in memory will vary between the
	// soft and hard limit
	EntriesSoftLimit int `json:"entries_soft_limit" mapstructure:"entries_soft_limit"`
	EntriesHardLimit int `json:"entries_hard_limit" mapstructure:"entries_hard_limit"`
}

func (r *RateLimitConfig) isEnabled() bool {
	return r.Average > 0
}

func (r *RateLimitConfig) validate() error {
	if !r.isEnabled() {
		return nil
	}
	if r.Burst < 1 {
		return fmt.Errorf("invalid burst %v. It must be >= 1", r.Burst)
	}
	if r.Period < 100 {
		return fmt.Errorf("invalid period %v. It must be >= 100", r.Period)
	}
	if r.EntriesSoftLimit <= 0 {
		return fmt.Errorf("invalid entries_soft_limit %v", r.EntriesSoftLimit)
	}
	if r.EntriesHardLimit <= r.EntriesSoftLimit {
		return fmt.Errorf("invalid entries_hard_limit %v must be > %v", r.EntriesHardLimit, r.EntriesSoftLimit)
	}
	return nil
}

// Binding defines the configuration for a network listener
type Binding struct {
	// The address to listen on. A blank value means listen on all available network interfaces.
	Address string `json:"address" mapstructure:"address"`
	// The port used for serving requests
	Port int `json:"port" mapstructure:"port"`
	// Enable the candidate web interface
	EnableWebCandidate bool `json:"enable_web_candidate" mapstructure:"enable_web_candidate"`
	// Enable the admin console
	EnableWebAdmin bool `json:"enable_web_admin" mapstructure:"enable_web_admin"`
	// Expose the Prometheus metrics endpoint on this binding
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics"`
	// you also need to provide a certificate for enabling HTTPS
	EnableHTTPS bool `json:"enable_https" mapstructure:"enable_https"`
	// Certificate and matching private key for this specific binding, if empty the global
	// ones will be used, if any
	CertificateFile    string `json:"certificate_file" mapstructure:"certificate_file"`
	CertificateKeyFile string `json:"certificate_key_file" mapstructure:"certificate_key_file"`
	// Defines the minimum TLS version. 13 means TLS 1.3, default is TLS 1.2
	MinTLSVersion int `json:"min_tls_version" mapstructure:"min_tls_version"`
	// TLSCipherSuites is a list of supported cipher suites for TLS version 1.2.
	// If CipherSuites is nil/empty, a default list of secure cipher suites
	// is used, with a preference order based on hardware performance
	TLSCipherSuites []string `json:"tls_cipher_suites" mapstructure:"tls_cipher_suites"`
	// List of IP addresses and IP ranges allowed to set client IP proxy headers
	ProxyAllowed []string `json:"proxy_allowed" mapstructure:"proxy_allowed"`
	// Allowed client IP proxy header such as "X-Forwarded-For", "X-Real-IP"
	ClientIPProxyHeader string `json:"client_ip_proxy_header" mapstructure:"client_ip_proxy_header"`
	// Some client IP headers such as "X-Forwarded-For" can contain multiple IP address.
	// This setting define the position to trust starting from the right. For example if
	// we have: "10.0.0.1,11.0.0.1,12.0.0.1,13.0.0.1" and the depth is 0, the client IP
	// will be 13.0.0.1
	ClientIPHeaderDepth int `json:"client_ip_header_depth" mapstructure:"client_ip_header_depth"`
	// Defines the security options for this binding
	Security SecurityConf `json:"security" mapstructure:"security"`
	// Branding defines the branding-related customizations for this binding
	Branding         Branding `json:"branding" mapstructure:"branding"`
	allowHeadersFrom []func(net.IP) bool
}

// GetAddress returns the binding address
func (b *Binding) GetAddress() string {
	return fmt.Sprintf("%s:%d", b.Address, b.Port)
}

// IsValid returns true if the binding is valid
func (b *Binding) IsValid() bool {
	if !b.EnableWebCandidate && !b.EnableWebAdmin {
		return false
	}
	if b.Port > 0 {
		return true
	}
	if filepath.IsAbs(b.Address) {
		return true
	}
	return false
}

func (b *Binding) parseAllowedProxy() error {
	if filepath.IsAbs(b.Address) && len(b.ProxyAllowed) > 0 {
		// unix domain socket
		b.allowHeadersFrom = []func(ip net.IP) bool{func(_ net.IP) bool { return true }}
		return nil
	}
	allowedFuncs, err := util.ParseAllowedIPAndRanges(b.ProxyAllowed)
	if err != nil {
		return err
	}
	b.allowHeadersFrom = allowedFuncs
	return nil
}

func (b *Binding) checkBranding() {
	b.Branding.WebCandidate.check()
	b.Branding.WebAdmin.check()
}

// Conf portal configuration
type Conf struct {
	// Addresses and ports to bind to
	Bindings []Binding `json:"bindings" mapstructure:"bindings"`
	// Path to the HTML web templates. This can be an absolute path or a path relative to the config dir
	TemplatesPath string `json:"templates_path" mapstructure:"templates_path"`
	// Path to the static files for the web interface. This can be an absolute path or a path relative to the config dir
	StaticFilesPath string `json:"static_files_path" mapstructure:"static_files_path"`
	// Base URL of the recruitment platform API, for example "https://api.example.com/api/v1"
	PlatformURL string `json:"platform_url" mapstructure:"platform_url"`
	// ServerVersion defines the version info exposed in the Server HTTP header.
	// Set to "short" to hide the version number
	ServerVersion string `json:"server_version" mapstructure:"server_version"`
	// If files containing a certificate and matching private key for this specific binding are provided,
	// other TLS configurations and bindings can reuse them
	CertificateFile    string `json:"certificate_file" mapstructure:"certificate_file"`
	CertificateKeyFile string `json:"certificate_key_file" mapstructure:"certificate_key_file"`
	// CORS configuration
	Cors CorsConfig `json:"cors" mapstructure:"cors"`
	// Login rate limiter configuration
	RateLimit RateLimitConfig `json:"rate_limit" mapstructure:"rate_limit"`
	// SigningPassphrase is the passphrase used to derive the signing key for the
	// CSRF tokens. A random signing key will be generated if empty, invalidating
	// outstanding form tokens on restart
	SigningPassphrase string `json:"signing_passphrase" mapstructure:"signing_passphrase"`
	// SigningPassphraseFile defines the path to a file containing the signing passphrase
	SigningPassphraseFile string `json:"signing_passphrase_file" mapstructure:"signing_passphrase_file"`
	// MinPasswordEntropy defines the minimum entropy required for the passwords
	// chosen on signup and password reset. 0 means no validation
	MinPasswordEntropy float64 `json:"min_password_entropy" mapstructure:"min_password_entropy"`
	// Maximum allowed resume upload size in bytes. 0 means the multipart memory limit
	MaxUploadFileSize int64 `json:"max_upload_file_size" mapstructure:"max_upload_file_size"`
}

// ShouldBind returns true if there is at least a valid binding
func (c *Conf) ShouldBind() bool {
	for _, binding := range c.Bindings {
		if binding.IsValid() {
			return true
		}
	}
	return false
}

func (c *Conf) checkRequiredDirs(staticFilesPath, templatesPath string) error {
	if staticFilesPath == "" || templatesPath == "" {
		return fmt.Errorf("required directory is invalid, static file path: %q template path: %q",
			staticFilesPath, templatesPath)
	}
	return nil
}

func (c *Conf) getSigningPassphrase(configDir string) (string, error) {
	if c.SigningPassphraseFile == "" {
		return c.SigningPassphrase, nil
	}
	data, err := os.ReadFile(getConfigPath(c.SigningPassphraseFile, configDir))
	if err != nil {
		return "", fmt.Errorf("unable to read signing passphrase file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Initialize configures and starts the web portal
func (c *Conf) Initialize(configDir string, isShared int) error {
	logger.Info(logSender, "", "initializing portal server version %v, config dir %v",
		version.Get().Version, configDir)
	templatesPath := util.FindSharedDataPath(c.TemplatesPath, configDir)
	staticFilesPath := util.FindSharedDataPath(c.StaticFilesPath, configDir)
	if err := c.checkRequiredDirs(staticFilesPath, templatesPath); err != nil {
		return err
	}
	if c.PlatformURL == "" {
		return fmt.Errorf("platform API URL is required")
	}
	loadTemplates(templatesPath)
	logger.Info(logSender, "", "templates loaded from %q, static files served from %q",
		templatesPath, staticFilesPath)
	signingPassphrase, err := c.getSigningPassphrase(configDir)
	if err != nil {
		return err
	}
	csrfTokenAuth = jwtauth.New(jwa.HS256.String(), getSigningKey(signingPassphrase), nil)
	if err := c.RateLimit.validate(); err != nil {
		return fmt.Errorf("invalid rate limiter config: %w", err)
	}
	if c.RateLimit.isEnabled() {
		loginLimiter = c.RateLimit.getLimiter()
	}
	invalidatedTokens = newTokenManager(isShared)
	draftMgr = newDraftManager(isShared)
	platformClient = platform.NewClient(c.PlatformURL)
	resumeMaxSize = c.MaxUploadFileSize
	minPasswordEntropy = c.MinPasswordEntropy
	version.SetConfig(c.ServerVersion)

	exitChannel := make(chan error, 1)

	for _, binding := range c.Bindings {
		if !binding.IsValid() {
			continue
		}
		if err := binding.parseAllowedProxy(); err != nil {
			return err
		}
		binding.checkBranding()
		binding.Security.updateProxyHeaders()
		if binding.CertificateFile == "" || binding.CertificateKeyFile == "" {
			binding.CertificateFile = c.CertificateFile
			binding.CertificateKeyFile = c.CertificateKeyFile
		}

		go func(b Binding) {
			server := newHttpdServer(b, staticFilesPath, signingPassphrase, c.Cors, platformClient)
			server.setShared(isShared)

			exitChannel <- server.listenAndServe()
		}(binding)
	}

	startCleanupTicker(30 * time.Minute)
	return <-exitChannel
}

func getConfigPath(name, configDir string) string {
	if !util.IsFileInputValid(name) {
		return ""
	}
	if name != "" && !filepath.IsAbs(name) {
		return filepath.Join(configDir, name)
	}
	return name
}

func getSigningKey(signingPassphrase string) []byte {
	if signingPassphrase != "" {
		sk := sha256.Sum256([]byte(signingPassphrase))
		return sk[:]
	}
	return util.GenerateRandomBytes(32)
}

func getURLPath(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePath != "" {
		return rctx.RoutePath
	}
	return r.URL.Path
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasSuffix(getURLPath(r), jsonAPISuffix)
}

func isWebRequest(r *http.Request) bool {
	return !isJSONRequest(r)
}

func isAdminRequest(r *http.Request) bool {
	urlPath := getURLPath(r)
	return urlPath == webAdminPath || strings.HasPrefix(urlPath, webAdminPath+"/")
}

func startCleanupTicker(duration time.Duration) {
	stopCleanupTicker()
	cleanupTicker = time.NewTicker(duration)
	cleanupDone = make(chan bool)

	go func() {
		for {
			select {
			case <-cleanupDone:
				return
			case <-cleanupTicker.C:
				invalidatedTokens.Cleanup()
				draftMgr.Cleanup()
			}
		}
	}()
}

func stopCleanupTicker() {
	if cleanupTicker != nil {
		cleanupTicker.Stop()
		cleanupDone <- true
		cleanupTicker = nil
	}
}
