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

//go:build !nometrics

// Package metric provides Prometheus metrics support
package metric

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushire/campushire/internal/version"
)

// Login kinds
const (
	LoginKindCandidate = "candidate"
	LoginKindAdmin     = "admin"
)

func init() {
	version.AddFeature("+metrics")
}

var (
	// platformAvailability is the metric that reports the availability for the platform API
	platformAvailability = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campushire_platform_availability",
		Help: "Availability for the platform API, 1 means OK, 0 KO",
	})

	// totalLoginAttempts is the metric that reports the total number of login attempts
	totalLoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushire_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"kind"})

	// totalLoginOK is the metric that reports the total number of successful logins
	totalLoginOK = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushire_login_ok_total",
		Help: "The total number of successful logins",
	}, []string{"kind"})

	// totalLoginFailed is the metric that reports the total number of failed logins
	totalLoginFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campushire_login_ko_total",
		Help: "The total number of failed logins",
	}, []string{"kind"})

	// totalIdentityChecks is the metric that reports the total number of identity lookups
	totalIdentityChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_identity_checks_total",
		Help: "The total number of identity lookups against the platform API",
	})

	// totalIdentityCheckErrors is the metric that reports the total number of failed identity lookups
	totalIdentityCheckErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_identity_check_errors_total",
		Help: "The total number of failed identity lookups",
	})

	// totalPlatformRequests is the metric that reports the total number of platform API requests
	totalPlatformRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_platform_requests_total",
		Help: "The total number of requests sent to the platform API",
	})

	// totalPlatformErrors is the metric that reports the total number of platform API errors
	totalPlatformErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_platform_request_errors_total",
		Help: "The total number of platform API request errors",
	})

	// totalPageRenders is the metric that reports the total number of rendered pages
	totalPageRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_page_renders_total",
		Help: "The total number of routing decisions that rendered the requested page",
	})

	// totalPageRedirects is the metric that reports the total number of gate redirects
	totalPageRedirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_page_redirects_total",
		Help: "The total number of routing decisions that redirected elsewhere",
	})

	// totalJobApplications is the metric that reports the total number of submitted job applications
	totalJobApplications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_job_applications_total",
		Help: "The total number of submitted job applications",
	})

	// totalJobApplicationErrors is the metric that reports the total number of failed job applications
	totalJobApplicationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_job_application_errors_total",
		Help: "The total number of failed job applications",
	})

	// totalTestSubmissions is the metric that reports the total number of submitted tests
	totalTestSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_test_submissions_total",
		Help: "The total number of submitted tests",
	})

	// totalTestSubmissionErrors is the metric that reports the total number of failed test submissions
	totalTestSubmissionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_test_submission_errors_total",
		Help: "The total number of failed test submissions",
	})

	// totalHTTPRequests is the metric that reports the total number of served HTTP requests
	totalHTTPRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_http_req_total",
		Help: "The total number of HTTP requests served",
	})

	// totalHTTPOK is the metric that reports the total number of HTTP requests served with 2xx status
	totalHTTPOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_http_req_ok_total",
		Help: "The total number of HTTP requests served with 2xx status",
	})

	// totalHTTPClientErrors is the metric that reports the total number of HTTP requests served with 4xx status
	totalHTTPClientErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_http_client_errors_total",
		Help: "The total number of HTTP requests served with 4xx status",
	})

	// totalHTTPServerErrors is the metric that reports the total number of HTTP requests served with 5xx status
	totalHTTPServerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushire_http_server_errors_total",
		Help: "The total number of HTTP requests served with 5xx status",
	})
)

// AddMetricsEndpoint publishes metrics to the specified endpoint
func AddMetricsEndpoint(metricsPath string, handler chi.Router) {
	handler.Handle(metricsPath, promhttp.Handler())
}

// AddLoginAttempt increments the metrics for login attempts
func AddLoginAttempt(kind string) {
	totalLoginAttempts.WithLabelValues(kind).Inc()
}

// AddLoginResult increments the metrics for login results
func AddLoginResult(kind string, err error) {
	if err == nil {
		totalLoginOK.WithLabelValues(kind).Inc()
	} else {
		totalLoginFailed.WithLabelValues(kind).Inc()
	}
}

// IdentityCheckCompleted updates metrics after an identity lookup
func IdentityCheckCompleted(err error) {
	totalIdentityChecks.Inc()
	if err != nil {
		totalIdentityCheckErrors.Inc()
	}
}

// PlatformRequestCompleted updates metrics after a platform API request
func PlatformRequestCompleted(err error) {
	totalPlatformRequests.Inc()
	if err != nil {
		totalPlatformErrors.Inc()
	}
}

// UpdatePlatformAvailability sets the metric for the platform API availability
func UpdatePlatformAvailability(err error) {
	if err == nil {
		platformAvailability.Set(1)
	} else {
		platformAvailability.Set(0)
	}
}

// RouteResolved increments the metrics for routing decisions
func RouteResolved(redirected bool) {
	if redirected {
		totalPageRedirects.Inc()
	} else {
		totalPageRenders.Inc()
	}
}

// JobApplicationCompleted updates metrics after a job application
func JobApplicationCompleted(err error) {
	if err == nil {
		totalJobApplications.Inc()
	} else {
		totalJobApplicationErrors.Inc()
	}
}

// TestSubmissionCompleted updates metrics after a test submission
func TestSubmissionCompleted(err error) {
	if err == nil {
		totalTestSubmissions.Inc()
	} else {
		totalTestSubmissionErrors.Inc()
	}
}

// HTTPRequestServed increments the metrics for HTTP requests
func HTTPRequestServed(status int) {
	totalHTTPRequests.Inc()
	if status >= 200 && status < 300 {
		totalHTTPOK.Inc()
	} else if status >= 400 && status < 500 {
		totalHTTPClientErrors.Inc()
	} else if status >= 500 {
		totalHTTPServerErrors.Inc()
	}
}
