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

// Package platform implements the client for the recruitment platform API.
// The portal never persists platform data, every page load reads through
// this client with the bearer token stored in the browser cookies.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/campushire/campushire/internal/httpclient"
	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/metric"
	"github.com/campushire/campushire/internal/util"
)

const logSender = "platform"

const (
	loginPath            = "/auth/login"
	adminLoginPath       = "/auth/admin/login"
	signupPath           = "/auth/signup"
	verifyEmailPath      = "/auth/verify-email"
	forgotPasswordPath   = "/auth/forgot-password"
	resetPasswordPath    = "/auth/reset-password"
	logoutPath           = "/auth/logout"
	mePath               = "/auth/me"
	dashboardSummaryPath = "/dashboard/summary"
	jobsPath             = "/jobs"
	coursesPath          = "/courses"
	assessmentsPath      = "/assessments"
	testsPath            = "/tests"
	notificationsPath    = "/notifications"
	profilePath          = "/profile"
	adminSummaryPath     = "/admin/summary"
	adminCandidatesPath  = "/admin/candidates"
	adminJobsPath        = "/admin/jobs"
	adminTestsPath       = "/admin/tests"
	adminResultsPath     = "/admin/results"
)

// maximum size for an error response body we are willing to parse
const maxErrorResponseSize = 10240

// Errors returned for 401/403 platform responses, the web layer reacts to
// these by closing the local session
var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")
)

// Client is a client for the recruitment platform API
type Client struct {
	baseURL string
}

// NewClient returns a client for the platform API reachable at the
// specified base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) buildURL(paths ...string) string {
	// we need to use path.Join and not filepath.Join
	// since filepath.Join will use backslash separator on Windows
	p := path.Join(paths...)
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(p, "/"))
}

type apiError struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err
}

func errorFromResponse(resp *http.Response) error {
	var details apiError
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorResponseSize))
	if err == nil {
		json.Unmarshal(body, &details) //nolint:errcheck
	}
	msg := details.text()
	if msg == "" {
		msg = fmt.Sprintf("unexpected status code %v", resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return util.NewRecordNotFoundError(msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return util.NewValidationError(msg)
	default:
		return util.NewGenericError(msg)
	}
}

// sendRequest performs a single-attempt request. The identity lookup and all
// state-changing calls go through here: they must never retry automatically
func (c *Client) sendRequest(ctx context.Context, method, url, token string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", token))
	}
	httpclient.AddHeaders(req, url)
	resp, err := httpclient.GetHTTPClient().Do(req)
	if err != nil {
		metric.PlatformRequestCompleted(err)
		logger.Debug(logSender, "", "error sending request %v %q: %v", method, url, err)
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, method, url, respBody)
}

// sendRetryableRequest performs a request with automatic retries, it is
// used for the idempotent reads backing list and detail pages
func (c *Client) sendRetryableRequest(ctx context.Context, method, url, token string, reqBody, respBody any) error {
	var rawBody []byte
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		rawBody = data
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, rawBody)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", token))
	}
	httpclient.AddHeaders(req.Request, url)
	resp, err := httpclient.GetRetraybleHTTPClient().Do(req)
	if err != nil {
		metric.PlatformRequestCompleted(err)
		logger.Debug(logSender, "", "error sending retryable request %v %q: %v", method, url, err)
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, method, url, respBody)
}

func (c *Client) handleResponse(resp *http.Response, method, url string, respBody any) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		err := errorFromResponse(resp)
		metric.PlatformRequestCompleted(err)
		logger.Debug(logSender, "", "request %v %q failed, status %v: %v", method, url, resp.StatusCode, err)
		return err
	}
	metric.PlatformRequestCompleted(nil)
	if respBody == nil {
		return nil
	}
	return render.DecodeJSON(resp.Body, respBody)
}

// ListOptions defines the query parameters common to the list endpoints.
// Zero values are omitted from the query string
type ListOptions struct {
	Search   string
	Status   string
	TestID   string
	Page     int
	PageSize int
}

func (o *ListOptions) values() url.Values {
	vals := make(url.Values)
	if o == nil {
		return vals
	}
	if o.Search != "" {
		vals.Set("search", o.Search)
	}
	if o.Status != "" {
		vals.Set("status", o.Status)
	}
	if o.TestID != "" {
		vals.Set("test_id", o.TestID)
	}
	if o.Page > 0 {
		vals.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		vals.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return vals
}

func urlWithQuery(baseURL string, vals url.Values) string {
	if len(vals) == 0 {
		return baseURL
	}
	return fmt.Sprintf("%s?%s", baseURL, vals.Encode())
}
