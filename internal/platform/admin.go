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

package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/campushire/campushire/internal/httpclient"
	"github.com/campushire/campushire/internal/metric"
)

// Candidate statuses the admin console can set
const (
	CandidateStatusActive      = "ACTIVE"
	CandidateStatusShortlisted = "SHORTLISTED"
	CandidateStatusHired       = "HIRED"
	CandidateStatusRejected    = "REJECTED"
)

// AdminSummary defines the counters shown on the admin dashboard
type AdminSummary struct {
	Candidates   int64 `json:"candidates"`
	Jobs         int64 `json:"jobs"`
	Tests        int64 `json:"tests"`
	Applications int64 `json:"applications"`
}

// Candidate defines a candidate as seen from the admin console
type Candidate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	College      string `json:"college"`
	Status       string `json:"status"`
	Applications int    `json:"applications"`
	TestsTaken   int    `json:"tests_taken"`
	ResumeURL    string `json:"resume_url"`
	CreatedAt    int64  `json:"created_at"`
}

// CandidatesPage defines a page of candidates
type CandidatesPage struct {
	Candidates []Candidate `json:"candidates"`
	Total      int64       `json:"total"`
}

// AdminQuestion defines a test question with its correct option, only
// visible through the admin endpoints
type AdminQuestion struct {
	ID            string   `json:"id,omitempty"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

// AdminTest defines a test as managed by the admin console
type AdminTest struct {
	ID              string          `json:"id,omitempty"`
	Title           string          `json:"title"`
	DurationMinutes int             `json:"duration_minutes"`
	PassScore       int             `json:"pass_score"`
	Questions       []AdminQuestion `json:"questions"`
}

// AdminTestsPage defines a page of tests
type AdminTestsPage struct {
	Tests []AdminTest `json:"tests"`
	Total int64       `json:"total"`
}

// Result defines a candidate test result row
type Result struct {
	ID            string `json:"id"`
	CandidateID   string `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	TestID        string `json:"test_id"`
	TestTitle     string `json:"test_title"`
	Score         int    `json:"score"`
	Total         int    `json:"total"`
	Passed        bool   `json:"passed"`
	CompletedAt   int64  `json:"completed_at"`
}

// ResultsPage defines a page of results
type ResultsPage struct {
	Results []Result `json:"results"`
	Total   int64    `json:"total"`
}

// GetAdminSummary returns the admin dashboard counters
func (c *Client) GetAdminSummary(ctx context.Context, token string) (*AdminSummary, error) {
	var summary AdminSummary
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(adminSummaryPath), token, nil, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetCandidates returns a page of candidates
func (c *Client) GetCandidates(ctx context.Context, token string, options *ListOptions) (*CandidatesPage, error) {
	var page CandidatesPage
	url := urlWithQuery(c.buildURL(adminCandidatesPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetCandidate returns the candidate with the given ID
func (c *Client) GetCandidate(ctx context.Context, token, candidateID string) (*Candidate, error) {
	var candidate Candidate
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(adminCandidatesPath, candidateID), token, nil, &candidate)
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

// UpdateCandidateStatus sets the recruitment status for a candidate
func (c *Client) UpdateCandidateStatus(ctx context.Context, token, candidateID, status string) error {
	payload := map[string]string{
		"status": status,
	}
	return c.sendRequest(ctx, http.MethodPut, c.buildURL(adminCandidatesPath, candidateID, "status"), token, payload, nil)
}

// GetAdminJobs returns a page of job postings for the admin console
func (c *Client) GetAdminJobs(ctx context.Context, token string, options *ListOptions) (*JobsPage, error) {
	var page JobsPage
	url := urlWithQuery(c.buildURL(adminJobsPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAdminJob returns a job posting for editing
func (c *Client) GetAdminJob(ctx context.Context, token, jobID string) (*Job, error) {
	var job Job
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(adminJobsPath, jobID), token, nil, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob creates a new job posting
func (c *Client) CreateJob(ctx context.Context, token string, job *Job) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(adminJobsPath), token, job, nil)
}

// UpdateJob updates an existing job posting
func (c *Client) UpdateJob(ctx context.Context, token string, job *Job) error {
	return c.sendRequest(ctx, http.MethodPut, c.buildURL(adminJobsPath, job.ID), token, job, nil)
}

// DeleteJob deletes a job posting
func (c *Client) DeleteJob(ctx context.Context, token, jobID string) error {
	return c.sendRequest(ctx, http.MethodDelete, c.buildURL(adminJobsPath, jobID), token, nil, nil)
}

// GetAdminTests returns a page of tests for the admin console
func (c *Client) GetAdminTests(ctx context.Context, token string, options *ListOptions) (*AdminTestsPage, error) {
	var page AdminTestsPage
	url := urlWithQuery(c.buildURL(adminTestsPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAdminTest returns a test with its questions and correct options
func (c *Client) GetAdminTest(ctx context.Context, token, testID string) (*AdminTest, error) {
	var test AdminTest
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(adminTestsPath, testID), token, nil, &test)
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// CreateTest creates a new test
func (c *Client) CreateTest(ctx context.Context, token string, test *AdminTest) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(adminTestsPath), token, test, nil)
}

// UpdateTest updates an existing test
func (c *Client) UpdateTest(ctx context.Context, token string, test *AdminTest) error {
	return c.sendRequest(ctx, http.MethodPut, c.buildURL(adminTestsPath, test.ID), token, test, nil)
}

// DeleteTest deletes a test
func (c *Client) DeleteTest(ctx context.Context, token, testID string) error {
	return c.sendRequest(ctx, http.MethodDelete, c.buildURL(adminTestsPath, testID), token, nil, nil)
}

// GetResults returns a page of test results
func (c *Client) GetResults(ctx context.Context, token string, options *ListOptions) (*ResultsPage, error) {
	var page ResultsPage
	url := urlWithQuery(c.buildURL(adminResultsPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ExportResults streams the results as CSV. The caller must close the
// returned reader
func (c *Client) ExportResults(ctx context.Context, token string, options *ListOptions) (io.ReadCloser, error) {
	url := urlWithQuery(c.buildURL(adminResultsPath, "export"), options.values())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", token))
	httpclient.AddHeaders(req, url)
	resp, err := httpclient.GetHTTPClient().Do(req)
	if err != nil {
		metric.PlatformRequestCompleted(err)
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		defer resp.Body.Close()
		err := errorFromResponse(resp)
		metric.PlatformRequestCompleted(err)
		return nil, err
	}
	metric.PlatformRequestCompleted(nil)
	return resp.Body, nil
}
