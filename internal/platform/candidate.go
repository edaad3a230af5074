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
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/campushire/campushire/internal/httpclient"
	"github.com/campushire/campushire/internal/metric"
)

// DashboardSummary defines the counters shown on the candidate dashboard
type DashboardSummary struct {
	OpenJobs            int64 `json:"open_jobs"`
	Applications        int64 `json:"applications"`
	TestsTaken          int64 `json:"tests_taken"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

// Job defines a job posting
type Job struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	JobType     string   `json:"job_type"`
	Salary      string   `json:"salary"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Applied     bool     `json:"applied"`
	CreatedAt   int64    `json:"created_at"`
}

// JobsPage defines a page of job postings
type JobsPage struct {
	Jobs  []Job `json:"jobs"`
	Total int64 `json:"total"`
}

// Course defines a training course
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Provider    string `json:"provider"`
	Level       string `json:"level"`
	Duration    string `json:"duration"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// CoursesPage defines a page of courses
type CoursesPage struct {
	Courses []Course `json:"courses"`
	Total   int64    `json:"total"`
}

// Assessment defines a skill assessment available to the candidate
type Assessment struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Skill           string `json:"skill"`
	DurationMinutes int    `json:"duration_minutes"`
	QuestionCount   int    `json:"question_count"`
	Status          string `json:"status"`
}

// AssessmentsPage defines a page of assessments
type AssessmentsPage struct {
	Assessments []Assessment `json:"assessments"`
	Total       int64        `json:"total"`
}

// Question defines a test question as shown to the candidate, the correct
// option is never exposed here
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Test defines a test with its questions
type Test struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	Questions       []Question `json:"questions"`
}

// TestResult defines the outcome of a submitted test
type TestResult struct {
	TestID      string `json:"test_id"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	Total       int    `json:"total"`
	Passed      bool   `json:"passed"`
	CompletedAt int64  `json:"completed_at"`
}

// Notification defines a notification for the candidate
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
}

// NotificationsPage defines a page of notifications
type NotificationsPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
}

// ProfileData defines the candidate profile fields collected by the
// onboarding wizard
type ProfileData struct {
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"date_of_birth"`
	Address        string `json:"address"`
	College        string `json:"college"`
	Degree         string `json:"degree"`
	Branch         string `json:"branch"`
	GraduationYear int    `json:"graduation_year"`
	CGPA           string `json:"cgpa"`
}

// Profile defines the full candidate profile
type Profile struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	ProfileComplete bool        `json:"profile_complete"`
	Details         ProfileData `json:"details"`
	ResumeURL       string      `json:"resume_url"`
}

// GetDashboardSummary returns the dashboard counters
func (c *Client) GetDashboardSummary(ctx context.Context, token string) (*DashboardSummary, error) {
	var summary DashboardSummary
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(dashboardSummaryPath), token, nil, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetJobs returns a page of job postings
func (c *Client) GetJobs(ctx context.Context, token string, options *ListOptions) (*JobsPage, error) {
	var page JobsPage
	url := urlWithQuery(c.buildURL(jobsPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetJob returns the job posting with the given ID
func (c *Client) GetJob(ctx context.Context, token, jobID string) (*Job, error) {
	var job Job
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(jobsPath, jobID), token, nil, &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ApplyJob submits an application for the given job. Single attempt, the
// call is not idempotent
func (c *Client) ApplyJob(ctx context.Context, token, jobID string) error {
	err := c.sendRequest(ctx, http.MethodPost, c.buildURL(jobsPath, jobID, "apply"), token, nil, nil)
	metric.JobApplicationCompleted(err)
	return err
}

// GetCourses returns a page of courses
func (c *Client) GetCourses(ctx context.Context, token string, options *ListOptions) (*CoursesPage, error) {
	var page CoursesPage
	url := urlWithQuery(c.buildURL(coursesPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAssessments returns a page of assessments
func (c *Client) GetAssessments(ctx context.Context, token string, options *ListOptions) (*AssessmentsPage, error) {
	var page AssessmentsPage
	url := urlWithQuery(c.buildURL(assessmentsPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTest returns the test with its questions
func (c *Client) GetTest(ctx context.Context, token, testID string) (*Test, error) {
	var test Test
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(testsPath, testID), token, nil, &test)
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// SubmitTest submits the answers for a test and returns the graded result.
// Answers map question IDs to the selected option index. Single attempt
func (c *Client) SubmitTest(ctx context.Context, token, testID string, answers map[string]int) (*TestResult, error) {
	payload := map[string]any{
		"answers": answers,
	}
	var result TestResult
	err := c.sendRequest(ctx, http.MethodPost, c.buildURL(testsPath, testID, "submit"), token, payload, &result)
	metric.TestSubmissionCompleted(err)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTestResult returns the stored result for an already submitted test
func (c *Client) GetTestResult(ctx context.Context, token, testID string) (*TestResult, error) {
	var result TestResult
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(testsPath, testID, "result"), token, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNotifications returns a page of notifications
func (c *Client) GetNotifications(ctx context.Context, token string, options *ListOptions) (*NotificationsPage, error) {
	var page NotificationsPage
	url := urlWithQuery(c.buildURL(notificationsPath), options.values())
	err := c.sendRetryableRequest(ctx, http.MethodGet, url, token, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetUnreadNotificationCount returns the number of unread notifications,
// polled by the page layout
func (c *Client) GetUnreadNotificationCount(ctx context.Context, token string) (int64, error) {
	var response struct {
		Count int64 `json:"count"`
	}
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(notificationsPath, "unread-count"), token, nil, &response)
	if err != nil {
		return 0, err
	}
	return response.Count, nil
}

// MarkNotificationRead marks a single notification as read
func (c *Client) MarkNotificationRead(ctx context.Context, token, notificationID string) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(notificationsPath, notificationID, "read"), token, nil, nil)
}

// MarkAllNotificationsRead marks every notification as read
func (c *Client) MarkAllNotificationsRead(ctx context.Context, token string) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(notificationsPath, "read-all"), token, nil, nil)
}

// GetProfile returns the candidate profile
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	err := c.sendRetryableRequest(ctx, http.MethodGet, c.buildURL(profilePath), token, nil, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile updates the candidate profile fields
func (c *Client) UpdateProfile(ctx context.Context, token string, data ProfileData) error {
	return c.sendRequest(ctx, http.MethodPut, c.buildURL(profilePath), token, data, nil)
}

// CompleteProfile submits the onboarding wizard data. On success the
// platform flips the profile completion flag
func (c *Client) CompleteProfile(ctx context.Context, token string, data ProfileData) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(profilePath, "complete"), token, data, nil)
}

// UploadResume streams a resume file to the platform as a multipart form.
// Single attempt, the body cannot be replayed
func (c *Client) UploadResume(ctx context.Context, token, fileName string, reader io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("resume", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, reader); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	url := c.buildURL(profilePath, "resume")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", token))
	httpclient.AddHeaders(req, url)
	resp, err := httpclient.GetHTTPClient().Do(req)
	if err != nil {
		metric.PlatformRequestCompleted(err)
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, http.MethodPost, url, nil)
}
