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
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/util"
)

// candidateStatuses are the pipeline states selectable from the console,
// the platform enforces the allowed transitions
var candidateStatuses = []string{
	platform.CandidateStatusActive,
	platform.CandidateStatusShortlisted,
	platform.CandidateStatusHired,
	platform.CandidateStatusRejected,
}

type adminDashboardPage struct {
	basePage
	Summary *platform.AdminSummary
}

type adminCandidatesPage struct {
	basePage
	Candidates []platform.Candidate
	Total      int64
	Search     string
	Status     string
	Statuses   []string
}

type adminCandidatePage struct {
	basePage
	Candidate *platform.Candidate
	Statuses  []string
}

type adminJobsPage struct {
	basePage
	Jobs   []platform.Job
	Total  int64
	Search string
}

type adminJobPage struct {
	basePage
	Job   *platform.Job
	IsAdd bool
}

type adminTestsPage struct {
	basePage
	Tests []platform.AdminTest
	Total int64
}

type adminTestPage struct {
	basePage
	Test  *platform.AdminTest
	IsAdd bool
}

type adminResultsPage struct {
	basePage
	Results []platform.Result
	Total   int64
	Tests   []platform.AdminTest
	TestID  string
}

func adminTokenFromRequest(r *http.Request) string {
	if store := tokenStoreFromRequest(r); store != nil {
		return store.AdminToken()
	}
	return ""
}

func getSliceFromDelimitedValues(values, delimiter string) []string {
	result := []string{}
	for _, v := range strings.Split(values, delimiter) {
		cleaned := strings.TrimSpace(v)
		if cleaned != "" {
			result = append(result, cleaned)
		}
	}
	return result
}

func (s *httpdServer) handleAdminRequestError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, platform.ErrUnauthorized) || errors.Is(err, platform.ErrForbidden) {
		s.invalidateSession(w, r)
		setFlashMessage(w, r, newFlashMessage("Your session has expired, please sign in again", true))
		http.Redirect(w, r, webAdminLoginPath, http.StatusFound)
		return
	}
	if _, ok := err.(*util.RecordNotFoundError); ok {
		s.renderAdminMessagePage(w, r, page404Title, http.StatusNotFound, err, "")
		return
	}
	if _, ok := err.(*util.ValidationError); ok {
		s.renderAdminMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	s.renderAdminMessagePage(w, r, page500Title, http.StatusInternalServerError, err, "")
}

func (s *httpdServer) handleWebAdminDashboard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	summary, err := s.platform.GetAdminSummary(r.Context(), adminTokenFromRequest(r))
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	data := adminDashboardPage{
		basePage: s.getAdminBasePage(w, r, pageAdminDashboardTitle, webAdminPath),
		Summary:  summary,
	}
	renderAdminTemplate(w, templateAdminDashboard, data)
}

func (s *httpdServer) handleWebAdminCandidates(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	options := getListOptions(r)
	candidates, err := s.platform.GetCandidates(r.Context(), adminTokenFromRequest(r), options)
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	data := adminCandidatesPage{
		basePage:   s.getAdminBasePage(w, r, pageAdminCandidatesTitle, webAdminCandidatesPath),
		Candidates: candidates.Candidates,
		Total:      candidates.Total,
		Search:     options.Search,
		Status:     options.Status,
		Statuses:   candidateStatuses,
	}
	renderAdminTemplate(w, templateAdminCandidates, data)
}

func (s *httpdServer) handleWebAdminCandidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	candidateID := chi.URLParam(r, "candidateID")
	candidate, err := s.platform.GetCandidate(r.Context(), adminTokenFromRequest(r), candidateID)
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	data := adminCandidatePage{
		basePage:  s.getAdminBasePage(w, r, candidate.Name, webAdminCandidatesPath+"/"+candidateID),
		Candidate: candidate,
		Statuses:  candidateStatuses,
	}
	renderAdminTemplate(w, templateAdminCandidate, data)
}

func (s *httpdServer) handleWebAdminCandidateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderAdminMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	candidateID := chi.URLParam(r, "candidateID")
	status := strings.TrimSpace(r.Form.Get("status"))
	if !util.Contains(candidateStatuses, status) {
		s.renderAdminMessagePage(w, r, page400Title, http.StatusBadRequest,
			util.NewValidationError(fmt.Sprintf("status %q is not valid", status)), "")
		return
	}
	if err := s.platform.UpdateCandidateStatus(r.Context(), adminTokenFromRequest(r), candidateID, status); err != nil {
		logger.Debug(logSender, "", "status update for candidate %q refused by the platform: %v", candidateID, err)
		s.handleAdminRequestError(w, r, err)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Candidate status updated", false))
	http.Redirect(w, r, webAdminCandidatesPath+"/"+candidateID, http.StatusFound)
}

func (s *httpdServer) handleWebAdminJobs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	options := getListOptions(r)
	jobs, err := s.platform.GetAdminJobs(r.Context(), adminTokenFromRequest(r), options)
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	data := adminJobsPage{
		basePage: s.getAdminBasePage(w, r, pageAdminJobsTitle, webAdminJobsPath),
		Jobs:     jobs.Jobs,
		Total:    jobs.Total,
		Search:   options.Search,
	}
	renderAdminTemplate(w, templateAdminJobs, data)
}

func (s *httpdServer) renderAdminJobPage(w http.ResponseWriter, r *http.Request, err error, job *platform.Job, isAdd bool) {
	currentURL := webAdminJobsPath + "/add"
	title := "Add job"
	if !isAdd {
		currentURL = webAdminJobsPath + "/" + job.ID
		title = "Edit job"
	}
	data := adminJobPage{
		basePage: s.getAdminBasePage(w, r, title, currentURL),
		Job:      job,
		IsAdd:    isAdd,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderAdminTemplate(w, templateAdminJob, data)
}

func getJobFromPostFields(r *http.Request) (*platform.Job, error) {
	job := &platform.Job{
		Title:       strings.TrimSpace(r.Form.Get("title")),
		Company:     strings.TrimSpace(r.Form.Get("company")),
		Location:    strings.TrimSpace(r.Form.Get("location")),
		JobType:     strings.TrimSpace(r.Form.Get("job_type")),
		Salary:      strings.TrimSpace(r.Form.Get("salary")),
		Description: r.Form.Get("description"),
		Skills:      getSliceFromDelimitedValues(r.Form.Get("skills"), ","),
	}
	if job.Title == "" || job.Company == "" {
		return nil, util.NewValidationError("title and company are required")
	}
	return job, nil
}

func (s *httpdServer) handleWebAdminJobAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	s.renderAdminJobPage(w, r, nil, &platform.Job{}, true)
}

func (s *httpdServer) handleWebAdminJobAddPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderAdminJobPage(w, r, err, &platform.Job{}, true)
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	job, err := getJobFromPostFields(r)
	if err != nil {
		s.renderAdminJobPage(w, r, err, &platform.Job{}, true)
		return
	}
	if err := s.platform.CreateJob(r.Context(), adminTokenFromRequest(r), job); err != nil {
		logger.Debug(logSender, "", "job creation refused by the platform: %v", err)
		s.renderAdminJobPage(w, r, err, job, true)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Job created", false))
	http.Redirect(w, r, webAdminJobsPath, http.StatusFound)
}

func (s *httpdServer) handleWebAdminJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	jobID := chi.URLParam(r, "jobID")
	job, err := s.platform.GetAdminJob(r.Context(), adminTokenFromRequest(r), jobID)
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	s.renderAdminJobPage(w, r, nil, job, false)
}

func (s *httpdServer) handleWebAdminJobPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	jobID := chi.URLParam(r, "jobID")
	if err := r.ParseForm(); err != nil {
		s.renderAdminJobPage(w, r, err, &platform.Job{ID: jobID}, false)
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	job, err := getJobFromPostFields(r)
	if err != nil {
		s.renderAdminJobPage(w, r, err, &platform.Job{ID: jobID}, false)
		return
	}
	job.ID = jobID
	if err := s.platform.UpdateJob(r.Context(), adminTokenFromRequest(r), job); err != nil {
		logger.Debug(logSender, "", "update for job %q refused by the platform: %v", jobID, err)
		s.renderAdminJobPage(w, r, err, job, false)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Job updated", false))
	http.Redirect(w, r, webAdminJobsPath, http.StatusFound)
}

func (s *httpdServer) handleWebAdminJobDelete(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderAdminMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	jobID := chi.URLParam(r, "jobID")
	if err := s.platform.DeleteJob(r.Context(), adminTokenFromRequest(r), jobID); err != nil {
		logger.Debug(logSender, "", "deletion of job %q refused by the platform: %v", jobID, err)
		s.handleAdminRequestError(w, r, err)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Job deleted", false))
	http.Redirect(w, r, webAdminJobsPath, http.StatusFound)
}

func (s *httpdServer) handleWebAdminTests(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	tests, err := s.platform.GetAdminTests(r.Context(), adminTokenFromRequest(r), getListOptions(r))
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	data := adminTestsPage{
		basePage: s.getAdminBasePage(w, r, pageAdminTestsTitle, webAdminTestsPath),
		Tests:    tests.Tests,
		Total:    tests.Total,
	}
	renderAdminTemplate(w, templateAdminTests, data)
}

func (s *httpdServer) renderAdminTestPage(w http.ResponseWriter, r *http.Request, err error, test *platform.AdminTest, isAdd bool) {
	currentURL := webAdminTestsPath + "/add"
	title := "Add test"
	if !isAdd {
		currentURL = webAdminTestsPath + "/" + test.ID
		title = "Edit test"
	}
	data := adminTestPage{
		basePage: s.getAdminBasePage(w, r, title, currentURL),
		Test:     test,
		IsAdd:    isAdd,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderAdminTemplate(w, templateAdminTest, data)
}

// getAdminTestFromPostFields rebuilds a test from the question editor
// fields. Questions are numbered from zero, the first missing text field
// ends the scan
func getAdminTestFromPostFields(r *http.Request) (*platform.AdminTest, error) {
	test := &platform.AdminTest{
		Title: strings.TrimSpace(r.Form.Get("title")),
	}
	if test.Title == "" {
		return nil, util.NewValidationError("title is required")
	}
	if duration, err := strconv.Atoi(r.Form.Get("duration_minutes")); err == nil {
		test.DurationMinutes = duration
	}
	if passScore, err := strconv.Atoi(r.Form.Get("pass_score")); err == nil {
		test.PassScore = passScore
	}
	if test.DurationMinutes <= 0 {
		return nil, util.NewValidationError("duration must be positive")
	}
	for idx := 0; ; idx++ {
		suffix := strconv.Itoa(idx)
		text := strings.TrimSpace(r.Form.Get("question_text_" + suffix))
		if text == "" {
			break
		}
		options := getSliceFromDelimitedValues(r.Form.Get("question_options_"+suffix), "\n")
		if len(options) < 2 {
			return nil, util.NewValidationError(fmt.Sprintf("question %d needs at least two options", idx+1))
		}
		correct, err := strconv.Atoi(r.Form.Get("question_correct_" + suffix))
		if err != nil || correct < 0 || correct >= len(options) {
			return nil, util.NewValidationError(fmt.Sprintf("question %d has no valid correct option", idx+1))
		}
		test.Questions = append(test.Questions, platform.AdminQuestion{
			ID:            strings.TrimSpace(r.Form.Get("question_id_" + suffix)),
			Text:          text,
			Options:       options,
			CorrectOption: correct,
		})
	}
	if len(test.Questions) == 0 {
		return nil, util.NewValidationError("at least one question is required")
	}
	return test, nil
}

func (s *httpdServer) handleWebAdminTestAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	s.renderAdminTestPage(w, r, nil, &platform.AdminTest{}, true)
}

func (s *httpdServer) handleWebAdminTestAddPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderAdminTestPage(w, r, err, &platform.AdminTest{}, true)
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	test, err := getAdminTestFromPostFields(r)
	if err != nil {
		s.renderAdminTestPage(w, r, err, &platform.AdminTest{}, true)
		return
	}
	if err := s.platform.CreateTest(r.Context(), adminTokenFromRequest(r), test); err != nil {
		logger.Debug(logSender, "", "test creation refused by the platform: %v", err)
		s.renderAdminTestPage(w, r, err, test, true)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Test created", false))
	http.Redirect(w, r, webAdminTestsPath, http.StatusFound)
}

func (s *httpdServer) handleWebAdminTest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	testID := chi.URLParam(r, "testID")
	test, err := s.platform.GetAdminTest(r.Context(), adminTokenFromRequest(r), testID)
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	s.renderAdminTestPage(w, r, nil, test, false)
}

func (s *httpdServer) handleWebAdminTestPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	testID := chi.URLParam(r, "testID")
	if err := r.ParseForm(); err != nil {
		s.renderAdminTestPage(w, r, err, &platform.AdminTest{ID: testID}, false)
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	test, err := getAdminTestFromPostFields(r)
	if err != nil {
		s.renderAdminTestPage(w, r, err, &platform.AdminTest{ID: testID}, false)
		return
	}
	test.ID = testID
	if err := s.platform.UpdateTest(r.Context(), adminTokenFromRequest(r), test); err != nil {
		logger.Debug(logSender, "", "update for test %q refused by the platform: %v", testID, err)
		s.renderAdminTestPage(w, r, err, test, false)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Test updated", false))
	http.Redirect(w, r, webAdminTestsPath, http.StatusFound)
}

func (s *httpdServer) handleWebAdminTestDelete(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderAdminMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderAdminMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	testID := chi.URLParam(r, "testID")
	if err := s.platform.DeleteTest(r.Context(), adminTokenFromRequest(r), testID); err != nil {
		logger.Debug(logSender, "", "deletion of test %q refused by the platform: %v", testID, err)
		s.handleAdminRequestError(w, r, err)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Test deleted", false))
	http.Redirect(w, r, webAdminTestsPath, http.StatusFound)
}

func (s *httpdServer) handleWebAdminResults(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	token := adminTokenFromRequest(r)
	options := getListOptions(r)
	results, err := s.platform.GetResults(r.Context(), token, options)
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	data := adminResultsPage{
		basePage: s.getAdminBasePage(w, r, pageAdminResultsTitle, webAdminResultsPath),
		Results:  results.Results,
		Total:    results.Total,
		TestID:   options.TestID,
	}
	tests, err := s.platform.GetAdminTests(r.Context(), token, nil)
	if err != nil {
		logger.Warn(logSender, "", "unable to load tests for the results filter: %v", err)
	} else {
		data.Tests = tests.Tests
	}
	renderAdminTemplate(w, templateAdminResults, data)
}

// handleWebAdminResultsExport streams the platform CSV export without
// buffering it
func (s *httpdServer) handleWebAdminResultsExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	export, err := s.platform.ExportResults(r.Context(), adminTokenFromRequest(r), getListOptions(r))
	if err != nil {
		s.handleAdminRequestError(w, r, err)
		return
	}
	defer export.Close()

	fileName := fmt.Sprintf("results-%v.csv", time.Now().UTC().Format("2006-01-02T150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if _, err := io.Copy(w, export); err != nil {
		logger.Error(logSender, "", "unable to stream results export: %v", err)
	}
}
