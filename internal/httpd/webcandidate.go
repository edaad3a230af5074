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
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	passwordvalidator "github.com/wagslane/go-password-validator"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/util"
)

// profile wizard steps
const (
	profileStepPersonal  = 1
	profileStepEducation = 2
	profileStepResume    = 3
)

var (
	resumeMaxSize      int64
	minPasswordEntropy float64

	resumeExtensions = []string{".pdf", ".doc", ".docx"}
)

type signupPage struct {
	basePage
	Form platform.SignupRequest
}

type verifyEmailPage struct {
	basePage
	Code string
}

type forgotPwdPage struct {
	basePage
	Email string
}

type resetPwdPage struct {
	basePage
	Code string
}

type completeProfilePage struct {
	basePage
	Step          int
	Profile       platform.ProfileData
	ResumeMaxSize int64
}

type dashboardPage struct {
	basePage
	Summary       *platform.DashboardSummary
	Notifications []platform.Notification
}

type jobsPage struct {
	basePage
	Jobs   []platform.Job
	Total  int64
	Search string
}

type jobPage struct {
	basePage
	Job *platform.Job
}

type coursesPage struct {
	basePage
	Courses []platform.Course
	Total   int64
}

type assessmentsPage struct {
	basePage
	Assessments []platform.Assessment
	Total       int64
}

type notificationsPage struct {
	basePage
	Notifications []platform.Notification
	Total         int64
}

type testPage struct {
	basePage
	Test *platform.Test
}

type testResultPage struct {
	basePage
	Result *platform.TestResult
}

type profilePage struct {
	basePage
	Profile *platform.Profile
}

func accessTokenFromRequest(r *http.Request) string {
	if store := tokenStoreFromRequest(r); store != nil {
		return store.AccessToken()
	}
	return ""
}

func getListOptions(r *http.Request) *platform.ListOptions {
	options := &platform.ListOptions{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		TestID: strings.TrimSpace(r.URL.Query().Get("test_id")),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		options.Page = page
	}
	return options
}

// handleCandidateRequestError maps a platform error to the page shown to the
// candidate. An authorization failure invalidates the session: the upstream
// has the final word on whether a token is still good
func (s *httpdServer) handleCandidateRequestError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, platform.ErrUnauthorized) || errors.Is(err, platform.ErrForbidden) {
		s.invalidateSession(w, r)
		setFlashMessage(w, r, newFlashMessage("Your session has expired, please sign in again", true))
		http.Redirect(w, r, webLoginPath, http.StatusFound)
		return
	}
	if _, ok := err.(*util.RecordNotFoundError); ok {
		s.renderMessagePage(w, r, page404Title, http.StatusNotFound, err, "")
		return
	}
	if _, ok := err.(*util.ValidationError); ok {
		s.renderMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	s.renderMessagePage(w, r, page500Title, http.StatusInternalServerError, err, "")
}

func (s *httpdServer) renderCandidateSignupPage(w http.ResponseWriter, r *http.Request, err error, form platform.SignupRequest) {
	data := signupPage{
		basePage: s.getBasePage(w, r, pageSignupTitle, webSignupPath),
		Form:     form,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateSignup, data)
}

func (s *httpdServer) handleWebCandidateSignup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.renderCandidateSignupPage(w, r, nil, platform.SignupRequest{})
}

func (s *httpdServer) handleWebCandidateSignupPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderCandidateSignupPage(w, r, err, platform.SignupRequest{})
		return
	}
	request := platform.SignupRequest{
		Name:     strings.TrimSpace(r.Form.Get("name")),
		Email:    strings.TrimSpace(r.Form.Get("email")),
		Phone:    strings.TrimSpace(r.Form.Get("phone")),
		Password: strings.TrimSpace(r.Form.Get("password")),
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderCandidateSignupPage(w, r, err, request)
		return
	}
	if request.Name == "" || request.Email == "" || request.Password == "" {
		s.renderCandidateSignupPage(w, r, util.NewValidationError("name, email and password are required"), request)
		return
	}
	if !util.IsEmailValid(request.Email) {
		s.renderCandidateSignupPage(w, r, util.NewValidationError("email is not valid"), request)
		return
	}
	if request.Password != strings.TrimSpace(r.Form.Get("confirm_password")) {
		s.renderCandidateSignupPage(w, r, util.NewValidationError("passwords do not match"), request)
		return
	}
	if minPasswordEntropy > 0 {
		if err := passwordvalidator.Validate(request.Password, minPasswordEntropy); err != nil {
			s.renderCandidateSignupPage(w, r, util.NewValidationError(err.Error()), request)
			return
		}
	}
	if err := s.platform.Signup(r.Context(), request); err != nil {
		logger.Debug(logSender, "", "signup for %q refused by the platform: %v", request.Email, err)
		s.renderCandidateSignupPage(w, r, err, request)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Account created. Check your inbox for the verification code", false))
	http.Redirect(w, r, webVerifyEmailPath, http.StatusFound)
}

func (s *httpdServer) renderCandidateVerifyEmailPage(w http.ResponseWriter, r *http.Request, err error, code string) {
	data := verifyEmailPage{
		basePage: s.getBasePage(w, r, pageVerifyEmailTitle, webVerifyEmailPath),
		Code:     code,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateVerifyEmail, data)
}

func (s *httpdServer) handleWebCandidateVerifyEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.renderCandidateVerifyEmailPage(w, r, nil, strings.TrimSpace(r.URL.Query().Get("code")))
}

func (s *httpdServer) handleWebCandidateVerifyEmailPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderCandidateVerifyEmailPage(w, r, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderCandidateVerifyEmailPage(w, r, err, "")
		return
	}
	code := strings.TrimSpace(r.Form.Get("code"))
	if code == "" {
		s.renderCandidateVerifyEmailPage(w, r, util.NewValidationError("verification code is required"), code)
		return
	}
	if err := s.platform.VerifyEmail(r.Context(), code); err != nil {
		logger.Debug(logSender, "", "email verification refused by the platform: %v", err)
		s.renderCandidateVerifyEmailPage(w, r, err, code)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Email verified, you can now sign in", false))
	http.Redirect(w, r, webLoginPath, http.StatusFound)
}

func (s *httpdServer) renderCandidateForgotPwdPage(w http.ResponseWriter, r *http.Request, err error, email string) {
	data := forgotPwdPage{
		basePage: s.getBasePage(w, r, pageForgotPwdTitle, webForgotPwdPath),
		Email:    email,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateForgotPassword, data)
}

func (s *httpdServer) handleWebCandidateForgotPwd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.renderCandidateForgotPwdPage(w, r, nil, "")
}

func (s *httpdServer) handleWebCandidateForgotPwdPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderCandidateForgotPwdPage(w, r, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderCandidateForgotPwdPage(w, r, err, "")
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	if !util.IsEmailValid(email) {
		s.renderCandidateForgotPwdPage(w, r, util.NewValidationError("email is not valid"), email)
		return
	}
	if err := s.platform.ForgotPassword(r.Context(), email); err != nil {
		logger.Debug(logSender, "", "forgot password for %q refused by the platform: %v", email, err)
		s.renderCandidateForgotPwdPage(w, r, err, email)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Check your inbox for the reset code", false))
	http.Redirect(w, r, webResetPwdPath, http.StatusFound)
}

func (s *httpdServer) renderCandidateResetPwdPage(w http.ResponseWriter, r *http.Request, err error, code string) {
	data := resetPwdPage{
		basePage: s.getBasePage(w, r, pageResetPwdTitle, webResetPwdPath),
		Code:     code,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateResetPassword, data)
}

func (s *httpdServer) handleWebCandidateResetPwd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	s.renderCandidateResetPwdPage(w, r, nil, strings.TrimSpace(r.URL.Query().Get("code")))
}

func (s *httpdServer) handleWebCandidateResetPwdPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderCandidateResetPwdPage(w, r, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderCandidateResetPwdPage(w, r, err, "")
		return
	}
	code := strings.TrimSpace(r.Form.Get("code"))
	password := strings.TrimSpace(r.Form.Get("password"))
	if code == "" || password == "" {
		s.renderCandidateResetPwdPage(w, r, util.NewValidationError("code and password are required"), code)
		return
	}
	if password != strings.TrimSpace(r.Form.Get("confirm_password")) {
		s.renderCandidateResetPwdPage(w, r, util.NewValidationError("passwords do not match"), code)
		return
	}
	if minPasswordEntropy > 0 {
		if err := passwordvalidator.Validate(password, minPasswordEntropy); err != nil {
			s.renderCandidateResetPwdPage(w, r, util.NewValidationError(err.Error()), code)
			return
		}
	}
	if err := s.platform.ResetPassword(r.Context(), code, password); err != nil {
		logger.Debug(logSender, "", "password reset refused by the platform: %v", err)
		s.renderCandidateResetPwdPage(w, r, err, code)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Password updated, you can now sign in", false))
	http.Redirect(w, r, webLoginPath, http.StatusFound)
}

func (s *httpdServer) renderCompleteProfilePage(w http.ResponseWriter, r *http.Request, err error, step int,
	profile platform.ProfileData,
) {
	if step < profileStepPersonal || step > profileStepResume {
		step = profileStepPersonal
	}
	data := completeProfilePage{
		basePage:      s.getBasePage(w, r, pageCompleteProfileTitle, webCompleteProfilePath),
		Step:          step,
		Profile:       profile,
		ResumeMaxSize: resumeMaxSize,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateCompleteProfile, data)
}

func (s *httpdServer) handleWebCandidateCompleteProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	session := sessionFromRequest(r)
	if session.CurrentUser == nil {
		s.renderMessagePage(w, r, page500Title, http.StatusInternalServerError, nil, "")
		return
	}
	draft, err := draftMgr.Get(session.CurrentUser.ID)
	if err != nil {
		draft = profileDraft{
			UserID: session.CurrentUser.ID,
			Step:   profileStepPersonal,
		}
	}
	s.renderCompleteProfilePage(w, r, nil, draft.Step, draft.Profile)
}

func getProfileStepFields(r *http.Request, step int, data *platform.ProfileData) {
	switch step {
	case profileStepPersonal:
		data.Phone = strings.TrimSpace(r.Form.Get("phone"))
		data.DateOfBirth = strings.TrimSpace(r.Form.Get("date_of_birth"))
		data.Address = strings.TrimSpace(r.Form.Get("address"))
	case profileStepEducation:
		data.College = strings.TrimSpace(r.Form.Get("college"))
		data.Degree = strings.TrimSpace(r.Form.Get("degree"))
		data.Branch = strings.TrimSpace(r.Form.Get("branch"))
		data.CGPA = strings.TrimSpace(r.Form.Get("cgpa"))
		if year, err := strconv.Atoi(r.Form.Get("graduation_year")); err == nil {
			data.GraduationYear = year
		}
	}
}

func (s *httpdServer) handleWebCandidateCompleteProfilePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderCompleteProfilePage(w, r, err, profileStepPersonal, platform.ProfileData{})
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	session := sessionFromRequest(r)
	if session.CurrentUser == nil {
		s.renderMessagePage(w, r, page500Title, http.StatusInternalServerError, nil, "")
		return
	}
	step, err := strconv.Atoi(r.Form.Get("step"))
	if err != nil || step < profileStepPersonal || step > profileStepResume {
		step = profileStepPersonal
	}
	draft, err := draftMgr.Get(session.CurrentUser.ID)
	if err != nil {
		draft = profileDraft{
			UserID: session.CurrentUser.ID,
		}
	}
	getProfileStepFields(r, step, &draft.Profile)
	if r.Form.Get("action") == "back" && step > profileStepPersonal {
		draft.Step = step - 1
		draft.Timestamp = util.GetTimeAsMsSinceEpoch(time.Now())
		if err := draftMgr.Add(draft); err != nil {
			logger.Warn(logSender, "", "unable to save profile draft for user %q: %v", draft.UserID, err)
		}
		s.renderCompleteProfilePage(w, r, nil, draft.Step, draft.Profile)
		return
	}
	if step < profileStepResume {
		if step == profileStepEducation && (draft.Profile.College == "" || draft.Profile.Degree == "") {
			s.renderCompleteProfilePage(w, r, util.NewValidationError("college and degree are required"),
				step, draft.Profile)
			return
		}
		draft.Step = step + 1
		draft.Timestamp = util.GetTimeAsMsSinceEpoch(time.Now())
		if err := draftMgr.Add(draft); err != nil {
			logger.Warn(logSender, "", "unable to save profile draft for user %q: %v", draft.UserID, err)
		}
		s.renderCompleteProfilePage(w, r, nil, draft.Step, draft.Profile)
		return
	}
	if draft.Profile.College == "" || draft.Profile.Degree == "" {
		s.renderCompleteProfilePage(w, r, util.NewValidationError("profile details are incomplete"),
			profileStepEducation, draft.Profile)
		return
	}
	if err := s.platform.CompleteProfile(r.Context(), accessTokenFromRequest(r), draft.Profile); err != nil {
		logger.Debug(logSender, "", "complete profile for user %q refused by the platform: %v", draft.UserID, err)
		s.handleCandidateRequestError(w, r, err)
		return
	}
	draftMgr.Remove(draft.UserID) //nolint:errcheck
	// the completion flag comes from the identity lookup, re-derive the
	// session so the redirect does not bounce back here
	if g := gateFromRequest(r); g != nil {
		g.Login(r.Context())
	}
	setFlashMessage(w, r, newFlashMessage("Your profile is complete", false))
	http.Redirect(w, r, webDashboardPath, http.StatusFound)
}

// saveProfileDraft is the autosave endpoint polled by the wizard scripts.
// The draft never reaches the platform, it only survives page reloads
func (s *httpdServer) saveProfileDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	session := sessionFromRequest(r)
	if session.CurrentUser == nil {
		sendAPIResponse(w, r, nil, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	var draft profileDraft
	if err := render.DecodeJSON(r.Body, &draft); err != nil {
		sendAPIResponse(w, r, err, "", http.StatusBadRequest)
		return
	}
	draft.UserID = session.CurrentUser.ID
	if draft.Step < profileStepPersonal || draft.Step > profileStepResume {
		draft.Step = profileStepPersonal
	}
	draft.Timestamp = util.GetTimeAsMsSinceEpoch(time.Now())
	if err := draftMgr.Add(draft); err != nil {
		sendAPIResponse(w, r, err, "", getRespStatus(err))
		return
	}
	sendAPIResponse(w, r, nil, "Draft saved", http.StatusOK)
}

func (s *httpdServer) handleWebCandidateResumeUpload(w http.ResponseWriter, r *http.Request) {
	if resumeMaxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, resumeMaxSize+maxLoginBodySize)
	}
	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		s.renderCompleteProfilePage(w, r, err, profileStepResume, platform.ProfileData{})
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	file, handler, err := r.FormFile("resume")
	if err != nil {
		s.renderCompleteProfilePage(w, r, err, profileStepResume, platform.ProfileData{})
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !util.Contains(resumeExtensions, ext) {
		s.renderCompleteProfilePage(w, r, util.NewValidationError("unsupported resume format"),
			profileStepResume, platform.ProfileData{})
		return
	}
	if resumeMaxSize > 0 && handler.Size > resumeMaxSize {
		s.renderCompleteProfilePage(w, r, util.NewValidationError("resume file too large"),
			profileStepResume, platform.ProfileData{})
		return
	}
	if err := s.platform.UploadResume(r.Context(), accessTokenFromRequest(r), handler.Filename, file); err != nil {
		logger.Debug(logSender, "", "resume upload refused by the platform: %v", err)
		s.handleCandidateRequestError(w, r, err)
		return
	}
	session := sessionFromRequest(r)
	setFlashMessage(w, r, newFlashMessage("Resume uploaded", false))
	if session.ProfileComplete {
		http.Redirect(w, r, webProfilePath, http.StatusFound)
		return
	}
	http.Redirect(w, r, webCompleteProfilePath, http.StatusFound)
}

func (s *httpdServer) handleWebCandidateDashboard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	token := accessTokenFromRequest(r)
	summary, err := s.platform.GetDashboardSummary(r.Context(), token)
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := dashboardPage{
		basePage: s.getBasePage(w, r, pageDashboardTitle, webDashboardPath),
		Summary:  summary,
	}
	notifications, err := s.platform.GetNotifications(r.Context(), token, &platform.ListOptions{PageSize: 5})
	if err != nil {
		logger.Warn(logSender, "", "unable to load recent notifications: %v", err)
	} else {
		data.Notifications = notifications.Notifications
	}
	renderCandidateTemplate(w, templateDashboard, data)
}

func (s *httpdServer) handleWebCandidateJobs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	options := getListOptions(r)
	jobs, err := s.platform.GetJobs(r.Context(), accessTokenFromRequest(r), options)
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := jobsPage{
		basePage: s.getBasePage(w, r, pageJobsTitle, webJobsPath),
		Jobs:     jobs.Jobs,
		Total:    jobs.Total,
		Search:   options.Search,
	}
	renderCandidateTemplate(w, templateJobs, data)
}

func (s *httpdServer) handleWebCandidateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	jobID := chi.URLParam(r, "jobID")
	job, err := s.platform.GetJob(r.Context(), accessTokenFromRequest(r), jobID)
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := jobPage{
		basePage: s.getBasePage(w, r, job.Title, webJobsPath+"/"+jobID),
		Job:      job,
	}
	renderCandidateTemplate(w, templateJob, data)
}

func (s *httpdServer) handleWebCandidateJobApply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	jobID := chi.URLParam(r, "jobID")
	if err := s.platform.ApplyJob(r.Context(), accessTokenFromRequest(r), jobID); err != nil {
		logger.Debug(logSender, "", "application to job %q refused by the platform: %v", jobID, err)
		s.handleCandidateRequestError(w, r, err)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Application submitted", false))
	http.Redirect(w, r, webJobsPath+"/"+jobID, http.StatusFound)
}

func (s *httpdServer) handleWebCandidateCourses(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	courses, err := s.platform.GetCourses(r.Context(), accessTokenFromRequest(r), getListOptions(r))
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := coursesPage{
		basePage: s.getBasePage(w, r, pageCoursesTitle, webCoursesPath),
		Courses:  courses.Courses,
		Total:    courses.Total,
	}
	renderCandidateTemplate(w, templateCourses, data)
}

func (s *httpdServer) handleWebCandidateAssessments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	assessments, err := s.platform.GetAssessments(r.Context(), accessTokenFromRequest(r), getListOptions(r))
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := assessmentsPage{
		basePage:    s.getBasePage(w, r, pageAssessmentsTitle, webAssessmentsPath),
		Assessments: assessments.Assessments,
		Total:       assessments.Total,
	}
	renderCandidateTemplate(w, templateAssessments, data)
}

func (s *httpdServer) handleWebCandidateNotifications(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	notifications, err := s.platform.GetNotifications(r.Context(), accessTokenFromRequest(r), getListOptions(r))
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := notificationsPage{
		basePage:      s.getBasePage(w, r, pageNotificationsTitle, webNotificationsPath),
		Notifications: notifications.Notifications,
		Total:         notifications.Total,
	}
	renderCandidateTemplate(w, templateNotifications, data)
}

func (s *httpdServer) handleWebCandidateNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	if err := s.platform.MarkAllNotificationsRead(r.Context(), accessTokenFromRequest(r)); err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	http.Redirect(w, r, webNotificationsPath, http.StatusFound)
}

func (s *httpdServer) getUnreadNotificationsCount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	count, err := s.platform.GetUnreadNotificationCount(r.Context(), accessTokenFromRequest(r))
	if err != nil {
		sendAPIResponse(w, r, err, "", getRespStatus(err))
		return
	}
	render.JSON(w, r, map[string]int64{"unread": count})
}

func (s *httpdServer) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	noteID := chi.URLParam(r, "noteID")
	if err := s.platform.MarkNotificationRead(r.Context(), accessTokenFromRequest(r), noteID); err != nil {
		sendAPIResponse(w, r, err, "", getRespStatus(err))
		return
	}
	sendAPIResponse(w, r, nil, "Notification marked as read", http.StatusOK)
}

func (s *httpdServer) handleWebCandidateTest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	testID := chi.URLParam(r, "testID")
	test, err := s.platform.GetTest(r.Context(), accessTokenFromRequest(r), testID)
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := testPage{
		basePage: s.getBasePage(w, r, test.Title, webTestsPath+"/"+testID),
		Test:     test,
	}
	renderCandidateTemplate(w, templateTest, data)
}

// handleWebCandidateTestSubmit collects the answer_<questionID> form fields
// and submits them. Unanswered questions are simply absent from the payload
func (s *httpdServer) handleWebCandidateTestSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	testID := chi.URLParam(r, "testID")
	answers := make(map[string]int)
	for field := range r.Form {
		questionID, ok := strings.CutPrefix(field, "answer_")
		if !ok {
			continue
		}
		if option, err := strconv.Atoi(r.Form.Get(field)); err == nil {
			answers[questionID] = option
		}
	}
	if _, err := s.platform.SubmitTest(r.Context(), accessTokenFromRequest(r), testID, answers); err != nil {
		logger.Debug(logSender, "", "submission for test %q refused by the platform: %v", testID, err)
		s.handleCandidateRequestError(w, r, err)
		return
	}
	http.Redirect(w, r, webTestsPath+"/"+testID+"/result", http.StatusFound)
}

func (s *httpdServer) handleWebCandidateTestResult(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	testID := chi.URLParam(r, "testID")
	result, err := s.platform.GetTestResult(r.Context(), accessTokenFromRequest(r), testID)
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	data := testResultPage{
		basePage: s.getBasePage(w, r, pageTestResultTitle, webTestsPath+"/"+testID+"/result"),
		Result:   result,
	}
	renderCandidateTemplate(w, templateTestResult, data)
}

func (s *httpdServer) renderCandidateProfilePage(w http.ResponseWriter, r *http.Request, err error, profile *platform.Profile) {
	data := profilePage{
		basePage: s.getBasePage(w, r, pageProfileTitle, webProfilePath),
		Profile:  profile,
	}
	if err != nil {
		data.Error = err.Error()
	}
	renderCandidateTemplate(w, templateProfile, data)
}

func (s *httpdServer) handleWebCandidateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	profile, err := s.platform.GetProfile(r.Context(), accessTokenFromRequest(r))
	if err != nil {
		s.handleCandidateRequestError(w, r, err)
		return
	}
	s.renderCandidateProfilePage(w, r, nil, profile)
}

func (s *httpdServer) handleWebCandidateProfilePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	ipAddr := util.GetIPFromRemoteAddress(r.RemoteAddr)
	if err := r.ParseForm(); err != nil {
		s.renderMessagePage(w, r, page400Title, http.StatusBadRequest, err, "")
		return
	}
	if err := verifyCSRFToken(r, ipAddr); err != nil {
		s.renderMessagePage(w, r, page403Title, http.StatusForbidden, err, "")
		return
	}
	var data platform.ProfileData
	getProfileStepFields(r, profileStepPersonal, &data)
	getProfileStepFields(r, profileStepEducation, &data)
	if err := s.platform.UpdateProfile(r.Context(), accessTokenFromRequest(r), data); err != nil {
		logger.Debug(logSender, "", "profile update refused by the platform: %v", err)
		s.handleCandidateRequestError(w, r, err)
		return
	}
	setFlashMessage(w, r, newFlashMessage("Your profile has been updated", false))
	http.Redirect(w, r, webProfilePath, http.StatusFound)
}
