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
	"html/template"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campushire/campushire/internal/gate"
	"github.com/campushire/campushire/internal/util"
	"github.com/campushire/campushire/internal/version"
)

const (
	templateCandidateDir    = "candidate"
	templateAdminDir        = "admin"
	templateBase            = "base.html"
	templateBaseLogin       = "baselogin.html"
	templateLogin           = "login.html"
	templateSignup          = "signup.html"
	templateVerifyEmail     = "verifyemail.html"
	templateForgotPassword  = "forgotpassword.html"
	templateResetPassword   = "resetpassword.html"
	templateCompleteProfile = "completeprofile.html"
	templateDashboard       = "dashboard.html"
	templateJobs            = "jobs.html"
	templateJob             = "job.html"
	templateCourses         = "courses.html"
	templateAssessments     = "assessments.html"
	templateNotifications   = "notifications.html"
	templateTest            = "test.html"
	templateTestResult      = "testresult.html"
	templateProfile         = "profile.html"
	templateMessage         = "message.html"
	templateAdminDashboard  = "dashboard.html"
	templateAdminCandidates = "candidates.html"
	templateAdminCandidate  = "candidate.html"
	templateAdminJobs       = "jobs.html"
	templateAdminJob        = "job.html"
	templateAdminTests      = "tests.html"
	templateAdminTest       = "test.html"
	templateAdminResults    = "results.html"
)

const (
	pageLoginTitle           = "Sign in"
	pageSignupTitle          = "Create account"
	pageVerifyEmailTitle     = "Verify email"
	pageForgotPwdTitle       = "Forgot password"
	pageResetPwdTitle        = "Reset password"
	pageCompleteProfileTitle = "Complete your profile"
	pageDashboardTitle       = "Dashboard"
	pageJobsTitle            = "Jobs"
	pageCoursesTitle         = "Courses"
	pageAssessmentsTitle     = "Assessments"
	pageNotificationsTitle   = "Notifications"
	pageTestResultTitle      = "Test result"
	pageProfileTitle         = "Profile"
	pageAdminLoginTitle      = "Admin sign in"
	pageAdminDashboardTitle  = "Admin dashboard"
	pageAdminCandidatesTitle = "Candidates"
	pageAdminJobsTitle       = "Manage jobs"
	pageAdminTestsTitle      = "Manage tests"
	pageAdminResultsTitle    = "Results"
	page400Title             = "Bad request"
	page403Title             = "Access denied"
	page404Title             = "Not found"
	page500Title             = "Internal error"
)

var (
	candidateTemplates = make(map[string]*template.Template)
	adminTemplates     = make(map[string]*template.Template)
)

type basePage struct {
	Title       string
	CurrentURL  string
	Version     string
	CSRFToken   string
	CurrentUser *gate.UserRecord
	IsAdmin     bool
	Branding    UIBranding
	Error       string
	Message     string
}

type messagePage struct {
	basePage
}

type loginPage struct {
	basePage
	Username     string
	SignupURL    string
	ForgotPwdURL string
	AltLoginURL  string
	AltLoginName string
}

func loadTemplates(templatesPath string) {
	loadCandidateTemplates(templatesPath)
	loadAdminTemplates(templatesPath)
}

func loadCandidateTemplates(templatesPath string) {
	loginPages := []string{
		templateLogin,
		templateSignup,
		templateVerifyEmail,
		templateForgotPassword,
		templateResetPassword,
	}
	for _, file := range loginPages {
		candidateTemplates[file] = util.LoadTemplate(nil,
			filepath.Join(templatesPath, templateCandidateDir, templateBaseLogin),
			filepath.Join(templatesPath, templateCandidateDir, file),
		)
	}
	basePages := []string{
		templateCompleteProfile,
		templateDashboard,
		templateJobs,
		templateJob,
		templateCourses,
		templateAssessments,
		templateNotifications,
		templateTest,
		templateTestResult,
		templateProfile,
		templateMessage,
	}
	for _, file := range basePages {
		candidateTemplates[file] = util.LoadTemplate(nil,
			filepath.Join(templatesPath, templateCandidateDir, templateBase),
			filepath.Join(templatesPath, templateCandidateDir, file),
		)
	}
}

func loadAdminTemplates(templatesPath string) {
	adminTemplates[templateLogin] = util.LoadTemplate(nil,
		filepath.Join(templatesPath, templateAdminDir, templateBaseLogin),
		filepath.Join(templatesPath, templateAdminDir, templateLogin),
	)
	basePages := []string{
		templateAdminDashboard,
		templateAdminCandidates,
		templateAdminCandidate,
		templateAdminJobs,
		templateAdminJob,
		templateAdminTests,
		templateAdminTest,
		templateAdminResults,
		templateMessage,
	}
	for _, file := range basePages {
		adminTemplates[file] = util.LoadTemplate(nil,
			filepath.Join(templatesPath, templateAdminDir, templateBase),
			filepath.Join(templatesPath, templateAdminDir, file),
		)
	}
}

func renderCandidateTemplate(w http.ResponseWriter, tmplName string, data any) {
	err := candidateTemplates[tmplName].Execute(w, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderAdminTemplate(w http.ResponseWriter, tmplName string, data any) {
	err := adminTemplates[tmplName].Execute(w, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *httpdServer) getBasePage(w http.ResponseWriter, r *http.Request, title, currentURL string) basePage {
	session := sessionFromRequest(r)
	flash := getFlashMessage(w, r)
	data := basePage{
		Title:       title,
		CurrentURL:  currentURL,
		Version:     version.Get().Version,
		CSRFToken:   createCSRFToken(util.GetIPFromRemoteAddress(r.RemoteAddr)),
		CurrentUser: session.CurrentUser,
		IsAdmin:     session.IsAdminAuthenticated,
		Branding:    s.binding.Branding.WebCandidate,
	}
	if flash.IsError {
		data.Error = flash.Message
	} else {
		data.Message = flash.Message
	}
	return data
}

func (s *httpdServer) getAdminBasePage(w http.ResponseWriter, r *http.Request, title, currentURL string) basePage {
	data := s.getBasePage(w, r, title, currentURL)
	data.Branding = s.binding.Branding.WebAdmin
	return data
}

func (s *httpdServer) renderMessagePage(w http.ResponseWriter, r *http.Request, title string, statusCode int,
	err error, message string,
) {
	data := messagePage{
		basePage: s.getBasePage(w, r, title, ""),
	}
	if err != nil {
		data.Error = err.Error()
	}
	if message != "" {
		data.Message = message
	}
	w.WriteHeader(statusCode)
	renderCandidateTemplate(w, templateMessage, data)
}

func (s *httpdServer) renderAdminMessagePage(w http.ResponseWriter, r *http.Request, title string, statusCode int,
	err error, message string,
) {
	data := messagePage{
		basePage: s.getAdminBasePage(w, r, title, ""),
	}
	if err != nil {
		data.Error = err.Error()
	}
	if message != "" {
		data.Message = message
	}
	w.WriteHeader(statusCode)
	renderAdminTemplate(w, templateMessage, data)
}

func fileServer(r chi.Router, path string, root http.FileSystem, disableDirectoryIndex bool) {
	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		if disableDirectoryIndex {
			root = neuteredFileSystem{root}
		}
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}

type neuteredFileSystem struct {
	fs http.FileSystem
}

func (nfs neuteredFileSystem) Open(name string) (http.File, error) {
	f, err := nfs.fs.Open(name)
	if err != nil {
		return nil, err
	}

	s, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if s.IsDir() {
		index := path.Join(name, "index.html")
		if _, err := nfs.fs.Open(index); err != nil {
			defer f.Close()

			return nil, err
		}
	}

	return f, nil
}
