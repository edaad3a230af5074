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
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/gate"
	"github.com/campushire/campushire/internal/httpclient"
	"github.com/campushire/campushire/internal/util"
)

func TestMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/me", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "Bearer valid-token":
			render.JSON(w, r, gate.UserRecord{
				ID:              "u1",
				Email:           "jane@example.com",
				Name:            "Jane",
				Role:            "STUDENT",
				ProfileComplete: true,
			})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	user, err := client.Me(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.ProfileComplete)
	assert.True(t, user.HasRole(gate.RoleStudent))

	_, err = client.Me(context.Background(), "expired-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMeSingleAttempt(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cnf := httpclient.Config{
		Timeout:  5,
		RetryMax: 2,
	}
	require.NoError(t, cnf.Initialize(t.TempDir()))
	defer func() {
		cnf = httpclient.Config{}
		require.NoError(t, cnf.Initialize(t.TempDir()))
	}()

	client := NewClient(server.URL)
	_, err := client.Me(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load(), "the identity lookup must never retry")
}

func TestRetryableReads(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		render.JSON(w, r, CoursesPage{
			Courses: []Course{{ID: "c1", Title: "Go basics"}},
			Total:   1,
		})
	}))
	defer server.Close()

	cnf := httpclient.Config{
		Timeout:  5,
		RetryMax: 2,
	}
	require.NoError(t, cnf.Initialize(t.TempDir()))
	defer func() {
		cnf = httpclient.Config{}
		require.NoError(t, cnf.Initialize(t.TempDir()))
	}()

	client := NewClient(server.URL)
	page, err := client.GetCourses(context.Background(), "token", nil)
	require.NoError(t, err)
	require.Len(t, page.Courses, 1)
	assert.Equal(t, "Go basics", page.Courses[0].Title)
	assert.Equal(t, int32(2), requests.Load())
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var credentials Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&credentials))
		if credentials.Email != "jane@example.com" || credentials.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		render.JSON(w, r, LoginResponse{
			Token: "new-token",
			User: gate.UserRecord{
				ID:   "u1",
				Role: "STUDENT",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	response, err := client.Login(context.Background(), Credentials{
		Email:    "jane@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-token", response.Token)
	assert.Equal(t, "u1", response.User.ID)

	_, err = client.Login(context.Background(), Credentials{
		Email:    "jane@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestErrorMapping(t *testing.T) {
	testCases := []struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusBadRequest, `{"message":"title is required"}`, func(t *testing.T, err error) {
			var validationErr *util.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, err.Error(), "title is required")
		}},
		{http.StatusUnauthorized, `{"error":"expired"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
		}},
		{http.StatusForbidden, ``, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrForbidden)
		}},
		{http.StatusNotFound, `{"error":"no such job"}`, func(t *testing.T, err error) {
			var notFoundErr *util.RecordNotFoundError
			require.ErrorAs(t, err, &notFoundErr)
		}},
		{http.StatusConflict, `{"message":"already applied"}`, func(t *testing.T, err error) {
			var validationErr *util.ValidationError
			require.ErrorAs(t, err, &validationErr)
		}},
		{http.StatusInternalServerError, `not json`, func(t *testing.T, err error) {
			var genericErr *util.GenericError
			require.ErrorAs(t, err, &genericErr)
			assert.Contains(t, err.Error(), "unexpected status code 500")
		}},
	}
	for _, tc := range testCases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body)) //nolint:errcheck
		}))
		client := NewClient(server.URL)
		err := client.ApplyJob(context.Background(), "token", "42")
		require.Error(t, err, "status %v", tc.status)
		tc.check(t, err)
		server.Close()
	}
}

func TestListQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "golang", query.Get("search"))
		assert.Equal(t, "OPEN", query.Get("status"))
		assert.Equal(t, "3", query.Get("page"))
		assert.Equal(t, "25", query.Get("page_size"))
		render.JSON(w, r, JobsPage{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetJobs(context.Background(), "token", &ListOptions{
		Search:   "golang",
		Status:   "OPEN",
		Page:     3,
		PageSize: 25,
	})
	require.NoError(t, err)
}

func TestSubmitTest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tests/t1/submit", r.URL.Path)
		var payload struct {
			Answers map[string]int `json:"answers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Answers, 2)
		render.JSON(w, r, TestResult{
			TestID: "t1",
			Score:  8,
			Total:  10,
			Passed: true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.SubmitTest(context.Background(), "token", "t1", map[string]int{
		"q1": 0,
		"q2": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, result.Score)
	assert.True(t, result.Passed)
}

func TestUploadResume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/profile/resume", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1024*1024))
		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "resume.pdf", header.Filename)
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake pdf bytes", string(content))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.UploadResume(context.Background(), "token", "resume.pdf", strings.NewReader("fake pdf bytes"))
	require.NoError(t, err)
}

func TestExportResults(t *testing.T) {
	csvPayload := "candidate,score\njane,8\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/results/export", r.URL.Path)
		require.Equal(t, "t1", r.URL.Query().Get("test_id"))
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, csvPayload) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient(server.URL)
	reader, err := client.ExportResults(context.Background(), "admin-token", &ListOptions{TestID: "t1"})
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, csvPayload, string(content))
}

func TestBuildURL(t *testing.T) {
	client := NewClient("http://localhost:9000/")
	assert.Equal(t, "http://localhost:9000/auth/me", client.buildURL(mePath))
	assert.Equal(t, "http://localhost:9000/jobs/42/apply", client.buildURL(jobsPath, "42", "apply"))
}
