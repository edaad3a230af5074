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
	"net/http"

	"github.com/campushire/campushire/internal/gate"
	"github.com/campushire/campushire/internal/metric"
)

// Credentials defines the login request payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse defines the successful login response payload.
// The token is opaque to the portal
type LoginResponse struct {
	Token string          `json:"token"`
	User  gate.UserRecord `json:"user"`
}

// SignupRequest defines the account registration payload
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// Login exchanges candidate credentials for a bearer token
func (c *Client) Login(ctx context.Context, credentials Credentials) (*LoginResponse, error) {
	var response LoginResponse
	err := c.sendRequest(ctx, http.MethodPost, c.buildURL(loginPath), "", credentials, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// AdminLogin exchanges admin credentials for an admin bearer token.
// The platform rejects the call if the account role is not ADMIN
func (c *Client) AdminLogin(ctx context.Context, credentials Credentials) (*LoginResponse, error) {
	var response LoginResponse
	err := c.sendRequest(ctx, http.MethodPost, c.buildURL(adminLoginPath), "", credentials, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Signup registers a new candidate account. The platform sends the
// verification email
func (c *Client) Signup(ctx context.Context, request SignupRequest) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(signupPath), "", request, nil)
}

// VerifyEmail consumes an email verification code
func (c *Client) VerifyEmail(ctx context.Context, code string) error {
	payload := map[string]string{
		"code": code,
	}
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(verifyEmailPath), "", payload, nil)
}

// ForgotPassword asks the platform to send a password reset code.
// The response does not disclose whether the address is registered
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	payload := map[string]string{
		"email": email,
	}
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(forgotPasswordPath), "", payload, nil)
}

// ResetPassword sets a new password using a reset code
func (c *Client) ResetPassword(ctx context.Context, code, password string) error {
	payload := map[string]string{
		"code":     code,
		"password": password,
	}
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(resetPasswordPath), "", payload, nil)
}

// Logout invalidates the bearer token upstream. Errors are returned for
// logging only, the local session is closed regardless
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.sendRequest(ctx, http.MethodPost, c.buildURL(logoutPath), token, nil, nil)
}

// Me validates a bearer token and returns the matching user. This is the
// gate's identity lookup: single attempt, any failure means the token is
// not usable
func (c *Client) Me(ctx context.Context, token string) (*gate.UserRecord, error) {
	var user gate.UserRecord
	err := c.sendRequest(ctx, http.MethodGet, c.buildURL(mePath), token, nil, &user)
	metric.IdentityCheckCompleted(err)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
