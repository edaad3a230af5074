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
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const (
	flashCookieName = "message"
)

func newFlashMessage(message string, isError bool) flashMessage {
	return flashMessage{
		Message: message,
		IsError: isError,
	}
}

// flashMessage is a one-shot notice carried across a post-redirect
type flashMessage struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
}

func setFlashMessage(w http.ResponseWriter, r *http.Request, message flashMessage) {
	value, err := json.Marshal(message)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(value),
		Path:     "/",
		Expires:  time.Now().Add(60 * time.Second),
		MaxAge:   60,
		HttpOnly: true,
		Secure:   isTLS(r),
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Add("Cache-Control", `no-cache="Set-Cookie"`)
}

func getFlashMessage(w http.ResponseWriter, r *http.Request) flashMessage {
	var msg flashMessage
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return msg
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isTLS(r),
		SameSite: http.SameSiteLaxMode,
	})
	value, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return msg
	}
	err = json.Unmarshal(value, &msg)
	if err != nil {
		return flashMessage{}
	}
	return msg
}
