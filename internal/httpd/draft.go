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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/sessionstore"
	"github.com/campushire/campushire/internal/util"
)

// drafts older than this are eligible for cleanup
const draftRetention = 24 * time.Hour

func newDraftManager(isShared int) profileDraftManager {
	if isShared == 1 {
		logger.Info(logSender, "", "using provider draft manager")
		return &dbDraftManager{}
	}
	logger.Info(logSender, "", "using memory draft manager")
	return &memoryDraftManager{}
}

// profileDraftManager stores the partially filled profile wizard for each
// candidate so an interrupted signup can resume where it left off
type profileDraftManager interface {
	Add(data profileDraft) error
	Get(userID string) (profileDraft, error)
	Remove(userID string) error
	Cleanup()
}

type profileDraft struct {
	UserID    string               `json:"user_id"`
	Step      int                  `json:"step"`
	Profile   platform.ProfileData `json:"profile"`
	Timestamp int64                `json:"ts"`
}

type memoryDraftManager struct {
	drafts sync.Map
}

func (m *memoryDraftManager) Add(data profileDraft) error {
	m.drafts.Store(data.UserID, &data)
	return nil
}

func (m *memoryDraftManager) Get(userID string) (profileDraft, error) {
	data, ok := m.drafts.Load(userID)
	if !ok {
		return profileDraft{}, util.NewRecordNotFoundError(fmt.Sprintf("draft for user %q not found", userID))
	}
	return *data.(*profileDraft), nil
}

func (m *memoryDraftManager) Remove(userID string) error {
	m.drafts.Delete(userID)
	return nil
}

func (m *memoryDraftManager) Cleanup() {
	m.drafts.Range(func(key, value any) bool {
		data := value.(*profileDraft)
		if data.Timestamp < util.GetTimeAsMsSinceEpoch(time.Now().Add(-draftRetention)) {
			m.drafts.Delete(key)
		}
		return true
	})
}

type dbDraftManager struct{}

func (m *dbDraftManager) Add(data profileDraft) error {
	session := sessionstore.Session{
		Key:       data.UserID,
		Data:      data,
		Type:      sessionstore.SessionTypeProfileDraft,
		Timestamp: data.Timestamp,
	}
	return sessionstore.Add(session)
}

func (m *dbDraftManager) Get(userID string) (profileDraft, error) {
	sess, err := sessionstore.Get(userID, sessionstore.SessionTypeProfileDraft)
	if err != nil {
		return profileDraft{}, err
	}
	d := sess.Data.([]byte)
	var data profileDraft
	err = json.Unmarshal(d, &data)
	return data, err
}

func (m *dbDraftManager) Remove(userID string) error {
	return sessionstore.Delete(userID, sessionstore.SessionTypeProfileDraft)
}

func (m *dbDraftManager) Cleanup() {
	sessionstore.Cleanup(sessionstore.SessionTypeProfileDraft, time.Now().Add(-draftRetention)) //nolint:errcheck
}
