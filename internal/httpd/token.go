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
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/sessionstore"
	"github.com/campushire/campushire/internal/util"
)

// A logout revokes the upstream bearer locally. The denylist keeps the
// token until it would have expired upstream, so a replayed cookie is
// treated as absent in the meantime
func newTokenManager(isShared int) tokenManager {
	if isShared == 1 {
		logger.Info(logSender, "", "using provider token manager")
		return &dbTokenManager{}
	}
	logger.Info(logSender, "", "using memory token manager")
	return &memoryTokenManager{}
}

type tokenManager interface {
	Add(token string, expiresAt time.Time)
	Get(token string) bool
	Cleanup()
}

type memoryTokenManager struct {
	revokedTokens sync.Map
}

func (m *memoryTokenManager) Add(token string, expiresAt time.Time) {
	m.revokedTokens.Store(token, expiresAt)
}

func (m *memoryTokenManager) Get(token string) bool {
	_, ok := m.revokedTokens.Load(token)
	return ok
}

func (m *memoryTokenManager) Cleanup() {
	m.revokedTokens.Range(func(key, value any) bool {
		exp, ok := value.(time.Time)
		if !ok || exp.Before(time.Now().UTC()) {
			m.revokedTokens.Delete(key)
		}
		return true
	})
}

type dbTokenManager struct{}

func (m *dbTokenManager) getKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

func (m *dbTokenManager) Add(token string, expiresAt time.Time) {
	key := m.getKey(token)
	data := map[string]string{
		"bearer": token,
	}
	session := sessionstore.Session{
		Key:       key,
		Data:      data,
		Type:      sessionstore.SessionTypeRevokedToken,
		Timestamp: util.GetTimeAsMsSinceEpoch(expiresAt),
	}
	sessionstore.Add(session) //nolint:errcheck
}

func (m *dbTokenManager) Get(token string) bool {
	key := m.getKey(token)
	_, err := sessionstore.Get(key, sessionstore.SessionTypeRevokedToken)
	return err == nil
}

func (m *dbTokenManager) Cleanup() {
	sessionstore.Cleanup(sessionstore.SessionTypeRevokedToken, time.Now()) //nolint:errcheck
}
