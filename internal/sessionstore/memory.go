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

package sessionstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/util"
)

type memoryProvider struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

func initializeMemoryProvider() error {
	providerLog(logger.LevelDebug, "memory session store handle created")
	provider = &memoryProvider{
		sessions: make(map[string]Session),
	}
	return nil
}

func memoryKey(key string, sessionType SessionType) string {
	return fmt.Sprintf("%d_%s", sessionType, key)
}

func (p *memoryProvider) addSession(session Session) error {
	if err := session.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(session.Data)
	if err != nil {
		return err
	}
	session.Data = data
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[memoryKey(session.Key, session.Type)] = session
	return nil
}

func (p *memoryProvider) getSession(key string, sessionType SessionType) (Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	session, ok := p.sessions[memoryKey(key, sessionType)]
	if !ok {
		return Session{}, util.NewRecordNotFoundError(fmt.Sprintf("session %q not found", key))
	}
	return session, nil
}

func (p *memoryProvider) deleteSession(key string, sessionType SessionType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := memoryKey(key, sessionType)
	if _, ok := p.sessions[k]; !ok {
		return util.NewRecordNotFoundError(fmt.Sprintf("session %q not found", key))
	}
	delete(p.sessions, k)
	return nil
}

func (p *memoryProvider) cleanupSessions(sessionType SessionType, before int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, session := range p.sessions {
		if session.Type == sessionType && session.Timestamp < before {
			delete(p.sessions, k)
		}
	}
	return nil
}

func (p *memoryProvider) checkAvailability() error {
	return nil
}

func (p *memoryProvider) close() error {
	return nil
}
