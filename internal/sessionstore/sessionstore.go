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

// Package sessionstore persists the small amount of server side web state
// the portal keeps outside the platform API: revoked bearer tokens and
// profile wizard drafts. The memory driver is the default, the bolt and
// sqlite drivers keep the state across restarts and, when the database is
// shared, across portal instances.
package sessionstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/util"
)

const (
	logSender = "sessionstore"
	// MemoryDriverName defines the name for the memory driver
	MemoryDriverName = "memory"
	// BoltDriverName defines the name for the bbolt key/value store driver
	BoltDriverName = "bolt"
	// SQLiteDriverName defines the name for the SQLite database driver
	SQLiteDriverName = "sqlite"
)

// ErrNotInitialized is returned if the store is used before Initialize
var ErrNotInitialized = errors.New("session store not initialized")

// SessionType defines the supported session types
type SessionType int

// Supported session types
const (
	SessionTypeRevokedToken SessionType = iota + 1
	SessionTypeProfileDraft
)

// Session defines a shared session persisted in the store.
// Data is serialized as JSON on write, reads return it as a []byte
// regardless of the configured driver
type Session struct {
	Key       string
	Data      any
	Type      SessionType
	Timestamp int64
}

func (s *Session) validate() error {
	if s.Key == "" {
		return errors.New("unable to save a session with an empty key")
	}
	if s.Type < SessionTypeRevokedToken || s.Type > SessionTypeProfileDraft {
		return fmt.Errorf("invalid session type: %v", s.Type)
	}
	return nil
}

// Config defines the session store configuration
type Config struct {
	// Driver name, must be one of "memory", "bolt", "sqlite"
	Driver string `json:"driver" mapstructure:"driver"`
	// Database file path for the bolt and sqlite drivers, relative to the
	// configuration directory unless absolute
	Name string `json:"name" mapstructure:"name"`
	// ConnectionString overrides the computed sqlite connection string,
	// ignored by the other drivers
	ConnectionString string `json:"connection_string" mapstructure:"connection_string"`
	// Set to 1 if the database is shared across multiple portal instances.
	// In shared mode revoked tokens and drafts are visible to all instances
	IsShared int `json:"is_shared" mapstructure:"is_shared"`
}

// GetShared returns 1 if the database is shared across portal instances
func (c *Config) GetShared() int {
	if c.IsShared == 1 {
		return 1
	}
	return 0
}

func (c *Config) validate() error {
	if !util.Contains(SupportedDrivers(), c.Driver) {
		return fmt.Errorf("unsupported session store driver %q", c.Driver)
	}
	return nil
}

// SupportedDrivers returns the names of the available store drivers
func SupportedDrivers() []string {
	return []string{MemoryDriverName, BoltDriverName, SQLiteDriverName}
}

// Provider defines the interface a session store driver must implement
type Provider interface {
	addSession(session Session) error
	getSession(key string, sessionType SessionType) (Session, error)
	deleteSession(key string, sessionType SessionType) error
	cleanupSessions(sessionType SessionType, before int64) error
	checkAvailability() error
	close() error
}

var (
	config   Config
	provider Provider
)

// Initialize the session store using the provided configuration.
// basePath resolves relative database paths
func Initialize(cnf Config, basePath string) error {
	config = cnf
	if err := config.validate(); err != nil {
		return err
	}
	var err error
	switch config.Driver {
	case BoltDriverName:
		err = initializeBoltProvider(basePath)
	case SQLiteDriverName:
		err = initializeSQLiteProvider(basePath)
	default:
		err = initializeMemoryProvider()
	}
	if err == nil {
		providerLog(logger.LevelInfo, "session store %q initialized", config.Driver)
	}
	return err
}

// Add stores a new session, overwriting any session with the same key
func Add(session Session) error {
	if provider == nil {
		return ErrNotInitialized
	}
	err := provider.addSession(session)
	if err != nil {
		providerLog(logger.LevelError, "unable to add session, key %q, type %v, err: %v",
			session.Key, session.Type, err)
	}
	return err
}

// Get retrieves the session with the specified key and type
func Get(key string, sessionType SessionType) (Session, error) {
	if provider == nil {
		return Session{}, ErrNotInitialized
	}
	return provider.getSession(key, sessionType)
}

// Delete deletes the session with the specified key and type
func Delete(key string, sessionType SessionType) error {
	if provider == nil {
		return ErrNotInitialized
	}
	err := provider.deleteSession(key, sessionType)
	if err != nil {
		if _, ok := err.(*util.RecordNotFoundError); !ok {
			providerLog(logger.LevelError, "unable to delete session, key %q, type %v, err: %v",
				key, sessionType, err)
		}
	}
	return err
}

// Cleanup removes the sessions with the specified type and a timestamp
// before the specified time
func Cleanup(sessionType SessionType, before time.Time) error {
	if provider == nil {
		return ErrNotInitialized
	}
	err := provider.cleanupSessions(sessionType, util.GetTimeAsMsSinceEpoch(before))
	if err == nil {
		providerLog(logger.LevelDebug, "deleted sessions before: %v, type: %v", before, sessionType)
	} else {
		providerLog(logger.LevelError, "error deleting sessions before %v, type %v: %v", before, sessionType, err)
	}
	return err
}

// CheckAvailability reports whether the configured driver is reachable
func CheckAvailability() error {
	if provider == nil {
		return ErrNotInitialized
	}
	return provider.checkAvailability()
}

// Close releases the resources held by the configured driver
func Close() error {
	if provider == nil {
		return ErrNotInitialized
	}
	return provider.close()
}

func providerLog(level logger.LogLevel, format string, v ...any) {
	logger.Log(level, logSender, "", format, v...)
}
