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
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/util"
	"github.com/campushire/campushire/internal/version"
)

var (
	revokedTokensBucket = []byte("revoked_tokens")
	profileDraftsBucket = []byte("profile_drafts")
	boltBuckets         = [][]byte{revokedTokensBucket, profileDraftsBucket}
)

type boltProvider struct {
	dbHandle *bolt.DB
}

func init() {
	version.AddFeature("+bolt")
}

type boltSessionValue struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func initializeBoltProvider(basePath string) error {
	dbPath := config.Name
	if !util.IsFileInputValid(dbPath) {
		return fmt.Errorf("invalid database path: %q", dbPath)
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(basePath, dbPath)
	}
	dbHandle, err := bolt.Open(dbPath, 0600, &bolt.Options{
		NoGrowSync:   false,
		FreelistType: bolt.FreelistArrayType,
		Timeout:      5 * time.Second})
	if err != nil {
		providerLog(logger.LevelError, "error creating bolt key/value store handler: %v", err)
		return err
	}
	for _, bucket := range boltBuckets {
		if err := dbHandle.Update(func(tx *bolt.Tx) error {
			_, e := tx.CreateBucketIfNotExists(bucket)
			return e
		}); err != nil {
			providerLog(logger.LevelError, "error creating bucket %q: %v", string(bucket), err)
			dbHandle.Close()
			return err
		}
	}
	providerLog(logger.LevelDebug, "bolt key store handle created")
	provider = &boltProvider{dbHandle: dbHandle}
	return nil
}

func getBucketForType(tx *bolt.Tx, sessionType SessionType) (*bolt.Bucket, error) {
	var name []byte
	switch sessionType {
	case SessionTypeRevokedToken:
		name = revokedTokensBucket
	case SessionTypeProfileDraft:
		name = profileDraftsBucket
	default:
		return nil, fmt.Errorf("invalid session type: %v", sessionType)
	}
	bucket := tx.Bucket(name)
	if bucket == nil {
		return nil, fmt.Errorf("unable to find bucket %q", string(name))
	}
	return bucket, nil
}

func (p *boltProvider) addSession(session Session) error {
	if err := session.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(session.Data)
	if err != nil {
		return err
	}
	value, err := json.Marshal(boltSessionValue{
		Data:      data,
		Timestamp: session.Timestamp,
	})
	if err != nil {
		return err
	}
	return p.dbHandle.Update(func(tx *bolt.Tx) error {
		bucket, err := getBucketForType(tx, session.Type)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(session.Key), value)
	})
}

func (p *boltProvider) getSession(key string, sessionType SessionType) (Session, error) {
	var session Session
	err := p.dbHandle.View(func(tx *bolt.Tx) error {
		bucket, err := getBucketForType(tx, sessionType)
		if err != nil {
			return err
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return util.NewRecordNotFoundError(fmt.Sprintf("session %q not found", key))
		}
		var value boltSessionValue
		if err := json.Unmarshal(v, &value); err != nil {
			return err
		}
		session.Key = key
		session.Data = []byte(value.Data)
		session.Type = sessionType
		session.Timestamp = value.Timestamp
		return nil
	})
	return session, err
}

func (p *boltProvider) deleteSession(key string, sessionType SessionType) error {
	return p.dbHandle.Update(func(tx *bolt.Tx) error {
		bucket, err := getBucketForType(tx, sessionType)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(key)) == nil {
			return util.NewRecordNotFoundError(fmt.Sprintf("session %q not found", key))
		}
		return bucket.Delete([]byte(key))
	})
}

func (p *boltProvider) cleanupSessions(sessionType SessionType, before int64) error {
	return p.dbHandle.Update(func(tx *bolt.Tx) error {
		bucket, err := getBucketForType(tx, sessionType)
		if err != nil {
			return err
		}
		var toRemove [][]byte
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var value boltSessionValue
			if err := json.Unmarshal(v, &value); err != nil || value.Timestamp < before {
				key := make([]byte, len(k))
				copy(key, k)
				toRemove = append(toRemove, key)
			}
		}
		for _, key := range toRemove {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *boltProvider) checkAvailability() error {
	return p.dbHandle.View(func(tx *bolt.Tx) error {
		_, err := getBucketForType(tx, SessionTypeRevokedToken)
		return err
	})
}

func (p *boltProvider) close() error {
	return p.dbHandle.Close()
}
