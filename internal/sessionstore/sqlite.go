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

//go:build !nosqlite
// +build !nosqlite

package sessionstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	// we import go-sqlite3 here to be able to disable SQLite support using a build tag
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/util"
	"github.com/campushire/campushire/internal/version"
)

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

const (
	sqlQueryTimeout = 10 * time.Second

	sqliteAddSessionQuery = `INSERT INTO shared_sessions (key,data,type,timestamp) VALUES (?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET data=EXCLUDED.data, timestamp=EXCLUDED.timestamp`
	sqliteGetSessionQuery      = `SELECT key,data,type,timestamp FROM shared_sessions WHERE key = ? AND type = ?`
	sqliteDeleteSessionQuery   = `DELETE FROM shared_sessions WHERE key = ? AND type = ?`
	sqliteCleanupSessionsQuery = `DELETE FROM shared_sessions WHERE type = ? AND timestamp < ?`
)

type sqliteProvider struct {
	dbHandle *sql.DB
}

func init() {
	version.AddFeature("+sqlite")
}

func initializeSQLiteProvider(basePath string) error {
	connectionString := config.ConnectionString
	if connectionString == "" {
		dbPath := config.Name
		if !util.IsFileInputValid(dbPath) {
			return fmt.Errorf("invalid database path: %q", dbPath)
		}
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(basePath, dbPath)
		}
		connectionString = fmt.Sprintf("file:%v?cache=shared&_foreign_keys=1", dbPath)
	}
	dbHandle, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		providerLog(logger.LevelError, "error creating sqlite database handler, connection string: %q, error: %v",
			connectionString, err)
		return err
	}
	dbHandle.SetMaxOpenConns(1)
	if err := migrateSQLiteDatabase(dbHandle); err != nil {
		dbHandle.Close()
		providerLog(logger.LevelError, "error migrating sqlite database: %v", err)
		return err
	}
	providerLog(logger.LevelDebug, "sqlite database handle created, connection string: %q", connectionString)
	provider = &sqliteProvider{dbHandle: dbHandle}
	return nil
}

func migrateSQLiteDatabase(dbHandle *sql.DB) error {
	goose.SetBaseFS(sqliteMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(dbHandle, "migrations")
}

func (p *sqliteProvider) addSession(session Session) error {
	if err := session.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(session.Data)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlQueryTimeout)
	defer cancel()

	_, err = p.dbHandle.ExecContext(ctx, sqliteAddSessionQuery, session.Key, data, session.Type, session.Timestamp)
	return err
}

func (p *sqliteProvider) getSession(key string, sessionType SessionType) (Session, error) {
	var session Session
	ctx, cancel := context.WithTimeout(context.Background(), sqlQueryTimeout)
	defer cancel()

	var data []byte // type hint, some driver will use string instead of []byte if the type is any
	err := p.dbHandle.QueryRowContext(ctx, sqliteGetSessionQuery, key, sessionType).
		Scan(&session.Key, &data, &session.Type, &session.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session, util.NewRecordNotFoundError(err.Error())
		}
		return session, err
	}
	session.Data = data
	return session, nil
}

func (p *sqliteProvider) deleteSession(key string, sessionType SessionType) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqlQueryTimeout)
	defer cancel()

	res, err := p.dbHandle.ExecContext(ctx, sqliteDeleteSessionQuery, key, sessionType)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		providerLog(logger.LevelWarn, "unable to get affected rows: %v", err)
		return nil
	}
	if affected == 0 {
		return util.NewRecordNotFoundError("no rows deleted")
	}
	return nil
}

func (p *sqliteProvider) cleanupSessions(sessionType SessionType, before int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqlQueryTimeout)
	defer cancel()

	_, err := p.dbHandle.ExecContext(ctx, sqliteCleanupSessionsQuery, sessionType, before)
	return err
}

func (p *sqliteProvider) checkAvailability() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.dbHandle.PingContext(ctx)
}

func (p *sqliteProvider) close() error {
	return p.dbHandle.Close()
}
