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

// Package service allows to start and stop the CampusHire portal service
package service

import (
	"errors"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/campushire/campushire/internal/config"
	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/sessionstore"
	"github.com/campushire/campushire/internal/util"
	"github.com/campushire/campushire/internal/version"
)

const (
	logSender = "service"
)

// Service defines the CampusHire portal service
type Service struct {
	ConfigDir     string
	ConfigFile    string
	LogFilePath   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
	LogLevel      string
	LogUTCTime    bool
	Shutdown      chan bool
	Error         error
}

func (s *Service) initLogger() {
	var logLevel zerolog.Level
	switch s.LogLevel {
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.DebugLevel
	}
	if !filepath.IsAbs(s.LogFilePath) && util.IsFileInputValid(s.LogFilePath) {
		s.LogFilePath = filepath.Join(s.ConfigDir, s.LogFilePath)
	}
	logger.InitLogger(s.LogFilePath, s.LogMaxSize, s.LogMaxBackups, s.LogMaxAge, s.LogCompress, s.LogUTCTime, logLevel)
}

// Start initializes and starts the service
func (s *Service) Start() error {
	s.initLogger()
	logger.Info(logSender, "", "starting CampusHire %s, config dir: %s, config file: %s, log max size: %d log max backups: %d "+
		"log max age: %d log level: %s, log compress: %t, log utc time: %t",
		version.GetAsString(), s.ConfigDir, s.ConfigFile, s.LogMaxSize, s.LogMaxBackups, s.LogMaxAge, s.LogLevel,
		s.LogCompress, s.LogUTCTime)
	err := config.LoadConfig(s.ConfigDir, s.ConfigFile)
	if err != nil {
		logger.Error(logSender, "", "error loading configuration: %v", err)
		return err
	}
	httpdConf := config.GetHTTPDConfig()
	if !httpdConf.ShouldBind() {
		infoString := "no web binding configured, nothing to do"
		logger.Info(logSender, "", infoString)
		logger.InfoToConsole(infoString)
		return errors.New(infoString)
	}

	if err := s.initializeServices(); err != nil {
		return err
	}

	s.startService()

	return nil
}

func (s *Service) initializeServices() error {
	httpConfig := config.GetHTTPConfig()
	err := httpConfig.Initialize(s.ConfigDir)
	if err != nil {
		logger.Error(logSender, "", "error initializing http client: %v", err)
		logger.ErrorToConsole("error initializing http client: %v", err)
		return err
	}
	storeConfig := config.GetStoreConfig()
	err = sessionstore.Initialize(storeConfig, s.ConfigDir)
	if err != nil {
		logger.Error(logSender, "", "error initializing session store: %v", err)
		logger.ErrorToConsole("error initializing session store: %v", err)
		return err
	}
	return nil
}

func (s *Service) startService() {
	httpdConf := config.GetHTTPDConfig()
	storeConfig := config.GetStoreConfig()

	go func() {
		if err := httpdConf.Initialize(s.ConfigDir, storeConfig.GetShared()); err != nil {
			logger.Error(logSender, "", "could not start HTTP server: %v", err)
			logger.ErrorToConsole("could not start HTTP server: %v", err)
			s.Error = err
		}
		s.Shutdown <- true
	}()
}

// Wait blocks until the service exits
func (s *Service) Wait() {
	registerSignals()
	<-s.Shutdown
}

// Stop terminates the service unblocking the Wait method
func (s *Service) Stop() {
	close(s.Shutdown)
	logger.Debug(logSender, "", "Service stopped")
}
