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

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushire/campushire/internal/config"
	"github.com/campushire/campushire/internal/httpclient"
	"github.com/campushire/campushire/internal/httpd"
	"github.com/campushire/campushire/internal/sessionstore"
)

const (
	tempConfigName = "temp"
	configDir      = ".."
)

func reset() {
	viper.Reset()
	config.Init()
}

func TestLoadConfigTest(t *testing.T) {
	reset()

	err := config.LoadConfig(configDir, "")
	assert.NoError(t, err)
	assert.NotEqual(t, httpd.Conf{}, config.GetHTTPDConfig())
	assert.NotEqual(t, httpclient.Config{}, config.GetHTTPConfig())
	assert.Equal(t, sessionstore.MemoryDriverName, config.GetStoreConfig().Driver)
	confName := tempConfigName + ".json"
	configFilePath := filepath.Join(configDir, confName)
	err = config.LoadConfig(configDir, "configfile-not-exists.json")
	assert.Error(t, err)
	err = os.WriteFile(configFilePath, []byte("{invalid json}"), os.ModePerm)
	assert.NoError(t, err)
	err = config.LoadConfig(configDir, confName)
	assert.Error(t, err)
	err = os.WriteFile(configFilePath, []byte(`{"httpd": {"max_upload_file_size": "a"}}`), os.ModePerm)
	assert.NoError(t, err)
	err = config.LoadConfig(configDir, confName)
	assert.Error(t, err)
	err = os.Remove(configFilePath)
	assert.NoError(t, err)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	reset()

	viper.SetConfigName("configfile-not-exists")
	err := config.LoadConfig(".", "")
	assert.NoError(t, err)
}

func TestReadEnvFiles(t *testing.T) {
	reset()

	envd := filepath.Join(t.TempDir(), "env.d")
	err := os.MkdirAll(envd, os.ModePerm)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(envd, "campushire"),
		[]byte("CAMPUSHIRE_SESSION_STORE__DRIVER=bolt\nCAMPUSHIRE_SESSION_STORE__NAME=portal.db\n"),
		os.ModePerm)
	require.NoError(t, err)
	// oversized env files must be skipped
	content := make([]byte, 1048576+1)
	copy(content, []byte("CAMPUSHIRE_SESSION_STORE__CONNECTION_STRING=skipped\n"))
	err = os.WriteFile(filepath.Join(envd, "env2"), content, os.ModePerm)
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("CAMPUSHIRE_SESSION_STORE__DRIVER")
		os.Unsetenv("CAMPUSHIRE_SESSION_STORE__NAME")
	})

	err = config.LoadConfig(filepath.Dir(envd), "")
	assert.NoError(t, err)
	storeConf := config.GetStoreConfig()
	assert.Equal(t, sessionstore.BoltDriverName, storeConf.Driver)
	assert.Equal(t, "portal.db", storeConf.Name)
	assert.Empty(t, storeConf.ConnectionString)
}

func TestPlatformURLFromEnv(t *testing.T) {
	os.Setenv("CAMPUSHIRE_HTTPD__PLATFORM_URL", "https://platform.example.com/api/v2")
	t.Cleanup(func() {
		os.Unsetenv("CAMPUSHIRE_HTTPD__PLATFORM_URL")
	})

	reset()

	err := config.LoadConfig(configDir, "")
	assert.NoError(t, err)
	assert.Equal(t, "https://platform.example.com/api/v2", config.GetHTTPDConfig().PlatformURL)
}

func TestInvalidSessionStoreDriver(t *testing.T) {
	reset()

	confName := tempConfigName + ".json"
	configFilePath := filepath.Join(configDir, confName)
	storeConf := config.GetStoreConfig()
	storeConf.Driver = "unsupported"
	c := make(map[string]sessionstore.Config)
	c["session_store"] = storeConf
	jsonConf, err := json.Marshal(c)
	require.NoError(t, err)
	err = os.WriteFile(configFilePath, jsonConf, os.ModePerm)
	require.NoError(t, err)
	err = config.LoadConfig(configDir, confName)
	assert.NoError(t, err)
	assert.Equal(t, sessionstore.MemoryDriverName, config.GetStoreConfig().Driver)
	err = os.Remove(configFilePath)
	assert.NoError(t, err)
}

func TestInvalidMaxUploadFileSize(t *testing.T) {
	reset()

	confName := tempConfigName + ".json"
	configFilePath := filepath.Join(configDir, confName)
	httpdConf := config.GetHTTPDConfig()
	httpdConf.MaxUploadFileSize = -1
	c := make(map[string]httpd.Conf)
	c["httpd"] = httpdConf
	jsonConf, err := json.Marshal(c)
	require.NoError(t, err)
	err = os.WriteFile(configFilePath, jsonConf, os.ModePerm)
	require.NoError(t, err)
	err = config.LoadConfig(configDir, confName)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), config.GetHTTPDConfig().MaxUploadFileSize)
	err = os.Remove(configFilePath)
	assert.NoError(t, err)
}

func TestInvalidMinPasswordEntropy(t *testing.T) {
	reset()

	confName := tempConfigName + ".json"
	configFilePath := filepath.Join(configDir, confName)
	httpdConf := config.GetHTTPDConfig()
	httpdConf.MinPasswordEntropy = -10
	c := make(map[string]httpd.Conf)
	c["httpd"] = httpdConf
	jsonConf, err := json.Marshal(c)
	require.NoError(t, err)
	err = os.WriteFile(configFilePath, jsonConf, os.ModePerm)
	require.NoError(t, err)
	err = config.LoadConfig(configDir, confName)
	assert.NoError(t, err)
	assert.Equal(t, float64(0), config.GetHTTPDConfig().MinPasswordEntropy)
	err = os.Remove(configFilePath)
	assert.NoError(t, err)
}

func TestHTTPDBindingsFromEnv(t *testing.T) {
	envVars := map[string]string{
		"CAMPUSHIRE_HTTPD__BINDINGS__0__ADDRESS":                                 "127.0.0.1",
		"CAMPUSHIRE_HTTPD__BINDINGS__0__PORT":                                    "8081",
		"CAMPUSHIRE_HTTPD__BINDINGS__0__ENABLE_WEB_ADMIN":                        "false",
		"CAMPUSHIRE_HTTPD__BINDINGS__0__ENABLE_METRICS":                          "true",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__ADDRESS":                                 "192.168.1.1",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__PORT":                                    "9443",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__ENABLE_HTTPS":                            "1",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__CERTIFICATE_FILE":                        "cert.crt",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__CERTIFICATE_KEY_FILE":                    "cert.key",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__MIN_TLS_VERSION":                         "13",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__TLS_CIPHER_SUITES":                       " TLS_AES_128_GCM_SHA256, TLS_AES_256_GCM_SHA384",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__PROXY_ALLOWED":                           "192.168.1.0/24",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__CLIENT_IP_PROXY_HEADER":                  "X-Forwarded-For",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__CLIENT_IP_HEADER_DEPTH":                  "1",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__ENABLED":                       "true",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__ALLOWED_HOSTS":                 "*.example.com,www.example.net",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__ALLOWED_HOSTS_ARE_REGEX":       "true",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__STS_SECONDS":                   "31536000",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__STS_INCLUDE_SUBDOMAINS":        "true",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__CONTENT_SECURITY_POLICY":       "default-src 'self'",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__HTTPS_PROXY_HEADERS__0__KEY":   "X-Forwarded-Proto",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__SECURITY__HTTPS_PROXY_HEADERS__0__VALUE": "https",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__BRANDING__WEB_CANDIDATE__NAME":           "Acme Careers",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__BRANDING__WEB_CANDIDATE__DEFAULT_CSS":    "/static/css/acme.css",
		"CAMPUSHIRE_HTTPD__BINDINGS__1__BRANDING__WEB_ADMIN__SHORT_NAME":         "Acme",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	})

	reset()

	err := config.LoadConfig(configDir, "")
	assert.NoError(t, err)
	bindings := config.GetHTTPDConfig().Bindings
	require.Len(t, bindings, 2)
	assert.Equal(t, "127.0.0.1", bindings[0].Address)
	assert.Equal(t, 8081, bindings[0].Port)
	assert.True(t, bindings[0].EnableWebCandidate)
	assert.False(t, bindings[0].EnableWebAdmin)
	assert.True(t, bindings[0].EnableMetrics)
	assert.False(t, bindings[0].EnableHTTPS)
	assert.Equal(t, "192.168.1.1", bindings[1].Address)
	assert.Equal(t, 9443, bindings[1].Port)
	assert.True(t, bindings[1].EnableWebCandidate)
	assert.True(t, bindings[1].EnableWebAdmin)
	assert.True(t, bindings[1].EnableHTTPS)
	assert.Equal(t, "cert.crt", bindings[1].CertificateFile)
	assert.Equal(t, "cert.key", bindings[1].CertificateKeyFile)
	assert.Equal(t, 13, bindings[1].MinTLSVersion)
	assert.Equal(t, []string{"TLS_AES_128_GCM_SHA256", "TLS_AES_256_GCM_SHA384"}, bindings[1].TLSCipherSuites)
	assert.Equal(t, []string{"192.168.1.0/24"}, bindings[1].ProxyAllowed)
	assert.Equal(t, "X-Forwarded-For", bindings[1].ClientIPProxyHeader)
	assert.Equal(t, 1, bindings[1].ClientIPHeaderDepth)
	assert.True(t, bindings[1].Security.Enabled)
	assert.Equal(t, []string{"*.example.com", "www.example.net"}, bindings[1].Security.AllowedHosts)
	assert.True(t, bindings[1].Security.AllowedHostsAreRegex)
	assert.Equal(t, int64(31536000), bindings[1].Security.STSSeconds)
	assert.True(t, bindings[1].Security.STSIncludeSubdomains)
	assert.Equal(t, "default-src 'self'", bindings[1].Security.ContentSecurityPolicy)
	require.Len(t, bindings[1].Security.HTTPSProxyHeaders, 1)
	assert.Equal(t, "X-Forwarded-Proto", bindings[1].Security.HTTPSProxyHeaders[0].Key)
	assert.Equal(t, "https", bindings[1].Security.HTTPSProxyHeaders[0].Value)
	assert.Equal(t, "Acme Careers", bindings[1].Branding.WebCandidate.Name)
	assert.Equal(t, []string{"/static/css/acme.css"}, bindings[1].Branding.WebCandidate.DefaultCSS)
	assert.Equal(t, "Acme", bindings[1].Branding.WebAdmin.ShortName)
}

func TestHTTPClientCertificatesFromEnv(t *testing.T) {
	os.Setenv("CAMPUSHIRE_HTTP__CERTIFICATES__0__CERT", "cert0")
	os.Setenv("CAMPUSHIRE_HTTP__CERTIFICATES__0__KEY", "key0")
	t.Cleanup(func() {
		os.Unsetenv("CAMPUSHIRE_HTTP__CERTIFICATES__0__CERT")
		os.Unsetenv("CAMPUSHIRE_HTTP__CERTIFICATES__0__KEY")
	})

	reset()

	err := config.LoadConfig(configDir, "")
	assert.NoError(t, err)
	httpConf := config.GetHTTPConfig()
	require.Len(t, httpConf.Certificates, 1)
	assert.Equal(t, "cert0", httpConf.Certificates[0].Cert)
	assert.Equal(t, "key0", httpConf.Certificates[0].Key)
}

func TestHTTPClientHeadersFromEnv(t *testing.T) {
	os.Setenv("CAMPUSHIRE_HTTP__HEADERS__0__KEY", "X-API-Key")
	os.Setenv("CAMPUSHIRE_HTTP__HEADERS__0__VALUE", "testvalue")
	os.Setenv("CAMPUSHIRE_HTTP__HEADERS__0__URL", "https://platform.example.com")
	t.Cleanup(func() {
		os.Unsetenv("CAMPUSHIRE_HTTP__HEADERS__0__KEY")
		os.Unsetenv("CAMPUSHIRE_HTTP__HEADERS__0__VALUE")
		os.Unsetenv("CAMPUSHIRE_HTTP__HEADERS__0__URL")
	})

	reset()

	err := config.LoadConfig(configDir, "")
	assert.NoError(t, err)
	httpConf := config.GetHTTPConfig()
	require.Len(t, httpConf.Headers, 1)
	assert.Equal(t, "X-API-Key", httpConf.Headers[0].Key)
	assert.Equal(t, "testvalue", httpConf.Headers[0].Value)
	assert.Equal(t, "https://platform.example.com", httpConf.Headers[0].URL)
}

func TestSetGetConfig(t *testing.T) {
	reset()

	httpdConf := config.GetHTTPDConfig()
	httpdConf.SigningPassphrase = "signing passphrase"
	config.SetHTTPDConfig(httpdConf)
	assert.Equal(t, httpdConf.SigningPassphrase, config.GetHTTPDConfig().SigningPassphrase)
	httpConf := config.GetHTTPConfig()
	httpConf.Timeout = 10
	config.SetHTTPConfig(httpConf)
	assert.Equal(t, httpConf.Timeout, config.GetHTTPConfig().Timeout)
	storeConf := config.GetStoreConfig()
	storeConf.Name = "sessions.db"
	config.SetStoreConfig(storeConf)
	assert.Equal(t, storeConf.Name, config.GetStoreConfig().Name)
}
