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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/campushire/campushire/internal/config"
	"github.com/campushire/campushire/internal/httpclient"
	"github.com/campushire/campushire/internal/logger"
	"github.com/campushire/campushire/internal/platform"
	"github.com/campushire/campushire/internal/util"
)

var (
	apiCheckAdmin string
	apiCheckCmd   = &cobra.Command{
		Use:   "apicheck",
		Short: "Check the connection to the assessment platform API",
		Long: `This command reads the platform API URL from the specified configuration file
and verifies that the API answers HTTP requests. If an admin email is given
the command prompts for the password and attempts an admin sign in too.

Please take a look at the usage below to customize the options.`,
		Run: func(_ *cobra.Command, _ []string) {
			logger.DisableLogger()
			logger.EnableConsoleLogger(zerolog.DebugLevel)
			configDir = util.CleanDirInput(configDir)
			err := config.LoadConfig(configDir, configFile)
			if err != nil {
				logger.WarnToConsole("Unable to load configuration: %v", err)
				os.Exit(1)
			}
			httpConfig := config.GetHTTPConfig()
			err = httpConfig.Initialize(configDir)
			if err != nil {
				logger.ErrorToConsole("error initializing http client: %v", err)
				os.Exit(1)
			}
			httpdConfig := config.GetHTTPDConfig()
			if httpdConfig.PlatformURL == "" {
				logger.ErrorToConsole("no platform API URL configured")
				os.Exit(1)
			}
			logger.DebugToConsole("Platform API URL %q", util.GetRedactedURL(httpdConfig.PlatformURL))
			resp, err := httpclient.RetryableGet(httpdConfig.PlatformURL)
			if err != nil {
				logger.ErrorToConsole("Unable to connect to the platform API: %v", err)
				os.Exit(1)
			}
			resp.Body.Close()
			logger.DebugToConsole("Platform API answered with status code %d", resp.StatusCode)
			if apiCheckAdmin != "" {
				fmt.Printf("Enter Password: ")
				pwd, err := term.ReadPassword(int(os.Stdin.Fd()))
				if err != nil {
					logger.ErrorToConsole("Unable to read the password: %v", err)
					os.Exit(1)
				}
				fmt.Println("")
				client := platform.NewClient(httpdConfig.PlatformURL)
				_, err = client.AdminLogin(context.Background(), platform.Credentials{
					Email:    apiCheckAdmin,
					Password: string(pwd),
				})
				if err != nil {
					logger.ErrorToConsole("Admin sign in failed: %v", err)
					os.Exit(1)
				}
				logger.InfoToConsole("Admin sign in OK")
			}
			logger.InfoToConsole("OK")
		},
	}
)

func init() {
	addConfigFlags(apiCheckCmd)
	apiCheckCmd.Flags().StringVar(&apiCheckAdmin, "admin", "", `Admin email to use for the optional
sign in check`)

	rootCmd.AddCommand(apiCheckCmd)
}
