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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/campushire/campushire/internal/logger"
)

var genCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `To load completions:

Bash:

$ source <(campushire gen completion bash)

To load completions for each session, execute once:

Linux:

$ sudo campushire gen completion bash > /usr/share/bash-completion/completions/campushire

MacOS:

$ sudo campushire gen completion bash > /usr/local/etc/bash_completion.d/campushire

Zsh:

If shell completion is not already enabled in your environment you will need
to enable it.  You can execute the following once:

$ echo "autoload -U compinit; compinit" >> ~/.zshrc

To load completions for each session, execute once:

$ campushire gen completion zsh > "${fpath[1]}/_campushire"

Fish:

$ campushire gen completion fish | source

To load completions for each session, execute once:

$ campushire gen completion fish > ~/.config/fish/completions/campushire.fish

Powershell:

PS> campushire gen completion powershell | Out-String | Invoke-Expression

To load completions for every new session, run:

PS> campushire gen completion powershell > campushire.ps1

and source this file from your powershell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		logger.DisableLogger()
		logger.EnableConsoleLogger(zerolog.DebugLevel)
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		if err != nil {
			logger.WarnToConsole("Unable to generate shell completion script: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	genCmd.AddCommand(genCompletionCmd)
}
