package cli

import (
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: heredoc.Doc(`
			Generate shell completion scripts for mvnfetch.

			To load completions:

			Bash:
			  $ source <(mvnfetch completion bash)

			  # To load completions for each session, execute once:
			  # Linux:
			  $ mvnfetch completion bash > /etc/bash_completion.d/mvnfetch
			  # macOS:
			  $ mvnfetch completion bash > $(brew --prefix)/etc/bash_completion.d/mvnfetch

			Zsh:
			  # If shell completion is not already enabled in your environment,
			  # you will need to enable it. You can execute the following once:
			  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

			  # To load completions for each session, execute once:
			  $ mvnfetch completion zsh > "${fpath[1]}/_mvnfetch"

			Fish:
			  $ mvnfetch completion fish | source

			  # To load completions for each session, execute once:
			  $ mvnfetch completion fish > ~/.config/fish/completions/mvnfetch.fish

			PowerShell:
			  PS> mvnfetch completion powershell | Out-String | Invoke-Expression
		`),
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
