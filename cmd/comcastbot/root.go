package main

import (
	"github.com/spf13/cobra"

	"github.com/gutsytechster/comcast-bot/pkg/ui"
)

var (
	cfgFile  string
	logLevel string
	quiet    bool
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "comcastbot",
	Short: "Download Comcast Business billing PDFs",
	Long: `comcastbot signs in to the Comcast Business portal with a headless
browser, discovers every account linked to the login, and downloads
each account's latest bill as a PDF.

Credentials come from the system keyring, an encrypted credential
file, or the COMCAST_USERNAME and COMCAST_PASSWORD environment
variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Quiet = quiet
		if noColor {
			ui.NoColor = true
		}
	},
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.PrintError("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .comcastbot.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
