package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gutsytechster/comcast-bot/pkg/auth"
	"github.com/gutsytechster/comcast-bot/pkg/config"
	"github.com/gutsytechster/comcast-bot/pkg/logger"
	"github.com/gutsytechster/comcast-bot/pkg/scraper"
	"github.com/gutsytechster/comcast-bot/pkg/ui"
)

var (
	fetchUsername   string
	fetchOutput     string
	fetchAttempts   int
	fetchRetryDelay time.Duration
	fetchOverwrite  bool
	fetchHeadless   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Sign in and download all billing PDFs",
	Long: `Fetch signs in to the Comcast Business portal, lists every account
linked to the login, and downloads each account's latest bill into the
output directory. Accounts that fail are reported at the end; a failure
on one account does not stop the others.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchUsername, "username", "u", "", "portal username (overrides stored credentials)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output directory for bill PDFs (default \"bills\")")
	fetchCmd.Flags().IntVar(&fetchAttempts, "max-attempts", 0, "maximum retry attempts per operation")
	fetchCmd.Flags().DurationVar(&fetchRetryDelay, "retry-delay", 0, "base delay between retries (e.g. 5s)")
	fetchCmd.Flags().BoolVar(&fetchOverwrite, "overwrite", false, "overwrite bills that were already downloaded")
	fetchCmd.Flags().BoolVar(&fetchHeadless, "headless", true, "run the browser headless")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"username":  fetchUsername,
		"output":    fetchOutput,
		"overwrite": fetchOverwrite,
		"headless":  fetchHeadless,
		"log-level": logLevel,
	}
	if fetchAttempts > 0 {
		flags["max-attempts"] = fetchAttempts
	}
	if fetchRetryDelay > 0 {
		flags["retry-delay"] = fetchRetryDelay
	}

	manager, _ := auth.NewManager()
	if err := resolveCredentials(flags, fetchUsername,
		os.Getenv("COMCAST_USERNAME"), os.Getenv("COMCAST_PASSWORD"), manager); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ui.PrintInfo("Signing in as %s", cfg.Portal.Username)

	s, err := scraper.New(cfg, log)
	if err != nil {
		return err
	}

	report, err := s.Run(ctx)
	if err != nil {
		return err
	}

	printReport(report, cfg.Output.Directory)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d account(s) failed to download", report.Failed, report.Total)
	}
	return nil
}

// resolveCredentials fills the username and password flag overrides, keeping
// both halves of the pair from the same source. A --username that names a
// different account than the environment login must resolve to that user's
// stored password; pairing it with COMCAST_PASSWORD would sign in as the
// wrong account.
func resolveCredentials(flags map[string]interface{}, requested, envUser, envPass string, manager *auth.Manager) error {
	if requested != "" && requested != envUser {
		if manager == nil {
			return fmt.Errorf("no stored credentials for %s (run \"comcastbot auth store\")", requested)
		}
		account, err := manager.Retrieve(requested)
		if err != nil || account == nil {
			return fmt.Errorf("no stored credentials for %s (run \"comcastbot auth store\")", requested)
		}
		flags["username"] = account.Username
		flags["password"] = account.Password
		return nil
	}

	// Environment provides a complete pair; let config.Load pick it up.
	if envUser != "" && envPass != "" {
		return nil
	}

	if manager == nil {
		return nil
	}
	var account *auth.Account
	if requested != "" {
		account, _ = manager.Retrieve(requested)
	} else {
		account, _ = manager.RetrieveDefault()
	}
	if account != nil {
		flags["username"] = account.Username
		flags["password"] = account.Password
	}
	return nil
}

func printReport(report *scraper.Report, outputDir string) {
	ui.PrintHeader("Download summary")
	ui.PrintDetail("accounts:   %d", report.Total)
	ui.PrintDetail("downloaded: %d", report.Succeeded)
	ui.PrintDetail("skipped:    %d", report.Skipped)
	ui.PrintDetail("failed:     %d", report.Failed)

	if report.Succeeded > 0 {
		ui.PrintSuccess("Saved %d bill(s) to %s", report.Succeeded, outputDir)
	}
	for _, account := range report.FailedAccounts {
		ui.PrintWarning("account %s failed to download", account)
	}
}
