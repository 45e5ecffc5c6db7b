package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gutsytechster/comcast-bot/pkg/auth"
	"github.com/gutsytechster/comcast-bot/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored portal credentials",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store portal credentials",
	Long: `Login prompts for a portal username and password and stores them in
the system keyring, falling back to an encrypted file when no keyring
is available.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials for a username",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogout,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	RunE:  runAuthList,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	password, err := ui.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	if err := manager.Store(&auth.Account{Username: username, Password: password}); err != nil {
		return err
	}

	ui.PrintSuccess("Credentials stored for %s", username)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}

	ui.PrintSuccess("Credentials removed for %s", args[0])
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored credentials")
		return nil
	}

	ui.PrintHeader("Stored credentials")
	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		ui.PrintDetail("%s (password %s, updated %s)",
			masked.Username, masked.Password, masked.LastModified.Format("2006-01-02"))
	}
	return nil
}
