// Package ui provides terminal output helpers for the command-line interface.
package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var (
	// NoColor disables ANSI color output
	NoColor bool

	// Quiet suppresses informational output
	Quiet bool
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		NoColor = true
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		NoColor = true
	}
}

func colorize(color, text string) string {
	if NoColor {
		return text
	}
	return color + text + colorReset
}

// PrintError writes an error message to stderr
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

// PrintSuccess writes a success message to stdout
func PrintSuccess(format string, args ...interface{}) {
	if Quiet {
		return
	}
	fmt.Println(colorize(colorGreen, "✓ "+fmt.Sprintf(format, args...)))
}

// PrintInfo writes an informational message to stdout
func PrintInfo(format string, args ...interface{}) {
	if Quiet {
		return
	}
	fmt.Println(colorize(colorBlue, "• "+fmt.Sprintf(format, args...)))
}

// PrintWarning writes a warning message to stdout
func PrintWarning(format string, args ...interface{}) {
	if Quiet {
		return
	}
	fmt.Println(colorize(colorYellow, "! "+fmt.Sprintf(format, args...)))
}

// PrintHeader writes a bold section header
func PrintHeader(text string) {
	if Quiet {
		return
	}
	fmt.Println(colorize(colorBold, text))
}

// PrintDetail writes an indented detail line
func PrintDetail(format string, args ...interface{}) {
	if Quiet {
		return
	}
	fmt.Println(colorize(colorGray, "  "+fmt.Sprintf(format, args...)))
}

// ReadPassword reads a password from the terminal without echoing it
func ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
