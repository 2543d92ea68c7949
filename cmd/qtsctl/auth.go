package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	username  string
	password  string
	copyToken bool
	showToken bool
)

func init() {
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	tokenCmd.Flags().BoolVar(&copyToken, "copy", false, "copy the token to the clipboard")
	tokenCmd.Flags().BoolVar(&showToken, "show", false, "print the full token")

	rootCmd.AddCommand(loginCmd, logoutCmd, tokenCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if username == "" || password == "" {
			if err := promptCredentials(); err != nil {
				return err
			}
		}

		tok, err := cli.client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("Signed in to %s", cli.resolver.Active().URL)
		if !tok.Expiry.IsZero() {
			msg += fmt.Sprintf(" (expires %s)", tok.Expiry.Local().Format(time.RFC1123))
		}
		fmt.Fprintln(cli.out, msg)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.client.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Signed out")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, ok := cli.session.Token()
		if !ok {
			return fmt.Errorf("not signed in")
		}

		if copyToken {
			if err := clipboard.WriteAll(tok.AccessToken); err != nil {
				return fmt.Errorf("failed to copy token: %w", err)
			}
			fmt.Fprintln(cli.out, "Token copied to clipboard")
		}

		shown := tok.AccessToken
		if !showToken {
			shown = maskToken(shown)
		}
		fmt.Fprintf(cli.out, "%s %s\n", tok.Type(), shown)
		if !tok.Expiry.IsZero() {
			fmt.Fprintf(cli.out, "expires %s\n", tok.Expiry.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func promptCredentials() error {
	if !isTerminal(stdin()) {
		return fmt.Errorf("--username and --password are required when not running in a terminal")
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		),
	).Run()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// maskToken keeps the first and last four characters.
func maskToken(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + strings.Repeat("*", len(tok)-8) + tok[len(tok)-4:]
}

func stdin() *os.File {
	return os.Stdin
}
