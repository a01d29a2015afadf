// ABOUTME: Login and logout commands
// ABOUTME: Requests a one-time password, prompts for it and stores the session

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/tui/login"
	"github.com/poremland/open-rss-client/internal/tui/styles"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginOTP      string
)

// promptOTP asks for the passcode sent by the server. Replaced in tests.
var promptOTP = func(username string) (string, error) {
	var otp string
	err := huh.NewInput().
		Title("One-time password").
		Description(fmt.Sprintf("Enter the code sent to %s", username)).
		Value(&otp).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("the OTP is required")
			}
			return nil
		}).
		WithTheme(styles.FormTheme()).
		Run()
	return strings.TrimSpace(otp), err
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a one-time password",
	Long: `Sign in to the server. Without --otp a passcode is requested for the user and
prompted for interactively.

Exit codes:
  0 - Signed in
  2 - Error (connectivity, invalid passcode, missing input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runLogout(context.Background(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (default: the stored user)")
	loginCmd.Flags().StringVar(&loginOTP, "otp", "", "One-time password already received")
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer) int {
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		if err := r.requireServer(ctx); err != nil {
			printError(w, err)
			return exitError
		}

		username := strings.TrimSpace(loginUsername)
		if username == "" {
			username, _ = r.session.User(ctx)
		}
		if username == "" {
			printError(w, errors.New("a username is required, pass --username"))
			return exitError
		}

		otp := strings.TrimSpace(loginOTP)
		if otp == "" {
			if err := r.client.RequestOTP(ctx, username); err != nil {
				printError(w, fmt.Errorf("OTP request failed: %w", err))
				return exitError
			}
			if !IsJSONOutput() {
				dimColor.Fprintf(w, "OTP sent to %s\n", username)
			}
			var err error
			if otp, err = promptOTP(username); err != nil {
				printError(w, err)
				return exitError
			}
		}

		token, err := r.client.Login(ctx, username, otp)
		if errors.Is(err, client.ErrInvalidToken) {
			errorColor.Fprintln(w, login.InvalidTokenText)
			return exitError
		}
		if err != nil {
			printError(w, fmt.Errorf("login failed: %w", err))
			return exitError
		}
		if err := r.session.Start(ctx, username, token); err != nil {
			printError(w, err)
			return exitError
		}

		url, _ := r.session.ServerURL(ctx)
		if IsJSONOutput() {
			return printJSON(w, map[string]string{"user": username, "server": url})
		}
		printSuccess(w, "Logged in as %s at %s", username, url)
		return exitOK
	})
}

// runLogout clears the session and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		if err := r.session.Logout(ctx, nil); err != nil {
			printError(w, err)
			return exitError
		}
		if !IsJSONOutput() {
			printSuccess(w, "Logged out")
		}
		return exitOK
	})
}
