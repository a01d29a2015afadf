// ABOUTME: Subscription management commands
// ABOUTME: Adds a feed for the signed-in user and removes feeds after confirmation

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
	"github.com/poremland/open-rss-client/internal/tui/addfeed"
	"github.com/poremland/open-rss-client/internal/tui/styles"
	"github.com/spf13/cobra"
)

var (
	addName   string
	addURI    string
	removeYes bool
)

// confirmRemove asks before deleting feeds. Replaced in tests.
var confirmRemove = func(n int) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %d feed(s)?", n)).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		WithTheme(styles.FormTheme()).
		Run()
	return ok, err
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Subscribe to a feed",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runAdd(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <feedId>...",
	Short: "Delete feeds",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRemove(ctx, os.Stdout, args)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	addCmd.Flags().StringVar(&addName, "name", "", "Feed name")
	addCmd.Flags().StringVar(&addURI, "uri", "", "Feed URI")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Delete without asking")
}

// runAdd creates a feed and returns exit code
func runAdd(ctx context.Context, w io.Writer) int {
	uri := strings.TrimSpace(addURI)
	if uri == "" {
		printError(w, errors.New("--uri is required"))
		return exitError
	}
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		user, err := r.session.User(ctx)
		if err != nil {
			printError(w, err)
			return exitError
		}
		id, err := r.client.CreateFeed(ctx, client.NewFeed{URI: uri, Name: strings.TrimSpace(addName), User: user})
		if err != nil {
			return r.fail(ctx, w, err)
		}
		if id <= 0 {
			printError(w, addfeed.ErrNotCreated)
			return exitError
		}
		if IsJSONOutput() {
			return printJSON(w, map[string]int64{"id": id})
		}
		printSuccess(w, "Added feed %d", id)
		return exitOK
	})
}

// runRemove deletes feeds and returns exit code
func runRemove(ctx context.Context, w io.Writer, args []string) int {
	ids, err := parseIDs(args)
	if err != nil {
		printError(w, err)
		return exitError
	}
	if !removeYes {
		ok, err := confirmRemove(len(ids))
		if err != nil {
			printError(w, err)
			return exitError
		}
		if !ok {
			fmt.Fprintln(w, "Cancelled")
			return exitOK
		}
	}
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		if err := r.client.RemoveFeeds(ctx, ids, cfg.DeleteConcurrency); err != nil {
			return r.fail(ctx, w, err)
		}
		if IsJSONOutput() {
			return printJSON(w, map[string]any{"removed": ids})
		}
		printSuccess(w, "Removed %d feed(s)", len(ids))
		return exitOK
	})
}
