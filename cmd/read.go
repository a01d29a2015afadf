// ABOUTME: Mark-as-read command
// ABOUTME: Marks single items, chosen items of a feed, or a whole feed as read

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/poremland/open-rss-client/internal/client"
	"github.com/spf13/cobra"
)

var (
	readFeed string
	readAll  bool
)

var readCmd = &cobra.Command{
	Use:   "read [itemId...]",
	Short: "Mark items as read",
	Long: `Mark items as read.

  read 11 12               mark items one at a time
  read --feed 1 11 12      mark items of feed 1 in one request
  read --feed 1 --all      mark every unread item of feed 1`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRead(ctx, os.Stdout, args)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVar(&readFeed, "feed", "", "Feed id for a bulk mark")
	readCmd.Flags().BoolVar(&readAll, "all", false, "With --feed, mark every unread item")
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := client.ParseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validateReadArgs checks the flag and argument combination
func validateReadArgs(args []string) error {
	switch {
	case readAll && readFeed == "":
		return errors.New("--all requires --feed")
	case readAll && len(args) > 0:
		return errors.New("pass item ids or --all, not both")
	case !readAll && len(args) == 0:
		return errors.New("no item ids given")
	}
	return nil
}

// runRead marks items read and returns exit code
func runRead(ctx context.Context, w io.Writer, args []string) int {
	if err := validateReadArgs(args); err != nil {
		printError(w, err)
		return exitError
	}
	ids, err := parseIDs(args)
	if err != nil {
		printError(w, err)
		return exitError
	}

	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		if readFeed == "" {
			for _, id := range ids {
				if err := r.client.MarkAsRead(ctx, id); err != nil {
					return r.fail(ctx, w, fmt.Errorf("item %d: %w", id, err))
				}
			}
			return reportRead(w, ids)
		}

		feedID, err := client.ParseID(readFeed)
		if err != nil {
			printError(w, err)
			return exitError
		}
		if readAll {
			items, err := r.client.FeedItems(ctx, feedID)
			if err != nil {
				return r.fail(ctx, w, err)
			}
			ids = ids[:0]
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			if len(ids) == 0 {
				return reportRead(w, ids)
			}
		}
		if err := r.client.MarkItemsAsRead(ctx, feedID, ids); err != nil {
			return r.fail(ctx, w, err)
		}
		return reportRead(w, ids)
	})
}

func reportRead(w io.Writer, ids []int64) int {
	if IsJSONOutput() {
		return printJSON(w, map[string]any{"marked": ids})
	}
	printSuccess(w, "Marked %d item(s) as read", len(ids))
	return exitOK
}
