// ABOUTME: Feed listing commands
// ABOUTME: Lists feeds with unread items, every subscription, or the unread items of one feed

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/tui/feeds"
	"github.com/poremland/open-rss-client/internal/tui/manage"
	"github.com/spf13/cobra"
)

var feedsAll bool

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List feeds with unread items",
	Long:  `List feeds that have unread items with their unread counts. With --all every subscription is listed with its URI.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runFeeds(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items <feedId>",
	Short: "List the unread items of a feed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runItems(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var itemCmd = &cobra.Command{
	Use:   "item <itemId>",
	Short: "Show one feed item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runItem(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(feedsCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(itemCmd)
	feedsCmd.Flags().BoolVar(&feedsAll, "all", false, "List every subscription, read or not")
}

// runFeeds lists feeds and returns exit code
func runFeeds(ctx context.Context, w io.Writer) int {
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		var (
			list []client.Feed
			err  error
		)
		if feedsAll {
			list, err = r.client.AllFeeds(ctx)
		} else {
			list, err = r.client.FeedTree(ctx)
		}
		if err != nil {
			return r.fail(ctx, w, err)
		}

		if IsJSONOutput() {
			return printJSON(w, list)
		}
		switch {
		case len(list) == 0 && feedsAll:
			fmt.Fprintln(w, manage.EmptyText)
		case len(list) == 0:
			fmt.Fprintln(w, feeds.EmptyText)
		default:
			fmt.Fprintln(w, formatFeedsHuman(list, feedsAll))
		}
		return exitOK
	})
}

// runItems lists the unread items of a feed and returns exit code
func runItems(ctx context.Context, w io.Writer, arg string) int {
	feedID, err := client.ParseID(arg)
	if err != nil {
		printError(w, err)
		return exitError
	}
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		list, err := r.client.FeedItems(ctx, feedID)
		if err != nil {
			return r.fail(ctx, w, err)
		}
		if IsJSONOutput() {
			return printJSON(w, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(w, "No unread items.")
			return exitOK
		}
		fmt.Fprintln(w, formatItemsHuman(list))
		return exitOK
	})
}

// runItem shows one item and returns exit code
func runItem(ctx context.Context, w io.Writer, arg string) int {
	itemID, err := client.ParseID(arg)
	if err != nil {
		printError(w, err)
		return exitError
	}
	return withCmdEnv(ctx, w, func(r *cmdEnv) int {
		it, err := r.client.FeedItem(ctx, itemID)
		if err != nil {
			return r.fail(ctx, w, err)
		}
		if IsJSONOutput() {
			return printJSON(w, it)
		}
		fmt.Fprintln(w, formatItemHuman(*it))
		return exitOK
	})
}
