// ABOUTME: Interactive reader command
// ABOUTME: Wires the session, client and menu into the TUI and runs it

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/poremland/open-rss-client/internal/selection"
	"github.com/poremland/open-rss-client/internal/tui"
	"github.com/poremland/open-rss-client/internal/tui/menu"
	"github.com/poremland/open-rss-client/internal/tui/screen"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive reader",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runTUICommand()
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUICommand() {
	if err := runTUI(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

// newDeps builds the screen dependencies from a command environment
func newDeps(r *cmdEnv) *screen.Deps {
	policy := selection.ExitOnDone
	if cfg.ExitOnEmpty {
		policy = selection.ExitWhenEmpty
	}
	return &screen.Deps{
		Client:            r.client,
		Session:           r.session,
		Menu:              menu.New(),
		Bridge:            &screen.Bridge{},
		ItemsExitPolicy:   policy,
		DeleteConcurrency: cfg.DeleteConcurrency,
	}
}

func runTUI(ctx context.Context) error {
	r, err := newCmdEnv(ctx)
	if err != nil {
		return err
	}
	defer r.Close()
	return tui.Run(newDeps(r))
}
