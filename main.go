// ABOUTME: Entry point for the rss-reader client
// ABOUTME: Loads configuration and runs the command tree

package main

import (
	"fmt"
	"os"

	"github.com/poremland/open-rss-client/cmd"
	"github.com/poremland/open-rss-client/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load .env: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Execute(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
