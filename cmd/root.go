// ABOUTME: Root command for the rss-reader CLI
// ABOUTME: Handles global flags, configuration overrides and logger setup

package cmd

import (
	"github.com/poremland/open-rss-client/internal/config"
	"github.com/poremland/open-rss-client/internal/logger"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	jsonOutput bool
	configDir  string
	storeName  string
)

// cfg is the environment configuration with flag overrides applied
var cfg = &config.Config{
	Retries:           1,
	Store:             config.StoreFile,
	DeleteConcurrency: 1,
}

// rootCmd is the base command. Without a subcommand it starts the TUI.
var rootCmd = &cobra.Command{
	Use:   "rss-reader",
	Short: "Terminal client for an Open RSS server",
	Long: `rss-reader reads and manages feeds on an Open RSS server.

Run without a subcommand to start the interactive reader. The subcommands expose
the same operations for scripts.

Environment Variables:
  RSS_READER_SERVER_URL   Server URL used until one is stored at login
  RSS_READER_CONFIG_DIR   Session and debug log directory (default: ~/.config/rss-reader)
  RSS_READER_STORE        Session store: file, memory or redis (default: file)
  RSS_READER_REDIS_ADDR   Redis address when RSS_READER_STORE=redis
  LOG_LEVEL, LOG_FORMAT   Debug log level and format`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFlags(cfg); err != nil {
			return err
		}
		return logger.Init(logger.Options{Dir: cfg.ConfigDir, Stderr: cfg.LogToStderr})
	},
	Run: func(cmd *cobra.Command, args []string) {
		runTUICommand()
	},
}

// Execute runs the root command with the loaded configuration
func Execute(c *config.Config) error {
	if c != nil {
		cfg = c
	}
	defer logger.Close()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Server URL (stored for later commands)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for the session file and debug log (overrides RSS_READER_CONFIG_DIR)")
	rootCmd.PersistentFlags().StringVar(&storeName, "store", "", "Session store: file, memory or redis (overrides RSS_READER_STORE)")
}

// applyFlags copies persistent flag values over the environment configuration
func applyFlags(c *config.Config) error {
	if configDir != "" {
		c.ConfigDir = configDir
	}
	if storeName != "" {
		c.Store = storeName
	}
	return c.Validate()
}

// GetServerURL returns the server URL from flag or environment, in priority order.
// An empty result means the stored URL is used.
func GetServerURL() string {
	if serverURL != "" {
		return config.EnsureScheme(serverURL)
	}
	return cfg.ServerURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
