// Package commands implements the CLI commands for pricecheck.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "pricecheck [url]",
	Short: "Check whether a developer's website publishes apartment prices",
	Long: `Pricecheck sends an LLM-driven browsing agent to a real-estate developer's
website and reports whether concrete apartment prices are published.

Itemized prices count as available. Price ranges, "starting from" prices and
"contact us for a price" gates do not. Every successful check appends a line
to automation_results.log:

  2025-06-01 14:03:07,512 - URL: https://example.com/ - Result: Available apartment prices

Examples:
  # Check a site with the default model (Gemini, needs GOOGLE_API_KEY)
  pricecheck https://example-developer.com/

  # Use Anthropic and a visible browser
  pricecheck check https://example-developer.com/ -p anthropic --headless=false

  # Plain HTTP fetching, JSON output
  pricecheck check https://example-developer.com/ --fetch-mode static --format json`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runCheck(cmd, args)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.pricecheck.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "write diagnostics as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))

	// "pricecheck <url>" behaves like "pricecheck check <url>".
	addCheckFlags(rootCmd)
}

func initConfig() {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err == nil {
		if wd, werr := os.Getwd(); werr == nil {
			logInfo("Loaded environment variables from: %s/.env", wd)
		}
	}

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".pricecheck")
		viper.SetConfigType("yaml")
	}

	// Environment variables: PRICECHECK_PROVIDER, PRICECHECK_LOG_FILE, ...
	viper.SetEnvPrefix("PRICECHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err == nil {
		logInfo("Using config file: %s", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError(rootCmd.OutOrStdout(), err)
	}
	return err
}

// logError reports a failed run on the command output, where the verdict
// would have gone. Diagnostics stay on stderr.
func logError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
