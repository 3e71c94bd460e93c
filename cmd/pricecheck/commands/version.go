package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/pricecheck/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return err
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.String()
}
