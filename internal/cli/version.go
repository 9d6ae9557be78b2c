package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmshift/vmshift/pkg/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit hash, and build date of the vmshift CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vmshift")
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
