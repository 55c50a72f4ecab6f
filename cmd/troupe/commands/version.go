package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/troupe/build"
)

// versionCmd prints version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		commit := build.Commit
		if commit == "" {
			commit = build.CommitHash
		}
		if commit == "" {
			commit = "dev"
		}

		fmt.Printf("troupe version %s commit=%s go=%s\n",
			build.Version(), commit, build.GoVersion)
	},
}
