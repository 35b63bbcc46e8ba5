package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/spigell/job-bot/cmd.version=... -X ...cmd.commit=...".
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the job-bot build information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(versionLine())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionLine() string {
	return fmt.Sprintf("%s %s (commit %s, %s %s/%s)", app, version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
