// Command api runs the portwatch status server.
//
// Usage:
//
//	api serve               # poll targets and serve GET /
//	api validate            # check env settings and the target file
//	api version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set at build time via -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "TCP reachability monitor with a JSON status endpoint",
	Long: `portwatch probes a list of TCP endpoints on a fixed interval and serves
their last known up/down state as JSON on GET /.

Targets are read from a YAML file (CONFIG_FILE, default config.yml):

  servers:
    - uri: tcp://db.internal:5432
    - uri: tcp://cache.internal:6379

The file is watched; edits take effect on the next round.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portwatch %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
