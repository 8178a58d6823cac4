package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hamed0406/portwatch/internal/config"
	"github.com/hamed0406/portwatch/internal/repo/memory"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate env settings and the target file",
	Long: `Validate the environment settings and the target file without starting
the server. Malformed targets are listed but do not fail validation; the
server skips them the same way.

Exit codes:
  0 - settings and file are valid
  1 - a setting is invalid or the file cannot be read or parsed

Example:
  api validate -c config.yml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("config", "c", "", "path to the target file (overrides CONFIG_FILE)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	raws, err := config.LoadTargets(cfg.ConfigFile)
	if err != nil {
		return err
	}
	accepted, rejected := memory.Load(raws)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Listen:        %s (tls=%t)\n", cfg.Addr(), cfg.TLS)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval)
	fmt.Fprintf(out, "  Probe timeout: %s\n", cfg.ProbeTimeout)
	fmt.Fprintf(out, "  Targets:       %d valid, %d skipped\n", len(accepted), len(rejected))
	for _, r := range rejected {
		fmt.Fprintf(out, "    skip %q: %v\n", r.URI, r.Err)
	}
	return nil
}
