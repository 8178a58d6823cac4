// Command cli talks to a running portwatch server and probes single targets
// from the operator's machine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/portwatch/internal/domain"
	"github.com/hamed0406/portwatch/internal/probe"
)

func defaultAPI() string {
	if api := os.Getenv("API_BASE"); api != "" {
		return api
	}
	return "http://127.0.0.1:3050"
}

var rootCmd = &cobra.Command{
	Use:          "cli",
	Short:        "Inspect a portwatch server or probe a single target",
	SilenceUsage: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the server's current status table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _ := cmd.Flags().GetString("api")
		entries, err := fetchStatus(cmd.Context(), http.DefaultClient, api)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), entries)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <uri>",
	Short: "Make one TCP connect attempt to a target",
	Long: `Make one TCP connect attempt to a target, e.g.

  cli probe tcp://db.internal:5432

On failure the host's DNS state is printed to help tell a closed port from a
name that does not resolve. Exits 1 when the target is down.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return runProbe(cmd.Context(), cmd.OutOrStdout(), args[0], timeout, nil)
	},
}

func init() {
	statusCmd.Flags().String("api", defaultAPI(), "server base URL (env API_BASE)")
	probeCmd.Flags().Duration("timeout", probe.DefaultTimeout, "connect timeout")
	rootCmd.AddCommand(statusCmd, probeCmd)
}

func fetchStatus(ctx context.Context, client *http.Client, api string) ([]domain.StatusEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(api, "/")+"/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %s", resp.Status)
	}
	var entries []domain.StatusEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return entries, nil
}

func printStatus(w io.Writer, entries []domain.StatusEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no targets probed yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tURI")
	for _, e := range entries {
		state := "DOWN"
		if e.Up {
			state = "UP"
		}
		fmt.Fprintf(tw, "%s\t%s\n", state, e.URI)
	}
	return tw.Flush()
}

// runProbe returns an error when the target is malformed or down so the
// process exits non-zero.
func runProbe(ctx context.Context, w io.Writer, uri string, timeout time.Duration, r probe.Resolver) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := domain.ParseTarget(domain.RawTarget{URI: uri})
	if err != nil {
		return err
	}
	res := probe.NewTCPChecker(timeout).Check(ctx, t)
	if res.Success {
		fmt.Fprintf(w, "UP    %s (%.1fms)\n", t.Addr(), res.LatencyMS)
		return nil
	}
	fmt.Fprintf(w, "DOWN  %s: %s\n", t.Addr(), res.Message)

	dns := probe.DiagnoseDNS(ctx, r, t.Host)
	fmt.Fprintf(w, "dns   %s", dns.Class)
	if len(dns.IPs) > 0 {
		ips := make([]string, 0, len(dns.IPs))
		for _, ip := range dns.IPs {
			ips = append(ips, ip.String())
		}
		fmt.Fprintf(w, " %s", strings.Join(ips, ","))
	}
	if dns.ResolverError != "" {
		fmt.Fprintf(w, " (%s)", dns.ResolverError)
	}
	fmt.Fprintln(w)
	return fmt.Errorf("%s is down", uri)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
