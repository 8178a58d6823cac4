// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hamed0406/portwatch/internal/config"
	"github.com/hamed0406/portwatch/internal/repo/memory"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
	}
	ok("listen address " + cfg.Addr())

	raws, err := config.LoadTargets(cfg.ConfigFile)
	if err != nil {
		fail(fmt.Sprintf("%s: %v", cfg.ConfigFile, err))
	}
	accepted, rejected := memory.Load(raws)
	if len(accepted) == 0 {
		warn(cfg.ConfigFile + " has no valid servers; GET / will return [] until it is edited.")
	} else {
		ok(fmt.Sprintf("%s: %d valid servers", cfg.ConfigFile, len(accepted)))
	}
	for _, r := range rejected {
		warn(fmt.Sprintf("skipping %q: %v", r.URI, r.Err))
	}

	if cfg.TLS {
		for _, f := range []string{cfg.CertFile(), cfg.KeyFile()} {
			if _, err := os.Stat(f); err != nil {
				fail("TLS is on but " + f + " is missing.")
			}
		}
		ok("TLS material present in " + cfg.TLSDir)
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		fail("LOG_DIR not writable: " + err.Error())
	}
	probe, err := os.CreateTemp(cfg.LogDir, ".preflight-*")
	if err != nil {
		fail("LOG_DIR not writable: " + err.Error())
	}
	probe.Close()
	os.Remove(probe.Name())
	ok("LOG_DIR=" + filepath.Clean(cfg.LogDir))

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; every origin may read the status table.")
	} else {
		ok(fmt.Sprintf("ALLOWED_ORIGINS=%v", cfg.AllowedOrigins))
	}

	ok("preflight passed")
}
