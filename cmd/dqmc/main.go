// SPDX-License-Identifier: MIT

// Command dqmc runs determinant quantum Monte Carlo simulations of the
// Hubbard model on a square lattice.
//
//	dqmc run --config run.yaml --sweeps.bins 20 --output report.yaml
//	dqmc version
//
// Parameters come from defaults, the YAML file, DQMC_* environment variables
// and flags, in increasing precedence. The report is written as YAML.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dqmc: %+v\n", err)
		stop()
		os.Exit(1)
	}
}
