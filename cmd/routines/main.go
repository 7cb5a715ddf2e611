package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/basket/routines/internal/registry"
	"github.com/basket/routines/internal/routines"
	"github.com/joho/godotenv"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v0.1-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage of %s:

SUBCOMMANDS:
  %s run <routine>             Execute a routine once, streaming agent text
  %s list                      List registered routines
  %s info <routine>            Show a routine's session and tool configuration
  %s history [-n N] [routine]  Show recent runs from the ledger
  %s doctor [-json]            Run diagnostic checks
  %s version                   Print the version
  %s help                      Show this help

ENVIRONMENT VARIABLES:
  ROUTINES_HOME           Data directory (default: ~/.routines)
  REDIS_URL               Session store (default: redis://127.0.0.1:6379)
  DATABASE_URL            Memory store; unset degrades reads to an empty set
  ROUTINES_TIMEZONE       Reference timezone (default: America/Los_Angeles)
  ROUTINES_PROMPT_DIR     Prompt file directory (default: <home>/prompts)
  ROUTINES_AGENT_BIN      Agent binary (default: claude)

EXAMPLES:
  Run the nightly letter:  %s run alpha.to_self
  Inspect a routine:       %s info alpha.solitude
  Recent runs:             %s history -n 10 alpha.today
  Check the wiring:        %s doctor
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	_ = godotenv.Load()

	flag.Usage = printUsage
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "-h", "--help":
		printUsage()
	case "run":
		os.Exit(runRunCommand(ctx, args[1:]))
	case "list":
		os.Exit(runListCommand(args[1:]))
	case "info":
		os.Exit(runInfoCommand(args[1:]))
	case "history":
		os.Exit(runHistoryCommand(ctx, args[1:]))
	case "doctor":
		os.Exit(runDoctorCommand(ctx, args[1:]))
	case "version":
		fmt.Println(Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

// buildRegistry assembles the full routine registry. Shared by every
// subcommand that resolves names.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := routines.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
