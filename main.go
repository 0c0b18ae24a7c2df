package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/nereon/cmd"
	"grimm.is/nereon/internal/brand"
	"grimm.is/nereon/internal/i18n"
	"grimm.is/nereon/internal/logging"
)

var printer = i18n.NewCLIPrinter()

func main() {
	setupLogging()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "show":
		showFlags := flag.NewFlagSet("show", flag.ExitOnError)
		src := sourceFlags(showFlags)
		showFlags.Parse(os.Args[2:])
		src.args(showFlags)

		if err := cmd.RunShow(os.Stdout, src.Source); err != nil {
			fail("Show failed", err)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		src := sourceFlags(checkFlags)
		checkFlags.Parse(os.Args[2:])
		src.args(checkFlags)

		if err := cmd.RunCheck(os.Stdout, src.Source); err != nil {
			fail("Check failed", err)
		}

	case "export":
		exportFlags := flag.NewFlagSet("export", flag.ExitOnError)
		src := sourceFlags(exportFlags)
		format := exportFlags.String("format", cmd.FormatHCL, "Output format: hcl, yaml or json")
		exportFlags.StringVar(format, "f", cmd.FormatHCL, "Output format (short)")
		exportFlags.Parse(os.Args[2:])
		src.args(exportFlags)

		if err := cmd.RunExport(os.Stdout, src.Source, *format); err != nil {
			fail("Export failed", err)
		}

	case "diff":
		diffFlags := flag.NewFlagSet("diff", flag.ExitOnError)
		backend := diffFlags.String("backend", "", "Decoder backend: native or hcl")
		diffFlags.Parse(os.Args[2:])

		if diffFlags.NArg() != 2 {
			printer.Fprintf(os.Stderr, "Usage: %s diff [-backend b] <a> <b>\n", brand.BinaryName)
			os.Exit(1)
		}
		a := cmd.Source{Config: diffFlags.Arg(0), Backend: *backend}
		b := cmd.Source{Config: diffFlags.Arg(1), Backend: *backend}

		if err := cmd.RunDiff(os.Stdout, a, b); err != nil {
			if errors.Is(err, cmd.ErrTreesDiffer) {
				os.Exit(1)
			}
			fail("Diff failed", err)
		}

	case "watch":
		watchFlags := flag.NewFlagSet("watch", flag.ExitOnError)
		src := sourceFlags(watchFlags)
		metricsAddr := watchFlags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9273)")
		watchFlags.Parse(os.Args[2:])
		src.args(watchFlags)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err := cmd.RunWatch(ctx, os.Stdout, src.Source, *metricsAddr)
		stop()
		if err != nil {
			fail("Watch failed", err)
		}

	case "soak":
		soakFlags := flag.NewFlagSet("soak", flag.ExitOnError)
		src := sourceFlags(soakFlags)
		cycles := soakFlags.Int("n", 1000, "Number of open/decode/close cycles")
		soakFlags.Parse(os.Args[2:])
		src.args(soakFlags)

		if err := cmd.RunSoak(os.Stdout, src.Source, *cycles); err != nil {
			fail("Soak failed", err)
		}

	case "version", "-v", "--version":
		printer.Printf("%s %s (commit %s, built %s)\n", brand.Name, brand.Version, brand.GitCommit, brand.BuildTime)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

type sourceFlagSet struct {
	cmd.Source
}

// sourceFlags registers the flags shared by every decoding command.
func sourceFlags(fs *flag.FlagSet) *sourceFlagSet {
	def := cmd.DefaultSource()
	s := &sourceFlagSet{}
	fs.StringVar(&s.Meta, "meta", def.Meta, "Metadata file")
	fs.StringVar(&s.Meta, "m", def.Meta, "Metadata file (short)")
	fs.StringVar(&s.Backend, "backend", "", "Decoder backend: native or hcl")
	fs.StringVar(&s.Backend, "b", "", "Decoder backend (short)")
	s.Config = def.Config
	return s
}

// args takes the configuration file from the first positional argument.
func (s *sourceFlagSet) args(fs *flag.FlagSet) {
	if fs.NArg() > 0 {
		s.Config = fs.Arg(0)
	}
}

func setupLogging() {
	cfg := logging.DefaultConfig()
	if lvl := os.Getenv(brand.ConfigEnvPrefix + "_LOG_LEVEL"); lvl != "" {
		level, err := logging.ParseLevel(lvl)
		if err != nil {
			printer.Fprintf(os.Stderr, "Ignoring %s_LOG_LEVEL: %v\n", brand.ConfigEnvPrefix, err)
		} else {
			cfg.Level = level
		}
	} else {
		cfg.Level = logging.LevelWarn
	}
	cfg.JSON = os.Getenv(brand.ConfigEnvPrefix+"_LOG_FORMAT") == "json"
	logging.SetDefault(logging.New(cfg))
}

func fail(what string, err error) {
	printer.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options] [config-file]

Commands:
  show      Print the decoded configuration tree
            Options: --meta (-m) <file>, --backend (-b) <native|hcl>
  check     Decode and report node and metadata counts
  export    Write the decoded tree in another format
            Options: --format (-f) <hcl|yaml|json>
  diff      Compare two configuration files
  watch     Re-decode when the configuration changes
            Options: --metrics-addr <addr>
  soak      Repeat open/decode/close and check for leaked contexts
            Options: -n <cycles>
  version   Print version information

The configuration file defaults to %s.

Environment:
  %s_BACKEND      Decoder backend (native or hcl)
  %s_CONFIG_DIR   Directory holding %s and %s
  %s_LOG_LEVEL    debug, info, warn or error
  %s_LOG_FORMAT   json for structured logs

Examples:
  %s show /etc/app/app.hcl
  %s export -f yaml /etc/app/app.hcl
  %s diff old.hcl new.hcl
  %s soak -n 5000 /etc/app/app.hcl
`,
		brand.Name, brand.Description,
		brand.BinaryName,
		brand.DefaultConfigPath(),
		brand.ConfigEnvPrefix, brand.ConfigEnvPrefix, brand.ConfigFileName, brand.MetaFileName, brand.ConfigEnvPrefix, brand.ConfigEnvPrefix,
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName)
}
