// FILE: lixenwraith/configurations/cmd/configurations/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lixenwraith/configurations"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		schemaPath string
		configPath string
		envPrefix  string
		format     string
		sets       []string
		watch      bool
		interval   time.Duration
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("configurations", pflag.ContinueOnError)
	flagSet.StringVarP(&schemaPath, "schema", "s", "", "declaration schema (TOML, JSON or YAML); arbitrary configuration when empty")
	flagSet.StringVarP(&configPath, "config", "c", "", "configuration file to load")
	flagSet.StringVar(&envPrefix, "env-prefix", "", "environment variable prefix, e.g. MYAPP_")
	flagSet.StringVarP(&format, "format", "f", "toml", "output format: toml, json or yaml")
	flagSet.StringArrayVar(&sets, "set", nil, "override a property, e.g. --set server.port=9090 (repeatable)")
	flagSet.BoolVarP(&watch, "watch", "w", false, "keep running and print the configuration on every file change")
	flagSet.DurationVar(&interval, "interval", configurations.DefaultPollInterval, "file poll interval with --watch")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug records to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	builder := configurations.NewBuilder()
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("cannot read schema: %w", err)
		}
		builder, err = configurations.NewBuilderFromSchema(data, formatOf(schemaPath))
		if err != nil {
			return fmt.Errorf("schema %s: %w", schemaPath, err)
		}
	}
	host, err := builder.WithName("configurations").WithLogger(logger).Build()
	if err != nil {
		return err
	}

	overrides := make([]string, 0, len(sets))
	for _, s := range sets {
		overrides = append(overrides, "--"+s)
	}
	apply := func(c *configurations.Configuration) error {
		if envPrefix != "" || c.Strict() {
			if err := c.LoadEnv(envPrefix); err != nil && !errors.Is(err, configurations.ErrInvalidPath) {
				return err
			}
		}
		return c.LoadArgs(overrides)
	}

	out := configurations.Format(format)

	if !watch {
		cfg, err := host.Configure(func(c *configurations.Configuration) error {
			if configPath != "" {
				if err := c.LoadFile(configPath); err != nil {
					return err
				}
			}
			return apply(c)
		})
		if err != nil {
			return err
		}
		return cfg.Encode(os.Stdout, out)
	}

	if configPath == "" {
		return errors.New("--watch needs --config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := configurations.DefaultWatchOptions()
	opts.PollInterval = interval
	opts.Configure = apply
	watcher, err := host.Watch(ctx, configPath, opts)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	changes := watcher.Subscribe()
	if err := host.Configuration().Encode(os.Stdout, out); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("configuration changed", "event", event)
			if err := host.Configuration().Encode(os.Stdout, out); err != nil {
				return err
			}
		}
	}
}

func formatOf(path string) configurations.Format {
	switch filepath.Ext(path) {
	case ".toml", ".tml":
		return configurations.FormatTOML
	case ".json":
		return configurations.FormatJSON
	case ".yaml", ".yml":
		return configurations.FormatYAML
	default:
		return configurations.FormatAuto
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `configurations: build a configuration from a schema, a file, the environment and overrides.

Usage:
  configurations [--schema FILE] [--config FILE] [--env-prefix PREFIX] [--set path=value]... [--format FORMAT]

Flags:
`)
	flagSet.PrintDefaults()
}
