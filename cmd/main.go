package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/feat/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}
	if env, err := shared.LoadEnvironment(".env"); err != nil {
		logger.Warn("failed to load environment", "error", err)
	} else {
		overridden := *config
		if err := overridden.ApplyEnvironment(env); err != nil {
			logger.Warn("ignoring invalid environment overrides", "error", err)
		} else {
			config = &overridden
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "feat",
		Usage:    "Run the housing-loss analysis service and its encoding helpers",
		Version:  "0.1.0",
		Flags:    []cli.Flag{configFlag()},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}
