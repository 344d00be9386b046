package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"webmvc/internal/app"
	"webmvc/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides $"+config.ConfigFileEnv+")")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", app.AppName, app.VERSION)
		return
	}
	if *configPath != "" {
		if err := os.Setenv(config.ConfigFileEnv, *configPath); err != nil {
			slog.Error("Failed to apply config flag", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	application, err := app.New()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
