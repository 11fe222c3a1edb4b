// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package commands implements the placepicker command line interface.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vorlif/spreak"
	"golang.org/x/sync/errgroup"

	"github.com/wneessen/placepicker/internal/config"
	"github.com/wneessen/placepicker/internal/http"
	"github.com/wneessen/placepicker/internal/i18n"
	"github.com/wneessen/placepicker/internal/logger"
	"github.com/wneessen/placepicker/internal/service"
	"github.com/wneessen/placepicker/internal/terminal"
)

const appName = "placepicker"

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	configPath string

	conf       *config.Config
	log        *logger.Logger
	localizer  *spreak.Localizer
	httpClient *http.Client
)

func Execute(ctx context.Context, info BuildInfo) error {
	root := rootCmd(info)
	if err := root.ExecuteContext(ctx); err != nil {
		if log != nil {
			log.Error("placepicker failed", logger.Err(err))
		}
		return err
	}
	return nil
}

func rootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Search for a place, pick it on the map and confirm it",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			conf, err = loadConfig(configPath)
			if err != nil {
				return err
			}
			log = logger.NewLogger(conf.LogLevel, cmd.ErrOrStderr())
			localizer, err = i18n.New(conf.Locale)
			if err != nil {
				return fmt.Errorf("failed to initialize localizer: %w", err)
			}
			if httpClient == nil {
				httpClient = http.New(log)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, info)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")
	root.AddCommand(searchCmd(), reverseCmd())
	return root
}

// runInteractive runs the service and reads terminal commands until /quit or end of input.
func runInteractive(cmd *cobra.Command, info BuildInfo) error {
	serv, err := service.New(conf, log, localizer, service.WithOutput(cmd.OutOrStdout()),
		service.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to initialize placepicker service: %w", err)
	}
	term := terminal.New(serv.Coordinator(), serv.Permissions(), localizer, serv.Println)

	log.Info("starting placepicker service", slog.String("version", info.Version),
		slog.String("commit", info.Commit), slog.String("date", info.Date))
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return serv.Run(ctx) })
	group.Go(func() error {
		defer cancel()
		return term.Run(ctx, cmd.InOrStdin())
	})
	err = group.Wait()
	log.Info("shutting down placepicker service")
	return err
}

// loadConfig reads path if given, else the first config file found in the user's config
// directory, else environment and defaults only.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		loaded, err := config.NewFromFile(filepath.Dir(path), filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		return loaded, nil
	}
	if dir, file := findConfigFile(); dir != "" && file != "" {
		loaded, err := config.NewFromFile(dir, file)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		return loaded, nil
	}
	loaded, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return loaded, nil
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", appName, "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
