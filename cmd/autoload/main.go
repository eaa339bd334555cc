// Command autoload runs a Dragonfly server whose city generator is configured
// from profile files in the autoloader config directory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oriumgames/autoload"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Settings     string
	ServerConfig string
	MetricsAddr  string
	Debug        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("autoload: exiting", "error", err)
		stop()
		os.Exit(1)
	}
}

// newRootCommand creates the root command. Without a subcommand it runs the
// server.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "autoload",
		Short:         "Dragonfly server with profile autoloading",
		Version:       autoload.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts, newLogger(opts))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Settings, "settings", "config/lostcitiesautoloader.toml", "autoloader settings file")
	cmd.PersistentFlags().StringVar(&opts.ServerConfig, "server-config", "config.toml", "dragonfly server config file")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "debug logging")

	cmd.AddCommand(newProfilesCommand(opts))
	return cmd
}

// newLogger creates the process logger.
func newLogger(opts *rootOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

// newProfilesCommand lists the profiles of the generator and the profile
// files in the autoloader directory.
func newProfilesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List generator profiles and profile files",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(opts)
			h, err := setup(opts, log)
			if err != nil {
				return err
			}
			h.system.Init()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "generator profiles:")
			for _, name := range h.engine.Profiles() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			s, _ := h.store.Settings()
			files, err := profileFiles(s.ProfileDirectory)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "profile files in %s:\n", s.ProfileDirectory)
			for _, f := range files {
				marker := " "
				if f == s.ConfigFileName {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, f)
			}
			return nil
		},
	}
}
