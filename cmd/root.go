package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/app"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/infra/logger"
)

const defaultConfig = "chargeplan.yaml"

type rootOptions struct {
	cfgPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "chargeplan",
		Short:        "EV charger allocation planner",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", defaultConfig, "configuration file")
	root.AddCommand(
		newAllocateCmd(opts),
		newSweepCmd(opts),
		newCompareCmd(opts),
		newGenerateCmd(),
		newHistoryCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error { return newRootCmd().Execute() }

// loadConfig reads the configuration. A missing default file is not an
// error: settings then come from the environment only.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withPlanner builds a Planner for the duration of fn. The context is
// cancelled on SIGINT and SIGTERM.
func (o *rootOptions) withPlanner(cmd *cobra.Command, prepare func(*config.Config) error, fn func(context.Context, *app.Planner) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	if prepare != nil {
		if err := prepare(cfg); err != nil {
			return err
		}
	}
	p, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.New("main").Errorf("planner close: %v", err)
		}
	}()
	return fn(ctx, p)
}
