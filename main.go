package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zerbitx/gnockdir/config"
	"github.com/zerbitx/gnockdir/encode"
	"github.com/zerbitx/gnockdir/gnocker"
	"github.com/zerbitx/gnockdir/resolver"
	"github.com/zerbitx/gnockdir/spec"
)

func main() {
	cfg := config.New()
	logger := logrus.New()
	logger.SetLevel(cfg.Level())

	root := &cobra.Command{
		Use:           "gnockdir",
		Short:         "Serve mock responses from a directory of fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&cfg.Ignore, "ignore", cfg.Ignore, "doublestar patterns of fixture entries to skip")
	root.AddCommand(resolveCmd(cfg, logger), serveCmd(cfg, logger))

	if err := root.Execute(); err != nil {
		logger.WithError(err).Fatal("gnockdir")
	}
}

func resolveCmd(cfg *config.Env, logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [root]",
		Short: "Print the mocks resolved from a fixture root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mocks := newResolver(cfg, logger).Resolve(mockRoot(cfg, args))
			return encode.Write(encode.Format(cfg.Format), mocks, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&cfg.Format, "format", "f", cfg.Format, "output format, json or yaml")

	return cmd
}

func serveCmd(cfg *config.Env, logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve the mocks resolved from a fixture root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := newResolver(cfg, logger)
			dir := mockRoot(cfg, args)
			logger.WithField("root", dir).Info("resolving")

			g := gnocker.New(
				func() spec.ResolvedMocks { return r.Resolve(dir) },
				gnocker.WithLogger(logger),
				gnocker.WithHost(cfg.Host),
				gnocker.WithPort(cfg.Port),
				gnocker.WithConfigBasePath(cfg.ConfigBasePath),
			)

			return g.Start()
		},
	}
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "host to listen on")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")

	return cmd
}

func newResolver(cfg *config.Env, logger *logrus.Logger) *resolver.Resolver {
	return resolver.New(
		resolver.WithLogger(logger),
		resolver.WithIgnore(cfg.Ignore...),
	)
}

func mockRoot(cfg *config.Env, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.MockRoot
}
