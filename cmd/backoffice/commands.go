package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/havelihousing/backoffice/api"
	"github.com/havelihousing/backoffice/config"
	"github.com/havelihousing/backoffice/observability"
	"github.com/havelihousing/backoffice/seed"
	"github.com/havelihousing/backoffice/session"
)

const shutdownTimeout = 15 * time.Second

// cli carries the state shared by every subcommand once the root command
// has loaded the configuration.
type cli struct {
	cfg    config.Config
	logger *slog.Logger

	storeFlag string
	portFlag  int
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Haveli Housing back-office API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.storeFlag, "store", "", "record store: mongo, postgres, sqlite or memory (overrides STORE_DRIVER)")
	root.PersistentFlags().IntVar(&c.portFlag, "port", 0, "HTTP listen port (overrides PORT)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create collections, tables and indexes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load the demo accounts, properties and employees",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sum, err := c.seed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seeded:", sum)
				return nil
			},
		},
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreDriver = c.storeFlag
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = c.portFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *cli) migrate(ctx context.Context) error {
	s, err := openStore(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s store: %w", c.cfg.StoreDriver, err)
	}
	c.logger.InfoContext(ctx, "migrations applied", "store", c.cfg.StoreDriver)
	return nil
}

func (c *cli) seed(ctx context.Context) (seed.Summary, error) {
	if c.cfg.StoreDriver == config.DriverMemory {
		c.logger.Warn("seeding the memory store; the data is lost on exit")
	}

	engine, _, err := buildEngine(ctx, c.cfg, c.logger)
	if err != nil {
		return seed.Summary{}, err
	}
	if err := engine.Start(ctx); err != nil {
		return seed.Summary{}, err
	}
	defer engine.Stop(context.WithoutCancel(ctx))

	return seed.Run(ctx, engine, c.logger)
}

func (c *cli) serve(ctx context.Context) error {
	cfg, logger := c.cfg, c.logger

	engine, reg, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := engine.Stop(context.WithoutCancel(ctx)); err != nil {
			logger.Error("engine stop failed", "error", err)
		}
	}()

	revoker, closeRevoker, err := session.ConnectRevoker(ctx, cfg.RedisAddr, cfg.RedisPassword, logger)
	if err != nil {
		return err
	}
	defer closeRevoker()

	secret := cfg.SecretKey
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("SECRET_KEY is not set, sessions will not survive a restart")
	}
	sessions, err := session.NewManager([]byte(secret), cfg.SessionTTL,
		session.WithRevoker(revoker),
		session.WithSecureCookie(cfg.CookieSecure),
	)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithCORSOrigins(cfg.CORSOrigins...),
	}
	if reg != nil {
		opts = append(opts, api.WithMetrics(observability.NewHTTPMetrics(reg), reg))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.New(engine, sessions, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
