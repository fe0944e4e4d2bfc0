// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyfort/keyfort/internal/auth"
	"github.com/keyfort/keyfort/internal/auth/memory"
	"github.com/keyfort/keyfort/internal/config"
	"github.com/keyfort/keyfort/internal/logging"
	"github.com/keyfort/keyfort/internal/observability"
	"github.com/keyfort/keyfort/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of the observability server.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authority with its observability endpoints",
		Long: `Run the KeyFort authority process: builds the credential and session
stores, starts the metrics/health server, and sweeps expired sessions
until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("log.format", "json", "log format (json or text)")
	cmd.Flags().String("log.level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().Duration("session.ttl", auth.DefaultSessionTTL, "session time-to-live")
	cmd.Flags().Duration("session.sweep_interval", time.Minute, "expired-session sweep interval")
	cmd.Flags().Bool("session.single_session", false, "allow at most one live session per user")
	cmd.Flags().String("observability.addr", "127.0.0.1:9100", "metrics/health listen address")

	return cmd
}

// runServe wires the authority together and blocks until ctx is cancelled
// or a termination signal arrives.
func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("keyfort", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    cfg.Hasher.Time,
		Memory:  cfg.Hasher.Memory,
		Threads: cfg.Hasher.Threads,
	})

	accounts := memory.NewAccountStore()
	sessions := memory.NewSessionStore()

	registry, err := auth.NewSessionRegistry(sessions, auth.NewCSPRNGIssuer(), cfg.Session.TTL)
	if err != nil {
		return err
	}
	registry = registry.WithLogger(logger)

	opts := []auth.ServiceOption{
		auth.WithLogger(logger),
		auth.WithPasswordPolicy(auth.PasswordPolicy{
			MinLength:     cfg.Password.MinLength,
			RequireUpper:  cfg.Password.RequireUpper,
			RequireLower:  cfg.Password.RequireLower,
			RequireDigit:  cfg.Password.RequireDigit,
			RequireSymbol: cfg.Password.RequireSymbol,
		}),
		auth.WithHashConcurrency(cfg.Hasher.Concurrency),
	}
	if cfg.Session.SingleSession {
		opts = append(opts, auth.WithSingleSession())
	}

	svc, err := auth.NewService(accounts, registry, hasher, opts...)
	if err != nil {
		return err
	}

	if err := selfCheck(ctx, svc); err != nil {
		return err
	}

	var ready atomic.Bool
	obs := observability.NewServer(cfg.Observability.Addr, ready.Load)
	obsErrs, err := obs.Start()
	if err != nil {
		return err
	}
	ready.Store(true)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.Sweep(ctx, cfg.Session.SweepInterval)
	}()

	logger.Info("keyfort running",
		"session_ttl", cfg.Session.TTL,
		"sweep_interval", cfg.Session.SweepInterval,
		"single_session", cfg.Session.SingleSession,
	)

	select {
	case <-ctx.Done():
	case serveErr := <-obsErrs:
		if serveErr != nil {
			errutil.LogError(logger, "observability server failed", serveErr)
		}
		cancel()
	}

	ready.Store(false)
	wg.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := obs.Stop(stopCtx); err != nil {
		errutil.LogError(logger, "observability server shutdown failed", err)
		return err
	}

	logger.Info("keyfort stopped")
	return nil
}

// selfCheck exercises the full register/authenticate/validate/logout cycle
// against the live stores before the process reports ready. The probe
// account is removed afterwards.
func selfCheck(ctx context.Context, svc *auth.Service) error {
	const probeUser = "keyfort_probe"
	issued, err := auth.NewCSPRNGIssuer().Issue()
	if err != nil {
		return err
	}
	// Suffix keeps the probe password valid under any character-class policy.
	probePassword := issued + "aA9!"

	defer func() {
		_ = svc.DeleteAccount(ctx, probeUser) //nolint:errcheck // Best effort cleanup
	}()

	if err := svc.Register(ctx, probeUser, probePassword); err != nil {
		return err
	}
	_, token, err := svc.Authenticate(ctx, probeUser, probePassword)
	if err != nil {
		return err
	}
	if _, err := svc.ValidateSession(ctx, token); err != nil {
		return err
	}
	return svc.Logout(ctx, token)
}
