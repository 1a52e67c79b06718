package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uastack/authgate/internal/auth"
	"github.com/uastack/authgate/internal/config"
	"github.com/uastack/authgate/internal/db/bunx"
	"github.com/uastack/authgate/internal/impersonation"
	"github.com/uastack/authgate/internal/policy"
	"github.com/uastack/authgate/internal/repository"
	"github.com/uastack/authgate/internal/roles"
	"github.com/uastack/authgate/internal/server"
	"github.com/uastack/authgate/internal/services/iam"
	"github.com/uastack/authgate/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diagnostics server",
	Long:  `Starts the HTTP diagnostics server exposing health and token-introspection endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
			OTLPEndpoint: cfg.Observability.OTLPEndpoint,
			ServiceName:  cfg.Observability.ServiceName,
			Insecure:     cfg.Observability.Insecure,
		})
		if err != nil {
			return fmt.Errorf("initialize telemetry: %w", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				log.Printf("telemetry shutdown: %v", err)
			}
		}()

		mapper, cleanup, err := buildMapper(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		var policies []policy.TokenPolicy
		var validatorConfigs []policy.ValidatorConfig
		if cfg.PolicyPath != "" {
			policies, validatorConfigs, err = config.LoadPolicies(cfg.PolicyPath)
			if err != nil {
				return fmt.Errorf("load policies: %w", err)
			}
		}
		validatorSet := policy.NewValidatorSet(policies, validatorConfigs)
		log.Printf("loaded %d token policies, %d usable bearer validators", len(policies), validatorSet.Len())

		var trust auth.TrustValidator
		if cfg.TrustListPath != "" {
			pool, err := auth.LoadTrustList(cfg.TrustListPath)
			if err != nil {
				// Per-policy configuration gap: certificate validation is
				// unavailable, other credential kinds stay usable.
				log.Printf("trust list unavailable, certificate tokens disabled: %v", err)
			} else {
				trust, err = auth.NewTrustListValidator(pool, cfg.TrustCacheSize)
				if err != nil {
					return fmt.Errorf("build trust validator: %w", err)
				}
			}
		}

		validator := iam.NewCredentialValidator(
			trust,
			auth.NewOIDCVerifier(),
			nil, // no legacy ticket authority on the diagnostics surface
			impersonation.NewLocalProvider(nil),
			validatorSet,
			mapper,
			cfg.ApplicationURI,
		)
		gate := iam.NewSessionlessRequestGate(policies, validator)

		router := server.NewRouter(server.RouterOptions{Gate: gate})
		srv := &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("diagnostics server listening on %s", cfg.ServerAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("diagnostics server: %w", err)
		case sig := <-stop:
			log.Printf("received %s, shutting down", sig)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// buildMapper returns a store-backed mapper when a DSN is configured, the
// built-in seed tables otherwise.
func buildMapper(ctx context.Context, cfg *config.Config) (*roles.Mapper, func(), error) {
	if cfg.DatabaseURL == "" {
		return roles.NewMapper(roles.DefaultTables()), func() {}, nil
	}

	db, err := bunx.Open(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to role-mapping store: %w", err)
	}
	repo := repository.NewBunRoleMappingRepository(db)
	mapper, err := roles.NewStoreMapper(ctx, repo)
	if err != nil {
		_ = bunx.Close(db)
		return nil, nil, err
	}
	return mapper, func() { _ = bunx.Close(db) }, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
