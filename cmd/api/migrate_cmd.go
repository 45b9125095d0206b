package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/personalisation-service/internal/auth"
	"github.com/spec-kit/personalisation-service/internal/domain"
	"github.com/spec-kit/personalisation-service/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the consent record migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if cfg.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN is required for migrate")
		}
		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()

		return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger)
	},
}

var tokenSubject string

// tokenCmd issues an auditor token for the consent record endpoint.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an auditor bearer token",
	Long: `Signs a bearer token with AUTH_JWT_SECRET that grants access to
GET /admin/consent-records for AUTH_ACCESS_TOKEN_TTL_MINUTES.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
		token, expires, err := tokens.GenerateToken(tokenSubject, domain.SubjectTypeAuditor)
		if err != nil {
			return err
		}
		logger.Info("auditor token issued", zap.String("subject", tokenSubject), zap.Time("expires_at", expires))
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "auditor", "Subject id embedded in the token")
}
