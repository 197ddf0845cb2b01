package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alumni/internal/config"
	"alumni/internal/infra"
	"alumni/internal/repositories"
	"alumni/internal/services"
	mem "alumni/pkg/memcache"
	"alumni/pkg/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "alumnictl",
		Short:        "Maintenance commands for the alumni backend",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				if err := infra.AutoMigrate(db); err != nil {
					return err
				}
				log.Info("schema is up to date")
				return nil
			})
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account, or promote an existing one and reset its password",
		Example: `  alumnictl create-admin --email admin@example.org --password 'change me please'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				if err := infra.AutoMigrate(db); err != nil {
					return err
				}

				accounts := repositories.NewAccountRepository(db)
				memberships := repositories.NewMembershipRepository(db)
				events := repositories.NewEventRepository(db)
				clock := services.NewClock(cfg.Location())
				svc := services.NewAccountService(
					accounts,
					services.NewEntitlementService(accounts, memberships, events, clock),
					utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL),
					mem.NewResetTokens(),
					infra.NewLogPublisher(log),
					services.AccountSettings{ResetTokenTTL: cfg.ResetTokenTTL, FrontendURL: cfg.FrontendURL},
					clock,
					log,
				)

				account, created, err := svc.EnsureAdmin(cmd.Context(), email, password, firstName, lastName)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", account.Email, account.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "promoted %s (%s) to admin and reset its password\n", account.Email, account.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&firstName, "first-name", "Admin", "first name for a new account")
	cmd.Flags().StringVar(&lastName, "last-name", "User", "last name for a new account")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func withDB(fn func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := infra.InitPostgresql(cfg, log)
	if err != nil {
		return err
	}
	defer infra.ClosePostgresql(db, log)

	return fn(cfg, db, log)
}
