package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "carelink",
		Short:         "CareLink patient and doctor records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(cmd.Context(), migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply schema migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db, log)
			defer log.Sync() //nolint:errcheck

			if err := database.Migrate(db, log); err != nil {
				return err
			}
			fmt.Printf("Schema for %s is up to date.\n", cfg.Database.Driver)
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			password := os.Getenv("CARELINK_ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("CARELINK_ADMIN_PASSWORD must be set")
			}

			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db, log)
			defer log.Sync() //nolint:errcheck

			m := metrics.NewCollector("carelink")
			repos := repository.New(db)
			auditSvc := service.NewAuditService(repos.Audit, log, m)
			defer auditSvc.Shutdown()

			authSvc := service.NewAuthService(repos.Users, auth.NewJWTManager(cfg.JWT), auditSvc, m, cfg.JWT.Issuer, log)
			u, err := authSvc.CreateAdmin(context.Background(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (%s).\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Administrator email address")
	return cmd
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return cfg, log, db, nil
}

func closeDB(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("closing database", zap.Error(err))
	}
}
