package main

import (
	"fmt"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// bootDB loads config and opens the database connection.
func bootDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// backofficectl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootDB()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		if err := infra.Migrate(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date.")
		return nil
	},
}

// backofficectl seed-admin --password ...
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or reset the super admin account",
	Long: "Ensures the Super Admin group holds the (*, *) grant and that the configured " +
		"super admin user is an active member of it with the given password.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootDB()
		if err != nil {
			return err
		}
		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			username = cfg.SuperAdminUsername
		}
		fullName, _ := cmd.Flags().GetString("full-name")
		password, _ := cmd.Flags().GetString("password")

		user, err := service.EnsureSuperAdmin(cmd.Context(),
			repository.NewGroupRepository(db), repository.NewUserRepository(db),
			username, fullName, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Super admin %q ready (id %s).\n", user.Username, user.ID)
		return nil
	},
}

// backofficectl reconcile <product-id>
var reconcileCmd = &cobra.Command{
	Use:   "reconcile <product-id>",
	Short: "Compare a product's stock with the sum of its movements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid product id: %w", err)
		}
		_, db, err := bootDB()
		if err != nil {
			return err
		}
		ledger := service.NewStockLedger(repository.NewProductRepository(db), repository.NewStockMovementRepository(db), nil)
		rec, err := ledger.Reconcile(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stock on hand: %d\nledger net:    %d\nopening:       %d\n",
			rec.StockOnHand, rec.LedgerNet, rec.Opening())
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().String("username", "", "admin username (default SUPER_ADMIN_USERNAME)")
	seedAdminCmd.Flags().String("full-name", "", "display name")
	seedAdminCmd.Flags().String("password", "", "admin password (min 8 characters)")
	_ = seedAdminCmd.MarkFlagRequired("password")
}
