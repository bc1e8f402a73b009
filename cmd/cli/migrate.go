// Package cli implements the management subcommands: migrate, create,
// and stats.
package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shortly-io/shortly/cmd"
	"github.com/shortly-io/shortly/internal/config"
	"github.com/shortly-io/shortly/internal/models"
)

// MigrateCmd creates or updates the database schema.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations to create or update tables.",
	Long: `Connects to the configured SQLite database and runs GORM automatic
migrations for the links and clicks tables.`,
	Run: func(c *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		if err := db.AutoMigrate(&models.Link{}, &models.Click{}); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
