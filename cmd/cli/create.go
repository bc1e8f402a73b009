package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shortly-io/shortly/cmd"
	"github.com/shortly-io/shortly/internal/config"
	"github.com/shortly-io/shortly/internal/repository"
	"github.com/shortly-io/shortly/internal/services"
)

var (
	createURLFlag   string
	createAliasFlag string
)

// CreateCmd shortens a URL from the command line.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a short URL from a long URL.",
	Long: `Shortens the given URL and prints the allocated code.

Example:
  shortly create --url="https://www.google.com/search?q=go+lang"
  shortly create --url="https://example.com" --alias="my-link"`,
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

		linkRepo := repository.NewLinkRepository(db)
		clickRepo := repository.NewClickRepository(db)
		linkService := services.NewLinkService(linkRepo, clickRepo, nil, zap.NewNop())

		link, err := linkService.Create(context.Background(), services.CreateParams{
			OriginalURL: createURLFlag,
			CustomAlias: createAliasFlag,
		})
		if err != nil {
			log.Fatalf("failed to create short link: %v", err)
		}

		fmt.Printf("Short URL created:\n")
		fmt.Printf("Code: %s\n", link.ShortCode)
		fmt.Printf("Full URL: %s/%s\n", cfg.Server.BaseURL, link.ShortCode)
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().StringVar(&createAliasFlag, "alias", "", "Optional custom alias for the short code")
	CreateCmd.MarkFlagRequired("url")
	cmd.RootCmd.AddCommand(CreateCmd)
}
