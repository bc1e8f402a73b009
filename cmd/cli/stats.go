package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shortly-io/shortly/cmd"
	"github.com/shortly-io/shortly/internal/config"
	"github.com/shortly-io/shortly/internal/repository"
	"github.com/shortly-io/shortly/internal/services"
)

// StatsCmd prints analytics for a short code.
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Show click statistics for a short URL",
	Long:  `Prints the link metadata and aggregated click analytics for the given short code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(c *cobra.Command, args []string) {
	shortCode := args[0]

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
	analyticsService := services.NewAnalyticsService(linkRepo, clickRepo, zap.NewNop())

	ctx := context.Background()
	link, total, err := linkService.Info(ctx, shortCode)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	report, err := analyticsService.Compute(ctx, link.ID)
	if err != nil {
		fmt.Printf("Error retrieving analytics: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Statistics for short code: %s\n", shortCode)
	fmt.Printf("Original URL: %s\n", link.OriginalURL)
	fmt.Printf("Created: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Total clicks: %d\n", total)
	fmt.Printf("Unique clicks: %d\n", report.UniqueClicks)
	fmt.Printf("Conversion rate: %.2f%%\n", report.ConversionRate)
	if len(report.ClicksByCountry) > 0 {
		fmt.Println("Top countries:")
		for _, b := range report.ClicksByCountry {
			fmt.Printf("  %s: %d\n", b.Country, b.Count)
		}
	}
}
