package main

import (
	"fmt"
	"log"
	"os"

	"github.com/andreyxaxa/auction-sync/config"
	"github.com/andreyxaxa/auction-sync/internal/app"
	"github.com/andreyxaxa/auction-sync/migrations"
	"github.com/andreyxaxa/auction-sync/pkg/postgres"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "auction-sync",
		Short:        "Auction, bidding and search services",
		SilenceUsage: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "auction",
			Short: "Run the auction service",
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := config.NewAuction()
				if err != nil {
					return err
				}

				app.RunAuction(cfg)

				return nil
			},
		},
		&cobra.Command{
			Use:   "bidding",
			Short: "Run the bidding service",
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := config.NewBidding()
				if err != nil {
					return err
				}

				app.RunBidding(cfg)

				return nil
			},
		},
		&cobra.Command{
			Use:   "search",
			Short: "Run the search service",
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := config.NewSearch()
				if err != nil {
					return err
				}

				app.RunSearch(cfg)

				return nil
			},
		},
		migrateCmd(),
	)

	return root
}

func migrateCmd() *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations of a Postgres-backed service",
		RunE: func(_ *cobra.Command, _ []string) error {
			var dir string

			switch service {
			case migrations.AuctionDir, migrations.BiddingDir:
				dir = service
			default:
				return fmt.Errorf("unknown service %q: want auction or bidding", service)
			}

			url := os.Getenv("PG_URL")
			if url == "" {
				return fmt.Errorf("PG_URL is not set")
			}

			if err := postgres.Migrate(url, migrations.FS, dir); err != nil {
				return err
			}

			log.Printf("migrations for %s applied", service)

			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "auction or bidding")
	_ = cmd.MarkFlagRequired("service")

	return cmd
}
