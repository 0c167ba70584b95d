package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"fbs-backend/lib/configutil"
	"fbs-backend/lib/restyutil"
	scraper "fbs-backend/lib/scrapers/fbs"
	"fbs-backend/lib/serviceutil"
	"fbs-backend/lib/sqliteutil"
	"fbs-backend/lib/telemetry"
	servicefbs "fbs-backend/services/fbs"
	"fbs-backend/services/fbs/db"
)

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Credentials CredentialsConfig `json:"credentials"`
	Service     servicefbs.Config `json:"service"`
}

var (
	scrapeDb       *string
	scrapeDate     *string
	scrapeStart    *string
	scrapeDuration *float64
	scrapeCapacity *int
	scrapeBuilding *[]string
	scrapeFloor    *[]string
	scrapeFacility *[]string
	scrapeEquip    *[]string
)

func init() {
	scrapeDb = scrapeCmd.Flags().String("db", "scrapes.db", "The database to record scrape history in.")
	scrapeDate = scrapeCmd.Flags().String("date", "", "The booking date to scrape, e.g. 2026-11-15.")
	scrapeStart = scrapeCmd.Flags().String("start", "11:00", "Desired booking start time (HH:MM).")
	scrapeDuration = scrapeCmd.Flags().Float64("duration", 2, "Desired booking duration in hours.")
	scrapeCapacity = scrapeCmd.Flags().Int("capacity", 7, "Number of attendees the room must fit.")
	scrapeBuilding = scrapeCmd.Flags().StringSlice("building", nil, "Building names to filter on.")
	scrapeFloor = scrapeCmd.Flags().StringSlice("floor", nil, "Floors to filter on.")
	scrapeFacility = scrapeCmd.Flags().StringSlice("facility", nil, "Facility types to filter on.")
	scrapeEquip = scrapeCmd.Flags().StringSlice("equipment", nil, "Equipment to filter on.")
	scrapeCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --date <date> [flags]",
	Short: "Runs one availability scrape and writes the booking log.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		telemetry.InitSlog(*verbose)
		err := telemetry.SetupFromEnv(ctx, "fbs-cli")
		if err != nil {
			slog.Warn("telemetry disabled", "err", err)
		}
		if *verbose {
			servicefbs.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/webhook"))
		}

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		out, err := sqliteutil.OpenDB(db.Schema, *scrapeDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer out.Close()

		service := servicefbs.NewService(out, cfg.Service)

		t1 := time.Now()
		log, err := service.Scrape(ctx, scraper.Request{
			Credentials: scraper.Credentials{
				Username: cfg.Credentials.Username,
				Password: cfg.Credentials.Password,
			},
			DateRaw:       *scrapeDate,
			StartTime:     *scrapeStart,
			DurationHours: *scrapeDuration,
			RoomCapacity:  *scrapeCapacity,
			BuildingNames: *scrapeBuilding,
			Floors:        *scrapeFloor,
			FacilityTypes: *scrapeFacility,
			Equipment:     *scrapeEquip,
		})
		if err != nil {
			serviceutil.Fatal("scrape failed", err)
		}

		slog.Info(
			"scraping time",
			"seconds", time.Since(t1).Seconds(),
			"outcome", log.Metrics.Outcome,
			"rooms", len(log.Scraped.Result),
		)
	},
}
