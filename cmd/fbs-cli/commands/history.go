package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"fbs-backend/cmd/fbs-cli/utils"
	scraper "fbs-backend/lib/scrapers/fbs"
	"fbs-backend/lib/serviceutil"
	"fbs-backend/lib/sqliteutil"
	servicefbs "fbs-backend/services/fbs"
	"fbs-backend/services/fbs/db"
)

var (
	historyDb    *string
	historyLimit *int64
	historyShow  *int64
)

func init() {
	historyDb = historyCmd.Flags().String("db", "scrapes.db", "The database scrape history was recorded in.")
	historyLimit = historyCmd.Flags().Int64("limit", 20, "Maximum number of entries to list.")
	historyShow = historyCmd.Flags().Int64("show", 0, "Print the full booking log of one entry by id.")
	rootCmd.AddCommand(historyCmd)
}

func historyTable(entries []servicefbs.HistoryEntry) table.Writer {
	t := utils.NewTable()
	t.AppendHeader(table.Row{"Id", "Scraped At", "Target Date", "Outcome", "Rooms", "Errors"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Id,
			time.Unix(e.ScrapedAt, 0).Format(time.DateTime),
			e.TargetDate,
			e.Outcome,
			e.RoomCount,
			e.ErrorCount,
		})
	}
	return t
}

func scheduleTable(log scraper.BookingLog) table.Writer {
	rooms := make([]string, 0, len(log.Scraped.Result))
	for room := range log.Scraped.Result {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)

	t := utils.NewTable()
	t.AppendHeader(table.Row{"Room", "Timeslot", "Status"})
	for _, room := range rooms {
		for _, slot := range log.Scraped.Result[room] {
			t.AppendRow(table.Row{room, slot.Timeslot, slot.Status})
		}
	}
	return t
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path/to/scrapes.db>]",
	Short: "Lists past scrapes and their outcomes.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database, err := sqliteutil.OpenDB(db.Schema, *historyDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		service := servicefbs.NewService(database, servicefbs.Config{})

		if *historyShow > 0 {
			log, err := service.HistoryLog(ctx, *historyShow)
			if err != nil {
				serviceutil.Fatal("failed to load booking log", err)
			}
			fmt.Printf("%s  %s  rooms=%d\n", log.Metrics.ScrapingDate, log.Metrics.Outcome, len(log.Scraped.Result))
			scheduleTable(log).Render()
			return
		}

		entries, err := service.History(ctx, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list history", err)
		}
		historyTable(entries).Render()
	},
}
