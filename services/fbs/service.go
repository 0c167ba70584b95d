package fbs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	scraper "fbs-backend/lib/scrapers/fbs"
	"fbs-backend/services/fbs/db"
)

var tracer = otel.Tracer("services/fbs")

type WebhookConfig struct {
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

type Config struct {
	BaseURL       string        `json:"base_url"`
	Headless      bool          `json:"headless"`
	OutputDir     string        `json:"output_dir"`
	ScreenshotDir string        `json:"screenshot_dir"`
	Webhook       WebhookConfig `json:"webhook"`
}

// launcher builds a fresh automation page per scrape. Swapped out in tests.
type launcher func() (scraper.Page, error)

type Service struct {
	qry     *db.Queries
	config  Config
	webhook *resty.Client
	launch  launcher
}

func NewService(database *sql.DB, config Config) Service {
	return Service{
		qry:     db.New(database),
		config:  config,
		webhook: newWebhookClient(config.Webhook),
		launch: func() (scraper.Page, error) {
			return scraper.LaunchPlaywright(scraper.PlaywrightOptions{
				Headless: config.Headless,
			})
		},
	}
}

// Scrape runs one full scrape and persists its booking log to the output
// directory and the scrape history table. The returned log is always
// usable; the error is non-nil only when the scrape produced no data.
func (s Service) Scrape(ctx context.Context, req scraper.Request) (scraper.BookingLog, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	span.SetAttributes(attribute.String("date", req.DateRaw))

	page, err := s.launch()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.BookingLog{}, fmt.Errorf("launch browser: %w", err)
	}

	opts := scraper.DefaultOptions(s.config.BaseURL)
	opts.ScreenshotDir = s.config.ScreenshotDir

	session := scraper.NewSession(page, scraper.DefaultVocabulary(), opts)
	log, errs := session.Run(ctx, req)
	for _, err := range errs {
		span.RecordError(err)
		slog.WarnContext(ctx, "scrape reported error", "err", err)
	}

	if err := s.persist(ctx, log); err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to persist booking log", "err", err)
	}
	if err := s.deliver(ctx, log); err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to deliver booking log", "err", err)
	}

	if log.Metrics.Outcome == scraper.OutcomeFailed {
		span.SetStatus(codes.Error, "scrape failed")
		return log, log.Err()
	}
	slog.InfoContext(
		ctx, "scrape finished",
		"outcome", log.Metrics.Outcome,
		"rooms", len(log.Scraped.Result),
		"errors", len(log.Metrics.Errors),
	)
	return log, nil
}

// persist writes the booking log as a timestamped json file and records
// the scrape in the history table.
func (s Service) persist(ctx context.Context, log scraper.BookingLog) error {
	ctx, span := tracer.Start(ctx, "persist")
	defer span.End()

	raw, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}

	if s.config.OutputDir != "" {
		if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
			return err
		}
		name := fmt.Sprintf("booking_log_%s.json", time.Now().Format("20060102_150405"))
		path := filepath.Join(s.config.OutputDir, name)
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return err
		}
		slog.InfoContext(ctx, "wrote booking log", "path", path)
	}

	_, err = s.qry.CreateScrape(ctx, db.CreateScrapeParams{
		ScrapedAt:  time.Now().Unix(),
		TargetDate: log.Scraped.Config.Date,
		Outcome:    string(log.Metrics.Outcome),
		RoomCount:  int64(len(log.Scraped.Result)),
		ErrorCount: int64(len(log.Metrics.Errors)),
		Log:        string(raw),
	})
	return err
}

type HistoryEntry struct {
	Id         int64  `json:"id"`
	ScrapedAt  int64  `json:"scraped_at"`
	TargetDate string `json:"target_date"`
	Outcome    string `json:"outcome"`
	RoomCount  int64  `json:"room_count"`
	ErrorCount int64  `json:"error_count"`
}

func (s Service) History(ctx context.Context, limit int64) ([]HistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.qry.ListScrapes(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	out := make([]HistoryEntry, len(rows))
	for i, row := range rows {
		out[i] = HistoryEntry{
			Id:         row.Id,
			ScrapedAt:  row.ScrapedAt,
			TargetDate: row.TargetDate,
			Outcome:    row.Outcome,
			RoomCount:  row.RoomCount,
			ErrorCount: row.ErrorCount,
		}
	}
	return out, nil
}

func (s Service) HistoryLog(ctx context.Context, id int64) (scraper.BookingLog, error) {
	raw, err := s.qry.GetScrapeLog(ctx, id)
	if err != nil {
		return scraper.BookingLog{}, err
	}
	var log scraper.BookingLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return scraper.BookingLog{}, err
	}
	return log, nil
}
