package fbs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"fbs-backend/lib/restyutil"
	scraper "fbs-backend/lib/scrapers/fbs"
)

func newWebhookClient(config WebhookConfig) *resty.Client {
	if config.Url == "" {
		return nil
	}
	client := resty.New().SetBaseURL(config.Url)
	if config.AuthToken != "" {
		client.SetAuthToken(config.AuthToken)
	}
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	return client
}

// deliver posts the booking log to the configured webhook. Delivery is
// best-effort, a scrape is not failed over an unreachable webhook.
func (s Service) deliver(ctx context.Context, log scraper.BookingLog) error {
	if s.webhook == nil {
		return nil
	}
	res, err := s.webhook.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(log).
		Post("")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("webhook rejected booking log: %s", res.Status())
	}
	slog.DebugContext(ctx, "delivered booking log", "status", res.Status())
	return nil
}
