package fbs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	scraper "fbs-backend/lib/scrapers/fbs"
	"fbs-backend/lib/testutil"
	"fbs-backend/services/fbs/db"
)

// deadPage fails every wait, which aborts a session at the login stage.
type deadPage struct {
	closed int
}

func (p *deadPage) WaitForSelector(_ context.Context, selector string, _ time.Duration) error {
	return &scraper.ControlNotFoundError{Selector: selector, Err: scraper.ErrTimeout}
}
func (p *deadPage) Fill(context.Context, string, string) error      { return nil }
func (p *deadPage) Click(context.Context, string) error             { return nil }
func (p *deadPage) IsVisible(context.Context, string) (bool, error) { return false, nil }
func (p *deadPage) GetAttribute(context.Context, string, string) (string, error) {
	return "", nil
}
func (p *deadPage) InnerHTML(context.Context, string) (string, error) { return "", nil }
func (p *deadPage) QueryAll(context.Context, string) ([]scraper.Element, error) {
	return nil, nil
}
func (p *deadPage) Evaluate(context.Context, string) error { return nil }
func (p *deadPage) Navigate(context.Context, string) error { return nil }
func (p *deadPage) ResolveFrame(name string) (scraper.Frame, error) {
	return nil, &scraper.FrameNotFoundError{Name: name}
}
func (p *deadPage) WaitForLoadIdle(context.Context, time.Duration) error { return nil }
func (p *deadPage) Screenshot(context.Context, string) error             { return nil }
func (p *deadPage) Close() error {
	p.closed++
	return nil
}

func TestScrapePersistsHistory(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/fbs",
		DbSchema: db.Schema,
	})
	defer cleanup()

	outputDir := t.TempDir()
	service := NewService(setup.DB, Config{
		BaseURL:   "https://fbs.example.edu/home",
		OutputDir: outputDir,
	})
	page := &deadPage{}
	service.launch = func() (scraper.Page, error) { return page, nil }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	log, err := service.Scrape(ctx, scraper.Request{
		Credentials:   scraper.Credentials{Username: "user", Password: "pass"},
		DateRaw:       date,
		StartTime:     "11:00",
		DurationHours: 2,
	})
	require.Error(t, err)
	require.Equal(t, scraper.OutcomeFailed, log.Metrics.Outcome)
	require.Equal(t, 1, page.closed)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, filepath.Ext(entries[0].Name()) == ".json")

	history, err := service.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "failed", history[0].Outcome)
	require.Equal(t, int64(0), history[0].RoomCount)
	require.NotZero(t, history[0].ErrorCount)

	stored, err := service.HistoryLog(ctx, history[0].Id)
	require.NoError(t, err)
	require.Equal(t, log.Metrics.Outcome, stored.Metrics.Outcome)
	require.Equal(t, log.Metrics.Errors, stored.Metrics.Errors)
}

func TestHistoryEmpty(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/fbs",
		DbSchema: db.Schema,
	})
	defer cleanup()
	service := NewService(setup.DB, Config{})

	history, err := service.History(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, history)
}
