package fbs

import (
	"errors"
	"time"
)

// Outcome classifies a finished scrape so callers can tell "ran fully but
// found nothing" apart from "partially failed" and "no usable data".
type Outcome string

const (
	OutcomeFull    Outcome = "full"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// ResolvedConfig is the request after validation: canonical date, computed
// end time, capacity bucket.
type ResolvedConfig struct {
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Duration      float64  `json:"duration"`
	BuildingNames []string `json:"building_names"`
	Floors        []string `json:"floors"`
	FacilityTypes []string `json:"facility_types"`
	RoomCapacity  string   `json:"room_capacity"`
	Equipment     []string `json:"equipment"`
}

// Metrics carries scrape metadata and the outcome classification.
type Metrics struct {
	ScrapingDate string   `json:"scraping_date"`
	Outcome      Outcome  `json:"outcome"`
	Errors       []string `json:"errors"`
}

// Scraped pairs the resolved configuration with the per-room results.
type Scraped struct {
	Config ResolvedConfig          `json:"config"`
	Result map[string]RoomSchedule `json:"result"`
}

// BookingLog is the sole durable artifact of a scrape.
type BookingLog struct {
	Metrics Metrics `json:"metrics"`
	Scraped Scraped `json:"scraped"`
}

// Assemble builds the final booking log from whatever the session
// produced. A nil result map (fatal failure before extraction) becomes an
// empty mapping; errors decide the outcome class together with it.
func Assemble(at time.Time, config ResolvedConfig, result map[string]RoomSchedule, errs []error) BookingLog {
	outcome := OutcomeFull
	switch {
	case result == nil:
		outcome = OutcomeFailed
	case len(errs) > 0:
		outcome = OutcomePartial
	}
	if result == nil {
		result = map[string]RoomSchedule{}
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return BookingLog{
		Metrics: Metrics{
			ScrapingDate: at.Format("2006-01-02 15:04:05"),
			Outcome:      outcome,
			Errors:       msgs,
		},
		Scraped: Scraped{
			Config: config,
			Result: result,
		},
	}
}

// Err flattens the log's error list for callers that want a single error.
func (l BookingLog) Err() error {
	if len(l.Metrics.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(l.Metrics.Errors))
	for i, msg := range l.Metrics.Errors {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}
