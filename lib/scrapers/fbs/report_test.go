package fbs

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() ResolvedConfig {
	return ResolvedConfig{
		Date:          "15-Nov-2026",
		StartTime:     "11:00",
		EndTime:       "13:30",
		Duration:      2.5,
		BuildingNames: []string{"Law Library"},
		Floors:        []string{},
		FacilityTypes: []string{"Project Room"},
		RoomCapacity:  "From6To10Pax",
		Equipment:     []string{},
	}
}

func TestAssembleOutcome(t *testing.T) {
	at := time.Date(2026, 11, 1, 9, 30, 0, 0, time.UTC)
	empty := map[string]RoomSchedule{}

	for _, tt := range []struct {
		name    string
		result  map[string]RoomSchedule
		errs    []error
		outcome Outcome
	}{
		{"clean run", empty, nil, OutcomeFull},
		{"warnings degrade to partial", empty, []error{errors.New("boom")}, OutcomePartial},
		{"nil result is a failure", nil, []error{errors.New("boom")}, OutcomeFailed},
	} {
		t.Run(tt.name, func(t *testing.T) {
			log := Assemble(at, testConfig(), tt.result, tt.errs)
			require.Equal(t, tt.outcome, log.Metrics.Outcome)
			require.Equal(t, "2026-11-01 09:30:00", log.Metrics.ScrapingDate)
			require.NotNil(t, log.Scraped.Result)
			require.Len(t, log.Metrics.Errors, len(tt.errs))
		})
	}
}

func TestBookingLogErr(t *testing.T) {
	log := Assemble(time.Now(), testConfig(), nil, []error{
		errors.New("first"),
		errors.New("second"),
	})
	err := log.Err()
	require.Error(t, err)
	require.Contains(t, err.Error(), "first")
	require.Contains(t, err.Error(), "second")

	clean := Assemble(time.Now(), testConfig(), map[string]RoomSchedule{}, nil)
	require.NoError(t, clean.Err())
}

// The JSON field layout is consumed by downstream tooling; renames here are
// breaking changes.
func TestBookingLogJSONShape(t *testing.T) {
	at := time.Date(2026, 11, 1, 9, 30, 0, 0, time.UTC)
	result := map[string]RoomSchedule{
		"Project Room 4-02": {
			{
				Timeslot:  "11:00-12:30",
				Available: false,
				Status:    StatusBooked,
				Details:   map[string]string{"Purpose of Booking": "study"},
			},
		},
	}

	raw, err := json.Marshal(Assemble(at, testConfig(), result, nil))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	metrics, ok := doc["metrics"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "2026-11-01 09:30:00", metrics["scraping_date"])
	require.Equal(t, "full", metrics["outcome"])

	scraped, ok := doc["scraped"].(map[string]any)
	require.True(t, ok)
	config, ok := scraped["config"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "15-Nov-2026", config["date"])
	require.Equal(t, "11:00", config["start_time"])
	require.Equal(t, "13:30", config["end_time"])
	require.Equal(t, "From6To10Pax", config["room_capacity"])
	require.Equal(t, []any{"Law Library"}, config["building_names"])

	rooms, ok := scraped["result"].(map[string]any)
	require.True(t, ok)
	slots, ok := rooms["Project Room 4-02"].([]any)
	require.True(t, ok)
	slot, ok := slots[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "11:00-12:30", slot["timeslot"])
	require.Equal(t, false, slot["available"])
	require.Equal(t, "Booked", slot["status"])
}
