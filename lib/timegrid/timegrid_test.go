package timegrid

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.October, 15, 9, 0, 0, 0, time.UTC)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"2024-11-01", "01-Nov-2024"},
		{"01-11-2024", "01-Nov-2024"},
		{"11/01/2024", "01-Nov-2024"},
		{"1 november 2024", "01-Nov-2024"},
		{"November 1, 2024", "01-Nov-2024"},
		{"1 Nov 2024", "01-Nov-2024"},
		{"15-Oct-2024", "15-Oct-2024"},
	}
	for _, test := range cases {
		got, err := FormatDate(test.input, testNow)
		require.NoError(t, err, test.input)
		require.Equal(t, test.expected, got, test.input)
	}
}

func TestFormatDateInvalid(t *testing.T) {
	for _, input := range []string{"", "not a date", "32 January 2024", "2024-13-40"} {
		_, err := FormatDate(input, testNow)
		require.ErrorIs(t, err, ErrInvalidDateFormat, input)
	}
}

func TestFormatDatePast(t *testing.T) {
	_, err := FormatDate("2024-10-14", testNow)
	require.ErrorIs(t, err, ErrPastDate)

	// the current day itself is not "past"
	_, err = FormatDate("2024-10-15", testNow)
	require.NoError(t, err)
}

func TestCapacityBucket(t *testing.T) {
	cases := []struct {
		n        int
		expected CapacityLabel
	}{
		{0, LessThan5Pax},
		{4, LessThan5Pax},
		{5, From6To10Pax},
		{10, From6To10Pax},
		{11, From11To15Pax},
		{15, From11To15Pax},
		{16, From16To20Pax},
		{20, From16To20Pax},
		{21, From21To50Pax},
		{50, From21To50Pax},
		{51, From51To100Pax},
		{100, From51To100Pax},
		{101, MoreThan100Pax},
		{5000, MoreThan100Pax},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, CapacityBucket(test.n), "n=%d", test.n)
	}
}

func TestGridSlots(t *testing.T) {
	g := New()
	slots := g.Slots()
	require.Len(t, slots, 48)
	require.Equal(t, "00:00-00:30", slots[0])
	require.Equal(t, "11:00-11:30", slots[22])
	require.Equal(t, "23:30-00:00", slots[47])
}

func TestComputeEndTime(t *testing.T) {
	g := New()
	cases := []struct {
		start    string
		duration float64
		snapped  string
		raw      string
	}{
		{"11:00", 2.5, "13:30", "13:30"},
		{"23:00", 2, "01:00", "01:00"},
		{"09:00", 1.25, "10:00", "10:15"}, // 10:15 ties 10:00/10:30, earlier wins
		{"08:00", 0.5, "08:30", "08:30"},
		{"23:30", 1, "00:30", "00:30"},
	}
	for _, test := range cases {
		snapped, raw, err := g.ComputeEndTime(test.start, test.duration)
		require.NoError(t, err)
		require.Equal(t, test.raw, raw, "raw end of %s + %vh", test.start, test.duration)
		require.Equal(t, test.snapped, snapped, "snapped end of %s + %vh", test.start, test.duration)
	}
}

func TestComputeEndTimeRejectsBadInput(t *testing.T) {
	g := New()
	_, _, err := g.ComputeEndTime("25:00", 1)
	require.ErrorIs(t, err, ErrInvalidTime)

	_, _, err = g.ComputeEndTime("09:00", 0)
	require.Error(t, err)

	_, _, err = g.ComputeEndTime("09:00", -2)
	require.Error(t, err)
}

func TestNearestHalfHourReducedGrid(t *testing.T) {
	g := FromTimes([]string{"09:00", "09:30", "10:00"})

	got, err := g.NearestHalfHour("09:10")
	require.NoError(t, err)
	require.Equal(t, "09:00", got)

	// equidistant between 09:30 and 10:00, first grid entry wins
	got, err = g.NearestHalfHour("09:45")
	require.NoError(t, err)
	require.Equal(t, "09:30", got)

	_, err = g.NearestHalfHour("garbage")
	require.True(t, errors.Is(err, ErrInvalidTime))
}
