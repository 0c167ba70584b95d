package fbs

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fbs-backend/lib/timegrid"
)

// fakeElement is a scripted Element.
type fakeElement struct {
	text  string
	attrs map[string]string
}

func (e fakeElement) InnerText(context.Context) (string, error) { return e.text, nil }

func (e fakeElement) GetAttribute(_ context.Context, name string) (string, error) {
	return e.attrs[name], nil
}

// fakeFrame scripts a browsing context: which selectors exist, what
// attributes and markup they carry, and what QueryAll returns. Clicks on
// the next-day control advance the scripted date sequence.
type fakeFrame struct {
	existing  map[string]bool
	visible   map[string]bool
	attrs     map[string]map[string]string
	inner     map[string]string
	elements  map[string][]Element
	clicked   []string
	evaluated []string

	dateSequence []string
	dateCursor   int
}

func (f *fakeFrame) WaitForSelector(_ context.Context, selector string, _ time.Duration) error {
	if !f.existing[selector] {
		return fmt.Errorf("%w: selector %q never appeared", ErrTimeout, selector)
	}
	return nil
}

func (f *fakeFrame) Fill(_ context.Context, selector, value string) error {
	if !f.existing[selector] {
		return fmt.Errorf("cannot fill missing selector %q", selector)
	}
	return nil
}

func (f *fakeFrame) Click(_ context.Context, selector string) error {
	f.clicked = append(f.clicked, selector)
	if selector == selNextDay && f.dateCursor < len(f.dateSequence)-1 {
		f.dateCursor++
	}
	return nil
}

func (f *fakeFrame) IsVisible(_ context.Context, selector string) (bool, error) {
	return f.visible[selector], nil
}

func (f *fakeFrame) GetAttribute(_ context.Context, selector, name string) (string, error) {
	if selector == selDateInput && name == "value" && len(f.dateSequence) > 0 {
		return f.dateSequence[f.dateCursor], nil
	}
	return f.attrs[selector][name], nil
}

func (f *fakeFrame) InnerHTML(_ context.Context, selector string) (string, error) {
	return f.inner[selector], nil
}

func (f *fakeFrame) QueryAll(_ context.Context, selector string) ([]Element, error) {
	return f.elements[selector], nil
}

func (f *fakeFrame) Evaluate(_ context.Context, script string) error {
	f.evaluated = append(f.evaluated, script)
	return nil
}

// fakePage scripts the top-level page plus its named frames.
type fakePage struct {
	fakeFrame

	frames      map[string]*fakeFrame
	missing     map[string]bool
	navigated   []string
	screenshots []string
	closed      int
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) ResolveFrame(name string) (Frame, error) {
	if p.missing[name] {
		return nil, &FrameNotFoundError{Name: name}
	}
	if f, ok := p.frames[name]; ok {
		return f, nil
	}
	return nil, &FrameNotFoundError{Name: name}
}

func (p *fakePage) WaitForLoadIdle(context.Context, time.Duration) error { return nil }

func (p *fakePage) Screenshot(_ context.Context, path string) error {
	p.screenshots = append(p.screenshots, path)
	return nil
}

func (p *fakePage) Close() error {
	p.closed++
	return nil
}

func testVocabulary() Vocabulary {
	return Vocabulary{
		Grid:          timegrid.New(),
		Buildings:     []string{"Law Library"},
		Floors:        []string{"Level 2"},
		FacilityTypes: []string{"Project Room"},
		Equipment:     []string{"Projector"},
	}
}

func testOptions() Options {
	opts := DefaultOptions("https://fbs.example.edu/home")
	opts.SettleDelay = 0
	opts.SelectorTimeout = time.Second
	opts.LoadIdleTimeout = time.Second
	return opts
}

// futureDateRaw returns a parseable date far enough ahead to never trip
// the past-date check.
func futureDateRaw(t *testing.T) (raw, canonical string) {
	t.Helper()
	d := time.Now().AddDate(0, 1, 0)
	return d.Format("2006-01-02"), d.Format("02-Jan-2006")
}

func newScriptedPage(targetDate string) *fakePage {
	today := time.Now().Format("02-Jan-2006")

	content := &fakeFrame{
		existing: map[string]bool{
			selDateInput:         true,
			selResultsTable:      true,
			selCheckAvailability: true,
		},
		visible: map[string]bool{
			selBuildingDropdown: true,
			selFacilityDropdown: true,
		},
		inner: map[string]string{
			selResultsTable: `
				<tbody>
					<tr><td><input type="checkbox"></td><td>Project Room 4-02</td><td>Law Library</td></tr>
					<tr><td><input type="checkbox"></td><td>Project Room 4-03</td><td>Law Library</td></tr>
				</tbody>`,
		},
		elements: map[string][]Element{
			selRoomHeaders: {
				fakeElement{text: "Law Library"},
				fakeElement{text: "Project Room 4-02"},
				fakeElement{text: "Project Room 4-03"},
			},
			selBookingEvents: {
				fakeElement{attrs: map[string]string{"title": "(00:00-08:00) (not available)"}},
				fakeElement{attrs: map[string]string{"title": "(08:00-00:00) (not available)"}},
				fakeElement{attrs: map[string]string{"title": "(00:00-08:30) (not available)"}},
				fakeElement{attrs: map[string]string{"title": "Booking Time: 11:00-12:30\nPurpose of Booking: study"}},
				fakeElement{attrs: map[string]string{"title": "(22:00-00:00) (not available)"}},
			},
		},
		dateSequence: []string{today, targetDate},
	}

	return &fakePage{
		fakeFrame: fakeFrame{
			existing: map[string]bool{
				selUsername: true,
				selPassword: true,
				selSubmit:   true,
			},
		},
		frames: map[string]*fakeFrame{
			frameBottom:  {},
			frameContent: content,
		},
	}
}

func testRequest(dateRaw string) Request {
	return Request{
		Credentials:   Credentials{Username: "user", Password: "pass"},
		DateRaw:       dateRaw,
		StartTime:     "11:00",
		DurationHours: 2.5,
		BuildingNames: []string{"Law Library"},
		FacilityTypes: []string{"Project Room"},
		RoomCapacity:  7,
	}
}

func findSlot(t *testing.T, schedule RoomSchedule, timeslot string) TimeSlot {
	t.Helper()
	for _, slot := range schedule {
		if slot.Timeslot == timeslot {
			return slot
		}
	}
	t.Fatalf("no slot %q in schedule", timeslot)
	return TimeSlot{}
}

func TestSessionHappyPath(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical)
	session := NewSession(page, testVocabulary(), testOptions())

	log, errs := session.Run(context.Background(), testRequest(raw))
	require.Empty(t, errs)
	require.Equal(t, OutcomeFull, log.Metrics.Outcome)
	require.Equal(t, 1, page.closed)

	require.Equal(t, canonical, log.Scraped.Config.Date)
	require.Equal(t, "11:00", log.Scraped.Config.StartTime)
	require.Equal(t, "13:30", log.Scraped.Config.EndTime)
	require.Equal(t, "From6To10Pax", log.Scraped.Config.RoomCapacity)

	require.Len(t, log.Scraped.Result, 2)
	require.Contains(t, log.Scraped.Result, "Project Room 4-02")
	require.Contains(t, log.Scraped.Result, "Project Room 4-03")

	// first room's day is fully blocked out, the second carries a booking
	first := log.Scraped.Result["Project Room 4-02"]
	requireFullDayCoverage(t, first)
	require.Equal(t, StatusNotAvailable, first[0].Status)

	second := log.Scraped.Result["Project Room 4-03"]
	requireFullDayCoverage(t, second)
	booked := findSlot(t, second, "11:00-12:30")
	require.Equal(t, StatusBooked, booked.Status)
	require.Equal(t, "study", booked.Details["Purpose of Booking"])

	content := page.frames[frameContent]
	require.Contains(t, content.clicked, selNextDay)
	require.Contains(t, content.clicked, selBuildingDropdown)
	require.Contains(t, content.clicked, `text="Law Library"`)
	require.Contains(t, content.clicked, selCheckAvailability)
	require.Contains(t, content.evaluated, hidePopupScript)
}

func TestSessionZeroRoomsIsCleanEmptyResult(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical)
	page.frames[frameContent].inner[selResultsTable] = "<tbody></tbody>"
	session := NewSession(page, testVocabulary(), testOptions())

	log, errs := session.Run(context.Background(), testRequest(raw))
	require.Empty(t, errs)
	require.Equal(t, OutcomeFull, log.Metrics.Outcome)
	require.Empty(t, log.Scraped.Result)
	require.NotNil(t, log.Scraped.Result)
	require.Equal(t, 1, page.closed)

	// availability search never runs when nothing matched
	require.NotContains(t, page.frames[frameContent].clicked, selCheckAvailability)
}

func TestSessionFrameFailureIsFatalButCloses(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical)
	page.missing = map[string]bool{frameContent: true}
	session := NewSession(page, testVocabulary(), testOptions())

	log, errs := session.Run(context.Background(), testRequest(raw))
	require.NotEmpty(t, errs)
	require.Equal(t, OutcomeFailed, log.Metrics.Outcome)
	require.Empty(t, log.Scraped.Result)
	require.Equal(t, 1, page.closed)

	var frameErr *FrameNotFoundError
	require.ErrorAs(t, errs[0], &frameErr)
	require.Equal(t, frameContent, frameErr.Name)
}

func TestSessionInvalidDateFailsBeforeBrowserWork(t *testing.T) {
	page := newScriptedPage("unused")
	session := NewSession(page, testVocabulary(), testOptions())

	req := testRequest("not a real date")
	log, errs := session.Run(context.Background(), req)
	require.NotEmpty(t, errs)
	require.ErrorIs(t, errs[0], timegrid.ErrInvalidDateFormat)
	require.Equal(t, OutcomeFailed, log.Metrics.Outcome)
	require.Empty(t, page.navigated)
	require.Equal(t, 1, page.closed)
}

func TestSessionPastDateRejected(t *testing.T) {
	page := newScriptedPage("unused")
	session := NewSession(page, testVocabulary(), testOptions())

	req := testRequest(time.Now().AddDate(0, 0, -7).Format("2006-01-02"))
	_, errs := session.Run(context.Background(), req)
	require.NotEmpty(t, errs)
	require.ErrorIs(t, errs[0], timegrid.ErrPastDate)
	require.Empty(t, page.navigated)
}

func TestSessionDateUnreachable(t *testing.T) {
	raw, _ := futureDateRaw(t)
	page := newScriptedPage("31-Dec-1999") // scripted date never matches
	opts := testOptions()
	opts.MaxDateAdvances = 3
	session := NewSession(page, testVocabulary(), opts)

	log, errs := session.Run(context.Background(), testRequest(raw))
	require.NotEmpty(t, errs)
	require.ErrorIs(t, errs[0], ErrDateUnreachable)
	require.Equal(t, OutcomeFailed, log.Metrics.Outcome)
	require.Equal(t, 1, page.closed)

	// the cap bounds the clicks themselves, not loop iterations
	clicks := 0
	for _, sel := range page.frames[frameContent].clicked {
		if sel == selNextDay {
			clicks++
		}
	}
	require.Equal(t, opts.MaxDateAdvances, clicks)
}

func TestSessionDateReachedOnLastAdvance(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical) // one click away from today
	opts := testOptions()
	opts.MaxDateAdvances = 1
	session := NewSession(page, testVocabulary(), opts)

	log, errs := session.Run(context.Background(), testRequest(raw))
	require.Empty(t, errs)
	require.Equal(t, OutcomeFull, log.Metrics.Outcome)
}

func TestSessionUnknownFilterOptionIsWarning(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical)
	session := NewSession(page, testVocabulary(), testOptions())

	req := testRequest(raw)
	req.BuildingNames = []string{"Law Library", "Atlantis Campus"}
	log, errs := session.Run(context.Background(), req)

	require.Len(t, errs, 1)
	var missing *FilterOptionNotFoundError
	require.ErrorAs(t, errs[0], &missing)
	require.Equal(t, "Atlantis Campus", missing.Option)

	// the scrape still completed
	require.Equal(t, OutcomePartial, log.Metrics.Outcome)
	require.Len(t, log.Scraped.Result, 2)
}

func TestSessionLoginControlMissing(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical)
	page.fakeFrame.existing[selPassword] = false
	session := NewSession(page, testVocabulary(), testOptions())

	log, errs := session.Run(context.Background(), testRequest(raw))
	require.NotEmpty(t, errs)
	var ctrl *ControlNotFoundError
	require.ErrorAs(t, errs[0], &ctrl)
	require.Equal(t, selPassword, ctrl.Selector)
	require.True(t, strings.Contains(errs[0].Error(), "login"))
	require.Equal(t, OutcomeFailed, log.Metrics.Outcome)
	require.Equal(t, 1, page.closed)
}

func TestSessionCancellationStillCloses(t *testing.T) {
	raw, canonical := futureDateRaw(t)
	page := newScriptedPage(canonical)
	session := NewSession(page, testVocabulary(), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = session.Run(ctx, testRequest(raw))
	require.Equal(t, 1, page.closed)
}
