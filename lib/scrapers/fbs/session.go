package fbs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"fbs-backend/lib/timegrid"
)

var tracer = otel.Tracer("scrapers/fbs")

// Credentials is an opaque login pair. It is never logged and lives only
// for the duration of one session.
type Credentials struct {
	Username string
	Password string
}

// Request is one scrape's configuration as the caller supplies it.
type Request struct {
	Credentials   Credentials `json:"credentials"`
	DateRaw       string      `json:"date_raw"`
	StartTime     string      `json:"start_time"`
	DurationHours float64     `json:"duration_hours"`
	BuildingNames []string    `json:"building_names"`
	Floors        []string    `json:"floors"`
	FacilityTypes []string    `json:"facility_types"`
	Equipment     []string    `json:"equipment"`
	RoomCapacity  int         `json:"room_capacity"`
}

// Stage names the session states in their strict forward order.
type Stage string

const (
	StageValidate           Stage = "validate"
	StageLogin              Stage = "login"
	StageDateNavigation     Stage = "date_navigation"
	StageFilterApplication  Stage = "filter_application"
	StageRoomExtraction     Stage = "room_extraction"
	StageAvailabilitySearch Stage = "availability_search"
	StageTimeslotExtraction Stage = "timeslot_extraction"
)

// Options bounds every wait the session performs. The zero value is not
// usable, call DefaultOptions.
type Options struct {
	BaseURL         string
	SelectorTimeout time.Duration
	LoadIdleTimeout time.Duration
	// SettleDelay runs after actions that trigger partial postbacks the
	// page exposes no completion signal for.
	SettleDelay time.Duration
	// MaxDateAdvances caps the next-day click loop. The booking horizon is
	// at most a year out, anything further is unreachable.
	MaxDateAdvances int
	// ScreenshotDir enables stage screenshots when non-empty.
	ScreenshotDir string
}

func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:         baseURL,
		SelectorTimeout: 60 * time.Second,
		LoadIdleTimeout: 30 * time.Second,
		SettleDelay:     3 * time.Second,
		MaxDateAdvances: 366,
	}
}

// Session drives one scrape through a Page. Each Session owns its Page
// exclusively and closes it on the way out no matter what failed.
type Session struct {
	page  Page
	vocab Vocabulary
	opts  Options

	warnings []error
}

func NewSession(page Page, vocab Vocabulary, opts Options) *Session {
	return &Session{page: page, vocab: vocab, opts: opts}
}

func (s *Session) warn(stage Stage, err error) {
	s.warnings = append(s.warnings, &StageError{Stage: stage, Err: err})
}

// Run executes the full stage sequence and assembles the booking log.
// The returned error list is empty only for a fully clean scrape; a fatal
// stage failure still yields a best-effort partial log.
func (s *Session) Run(ctx context.Context, req Request) (BookingLog, []error) {
	ctx, span := tracer.Start(ctx, "session:Run")
	defer span.End()

	defer func() {
		slog.DebugContext(ctx, "closing browser session")
		if err := s.page.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close browser session", "err", err)
		}
	}()

	resolved, err := s.resolve(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid scrape configuration")
		s.warn(StageValidate, err)
		return Assemble(time.Now(), resolved, nil, s.warnings), s.warnings
	}

	result, fatal := s.scrape(ctx, req, resolved)
	if fatal != nil {
		span.RecordError(fatal)
		span.SetStatus(codes.Error, "scrape aborted")
	}
	return Assemble(time.Now(), resolved, result, s.warnings), s.warnings
}

// resolve validates the request before any browser interaction happens.
func (s *Session) resolve(req Request) (ResolvedConfig, error) {
	resolved := ResolvedConfig{
		StartTime:     req.StartTime,
		Duration:      req.DurationHours,
		BuildingNames: emptyNotNil(req.BuildingNames),
		Floors:        emptyNotNil(req.Floors),
		FacilityTypes: emptyNotNil(req.FacilityTypes),
		Equipment:     emptyNotNil(req.Equipment),
		RoomCapacity:  string(timegrid.CapacityBucket(req.RoomCapacity)),
	}

	date, err := timegrid.FormatDate(req.DateRaw, time.Now())
	if err != nil {
		return resolved, err
	}
	resolved.Date = date

	if _, err := timegrid.ParseClock(req.StartTime); err != nil {
		return resolved, err
	}
	end, _, err := s.vocab.Grid.ComputeEndTime(req.StartTime, req.DurationHours)
	if err != nil {
		return resolved, err
	}
	resolved.EndTime = end
	return resolved, nil
}

// scrape walks the stages in order. A non-nil return is the fatal error
// that aborted the remaining stages; warnings have already been recorded.
func (s *Session) scrape(ctx context.Context, req Request, resolved ResolvedConfig) (map[string]RoomSchedule, error) {
	if err := s.login(ctx, req.Credentials); err != nil {
		s.warn(StageLogin, err)
		return nil, err
	}

	frame, err := s.contentFrame(ctx)
	if err != nil {
		s.warn(StageDateNavigation, err)
		return nil, err
	}

	if err := s.navigateToDate(ctx, frame, resolved.Date); err != nil {
		s.warn(StageDateNavigation, err)
		return nil, err
	}

	if err := s.applyFilters(ctx, frame, req, resolved); err != nil {
		s.warn(StageFilterApplication, err)
		return nil, err
	}

	s.snapshot(ctx, "filters-applied.png")

	rooms, err := s.extractRooms(ctx, frame)
	if err != nil {
		s.warn(StageRoomExtraction, err)
		return nil, err
	}
	if len(rooms) == 0 {
		// valid terminal outcome, not an error
		slog.InfoContext(ctx, "no rooms matched the filter set")
		return map[string]RoomSchedule{}, nil
	}
	slog.InfoContext(ctx, "rooms matched", "count", len(rooms))

	if err := s.checkAvailability(ctx, frame); err != nil {
		s.warn(StageAvailabilitySearch, err)
		return nil, err
	}

	s.snapshot(ctx, "availability.png")

	result, err := s.extractTimeslots(ctx)
	if err != nil {
		s.warn(StageTimeslotExtraction, err)
		return nil, err
	}
	return result, nil
}

// login submits credentials and asserts the booking frameset appears.
// The frameset only renders after a successful login, which makes it a
// usable success signal; the site exposes no better one.
func (s *Session) login(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "session:login")
	defer span.End()

	if err := s.page.Navigate(ctx, s.opts.BaseURL); err != nil {
		return err
	}
	slog.DebugContext(ctx, "navigated to login page", "url", s.opts.BaseURL)

	for _, selector := range []string{selUsername, selPassword, selSubmit} {
		if err := s.page.WaitForSelector(ctx, selector, s.opts.SelectorTimeout); err != nil {
			return &ControlNotFoundError{Selector: selector, Err: err}
		}
	}

	if err := s.page.Fill(ctx, selUsername, creds.Username); err != nil {
		return err
	}
	if err := s.page.Fill(ctx, selPassword, creds.Password); err != nil {
		return err
	}
	if err := s.page.Click(ctx, selSubmit); err != nil {
		return err
	}

	if err := s.page.WaitForLoadIdle(ctx, s.opts.LoadIdleTimeout); err != nil {
		return err
	}
	if _, err := s.page.ResolveFrame(frameBottom); err != nil {
		return fmt.Errorf("post-login frameset missing, login likely rejected: %w", err)
	}
	slog.DebugContext(ctx, "login accepted")
	return nil
}

// contentFrame resolves the two-level frame nesting the booking UI lives
// in. The outer frame must exist before the inner one is addressable.
func (s *Session) contentFrame(ctx context.Context) (Frame, error) {
	if _, err := s.page.ResolveFrame(frameBottom); err != nil {
		return nil, &FrameNotFoundError{Name: frameBottom}
	}
	frame, err := s.page.ResolveFrame(frameContent)
	if err != nil {
		return nil, &FrameNotFoundError{Name: frameContent}
	}
	return frame, nil
}

// navigateToDate advances the date control one day at a time until it
// shows the target date, bounded by MaxDateAdvances.
func (s *Session) navigateToDate(ctx context.Context, frame Frame, target string) error {
	ctx, span := tracer.Start(ctx, "session:navigateToDate")
	defer span.End()

	if err := frame.WaitForSelector(ctx, selDateInput, s.opts.SelectorTimeout); err != nil {
		return &ControlNotFoundError{Selector: selDateInput, Err: err}
	}

	advances := 0
	for {
		current, err := frame.GetAttribute(ctx, selDateInput, "value")
		if err != nil {
			return err
		}
		if current == target {
			slog.DebugContext(ctx, "on target date", "date", current, "advances", advances)
			return nil
		}
		if advances == s.opts.MaxDateAdvances {
			return fmt.Errorf("%w: %s not reached within %d advances", ErrDateUnreachable, target, s.opts.MaxDateAdvances)
		}
		slog.DebugContext(ctx, "advancing date", "current", current, "target", target)
		if err := frame.Click(ctx, selNextDay); err != nil {
			return err
		}
		advances++
		s.settle(ctx)
	}
}

// applyFilters drives the four multi-select dropdowns plus the single-value
// time and capacity selects. Absent categories are skipped, unknown option
// labels are warnings rather than failures.
func (s *Session) applyFilters(ctx context.Context, frame Frame, req Request, resolved ResolvedConfig) error {
	ctx, span := tracer.Start(ctx, "session:applyFilters")
	defer span.End()

	if err := s.setSelect(ctx, frame, selStartTime, resolved.StartTime); err != nil {
		return err
	}
	if err := s.setSelect(ctx, frame, selEndTime, resolved.EndTime); err != nil {
		return err
	}
	s.settle(ctx)

	dropdowns := []struct {
		category string
		selector string
		options  []string
		known    []string
	}{
		{"building", selBuildingDropdown, req.BuildingNames, s.vocab.Buildings},
		{"floor", selFloorDropdown, req.Floors, s.vocab.Floors},
		{"facility_type", selFacilityDropdown, req.FacilityTypes, s.vocab.FacilityTypes},
		{"equipment", selEquipmentDropdown, req.Equipment, s.vocab.Equipment},
	}
	for _, d := range dropdowns {
		if len(d.options) == 0 {
			continue
		}
		if err := s.selectDropdownOptions(ctx, frame, d.category, d.selector, d.options, d.known); err != nil {
			return err
		}
	}

	if err := s.setSelect(ctx, frame, selCapacity, resolved.RoomCapacity); err != nil {
		return err
	}
	s.settle(ctx)
	return nil
}

// selectDropdownOptions opens one custom multi-select widget, clicks every
// requested option by its visible label, then closes the popup via JS.
func (s *Session) selectDropdownOptions(ctx context.Context, frame Frame, category, selector string, options, known []string) error {
	visible, err := frame.IsVisible(ctx, selector)
	if err != nil {
		return err
	}
	if !visible {
		// the site omits dropdowns that do not apply to the chosen
		// building, the whole category becomes a warning
		for _, option := range options {
			s.warn(StageFilterApplication, &FilterOptionNotFoundError{Category: category, Option: option})
		}
		return nil
	}

	if err := frame.Click(ctx, selector); err != nil {
		return err
	}
	for _, option := range options {
		if !contains(known, option) {
			s.warn(StageFilterApplication, &FilterOptionNotFoundError{Category: category, Option: option})
			continue
		}
		if err := frame.Click(ctx, fmt.Sprintf("text=%q", option)); err != nil {
			s.warn(StageFilterApplication, &FilterOptionNotFoundError{Category: category, Option: option})
			continue
		}
		slog.DebugContext(ctx, "selected filter option", "category", category, "option", option)
	}
	if err := frame.Evaluate(ctx, hidePopupScript); err != nil {
		return err
	}
	if err := s.page.WaitForLoadIdle(ctx, s.opts.LoadIdleTimeout); err != nil {
		return err
	}
	s.settle(ctx)
	return nil
}

func (s *Session) setSelect(ctx context.Context, frame Frame, selector, value string) error {
	return frame.Evaluate(ctx, fmt.Sprintf(setSelectScript, selector, value))
}

// extractRooms reads the results table; each row's second cell is a room
// name. An empty table is a valid zero-room outcome.
func (s *Session) extractRooms(ctx context.Context, frame Frame) ([]string, error) {
	ctx, span := tracer.Start(ctx, "session:extractRooms")
	defer span.End()

	if err := frame.WaitForSelector(ctx, selResultsTable, s.opts.SelectorTimeout); err != nil {
		return nil, &ControlNotFoundError{Selector: selResultsTable, Err: err}
	}
	html, err := frame.InnerHTML(ctx, selResultsTable)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + html + "</table>"))
	if err != nil {
		return nil, err
	}

	var rooms []string
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(1).Text())
		if name != "" {
			rooms = append(rooms, name)
		}
	})
	return rooms, nil
}

func (s *Session) checkAvailability(ctx context.Context, frame Frame) error {
	ctx, span := tracer.Start(ctx, "session:checkAvailability")
	defer span.End()

	if err := frame.WaitForSelector(ctx, selCheckAvailability, s.opts.SelectorTimeout); err != nil {
		return &ControlNotFoundError{Selector: selCheckAvailability, Err: err}
	}
	if err := frame.Click(ctx, selCheckAvailability); err != nil {
		return err
	}
	slog.DebugContext(ctx, "submitted availability search")
	if err := s.page.WaitForLoadIdle(ctx, s.opts.LoadIdleTimeout); err != nil {
		return err
	}
	// the scheduler renders asynchronously after network idle with no
	// completion signal; TODO replace the settle delay with a wait on the
	// scheduler grid selector once its post-render id is confirmed
	s.settle(ctx)
	return nil
}

// extractTimeslots re-resolves the frame nesting (the availability search
// re-renders into a fresh frame context), scrapes every room header and
// booking-event title, and normalizes the result per room.
func (s *Session) extractTimeslots(ctx context.Context) (map[string]RoomSchedule, error) {
	ctx, span := tracer.Start(ctx, "session:extractTimeslots")
	defer span.End()

	frame, err := s.contentFrame(ctx)
	if err != nil {
		return nil, err
	}

	headers, err := frame.QueryAll(ctx, selRoomHeaders)
	if err != nil {
		return nil, err
	}
	var rooms []string
	for _, h := range headers {
		label, err := h.InnerText(ctx)
		if err != nil {
			return nil, err
		}
		label = strings.TrimSpace(label)
		// the scheduler mixes building section headers into the row
		// headers, they carry no schedule of their own
		if label == "" || s.vocab.IsBuilding(label) {
			continue
		}
		rooms = append(rooms, label)
	}

	events, err := frame.QueryAll(ctx, selBookingEvents)
	if err != nil {
		return nil, err
	}
	var raw []string
	for _, e := range events {
		title, err := e.GetAttribute(ctx, "title")
		if err != nil {
			return nil, err
		}
		raw = append(raw, title)
	}

	normalizer := NewNormalizer(s.vocab.Grid)
	days := normalizer.SplitBookingsByDay(raw)

	result := map[string]RoomSchedule{}
	for i, room := range rooms {
		var dayEvents []string
		if i < len(days) {
			dayEvents = days[i]
		}
		schedule, errs := normalizer.Normalize(room, dayEvents)
		for _, err := range errs {
			s.warn(StageTimeslotExtraction, err)
		}
		result[room] = schedule
	}
	return result, nil
}

// settle sleeps out a partial postback, honoring cancellation.
func (s *Session) settle(ctx context.Context) {
	if s.opts.SettleDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.opts.SettleDelay):
	}
}

func (s *Session) snapshot(ctx context.Context, name string) {
	if s.opts.ScreenshotDir == "" {
		return
	}
	path := filepath.Join(s.opts.ScreenshotDir, name)
	if err := s.page.Screenshot(ctx, path); err != nil {
		slog.WarnContext(ctx, "failed to capture screenshot", "path", path, "err", err)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func emptyNotNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
