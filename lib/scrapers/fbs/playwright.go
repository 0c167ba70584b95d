package fbs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightSession is the production Page implementation. One instance
// owns one browser for its lifetime; Close tears everything down in
// reverse order and is safe to call after partial initialization.
type PlaywrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

type PlaywrightOptions struct {
	Headless bool
	// SlowMo throttles every automation action, useful when watching a
	// headful session.
	SlowMo time.Duration
}

// LaunchPlaywright starts a chromium instance and opens the single page
// the session will drive.
func LaunchPlaywright(opts PlaywrightOptions) (*PlaywrightSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	s := &PlaywrightSession{pw: pw}
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	s.browser, err = pw.Chromium.Launch(launch)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.page, err = s.browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return s, nil
}

func (s *PlaywrightSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
		s.pw = nil
	}
	return errors.Join(errs...)
}

func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return wrapTimeout(err)
}

func (s *PlaywrightSession) ResolveFrame(name string) (Frame, error) {
	for _, frame := range s.page.Frames() {
		if frame.Name() == name {
			return playwrightFrame{frame: frame}, nil
		}
	}
	return nil, &FrameNotFoundError{Name: name}
}

func (s *PlaywrightSession) WaitForLoadIdle(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return wrapTimeout(err)
}

func (s *PlaywrightSession) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (s *PlaywrightSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return playwrightFrame{frame: s.page.MainFrame()}.WaitForSelector(ctx, selector, timeout)
}

func (s *PlaywrightSession) Fill(ctx context.Context, selector, value string) error {
	return playwrightFrame{frame: s.page.MainFrame()}.Fill(ctx, selector, value)
}

func (s *PlaywrightSession) Click(ctx context.Context, selector string) error {
	return playwrightFrame{frame: s.page.MainFrame()}.Click(ctx, selector)
}

func (s *PlaywrightSession) IsVisible(ctx context.Context, selector string) (bool, error) {
	return playwrightFrame{frame: s.page.MainFrame()}.IsVisible(ctx, selector)
}

func (s *PlaywrightSession) GetAttribute(ctx context.Context, selector, name string) (string, error) {
	return playwrightFrame{frame: s.page.MainFrame()}.GetAttribute(ctx, selector, name)
}

func (s *PlaywrightSession) InnerHTML(ctx context.Context, selector string) (string, error) {
	return playwrightFrame{frame: s.page.MainFrame()}.InnerHTML(ctx, selector)
}

func (s *PlaywrightSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	return playwrightFrame{frame: s.page.MainFrame()}.QueryAll(ctx, selector)
}

func (s *PlaywrightSession) Evaluate(ctx context.Context, script string) error {
	return playwrightFrame{frame: s.page.MainFrame()}.Evaluate(ctx, script)
}

type playwrightFrame struct {
	frame playwright.Frame
}

func (f playwrightFrame) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := f.frame.WaitForSelector(selector, playwright.FrameWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return wrapTimeout(err)
}

func (f playwrightFrame) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapTimeout(f.frame.Fill(selector, value))
}

func (f playwrightFrame) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapTimeout(f.frame.Click(selector))
}

func (f playwrightFrame) IsVisible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.frame.IsVisible(selector)
}

func (f playwrightFrame) GetAttribute(ctx context.Context, selector, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, err := f.frame.GetAttribute(selector, name)
	return value, wrapTimeout(err)
}

func (f playwrightFrame) InnerHTML(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := f.frame.InnerHTML(selector)
	return html, wrapTimeout(err)
}

func (f playwrightFrame) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := f.frame.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, len(handles))
	for i, h := range handles {
		elements[i] = playwrightElement{handle: h}
	}
	return elements, nil
}

func (f playwrightFrame) Evaluate(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := f.frame.Evaluate(script)
	return err
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e playwrightElement) InnerText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.handle.InnerText()
}

func (e playwrightElement) GetAttribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.handle.GetAttribute(name)
}

// wrapTimeout maps playwright's timeout failures onto ErrTimeout so stages
// can classify expired waits without knowing the engine.
func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
