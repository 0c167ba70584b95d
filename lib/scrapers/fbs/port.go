package fbs

import (
	"context"
	"time"
)

// The scraper drives the booking site exclusively through this port; it
// never touches a browser engine directly. The playwright adapter is the
// production implementation, tests script their own.

// Element is a handle to a single DOM node inside a frame.
type Element interface {
	InnerText(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, error)
}

// Frame is a browsing context that can be queried and interacted with.
// The top-level page is itself a Frame.
type Frame interface {
	// WaitForSelector blocks until the selector matches or the bound
	// expires. Expiry must surface as an error wrapping ErrTimeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	IsVisible(ctx context.Context, selector string) (bool, error)
	GetAttribute(ctx context.Context, selector, name string) (string, error)
	InnerHTML(ctx context.Context, selector string) (string, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	Evaluate(ctx context.Context, script string) error
}

// Page is the root automation surface for one exclusively-owned browser
// session. Close must be safe to call regardless of what state the page is
// in; the session machine calls it unconditionally on the way out.
type Page interface {
	Frame

	Navigate(ctx context.Context, url string) error
	// ResolveFrame finds a nested browsing context by its frame name.
	ResolveFrame(name string) (Frame, error)
	// WaitForLoadIdle blocks until the page reaches network idle.
	WaitForLoadIdle(ctx context.Context, timeout time.Duration) error
	Screenshot(ctx context.Context, path string) error
	Close() error
}
