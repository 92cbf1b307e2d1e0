package browsertest

import (
	"context"
	"sync"

	"github.com/feedbackhq/ui-contract-tests/browser"
)

// Driver is a fake browser.Driver that hands out fake sessions.
type Driver struct {
	// Setup, if set, prepares each new session before it is returned, for instance by adding the
	// elements of the application's first page.
	Setup func(s *Session, opts browser.SessionOptions)

	// Err, if set, is returned by NewSession.
	Err error

	lock     sync.Mutex
	sessions []*Session
	options  []browser.SessionOptions
	closed   bool
}

func (d *Driver) NewSession(ctx context.Context, opts browser.SessionOptions) (browser.Session, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := NewSession()
	if opts.Viewport.Width > 0 {
		s.viewport = opts.Viewport
	}
	if d.Setup != nil {
		d.Setup(s, opts)
	}
	d.lock.Lock()
	d.sessions = append(d.sessions, s)
	d.options = append(d.options, opts)
	d.lock.Unlock()
	return s, nil
}

// Sessions returns every session created so far.
func (d *Driver) Sessions() []*Session {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]*Session(nil), d.sessions...)
}

// SessionOptions returns the options passed to each NewSession call.
func (d *Driver) SessionOptions() []browser.SessionOptions {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]browser.SessionOptions(nil), d.options...)
}

func (d *Driver) Close() error {
	d.lock.Lock()
	d.closed = true
	d.lock.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.closed
}
